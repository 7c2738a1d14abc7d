package regiond

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/embarkmaps/regiond/geo"
	"github.com/embarkmaps/regiond/router"
)

func (s *Server) buildEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	// A panicking worker answers 500 for its own request only; shared
	// state is never mutated by request handlers.
	e.Use(gin.Recovery())
	e.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"*"},
	}))
	e.Use(s.trackRequest)

	api := e.Group("/api/v1")
	api.POST("/route", s.handleRoute)
	api.GET("/tiles/:z/:x/:y", s.handleTile)
	api.GET("/health", s.handleHealth)
	return e
}

// trackRequest rejects requests once draining begins and maintains the
// in-flight bookkeeping used by graceful shutdown.
func (s *Server) trackRequest(c *gin.Context) {
	if s.draining.Load() {
		writeError(c, http.StatusServiceUnavailable, "server is draining")
		requestsTotal.WithLabelValues(requestKind(c.FullPath()), "503").Inc()
		return
	}
	reqID := uuid.NewString()
	s.active.Inc()
	activeRequests.Inc()
	start := time.Now()
	defer func() {
		s.active.Dec()
		activeRequests.Dec()
		status := c.Writer.Status()
		requestsTotal.WithLabelValues(requestKind(c.FullPath()), strconv.Itoa(status)).Inc()
		log.Debugf("[%s] %s %s -> %d (%v)", reqID, c.Request.Method, c.Request.URL.Path, status, time.Since(start))
	}()
	c.Next()
}

func requestKind(fullPath string) string {
	switch {
	case strings.HasPrefix(fullPath, "/api/v1/route"):
		return "route"
	case strings.HasPrefix(fullPath, "/api/v1/tiles"):
		return "tile"
	case strings.HasPrefix(fullPath, "/api/v1/health"):
		return "health"
	default:
		return "other"
	}
}

// writeError answers with the structured error envelope; malformed requests
// get a response, never a silently closed connection.
func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":   http.StatusText(status),
		"message": message,
	})
}

type routeRequest struct {
	Origin      geo.Point   `json:"origin"`
	Destination geo.Point   `json:"destination"`
	Waypoints   []geo.Point `json:"waypoints"`
	Profile     string      `json:"profile"`
}

func (s *Server) handleRoute(c *gin.Context) {
	rt := s.router.Load()
	if rt == nil {
		writeError(c, http.StatusServiceUnavailable, "no region loaded")
		return
	}
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	profile, err := router.ParseProfile(req.Profile)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	res, err := rt.Route(router.Query{
		Origin:      req.Origin,
		Destination: req.Destination,
		Waypoints:   req.Waypoints,
		Profile:     profile,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, res)
	case errors.Is(err, router.ErrBadQuery):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, router.ErrNoNearbyRoad), errors.Is(err, router.ErrNoRoute):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		log.Errorf("route: %v", err)
		writeError(c, http.StatusInternalServerError, "route computation failed")
	}
}

func (s *Server) handleTile(c *gin.Context) {
	tiles := s.tiles.Load()
	if tiles == nil {
		writeError(c, http.StatusNotFound, "tile proxy not configured")
		return
	}
	z, errZ := strconv.Atoi(c.Param("z"))
	x, errX := strconv.Atoi(c.Param("x"))
	y, errY := strconv.Atoi(c.Param("y"))
	if errZ != nil || errX != nil || errY != nil || z < 0 || x < 0 || y < 0 {
		writeError(c, http.StatusBadRequest, "tile coordinates must be non-negative integers")
		return
	}
	tile, err := tiles.FetchTile(c.Request.Context(), z, x, y)
	if err != nil {
		// Upstream failures surface as bad gateway; the message never
		// includes upstream details beyond the error class.
		writeError(c, http.StatusBadGateway, err.Error())
		return
	}
	ct := tile.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Data(http.StatusOK, ct, tile.Data)
}

func (s *Server) handleHealth(c *gin.Context) {
	g := s.g.Load()
	if g == nil {
		writeError(c, http.StatusServiceUnavailable, "no region loaded")
		return
	}
	min, max := g.Bounds()
	c.JSON(http.StatusOK, gin.H{
		"status": s.State().String(),
		"nodes":  g.NodeCount(),
		"edges":  g.EdgeCount(),
		"bounds": gin.H{"min": min, "max": max},
	})
}
