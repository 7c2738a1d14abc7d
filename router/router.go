// Package router computes shortest and fastest paths over a loaded region
// graph. A Router is read-only after New and safe for concurrent queries.
package router

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/embarkmaps/regiond/geo"
	"github.com/embarkmaps/regiond/graph"
	"github.com/embarkmaps/regiond/router/algo"
)

// DefaultSnapRadiusM is the maximum distance between a query coordinate and
// the node it snaps to.
const DefaultSnapRadiusM = 100.0

// EdgeRef is the search-graph edge attribute: the region edge id plus
// whether the edge is traversed against its stored direction.
type EdgeRef struct {
	ID       int32
	Reversed bool
}

// Router owns one search graph per cost profile, both built over the same
// node ids as the region graph.
type Router struct {
	g           *graph.Graph
	fastest     *algo.SearchGraph[int32, EdgeRef]
	shortest    *algo.SearchGraph[int32, EdgeRef]
	snapRadiusM float64
}

// New builds the per-profile search graphs from a loaded region graph.
func New(g *graph.Graph, snapRadiusM float64) *Router {
	if snapRadiusM <= 0 {
		snapRadiusM = DefaultSnapRadiusM
	}
	maxSpeed := g.MaxSpeed()
	if maxSpeed <= 0 {
		maxSpeed = 1
	}
	// Heuristics stay admissible: straight-line distance never exceeds the
	// path length, and distance at the graph's top speed never exceeds the
	// real travel time.
	fastest := algo.NewSearchGraph[int32, EdgeRef](func(a, b geo.Point) float64 {
		return geo.Distance(a, b) / maxSpeed
	})
	shortest := algo.NewSearchGraph[int32, EdgeRef](geo.Distance)

	for i, n := range g.Nodes {
		fastest.InitNode(n.Pos, int32(i), false)
		shortest.InitNode(n.Pos, int32(i), false)
	}
	for id, e := range g.Edges {
		ref := EdgeRef{ID: int32(id)}
		t := e.LengthM / e.SpeedMPS
		fastest.InitEdge(int(e.From), int(e.To), t, ref)
		shortest.InitEdge(int(e.From), int(e.To), e.LengthM, ref)
		if !e.Oneway {
			rev := EdgeRef{ID: int32(id), Reversed: true}
			fastest.InitEdge(int(e.To), int(e.From), t, rev)
			shortest.InitEdge(int(e.To), int(e.From), e.LengthM, rev)
		}
	}
	fastest.Freeze()
	shortest.Freeze()

	log.Infof("search graphs ready: %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	return &Router{g: g, fastest: fastest, shortest: shortest, snapRadiusM: snapRadiusM}
}

// SnapRadiusM returns the configured snap radius.
func (r *Router) SnapRadiusM() float64 { return r.snapRadiusM }

// Query is one route computation request.
type Query struct {
	Origin      geo.Point
	Destination geo.Point
	Waypoints   []geo.Point
	Profile     Profile
}

// ResultEdge is one traversed segment, oriented in travel direction.
type ResultEdge struct {
	ID      int32   `json:"id"`
	From    int32   `json:"from"`
	To      int32   `json:"to"`
	LengthM float64 `json:"length_m"`
}

// Result is an ordered edge sequence forming a contiguous path.
type Result struct {
	Edges []ResultEdge `json:"edges"`
	// Cost is in profile units: seconds for fastest, meters for shortest.
	Cost      float64     `json:"cost"`
	DistanceM float64     `json:"distance_m"`
	Geometry  []geo.Point `json:"geometry"`
	Profile   Profile     `json:"profile"`
}

func (r *Router) searchGraph(p Profile) *algo.SearchGraph[int32, EdgeRef] {
	if p == ProfileShortest {
		return r.shortest
	}
	return r.fastest
}

// Snap maps a coordinate to the nearest graph node within the snap radius.
func (r *Router) Snap(p geo.Point) (int32, error) {
	if !p.Valid() {
		return 0, fmt.Errorf("%w: invalid coordinate (%v,%v)", ErrBadQuery, p.Lat, p.Lng)
	}
	id, ok := r.g.Snap.Nearest(p, r.g.Nodes, r.snapRadiusM)
	if !ok {
		return 0, fmt.Errorf("%w: (%v,%v)", ErrNoNearbyRoad, p.Lat, p.Lng)
	}
	return id, nil
}

// Route snaps the query coordinates and searches one leg per consecutive
// pair, concatenating the legs into a single result. A query whose origin
// and destination snap to the same node returns an empty zero-cost result
// without searching.
func (r *Router) Route(q Query) (res *Result, err error) {
	defer func() {
		if e := recover(); e != nil {
			res = nil
			err = fmt.Errorf("panic: Route %v with input %+v", e, q)
			log.Errorln(err)
		}
	}()

	points := make([]geo.Point, 0, len(q.Waypoints)+2)
	points = append(points, q.Origin)
	points = append(points, q.Waypoints...)
	points = append(points, q.Destination)

	nodes := make([]int32, len(points))
	for i, p := range points {
		id, err := r.Snap(p)
		if err != nil {
			return nil, err
		}
		nodes[i] = id
	}

	sg := r.searchGraph(q.Profile)
	res = &Result{Edges: []ResultEdge{}, Geometry: []geo.Point{}, Profile: q.Profile}
	for i := 0; i+1 < len(nodes); i++ {
		if nodes[i] == nodes[i+1] {
			continue
		}
		path, cost := sg.ShortestPath(int(nodes[i]), int(nodes[i+1]))
		if math.IsInf(cost, 0) {
			log.Debugf("routing failed, no path between node %d and node %d", nodes[i], nodes[i+1])
			return nil, fmt.Errorf("%w: leg %d", ErrNoRoute, i)
		}
		r.appendLeg(res, path, cost)
	}
	if len(res.Geometry) == 0 {
		// Zero-length route: geometry degenerates to the snapped origin.
		res.Geometry = append(res.Geometry, r.g.Nodes[nodes[0]].Pos)
	}
	return res, nil
}

func (r *Router) appendLeg(res *Result, path []algo.PathItem[int32, EdgeRef], cost float64) {
	res.Cost += cost
	for _, item := range path[:len(path)-1] {
		e := r.g.Edges[item.EdgeAttr.ID]
		from, to := e.From, e.To
		geom := e.Geometry
		if len(geom) == 0 {
			geom = []geo.Point{r.g.Nodes[e.From].Pos, r.g.Nodes[e.To].Pos}
		}
		if item.EdgeAttr.Reversed {
			from, to = to, from
			geom = lo.Reverse(append([]geo.Point(nil), geom...))
		}
		res.Edges = append(res.Edges, ResultEdge{
			ID: item.EdgeAttr.ID, From: from, To: to, LengthM: e.LengthM,
		})
		res.DistanceM += e.LengthM
		for j, p := range geom {
			if j == 0 && len(res.Geometry) > 0 {
				continue // joint point shared with the previous edge
			}
			res.Geometry = append(res.Geometry, p)
		}
	}
}
