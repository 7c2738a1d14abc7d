package graph

import (
	"math"
	"sort"

	"github.com/embarkmaps/regiond/geo"
)

// metersPerDegLat is the approximate length of one degree of latitude.
const metersPerDegLat = 111320.0

// DefaultCellSizeDeg is the grid cell edge used by the region builder,
// roughly 250 m of latitude.
const DefaultCellSizeDeg = 0.0025

// SnapIndex is a uniform grid over the region's bounding box mapping
// arbitrary coordinates to nearby graph nodes. Built once, read-only.
type SnapIndex struct {
	minLat, minLng float64
	maxLat, maxLng float64
	// cellSize is the cell edge length in degrees.
	cellSize   float64
	cols, rows int
	// cells holds node ids per cell, row-major, each list sorted ascending
	// so nearest-node scans are deterministic.
	cells [][]int32
}

// NewSnapIndex builds a grid index over the given nodes.
func NewSnapIndex(nodes []Node, cellSizeDeg float64) *SnapIndex {
	s := &SnapIndex{
		minLat: math.Inf(1), minLng: math.Inf(1),
		maxLat: math.Inf(-1), maxLng: math.Inf(-1),
		cellSize: cellSizeDeg,
	}
	for _, n := range nodes {
		s.minLat = math.Min(s.minLat, n.Pos.Lat)
		s.minLng = math.Min(s.minLng, n.Pos.Lng)
		s.maxLat = math.Max(s.maxLat, n.Pos.Lat)
		s.maxLng = math.Max(s.maxLng, n.Pos.Lng)
	}
	if len(nodes) == 0 {
		s.minLat, s.minLng, s.maxLat, s.maxLng = 0, 0, 0, 0
	}
	s.cols = int((s.maxLng-s.minLng)/cellSizeDeg) + 1
	s.rows = int((s.maxLat-s.minLat)/cellSizeDeg) + 1
	s.cells = make([][]int32, s.cols*s.rows)
	for i, n := range nodes {
		c := s.cellIndex(n.Pos)
		s.cells[c] = append(s.cells[c], int32(i))
	}
	for _, c := range s.cells {
		sort.Slice(c, func(i, j int) bool { return c[i] < c[j] })
	}
	return s
}

func (s *SnapIndex) cellCoords(p geo.Point) (cx, cy int) {
	cx = int((p.Lng - s.minLng) / s.cellSize)
	cy = int((p.Lat - s.minLat) / s.cellSize)
	if cx < 0 {
		cx = 0
	} else if cx >= s.cols {
		cx = s.cols - 1
	}
	if cy < 0 {
		cy = 0
	} else if cy >= s.rows {
		cy = s.rows - 1
	}
	return
}

func (s *SnapIndex) cellIndex(p geo.Point) int {
	cx, cy := s.cellCoords(p)
	return cy*s.cols + cx
}

// minMetersPerDeg is a conservative lower bound for meters covered by one
// degree at any latitude inside the region (longitude shrinks with cos).
func (s *SnapIndex) minMetersPerDeg() float64 {
	absLat := math.Max(math.Abs(s.minLat), math.Abs(s.maxLat))
	m := metersPerDegLat * math.Cos(absLat*math.Pi/180)
	if m < 1 {
		m = 1
	}
	return m
}

// Nearest returns the id of the node closest to p, expanding the search ring
// by ring. Returns false if no node lies within maxRadiusM.
func (s *SnapIndex) Nearest(p geo.Point, nodes []Node, maxRadiusM float64) (int32, bool) {
	if len(nodes) == 0 {
		return 0, false
	}
	cx, cy := s.cellCoords(p)
	ringMeters := s.cellSize * s.minMetersPerDeg()
	maxRing := int(maxRadiusM/ringMeters) + 2

	best := int32(-1)
	bestDist := math.Inf(1)
	for r := 0; r <= maxRing; r++ {
		// A node in a ring-r cell is at least (r-1) cell widths away, so
		// once a candidate is closer than that the scan is done.
		if best >= 0 && float64(r-1)*ringMeters > bestDist {
			break
		}
		s.scanRing(cx, cy, r, func(id int32) {
			if d := geo.Distance(p, nodes[id].Pos); d < bestDist {
				best = id
				bestDist = d
			}
		})
	}
	if best < 0 || bestDist > maxRadiusM {
		return 0, false
	}
	return best, true
}

// scanRing visits every node in the cells at Chebyshev distance r from the
// center cell.
func (s *SnapIndex) scanRing(cx, cy, r int, visit func(id int32)) {
	for y := cy - r; y <= cy+r; y++ {
		if y < 0 || y >= s.rows {
			continue
		}
		for x := cx - r; x <= cx+r; x++ {
			if x < 0 || x >= s.cols {
				continue
			}
			if r > 0 && x != cx-r && x != cx+r && y != cy-r && y != cy+r {
				continue // interior cell, already visited in a smaller ring
			}
			for _, id := range s.cells[y*s.cols+x] {
				visit(id)
			}
		}
	}
}
