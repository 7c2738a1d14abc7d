// Package graph loads a pre-built road network for one geographic region
// from its binary region file and holds it immutable in memory.
//
// A Graph is read-only after Load returns and is therefore safe for
// concurrent use by any number of routing workers without locking.
package graph

import "github.com/embarkmaps/regiond/geo"

// Node is an intersection or waypoint of the road network.
type Node struct {
	Pos geo.Point
}

// Edge is a directed road segment. A non-oneway edge is stored once; the
// reverse direction is materialized by the routing engine when it builds its
// search graphs.
type Edge struct {
	From, To int32
	// LengthM is the segment length in meters.
	LengthM float64
	// SpeedMPS is the free-flow speed in m/s used by time-based cost
	// profiles. Always positive after a successful load.
	SpeedMPS float64
	Oneway   bool
	// Geometry is the segment polyline, first point at From, last at To.
	Geometry []geo.Point
}

// Graph is the immutable region road network plus its snap index.
type Graph struct {
	Nodes []Node
	Edges []Edge
	Snap  *SnapIndex

	maxSpeed float64
}

func (g *Graph) NodeCount() int { return len(g.Nodes) }
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// MaxSpeed returns the highest edge speed in m/s. It bounds the admissible
// time heuristic of the routing engine.
func (g *Graph) MaxSpeed() float64 { return g.maxSpeed }

// Bounds returns the bounding box of the region as (min, max) corners.
func (g *Graph) Bounds() (geo.Point, geo.Point) {
	return geo.Point{Lat: g.Snap.minLat, Lng: g.Snap.minLng},
		geo.Point{Lat: g.Snap.maxLat, Lng: g.Snap.maxLng}
}
