package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embarkmaps/regiond/geo"
)

func gridNodes() []Node {
	// 3x3 grid of nodes spaced ~0.005 deg (~550 m) apart.
	var nodes []Node
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			nodes = append(nodes, Node{Pos: geo.Point{
				Lat: 40.0 + float64(i)*0.005,
				Lng: 116.0 + float64(j)*0.005,
			}})
		}
	}
	return nodes
}

func TestSnapNearest(t *testing.T) {
	nodes := gridNodes()
	s := NewSnapIndex(nodes, DefaultCellSizeDeg)

	// Right on top of node 4 (center of the grid).
	id, ok := s.Nearest(geo.Point{Lat: 40.005, Lng: 116.005}, nodes, 100)
	require.True(t, ok)
	assert.Equal(t, int32(4), id)

	// Slightly off the corner node still snaps to it.
	id, ok = s.Nearest(geo.Point{Lat: 40.0102, Lng: 116.0101}, nodes, 100)
	require.True(t, ok)
	assert.Equal(t, int32(8), id)
}

func TestSnapOutsideBounds(t *testing.T) {
	nodes := gridNodes()
	s := NewSnapIndex(nodes, DefaultCellSizeDeg)

	// Just outside the bounding box but within radius of the edge node.
	id, ok := s.Nearest(geo.Point{Lat: 39.9998, Lng: 115.9998}, nodes, 100)
	require.True(t, ok)
	assert.Equal(t, int32(0), id)
}

func TestSnapRadiusMiss(t *testing.T) {
	nodes := gridNodes()
	s := NewSnapIndex(nodes, DefaultCellSizeDeg)

	// ~1.1 km from the nearest node, beyond a 100 m radius.
	_, ok := s.Nearest(geo.Point{Lat: 40.02, Lng: 116.005}, nodes, 100)
	assert.False(t, ok)

	// The same point is found once the radius allows it.
	id, ok := s.Nearest(geo.Point{Lat: 40.02, Lng: 116.005}, nodes, 2000)
	require.True(t, ok)
	assert.Equal(t, int32(7), id)
}

func TestSnapEmptyIndex(t *testing.T) {
	s := NewSnapIndex(nil, DefaultCellSizeDeg)
	_, ok := s.Nearest(geo.Point{Lat: 40, Lng: 116}, nil, 100)
	assert.False(t, ok)
}
