package graph

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embarkmaps/regiond/geo"
)

func testGraph() *Graph {
	g := &Graph{
		Nodes: []Node{
			{Pos: geo.Point{Lat: 39.90, Lng: 116.40}},
			{Pos: geo.Point{Lat: 39.91, Lng: 116.40}},
			{Pos: geo.Point{Lat: 39.91, Lng: 116.41}},
		},
		Edges: []Edge{
			{From: 0, To: 1, LengthM: 1150, SpeedMPS: 14, Oneway: false,
				Geometry: []geo.Point{{Lat: 39.90, Lng: 116.40}, {Lat: 39.91, Lng: 116.40}}},
			{From: 1, To: 2, LengthM: 860, SpeedMPS: 8, Oneway: true},
		},
	}
	g.Snap = NewSnapIndex(g.Nodes, DefaultCellSizeDeg)
	return g
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	g := testGraph()
	data, err := Encode(g)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, g.Nodes, got.Nodes)
	assert.Equal(t, g.Edges, got.Edges)
	assert.Equal(t, 14.0, got.MaxSpeed())

	min, max := got.Bounds()
	assert.Equal(t, 39.90, min.Lat)
	assert.Equal(t, 116.40, min.Lng)
	assert.Equal(t, 39.91, max.Lat)
	assert.Equal(t, 116.41, max.Lng)
}

func TestWriteFileLoad(t *testing.T) {
	g := testGraph()
	path := filepath.Join(t.TempDir(), "region.rgn")
	require.NoError(t, WriteFile(path, g))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, got.NodeCount())
	assert.Equal(t, 2, got.EdgeCount())

	id, ok := got.Snap.Nearest(geo.Point{Lat: 39.9101, Lng: 116.4101}, got.Nodes, 100)
	require.True(t, ok)
	assert.Equal(t, int32(2), id)
}

func TestDecodeBadMagic(t *testing.T) {
	data, err := Encode(testGraph())
	require.NoError(t, err)
	data[0] = 'X'

	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestDecodeBadVersion(t *testing.T) {
	data, err := Encode(testGraph())
	require.NoError(t, err)
	data[4] = 9

	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestDecodeTruncated(t *testing.T) {
	data, err := Encode(testGraph())
	require.NoError(t, err)

	// Cut anywhere past the header and decoding must fail cleanly.
	for _, n := range []int{5, 12, 40, len(data) / 2, len(data) - 1} {
		_, err := Decode(data[:n])
		assert.Error(t, err, "truncated at %d", n)
	}
}

func TestDecodeTrailingBytes(t *testing.T) {
	data, err := Encode(testGraph())
	require.NoError(t, err)

	_, err = Decode(append(data, 0))
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestDecodeRejectsBadEdges(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(g *Graph)
	}{
		{"dangling endpoint", func(g *Graph) { g.Edges[0].To = 99 }},
		{"negative length", func(g *Graph) { g.Edges[0].LengthM = -1 }},
		{"zero speed", func(g *Graph) { g.Edges[1].SpeedMPS = 0 }},
		// An accepted underdeclared length would make the shortest-profile
		// heuristic inadmissible and routes non-shortest.
		{"length below endpoint distance", func(g *Graph) { g.Edges[0].LengthM = 50 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := testGraph()
			c.mutate(g)
			data, err := Encode(g)
			require.NoError(t, err)
			_, err = Decode(data)
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.rgn"))
	assert.Error(t, err)
}
