package graph

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/embarkmaps/regiond/geo"
)

// Region file layout (little-endian):
//
//	magic "RGN1" | version uint16 | flags uint16
//	nodeCount uint32 | edgeCount uint32
//	node table:  nodeCount x { lat, lng float64 }
//	edge table:  edgeCount x { from, to uint32, lengthM, speedMPS float64,
//	                           oneway uint8, geomCount uint16, geom points }
//	snap index:  bbox 4 x float64 | cellSize float64 | cols, rows uint32 |
//	             cols*rows x { count uint32, count x nodeID uint32 }
var magic = [4]byte{'R', 'G', 'N', '1'}

// Version is the current region file format version.
const Version uint16 = 1

// maxGeomPoints bounds a single edge polyline; anything larger is a
// malformed file rather than a real road segment.
const maxGeomPoints = 1 << 14

// edgeLengthSlackM is the tolerance when checking an edge's declared length
// against the straight-line distance of its endpoints. Inputs with lengths
// rounded to whole meters may undershoot the true distance slightly.
const edgeLengthSlackM = 1.0

// Load reads, validates and materializes a region file. It is all-or-nothing:
// on any error no Graph is returned.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read region file %s: %w", path, err)
	}
	g, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load region file %s: %w", path, err)
	}
	log.Infof("loaded region %s: %d nodes, %d edges", path, g.NodeCount(), g.EdgeCount())
	return g, nil
}

// cursor walks the raw file bytes with truncation checks.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) need(n int) error {
	if c.off+n > len(c.buf) {
		return ErrTruncated
	}
	return nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) u8() (uint8, error) {
	b, err := c.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) u16() (uint16, error) {
	b, err := c.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) f64() (float64, error) {
	b, err := c.bytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func (c *cursor) point() (geo.Point, error) {
	lat, err := c.f64()
	if err != nil {
		return geo.Point{}, err
	}
	lng, err := c.f64()
	if err != nil {
		return geo.Point{}, err
	}
	return geo.Point{Lat: lat, Lng: lng}, nil
}

// Decode parses region file bytes into an immutable Graph.
func Decode(data []byte) (*Graph, error) {
	c := &cursor{buf: data}

	head, err := c.bytes(4)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(head, magic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidFormat)
	}
	version, err := c.u16()
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, version)
	}
	flags, err := c.u16()
	if err != nil {
		return nil, err
	}
	if flags != 0 {
		return nil, fmt.Errorf("%w: unknown flags %#x", ErrInvalidFormat, flags)
	}

	nodeCount, err := c.u32()
	if err != nil {
		return nil, err
	}
	edgeCount, err := c.u32()
	if err != nil {
		return nil, err
	}
	// The node table alone needs 16 bytes per node; reject declared sizes
	// that cannot fit before allocating.
	if int(nodeCount) > (len(data)-c.off)/16 {
		return nil, fmt.Errorf("%w: %d nodes declared", ErrTruncated, nodeCount)
	}

	g := &Graph{Nodes: make([]Node, 0, nodeCount), Edges: make([]Edge, 0, edgeCount)}
	for i := uint32(0); i < nodeCount; i++ {
		p, err := c.point()
		if err != nil {
			return nil, err
		}
		if !p.Valid() {
			return nil, fmt.Errorf("%w: node %d has invalid coordinate", ErrInvalidFormat, i)
		}
		g.Nodes = append(g.Nodes, Node{Pos: p})
	}

	for i := uint32(0); i < edgeCount; i++ {
		e, err := decodeEdge(c, g.Nodes)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		g.Edges = append(g.Edges, e)
		if e.SpeedMPS > g.maxSpeed {
			g.maxSpeed = e.SpeedMPS
		}
	}

	snap, err := decodeSnapIndex(c, nodeCount)
	if err != nil {
		return nil, err
	}
	g.Snap = snap
	if c.off != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidFormat, len(data)-c.off)
	}
	return g, nil
}

// decodeEdge reads one edge record, rejecting anything the search must never
// see: dangling endpoints, non-positive speeds, negative, non-finite or
// underdeclared lengths.
func decodeEdge(c *cursor, nodes []Node) (Edge, error) {
	nodeCount := uint32(len(nodes))
	var e Edge
	from, err := c.u32()
	if err != nil {
		return e, err
	}
	to, err := c.u32()
	if err != nil {
		return e, err
	}
	if from >= nodeCount || to >= nodeCount {
		return e, fmt.Errorf("%w: endpoint out of range", ErrInvalidFormat)
	}
	length, err := c.f64()
	if err != nil {
		return e, err
	}
	speed, err := c.f64()
	if err != nil {
		return e, err
	}
	if length < 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return e, fmt.Errorf("%w: bad length %v", ErrInvalidFormat, length)
	}
	// A length below the straight-line distance of the endpoints would make
	// the search's distance heuristic overestimate, so such edges are
	// malformed data, not usable roads.
	if minLen := geo.Distance(nodes[from].Pos, nodes[to].Pos); length+edgeLengthSlackM < minLen {
		return e, fmt.Errorf("%w: length %v below endpoint distance %v", ErrInvalidFormat, length, minLen)
	}
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return e, fmt.Errorf("%w: bad speed %v", ErrInvalidFormat, speed)
	}
	oneway, err := c.u8()
	if err != nil {
		return e, err
	}
	if oneway > 1 {
		return e, fmt.Errorf("%w: bad oneway flag %d", ErrInvalidFormat, oneway)
	}
	geomCount, err := c.u16()
	if err != nil {
		return e, err
	}
	if geomCount > maxGeomPoints {
		return e, fmt.Errorf("%w: %d geometry points", ErrInvalidFormat, geomCount)
	}
	var geom []geo.Point
	if geomCount > 0 {
		geom = make([]geo.Point, 0, geomCount)
	}
	for j := uint16(0); j < geomCount; j++ {
		p, err := c.point()
		if err != nil {
			return e, err
		}
		if !p.Valid() {
			return e, fmt.Errorf("%w: invalid geometry point", ErrInvalidFormat)
		}
		geom = append(geom, p)
	}
	return Edge{
		From: int32(from), To: int32(to),
		LengthM: length, SpeedMPS: speed,
		Oneway:   oneway == 1,
		Geometry: geom,
	}, nil
}

func decodeSnapIndex(c *cursor, nodeCount uint32) (*SnapIndex, error) {
	s := &SnapIndex{}
	var err error
	if s.minLat, err = c.f64(); err != nil {
		return nil, err
	}
	if s.minLng, err = c.f64(); err != nil {
		return nil, err
	}
	if s.maxLat, err = c.f64(); err != nil {
		return nil, err
	}
	if s.maxLng, err = c.f64(); err != nil {
		return nil, err
	}
	if s.cellSize, err = c.f64(); err != nil {
		return nil, err
	}
	if s.cellSize <= 0 || math.IsNaN(s.cellSize) {
		return nil, fmt.Errorf("%w: bad snap cell size %v", ErrInvalidFormat, s.cellSize)
	}
	cols, err := c.u32()
	if err != nil {
		return nil, err
	}
	rows, err := c.u32()
	if err != nil {
		return nil, err
	}
	cellCount := int(cols) * int(rows)
	if cols == 0 || rows == 0 || cellCount > (len(c.buf)-c.off)/4+1 {
		return nil, fmt.Errorf("%w: snap grid %dx%d", ErrTruncated, cols, rows)
	}
	s.cols, s.rows = int(cols), int(rows)
	s.cells = make([][]int32, cellCount)
	for i := range s.cells {
		count, err := c.u32()
		if err != nil {
			return nil, err
		}
		if count > nodeCount {
			return nil, fmt.Errorf("%w: snap cell %d declares %d nodes", ErrTruncated, i, count)
		}
		ids := make([]int32, 0, count)
		for j := uint32(0); j < count; j++ {
			id, err := c.u32()
			if err != nil {
				return nil, err
			}
			if id >= nodeCount {
				return nil, fmt.Errorf("%w: snap cell references node %d", ErrInvalidFormat, id)
			}
			ids = append(ids, int32(id))
		}
		s.cells[i] = ids
	}
	return s, nil
}

// Encode serializes a Graph into region file bytes. The Graph's snap index
// must be set (the builder constructs it with NewSnapIndex).
func Encode(g *Graph) ([]byte, error) {
	if g.Snap == nil {
		return nil, fmt.Errorf("%w: graph has no snap index", ErrInvalidFormat)
	}
	var buf bytes.Buffer
	buf.Write(magic[:])
	le := binary.LittleEndian
	w := func(v any) { binary.Write(&buf, le, v) }
	w(Version)
	w(uint16(0)) // flags
	w(uint32(len(g.Nodes)))
	w(uint32(len(g.Edges)))
	for _, n := range g.Nodes {
		w(n.Pos.Lat)
		w(n.Pos.Lng)
	}
	for _, e := range g.Edges {
		if len(e.Geometry) > maxGeomPoints {
			return nil, fmt.Errorf("%w: edge polyline too long", ErrInvalidFormat)
		}
		w(uint32(e.From))
		w(uint32(e.To))
		w(e.LengthM)
		w(e.SpeedMPS)
		if e.Oneway {
			w(uint8(1))
		} else {
			w(uint8(0))
		}
		w(uint16(len(e.Geometry)))
		for _, p := range e.Geometry {
			w(p.Lat)
			w(p.Lng)
		}
	}
	s := g.Snap
	w(s.minLat)
	w(s.minLng)
	w(s.maxLat)
	w(s.maxLng)
	w(s.cellSize)
	w(uint32(s.cols))
	w(uint32(s.rows))
	for _, cell := range s.cells {
		w(uint32(len(cell)))
		for _, id := range cell {
			w(uint32(id))
		}
	}
	return buf.Bytes(), nil
}

// WriteFile encodes g and writes it to path.
func WriteFile(path string, g *Graph) error {
	data, err := Encode(g)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write region file %s: %w", path, err)
	}
	return nil
}
