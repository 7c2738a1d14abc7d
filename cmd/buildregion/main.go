// buildregion compiles a road network into the binary region file served by
// regiond. The input is either a JSON network file or a MongoDB collection
// holding node and edge documents.
package main

import (
	"flag"
	"math"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"

	"github.com/embarkmaps/regiond/geo"
	"github.com/embarkmaps/regiond/graph"
)

var (
	input    = flag.String("input", "", "network input: JSON file path or {db}.{col}")
	mongoURI = flag.String("mongo_uri", "mongodb://localhost:27017/", "mongo db uri")
	output   = flag.String("output", "region.rgn", "output region file path")
	cellSize = flag.Float64("cell-size", graph.DefaultCellSizeDeg, "snap grid cell edge in degrees")
	logLevel = flag.String("log-level", "info", "log level [debug, info, warn, error, fatal, panic]")

	LOG_LEVELS = map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"fatal": logrus.FatalLevel,
		"panic": logrus.PanicLevel,
	}
)

var log = logrus.WithField("module", "main")

// defaultSpeedMPS is assumed for edges whose input omits a speed (50 km/h).
const defaultSpeedMPS = 50.0 / 3.6

func main() {
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	flag.Parse()
	if level, ok := LOG_LEVELS[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		logrus.Fatalf("invalid log level: %s", *logLevel)
	}
	if *input == "" {
		logrus.Fatal("missing -input")
	}

	path, err := NewPath(*input)
	if err != nil {
		log.Fatalf("bad input: %v", err)
	}
	var net *network
	if path.IsFile() {
		net, err = loadNetworkFile(path.File)
	} else {
		net, err = loadNetworkMongo(*mongoURI, path)
	}
	if err != nil {
		log.Fatalf("failed to load network %s: %v", path, err)
	}
	log.Infof("network %s: %d nodes, %d edges", path, len(net.Nodes), len(net.Edges))

	g := build(net, *cellSize)
	if err := graph.WriteFile(*output, g); err != nil {
		log.Fatalf("failed to write %s: %v", *output, err)
	}
	min, max := g.Bounds()
	log.Infof("wrote %s: %d nodes, %d edges, bounds (%.5f, %.5f)-(%.5f, %.5f)",
		*output, g.NodeCount(), g.EdgeCount(), min.Lat, min.Lng, max.Lat, max.Lng)
}

// build materializes the in-memory graph, filling in edge lengths from the
// polyline (or endpoint distance) when the input omits them.
func build(net *network, cellSizeDeg float64) *graph.Graph {
	g := &graph.Graph{
		Nodes: make([]graph.Node, 0, len(net.Nodes)),
		Edges: make([]graph.Edge, 0, len(net.Edges)),
	}
	for i, n := range net.Nodes {
		p := geo.Point{Lat: n.Lat, Lng: n.Lng}
		if !p.Valid() {
			log.Fatalf("node %d has invalid coordinate (%v, %v)", i, n.Lat, n.Lng)
		}
		g.Nodes = append(g.Nodes, graph.Node{Pos: p})
	}
	for i, e := range net.Edges {
		if int(e.From) >= len(g.Nodes) || int(e.To) >= len(g.Nodes) || e.From < 0 || e.To < 0 {
			log.Fatalf("edge %d references missing node (%d -> %d)", i, e.From, e.To)
		}
		length := e.LengthM
		if length <= 0 || math.IsNaN(length) {
			if len(e.Geometry) >= 2 {
				length = geo.PolylineLength(e.Geometry)
			} else {
				length = geo.Distance(g.Nodes[e.From].Pos, g.Nodes[e.To].Pos)
			}
		}
		// Declared lengths below the endpoints' straight-line distance would
		// be rejected at load time; floor them instead of writing a region
		// file the server cannot use.
		if minLen := geo.Distance(g.Nodes[e.From].Pos, g.Nodes[e.To].Pos); length < minLen {
			log.Warnf("edge %d: declared length %.1f m below endpoint distance %.1f m, raising", i, length, minLen)
			length = minLen
		}
		speed := e.SpeedMPS
		if speed <= 0 || math.IsNaN(speed) {
			speed = defaultSpeedMPS
		}
		g.Edges = append(g.Edges, graph.Edge{
			From: e.From, To: e.To,
			LengthM: length, SpeedMPS: speed,
			Oneway:   e.Oneway,
			Geometry: e.Geometry,
		})
	}
	g.Snap = graph.NewSnapIndex(g.Nodes, cellSizeDeg)
	return g
}
