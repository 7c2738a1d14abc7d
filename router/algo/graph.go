// Package algo implements the shortest-path search over a static weighted
// directed graph with typed node and edge attributes.
package algo

import (
	"container/heap"
	"log"
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/embarkmaps/regiond/geo"
)

type node[NT any] struct {
	p    geo.Point
	attr NT
	// noOut marks sink-only nodes; the search skips them unless they are
	// the target.
	noOut bool
}

type outEdge[ET any] struct {
	to     int
	weight float64
	attr   ET
}

// Heuristic estimates the remaining cost between two points. It must never
// overestimate the true cost for A* to stay exact.
type Heuristic func(from, to geo.Point) float64

// SearchGraph is an adjacency-list graph for A* search. Nodes and edges are
// added during construction; after Freeze the graph is immutable and safe
// for concurrent searches without locking.
type SearchGraph[NT any, ET any] struct {
	nodes  []node[NT]
	edges  [][]outEdge[ET]
	h      Heuristic
	frozen bool
}

func NewSearchGraph[NT any, ET any](h Heuristic) *SearchGraph[NT, ET] {
	return &SearchGraph[NT, ET]{
		nodes: make([]node[NT], 0),
		edges: make([][]outEdge[ET], 0),
		h:     h,
	}
}

// InitNode adds a node and returns its id.
func (g *SearchGraph[NT, ET]) InitNode(p geo.Point, attr NT, noOut bool) int {
	if g.frozen {
		log.Panicf("InitNode on frozen graph")
	}
	g.nodes = append(g.nodes, node[NT]{p: p, attr: attr, noOut: noOut})
	g.edges = append(g.edges, nil)
	return len(g.nodes) - 1
}

// InitEdge adds a directed edge with a non-negative weight.
func (g *SearchGraph[NT, ET]) InitEdge(from, to int, weight float64, attr ET) {
	if g.frozen {
		log.Panicf("InitEdge on frozen graph")
	}
	if from >= len(g.edges) || to >= len(g.edges) {
		log.Panicf("edge (%d,%d) references unknown node, have %d", from, to, len(g.edges))
	}
	if weight < 0 || math.IsNaN(weight) {
		log.Panicf("edge (%d,%d) has bad weight %v", from, to, weight)
	}
	g.edges[from] = append(g.edges[from], outEdge[ET]{to: to, weight: weight, attr: attr})
}

// Freeze sorts every adjacency list by target node id. Searches iterate
// neighbors in this fixed order, so equal-cost ties always resolve to the
// same path and identical queries produce identical results.
func (g *SearchGraph[NT, ET]) Freeze() {
	for _, out := range g.edges {
		sort.Slice(out, func(i, j int) bool { return out[i].to < out[j].to })
	}
	g.frozen = true
}

func (g *SearchGraph[NT, ET]) NodeCount() int { return len(g.nodes) }

// PathItem is one step of a found path: the node attribute plus the
// attribute of the edge leaving it (zero value on the final item).
type PathItem[NT any, ET any] struct {
	NodeAttr NT
	EdgeAttr ET
}

type cameFromEntry[ET any] struct {
	prev int
	w    float64
	attr ET
}

func (g *SearchGraph[NT, ET]) reconstructPath(cameFrom map[int]cameFromEntry[ET], curNode int) ([]PathItem[NT, ET], float64) {
	pathBeforeReversed := []PathItem[NT, ET]{{NodeAttr: g.nodes[curNode].attr}}
	cost := .0
	for {
		from, ok := cameFrom[curNode]
		if !ok {
			break
		}
		cost += from.w
		curNode = from.prev
		pathBeforeReversed = append(pathBeforeReversed, PathItem[NT, ET]{
			NodeAttr: g.nodes[curNode].attr,
			EdgeAttr: from.attr,
		})
	}
	return lo.Reverse(pathBeforeReversed), cost
}

// ShortestPath runs A* from start to end and returns the path as node/edge
// attribute pairs plus the total cost. An unreachable end yields a nil path
// and +Inf cost.
func (g *SearchGraph[NT, ET]) ShortestPath(start, end int) ([]PathItem[NT, ET], float64) {
	if start == end {
		return []PathItem[NT, ET]{{NodeAttr: g.nodes[start].attr}}, 0
	}
	openSet := make(PriorityQueue, 1)
	openSetMap := make(map[int]*Item, 1)
	cameFrom := make(map[int]cameFromEntry[ET])
	gScore := map[int]float64{start: .0}
	fScore := g.h(g.nodes[start].p, g.nodes[end].p)
	openSet[0] = &Item{Value: start, Priority: fScore, Index: 0}
	openSetMap[start] = openSet[0]
	heap.Init(&openSet)
	for openSet.Len() > 0 {
		cur := heap.Pop(&openSet).(*Item).Value
		if cur == end {
			return g.reconstructPath(cameFrom, cur)
		}
		for _, edge := range g.edges[cur] {
			neighbor := edge.to
			if g.nodes[neighbor].noOut && neighbor != end {
				continue
			}
			gScoreTentative := gScore[cur] + edge.weight
			gScoreNeighbor, seen := gScore[neighbor]
			if !seen {
				gScoreNeighbor = math.Inf(0)
			}
			if gScoreTentative < gScoreNeighbor {
				cameFrom[neighbor] = cameFromEntry[ET]{prev: cur, w: edge.weight, attr: edge.attr}
				gScore[neighbor] = gScoreTentative
				fScore := gScoreTentative + g.h(g.nodes[neighbor].p, g.nodes[end].p)
				if item, inOpen := openSetMap[neighbor]; inOpen && item.Index >= 0 {
					item.Priority = fScore
					heap.Fix(&openSet, item.Index)
				} else {
					item := &Item{Value: neighbor, Priority: fScore}
					heap.Push(&openSet, item)
					openSetMap[neighbor] = item
				}
			}
		}
	}
	return nil, math.Inf(0)
}
