// SPDX-License-Identifier: MIT
// Package topology builds a relay graph out of a network.Network's frame
// paths and runs structural checks against it before constraint
// generation: an acyclic relay topology (spec_full §4 supplement) and a
// per-path propagation-delay lower bound that must not already exceed the
// frame's declared end-to-end delay. Both checks turn a guaranteed solver
// UNSAT into a fast, precise diagnostic at initialisation time instead.
package topology

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dfs"
	"github.com/katalvlaran/lvlath/dijkstra"

	"github.com/FPozo/tsnsched/network"
)

// vertexID renders a link id as a core.Graph vertex id.
func vertexID(linkID int) string {
	return fmt.Sprintf("link-%d", linkID)
}

// hopEdges walks every frame path in n and yields each distinct
// (fromLink, toLink) hop transition together with the Offset of the
// departing hop, in network.AllFrames order, then path, then position.
func hopEdges(n *network.Network, visit func(fromLinkID, toLinkID int, from *network.Offset)) {
	seen := make(map[[2]int]bool)
	for _, f := range n.AllFrames() {
		for _, p := range f.Paths {
			for k := 0; k+1 < len(p); k++ {
				key := [2]int{p[k], p[k+1]}
				if seen[key] {
					continue
				}
				o, ok := f.OffsetByLink(p[k])
				if !ok {
					continue
				}
				seen[key] = true
				visit(p[k], p[k+1], o)
			}
		}
	}
}

// buildWeighted constructs a directed, weighted graph whose vertices are
// n's links and whose edges are hop-to-hop transitions, weighted with the
// same propagation lower bound package constraints' path-order family
// uses: T(hop) + HopDelay + 1. Used by dijkstra to compute a per-path
// propagation-delay lower bound.
func buildWeighted(n *network.Network) *core.Graph {
	g := core.NewGraph(core.WithDirected(true), core.WithWeighted())
	for _, l := range n.Links {
		_ = g.AddVertex(vertexID(l.ID))
	}
	hopEdges(n, func(fromLinkID, toLinkID int, from *network.Offset) {
		_, _ = g.AddEdge(vertexID(fromLinkID), vertexID(toLinkID), from.T+n.HopDelay+1)
	})
	return g
}

// buildUnweighted mirrors buildWeighted's vertex and edge set on an
// unweighted graph; bfs.BFS refuses to run on a weighted one.
func buildUnweighted(n *network.Network) *core.Graph {
	g := core.NewGraph(core.WithDirected(true))
	for _, l := range n.Links {
		_ = g.AddVertex(vertexID(l.ID))
	}
	hopEdges(n, func(fromLinkID, toLinkID int, _ *network.Offset) {
		_, _ = g.AddEdge(vertexID(fromLinkID), vertexID(toLinkID), 0)
	})
	return g
}

// ErrCyclicTopology reports a relay topology that loops back on itself:
// TSN relay chains must be acyclic for a propagation-delay lower bound to
// be well defined.
var ErrCyclicTopology = fmt.Errorf("topology: relay graph contains a cycle")

// ErrUnreachablePath reports a path whose last link is not reachable from
// its first link in the relay graph built from every frame's paths; this
// should not happen for a graph built from the same frame's own path, and
// signals a bug in buildWeighted or a dangling link reference that escaped
// network.AddFrame.
var ErrUnreachablePath = fmt.Errorf("topology: path endpoints not connected in relay graph")

// ErrEndToEndUnreachable reports a frame whose declared end-to-end delay
// is already smaller than the unavoidable propagation lower bound along
// its own path, independent of any solver's choice of offsets.
var ErrEndToEndUnreachable = fmt.Errorf("topology: end-to-end delay below the path's minimum propagation time")

// Validate runs the relay graph's structural checks: acyclicity (dfs), a
// bfs traversal from each path's first link on an unweighted mirror of the
// graph (only a bfs error fails the check; its result is not inspected),
// and per-path reachability plus a propagation lower bound (dijkstra, on
// the weighted graph). It
// must run after network.InitializeNetwork, since it reads each hop's
// transmission duration. A nil error means constraint generation may
// proceed; any error is a network.Validate-tier model failure, reported
// before a solver is ever invoked.
func Validate(n *network.Network) error {
	wg := buildWeighted(n)
	ug := buildUnweighted(n)

	hasCycle, cycles, err := dfs.DetectCycles(wg)
	if err != nil {
		return fmt.Errorf("topology: cycle detection: %w", err)
	}
	if hasCycle {
		return fmt.Errorf("%w: %v", ErrCyclicTopology, cycles[0])
	}

	for _, f := range n.AllFrames() {
		for pathIdx, p := range f.Paths {
			if len(p) < 2 {
				continue
			}
			first, last := vertexID(p[0]), vertexID(p[len(p)-1])

			if _, err := bfs.BFS(ug, first); err != nil {
				return fmt.Errorf("topology: frame %d path %d: %w", f.ID, pathIdx, err)
			}

			dist, _, err := dijkstra.Dijkstra(wg, dijkstra.Source(first))
			if err != nil {
				return fmt.Errorf("topology: frame %d path %d: dijkstra: %w", f.ID, pathIdx, err)
			}
			d, ok := dist[last]
			if !ok || d >= math.MaxInt64 {
				return fmt.Errorf("%w: frame %d path %d", ErrUnreachablePath, f.ID, pathIdx)
			}
			lastOffset, _ := f.OffsetByLink(p[len(p)-1])
			if d+lastOffset.T > f.EndToEnd {
				return fmt.Errorf("%w: frame %d path %d (minimum %d, declared %d)",
					ErrEndToEndUnreachable, f.ID, pathIdx, d+lastOffset.T, f.EndToEnd)
			}
		}
	}
	return nil
}

// Diameter returns the longest shortest hop count from any in-degree-zero
// link (a relay source) to a link it reaches, using bfs.BFS from each such
// source; links that have incoming hops are not used as BFS roots. It is a
// diagnostic only, logged
// by the Synthesizer Driver, and never fails the run.
func Diameter(n *network.Network) (int, error) {
	g := buildUnweighted(n)
	incoming := make(map[string]bool)
	hopEdges(n, func(_, toLinkID int, _ *network.Offset) {
		incoming[vertexID(toLinkID)] = true
	})

	max := 0
	for _, l := range n.Links {
		root := vertexID(l.ID)
		if incoming[root] {
			continue
		}
		res, err := bfs.BFS(g, root)
		if err != nil {
			return 0, fmt.Errorf("topology: diameter: %w", err)
		}
		for _, depth := range res.Depth {
			if depth > max {
				max = depth
			}
		}
	}
	return max, nil
}
