package compiler

import (
	"slices"

	"github.com/roach88/synthkit/internal/ts"
)

// Component is a strongly connected component of a system's state graph.
type Component struct {
	States  []ts.State `json:"states"`  // In system order
	Trivial bool       `json:"trivial"` // Singleton without a self-loop
}

// StronglyConnectedComponents partitions the states of sys into SCCs.
//
// Components are returned in the order Tarjan's algorithm completes them,
// which is a reverse topological order of the condensation. Roots are tried
// in state order and successors in transition order, so the result is
// deterministic for a given system.
func StronglyConnectedComponents(sys *ts.System) []Component {
	graph := make(stateGraph, sys.Len())
	for _, s := range sys.States() {
		graph[s] = sys.Successors(s)
	}

	order := make(map[ts.State]int, sys.Len())
	for i, s := range sys.States() {
		order[s] = i
	}

	sccs := tarjanSCC(sys.States(), graph)
	components := make([]Component, 0, len(sccs))
	for _, scc := range sccs {
		slices.SortFunc(scc, func(a, b ts.State) int { return order[a] - order[b] })
		components = append(components, Component{
			States:  scc,
			Trivial: len(scc) == 1 && !hasSelfLoop(scc[0], graph),
		})
	}
	return components
}

// stateGraph maps a state to its distinct successors.
type stateGraph map[ts.State][]ts.State

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node ts.State, graph stateGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm,
// visiting roots in the given order.
func tarjanSCC(nodes []ts.State, graph stateGraph) [][]ts.State {
	var (
		index   = 0
		stack   []ts.State
		indices = make(map[ts.State]int)
		lowlink = make(map[ts.State]int)
		onStack = make(map[ts.State]bool)
		sccs    [][]ts.State
	)

	var strongConnect func(ts.State)
	strongConnect = func(v ts.State) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root: pop its component
		if lowlink[v] == indices[v] {
			var scc []ts.State
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}
