package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/scenecore/internal/ir"
)

// CycleWarning reports a set of nodes whose routes form a loop.
//
// Route loops are legal: the engine lets each field fire once per tick, so
// a loop settles instead of hanging. They are still worth a look, since the
// write that closes the loop is dropped.
type CycleWarning struct {
	Path    []string `json:"path"`    // node names: ["A", "B", "A"]
	Message string   `json:"message"`
	Level   string   `json:"level"` // "warning"
}

// AnalyzeRouteCycles finds route loops between nodes.
//
// The algorithm:
//  1. Build a node -> node graph from the route declarations
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1, or a node routing to itself
//
// Warnings come out in declaration order of their first node.
func AnalyzeRouteCycles(spec *ir.SceneSpec) []CycleWarning {
	if len(spec.Routes) == 0 {
		return []CycleWarning{}
	}
	graph, order := buildRouteGraph(spec)
	sccs := tarjanSCC(graph, order)

	rank := make(map[string]int, len(order))
	for i, n := range order {
		rank[n] = i
	}

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) == 1 && !slices.Contains(graph[scc[0]], scc[0]) {
			continue
		}
		slices.SortFunc(scc, func(a, b string) int { return rank[a] - rank[b] })
		warnings = append(warnings, sccToWarning(scc, graph))
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int { return rank[a.Path[0]] - rank[b.Path[0]] })
	return warnings
}

// routeGraph maps a node name to the nodes its routes feed, deduplicated
// and in route order.
type routeGraph map[string][]string

func buildRouteGraph(spec *ir.SceneSpec) (routeGraph, []string) {
	graph := make(routeGraph)
	var order []string
	seen := make(map[string]bool)
	visit := func(n string) {
		if !seen[n] {
			seen[n] = true
			order = append(order, n)
			graph[n] = nil
		}
	}
	for _, n := range spec.Nodes {
		visit(n.Name)
	}
	for _, r := range spec.Routes {
		visit(r.FromNode)
		visit(r.ToNode)
		if !slices.Contains(graph[r.FromNode], r.ToNode) {
			graph[r.FromNode] = append(graph[r.FromNode], r.ToNode)
		}
	}
	return graph, order
}

// tarjanSCC finds strongly connected components, visiting roots in order.
func tarjanSCC(graph routeGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
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

		// v is the root of an SCC: pop it.
		if lowlink[v] == indices[v] {
			var scc []string
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

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func sccToWarning(scc []string, graph routeGraph) CycleWarning {
	if len(scc) == 1 {
		return CycleWarning{
			Path:    []string{scc[0], scc[0]},
			Message: fmt.Sprintf("node routes to itself: %s -> %s", scc[0], scc[0]),
			Level:   "warning",
		}
	}
	path := cyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: "route cycle: " + strings.Join(path, " -> "),
		Level:   "warning",
	}
}

// cyclePath walks from the first SCC member along edges inside the SCC
// until it returns to the start.
func cyclePath(scc []string, graph routeGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}
	start := scc[0]
	path := []string{start}
	visited := map[string]bool{start: true}
	for current := start; ; {
		next := ""
		for _, w := range graph[current] {
			if w == start && len(path) > 1 {
				next = w
				break
			}
			if members[w] && !visited[w] && next == "" {
				next = w
			}
		}
		if next == "" {
			return path
		}
		path = append(path, next)
		if next == start {
			return path
		}
		visited[next] = true
		current = next
	}
}
