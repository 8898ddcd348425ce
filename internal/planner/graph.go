package planner

import (
	"fmt"

	"github.com/cworthy-ocean/cstarorc/internal/model"
)

// dfsColor tracks visitation state during cycle detection, following the
// prior white/gray/black marking in internal/executor/graph.go.
type dfsColor int

const (
	white dfsColor = iota
	gray
	black
)

// detectCycle walks the out-edge adjacency with DFS, returning an error
// naming the first back-edge found. outEdges maps a node to the set of
// nodes that depend on it (i.e. edge d -> step.name for d in
// step.depends_on).
func detectCycle(order []string, outEdges map[string]model.StringSet) error {
	colors := make(map[string]dfsColor, len(order))
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch colors[name] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("planner: dependency cycle detected involving %q", name)
		}
		colors[name] = gray
		for next := range outEdges[name] {
			if err := visit(next, append(path, next)); err != nil {
				return err
			}
		}
		colors[name] = black
		return nil
	}
	for _, name := range order {
		if err := visit(name, []string{name}); err != nil {
			return err
		}
	}
	return nil
}

// topologicalOrder runs Kahn's algorithm over inEdges/outEdges, matching
// the CalculateWaves but flattened into a single total order
// rather than grouped waves — the orchestrator computes its own open set
// per cycle, so the planner only needs a traversal order for Flatten().
func topologicalOrder(names []string, inEdges map[string]model.StringSet) ([]string, error) {
	inDegree := make(map[string]int, len(names))
	for _, n := range names {
		inDegree[n] = len(inEdges[n])
	}

	var queue []string
	for _, n := range names {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	outEdges := make(map[string]model.StringSet, len(names))
	for _, n := range names {
		for dep := range inEdges[n] {
			if outEdges[dep] == nil {
				outEdges[dep] = model.NewStringSet()
			}
			outEdges[dep][n] = struct{}{}
		}
	}

	var order []string
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		order = append(order, next)
		for dependent := range outEdges[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(names) {
		return nil, fmt.Errorf("planner: dependency cycle detected (topological sort stalled with %d/%d nodes ordered)", len(order), len(names))
	}
	return order, nil
}
