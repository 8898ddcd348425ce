// Package planner builds a DAG from a Workplan and answers the open-set /
// closed-set queries the orchestrator drives each cycle from. It is
// grounded on the internal/executor/graph.go (DFS cycle
// detection, Kahn's-algorithm topological ordering) generalized from a
// fixed "wave" grouping to the RunMode-aware satisfied-predecessor
// predicate specified by cstar/orchestration/orchestration.py's Planner.
package planner

import (
	"github.com/cworthy-ocean/cstarorc/internal/model"
)

// Node is the planner's per-step record. The planner exclusively owns all
// nodes; the launcher receives handles by value.
type Node struct {
	Name   string
	Status model.Status
	Step   *model.Step
	Task   *model.Task
}
