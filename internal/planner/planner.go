package planner

import (
	"fmt"

	"github.com/cworthy-ocean/cstarorc/internal/model"
)

// RunMode selects the predecessor-satisfaction predicate the open/closed
// set queries use.
type RunMode int

const (
	// Monitor waits for a prerequisite to reach a terminal status before
	// its dependents are considered open.
	Monitor RunMode = iota
	// Schedule considers a prerequisite satisfied once it is running or
	// terminal, delegating ordering to the backend scheduler's native
	// dependency support.
	Schedule
)

// Planner holds the DAG built from a Workplan: one Node per step, with
// in-edges keyed by dependent name (the set of names a step depends on)
// and out-edges keyed by dependency name (the set of names that depend on
// it). Construction rejects cycles and unresolved names.
type Planner struct {
	nodes    map[string]*Node
	inEdges  map[string]model.StringSet // step name -> names it depends on
	outEdges map[string]model.StringSet // step name -> names that depend on it
	order    []string                   // topological order, computed once at construction
}

// New builds a Planner from a workplan. The workplan is expected to have
// already passed Workplan.Validate (which checks referenced names exist);
// New additionally rejects cycles, which requires whole-graph context
// Validate does not have.
func New(wp *model.Workplan) (*Planner, error) {
	p := &Planner{
		nodes:    make(map[string]*Node, len(wp.Steps)),
		inEdges:  make(map[string]model.StringSet, len(wp.Steps)),
		outEdges: make(map[string]model.StringSet, len(wp.Steps)),
	}

	names := make([]string, 0, len(wp.Steps))
	for i := range wp.Steps {
		step := &wp.Steps[i]
		if _, dup := p.nodes[step.Name]; dup {
			return nil, fmt.Errorf("planner: duplicate step name %q", step.Name)
		}
		p.nodes[step.Name] = &Node{
			Name:   step.Name,
			Status: model.Unsubmitted,
			Step:   step,
		}
		names = append(names, step.Name)
	}

	for i := range wp.Steps {
		step := &wp.Steps[i]
		deps := model.NewStringSet()
		for dep := range step.DependsOn {
			if _, ok := p.nodes[dep]; !ok {
				return nil, fmt.Errorf("planner: step %q depends_on unresolved name %q", step.Name, dep)
			}
			deps[dep] = struct{}{}
			if p.outEdges[dep] == nil {
				p.outEdges[dep] = model.NewStringSet()
			}
			p.outEdges[dep][step.Name] = struct{}{}
		}
		p.inEdges[step.Name] = deps
	}

	if err := detectCycle(names, p.outEdges); err != nil {
		return nil, err
	}

	order, err := topologicalOrder(names, p.inEdges)
	if err != nil {
		return nil, err
	}
	p.order = order

	return p, nil
}

// Get returns the node for name, or nil if it does not exist.
func (p *Planner) Get(name string) *Node {
	return p.nodes[name]
}

// Nodes returns every node in topological order.
func (p *Planner) Nodes() []*Node {
	out := make([]*Node, len(p.order))
	for i, name := range p.order {
		out[i] = p.nodes[name]
	}
	return out
}

// Flatten returns the topological traversal of step names, for
// visualization or serial execution.
func (p *Planner) Flatten() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// SetStatus records a node's new status. Callers (the orchestrator) are
// responsible for respecting the monotonicity invariant; the planner does
// not enforce it so that a driver can force Cancelled from any state.
func (p *Planner) SetStatus(name string, status model.Status) {
	if n := p.nodes[name]; n != nil {
		n.Status = status
	}
}

// SetTask records the live task handle for a node once submitted.
func (p *Planner) SetTask(name string, task *model.Task) {
	if n := p.nodes[name]; n != nil {
		n.Task = task
	}
}

// satisfied reports whether a prerequisite's status counts as
// "satisfied" for the purpose of opening its dependents, under mode.
func satisfied(status model.Status, mode RunMode) bool {
	if mode == Schedule {
		return status.IsRunning() || status.IsTerminal()
	}
	return status.IsTerminal()
}

// closedUnder reports whether a node's own status counts as closed
// (run-terminal) under mode.
func closedUnder(status model.Status, mode RunMode) bool {
	if mode == Schedule {
		return status.IsTerminal() || status.IsRunning()
	}
	return status.IsTerminal()
}

// OpenSet returns the names the orchestrator may act on this cycle. The
// second return value is false (no step to act on) either when
// every node is already closed under mode (the run is complete) or when
// any already-closed node carries a failure status (no further progress
// possible).
func (p *Planner) OpenSet(mode RunMode) ([]string, bool) {
	var working []string
	for _, name := range p.order {
		if !closedUnder(p.nodes[name].Status, mode) {
			working = append(working, name)
		}
	}

	for _, name := range p.order {
		n := p.nodes[name]
		if closedUnder(n.Status, mode) && n.Status.IsFailure() {
			return nil, false
		}
	}

	if len(working) == 0 {
		return nil, false
	}

	var open []string
	for _, name := range working {
		ready := true
		for dep := range p.inEdges[name] {
			depNode := p.nodes[dep]
			if !satisfied(depNode.Status, mode) {
				ready = false
				break
			}
		}
		if ready {
			open = append(open, name)
		}
	}
	return open, true
}

// ClosedSet returns the names in a mode-terminal state.
func (p *Planner) ClosedSet(mode RunMode) []string {
	var closed []string
	for _, name := range p.order {
		if closedUnder(p.nodes[name].Status, mode) {
			closed = append(closed, name)
		}
	}
	return closed
}

// StatusMap returns a snapshot of every node's current status.
func (p *Planner) StatusMap() map[string]model.Status {
	out := make(map[string]model.Status, len(p.nodes))
	for name, n := range p.nodes {
		out[name] = n.Status
	}
	return out
}
