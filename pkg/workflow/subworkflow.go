package workflow

import (
	"context"
	"sync"

	"github.com/paceline/paceline/internal/graph"
	"github.com/paceline/paceline/pkg/state"
	"github.com/paceline/paceline/pkg/types"
	"github.com/pkg/errors"
)

// SubWorkflowAgent treats an entire sub-workflow as a single agent. The
// sub-graph is compiled once, on first execution, and every run shares the
// calling thread ID so checkpoints of parent and child line up.
//
// The sub-workflow's final state comes back whole, not as a delta, so it
// suits states whose Merge replaces fields rather than appends to them.
type SubWorkflowAgent[T state.GraphState[T]] struct {
	name string
	wf   *Builder[T]

	compileOnce sync.Once
	compiled    *graph.CompiledGraph[T]
	compileErr  error
}

// NewSubWorkflowAgent wraps a workflow Builder as an agent.
func NewSubWorkflowAgent[T state.GraphState[T]](wf *Builder[T]) *SubWorkflowAgent[T] {
	return &SubWorkflowAgent[T]{
		name: "subWorkflow:" + wf.name,
		wf:   wf,
	}
}

func (sw *SubWorkflowAgent[T]) Name() string {
	return sw.name
}

func (sw *SubWorkflowAgent[T]) Metadata() map[string]any {
	return map[string]any{"subWorkflow": sw.wf.name}
}

// Execute runs the sub-workflow with the current state as its input.
func (sw *SubWorkflowAgent[T]) Execute(ctx context.Context, s T, cfg types.Config[T]) (types.NodeResponse[T], error) {
	sw.compileOnce.Do(func() {
		sw.compiled, sw.compileErr = sw.wf.Compile()
	})
	if sw.compileErr != nil {
		return types.NodeResponse[T]{State: s, Status: types.StatusFailed},
			errors.Wrapf(sw.compileErr, "sub-workflow %s: compile failed", sw.wf.name)
	}

	outState, err := sw.compiled.Run(ctx, s, graph.WithThreadID[T](cfg.ThreadID))
	if err != nil {
		return types.NodeResponse[T]{State: outState, Status: types.StatusFailed},
			errors.Wrapf(err, "sub-workflow %s failed", sw.wf.name)
	}
	return types.NodeResponse[T]{State: outState, Status: types.StatusCompleted}, nil
}
