package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/paceline/paceline/pkg/channels"
	"github.com/paceline/paceline/pkg/state"
	"github.com/paceline/paceline/pkg/types"
)

// JoinFunc merges the outputs of a parallel group into a single response.
// The states slice holds one delta per branch, in the order the branches
// were passed to ThenAll.
type JoinFunc[T state.GraphState[T]] func(ctx context.Context, states []T, cfg types.Config[T]) (types.NodeResponse[T], error)

// ParallelBuilder holds references to the set of parallel agents.
type ParallelBuilder[T state.GraphState[T]] struct {
	wf             *Builder[T]
	precedingAgent Agent[T]
	parallelAgents []Agent[T]

	err error
}

func (pb *ParallelBuilder[T]) Err() error {
	return pb.err
}

// Join closes the parallel group with a merge step. The group becomes a
// single graph node that runs every branch concurrently, waits for all of
// them on a barrier and hands the collected states to joinFunc. The
// returned FlowAgent references that node, so the chain continues after
// the merge.
func (pb *ParallelBuilder[T]) Join(joinFunc JoinFunc[T]) *FlowAgent[T] {
	if pb.err != nil {
		return &FlowAgent[T]{wf: pb.wf, err: pb.err}
	}

	join := newFanoutAgent(pb.precedingAgent.Name()+"_join", pb.parallelAgents, joinFunc)

	// Add the join node
	if err := ensureAgent(pb.wf, join); err != nil {
		pb.err = fmt.Errorf("[Join]: %w", err)
		return &FlowAgent[T]{wf: pb.wf, err: pb.err}
	}

	// Link the preceding agent -> join node
	if e := pb.wf.graph.AddEdge(pb.precedingAgent.Name(), join.Name(), nil); e != nil {
		pb.err = fmt.Errorf("[Join]: addEdge(%s->%s) failed: %w", pb.precedingAgent.Name(), join.Name(), e)
		return &FlowAgent[T]{wf: pb.wf, err: pb.err}
	}

	return &FlowAgent[T]{
		wf:    pb.wf,
		agent: join, // from now on, we proceed from the join node
		err:   pb.err,
	}
}

// fanoutAgent runs a group of agents concurrently and joins their outputs.
// Every branch receives the same input state and writes its delta to a
// barrier keyed by branch name. One barrier per execution, so concurrent
// workflow runs do not share collection state.
type fanoutAgent[T state.GraphState[T]] struct {
	name     string
	branches []Agent[T]
	order    []string
	joinFunc JoinFunc[T]
}

func newFanoutAgent[T state.GraphState[T]](name string, branches []Agent[T], joinFunc JoinFunc[T]) *fanoutAgent[T] {
	order := make([]string, 0, len(branches))
	for _, branch := range branches {
		order = append(order, branch.Name())
	}
	return &fanoutAgent[T]{
		name:     name,
		branches: branches,
		order:    order,
		joinFunc: joinFunc,
	}
}

func (fa *fanoutAgent[T]) Name() string {
	return fa.name
}

func (fa *fanoutAgent[T]) Metadata() map[string]any {
	return map[string]any{"join": true, "branches": fa.order}
}

func (fa *fanoutAgent[T]) Execute(ctx context.Context, s T, cfg types.Config[T]) (types.NodeResponse[T], error) {
	barrier := channels.NewBarrierChannel[T](fa.order)

	var wg sync.WaitGroup
	errs := make([]error, len(fa.branches))
	for i, branch := range fa.branches {
		wg.Add(1)
		go func(i int, branch Agent[T]) {
			defer wg.Done()

			// The barrier keys contributions by thread ID, so each branch
			// runs under its own name
			branchCfg := cfg.Clone()
			branchCfg.ThreadID = branch.Name()

			resp, err := branch.Execute(ctx, s, branchCfg)
			if err != nil {
				errs[i] = fmt.Errorf("branch %s: %w", branch.Name(), err)
				return
			}
			errs[i] = barrier.Write(ctx, resp.State, branchCfg)
		}(i, branch)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return types.NodeResponse[T]{State: s, Status: types.StatusFailed}, err
		}
	}

	states, err := barrier.Gather(ctx, fa.order)
	if err != nil {
		return types.NodeResponse[T]{State: s, Status: types.StatusFailed}, err
	}

	return fa.joinFunc(ctx, states, cfg)
}
