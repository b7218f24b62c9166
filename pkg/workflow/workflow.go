package workflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/paceline/paceline/internal/graph"
	"github.com/paceline/paceline/pkg/state"
	"github.com/paceline/paceline/pkg/types"
	"github.com/pkg/errors"
)

// Builder is the top-level DSL object. Wraps an internal graph.
type Builder[T state.GraphState[T]] struct {
	name  string
	graph *graph.Graph[T]
}

// NewBuilder creates a new DSL workflow with an underlying graph.
func NewBuilder[T state.GraphState[T]](name string, opts ...graph.Option[T]) *Builder[T] {
	g := graph.NewGraph[T](name, opts...)
	return &Builder[T]{name: name, graph: g}
}

// Name returns the workflow name.
func (wf *Builder[T]) Name() string {
	return wf.name
}

// ID returns the unique identifier of the underlying graph.
func (wf *Builder[T]) ID() string {
	return wf.graph.ID()
}

// PrintGraph renders the underlying graph structure to stdout.
func (wf *Builder[T]) PrintGraph() {
	wf.graph.PrintGraph()
}

// Compile compiles the underlying graph using the internal engine.
func (wf *Builder[T]) Compile(opts ...graph.CompilationOption[T]) (*graph.CompiledGraph[T], error) {
	return wf.graph.Compile(opts...)
}

// AddAgent adds a new agent (node) to the workflow.
func (wf *Builder[T]) AddAgent(agent Agent[T]) *FlowAgent[T] {
	err := wf.graph.AddNode(agent.Name(), agent.Execute, agent.Metadata())
	if err != nil {
		return &FlowAgent[T]{wf: wf, agent: agent, err: fmt.Errorf("AddAgent(%q) failed: %w", agent.Name(), err)}
	}
	return &FlowAgent[T]{wf: wf, agent: agent, err: nil}
}

// FlowAgent references a node that was just added (an Agent).
type FlowAgent[T state.GraphState[T]] struct {
	wf    *Builder[T]
	agent Agent[T]
	err   error

	// Internal fields used for looping, if needed:
	loopPredicate func(context.Context, T, types.Config[T]) bool
	loopMode      bool

	// track possible branch targets from a ThenIf/OnCondition
	branchTargets []string
}

func (fa *FlowAgent[T]) Err() error {
	return fa.err
}

// AsEntryPoint marks the current agent as the graph's entry point.
func (fa *FlowAgent[T]) AsEntryPoint() *FlowAgent[T] {
	if fa.err != nil {
		return fa
	}
	if err := fa.wf.graph.SetEntryPoint(fa.agent.Name()); err != nil {
		fa.err = fmt.Errorf("AsEntryPoint failed: %w", err)
	}
	return fa
}

// LoopWhile arms the next Then call with a loop predicate. While the
// predicate holds, control returns to this agent instead of advancing to
// the next one.
func (fa *FlowAgent[T]) LoopWhile(predicate func(ctx context.Context, s T, cfg types.Config[T]) bool) *FlowAgent[T] {
	if fa.err != nil {
		return fa
	}
	fa.loopMode = true
	fa.loopPredicate = predicate
	return fa
}

// Then creates a simple sequential link from fa.agent -> nextAgent.
func (fa *FlowAgent[T]) Then(nextAgent Agent[T]) *FlowAgent[T] {
	if fa.err != nil {
		return fa
	}

	// Ensure next node is in the graph
	if err := ensureAgent(fa.wf, nextAgent); err != nil {
		fa.err = err
		return fa
	}

	// If we're in loop mode, create a conditional that loops back
	if fa.loopMode && fa.loopPredicate != nil {
		localPredicate := fa.loopPredicate
		localAgent := fa.agent
		fa.loopMode = false
		fa.loopPredicate = nil

		possibleTargets := []string{localAgent.Name(), nextAgent.Name()}
		cond := func(ctx context.Context, s T, cfg types.Config[T]) string {
			if localPredicate(ctx, s, cfg) {
				return localAgent.Name()
			}
			return nextAgent.Name()
		}

		e := fa.wf.graph.AddConditionalEdge(localAgent.Name(), possibleTargets, cond, nil)
		if e != nil {
			fa.err = fmt.Errorf("Then(loopMode) failed: %w", e)
			return fa
		}
	} else {
		// Normal case: direct edge
		if e := fa.wf.graph.AddEdge(fa.agent.Name(), nextAgent.Name(), nil); e != nil {
			fa.err = e
			return fa
		}
	}

	// Return a new FlowAgent referencing nextAgent
	return &FlowAgent[T]{wf: fa.wf, agent: nextAgent, err: fa.err}
}

// End marks the current agent as pointing to the END node.
func (fa *FlowAgent[T]) End() error {
	if fa.err != nil {
		return fa.err
	}
	if len(fa.branchTargets) > 0 {
		// We just came from a ThenIf or OnCondition with multiple possible branches
		for _, targetName := range fa.branchTargets {
			e := fa.wf.graph.AddEdge(targetName, graph.END, nil)
			if e != nil {
				fa.err = fmt.Errorf("[End]: AddEdge(%q->END) failed: %w", targetName, e)
				return fa.err
			}
		}
		// We've handled all branches. Clear them out
		fa.branchTargets = nil

	} else {
		// Normal single chain scenario
		e := fa.wf.graph.AddEdge(fa.agent.Name(), graph.END, nil)
		if e != nil {
			fa.err = fmt.Errorf("[End]: AddEdge(%q->END) failed: %w", fa.agent.Name(), e)
		}
	}
	return fa.err
}

// ThenIf creates a 2-branch condition: if predicate => ifTrueAgent else ifFalseAgent.
func (fa *FlowAgent[T]) ThenIf(
	predicate func(ctx context.Context, s T, cfg types.Config[T]) bool,
	ifTrueAgent Agent[T],
	ifFalseAgent Agent[T],
) *FlowAgent[T] {
	if fa.err != nil {
		return fa
	}

	for _, ag := range []Agent[T]{ifTrueAgent, ifFalseAgent} {
		if err := ensureAgent(fa.wf, ag); err != nil {
			fa.err = err
			return fa
		}
	}

	possibleTargets := []string{ifTrueAgent.Name(), ifFalseAgent.Name()}
	cond := func(ctx context.Context, s T, cfg types.Config[T]) string {
		if predicate(ctx, s, cfg) {
			return ifTrueAgent.Name()
		}
		return ifFalseAgent.Name()
	}

	err := fa.wf.graph.AddConditionalEdge(fa.agent.Name(), possibleTargets, cond, nil)
	if err != nil {
		fa.err = fmt.Errorf("ThenIf failed: %w", err)
	}
	fa.branchTargets = possibleTargets

	return fa
}

// OnCondition routes to one of several named branches based on the key the
// condition returns. An unknown key routes straight to END.
func (fa *FlowAgent[T]) OnCondition(
	condition func(ctx context.Context, s T, cfg types.Config[T]) string, // returns branchKey
	branchMap map[string]Agent[T], // branchKey -> Agent
) *FlowAgent[T] {
	if fa.err != nil {
		return fa
	}

	// Ensure all branch agents exist, in stable key order
	keys := make([]string, 0, len(branchMap))
	for key := range branchMap {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var targets []string
	for _, key := range keys {
		ag := branchMap[key]
		if err := ensureAgent(fa.wf, ag); err != nil {
			fa.err = err
			return fa
		}
		targets = append(targets, ag.Name())
	}

	// Add a conditional edge that picks the correct agent based on branchKey.
	// END is a permitted target so the unknown-key fallback survives the
	// engine's target validation.
	wrapperCond := func(ctx context.Context, s T, cfg types.Config[T]) string {
		key := condition(ctx, s, cfg)
		agent, ok := branchMap[key]
		if !ok {
			// fallback if the condition returns an unknown key
			return graph.END
		}
		return agent.Name()
	}

	possibleTargets := append(append([]string{}, targets...), graph.END)
	err := fa.wf.graph.AddConditionalEdge(fa.agent.Name(), possibleTargets, wrapperCond, nil)
	if err != nil {
		fa.err = fmt.Errorf("OnCondition failed: %w", err)
	}

	fa.branchTargets = targets
	return fa
}

// ThenSubWorkflow treats a separate workflow Builder as a sub-workflow agent.
func (fa *FlowAgent[T]) ThenSubWorkflow(subWf *Builder[T]) *FlowAgent[T] {
	if fa.err != nil {
		return fa
	}

	subAgent := NewSubWorkflowAgent(subWf)

	if err := ensureAgent(fa.wf, subAgent); err != nil {
		fa.err = fmt.Errorf("ThenSubWorkflow failed: %w", err)
		return fa
	}

	// Link current agent -> subAgent
	e := fa.wf.graph.AddEdge(fa.agent.Name(), subAgent.Name(), nil)
	if e != nil {
		fa.err = fmt.Errorf("ThenSubWorkflow: addEdge(%s->%s) failed: %w", fa.agent.Name(), subAgent.Name(), e)
		return fa
	}

	// Return a new FlowAgent referencing subAgent
	return &FlowAgent[T]{
		wf:    fa.wf,
		agent: subAgent,
		err:   fa.err,
	}
}

// ThenAll spawns multiple agents in parallel. The returned ParallelBuilder
// captures the parallel group for a subsequent Join call.
func (fa *FlowAgent[T]) ThenAll(parallelAgents ...Agent[T]) *ParallelBuilder[T] {
	pb := &ParallelBuilder[T]{
		wf:             fa.wf,
		precedingAgent: fa.agent,
		parallelAgents: parallelAgents,
		err:            fa.err,
	}
	if pb.err == nil && len(parallelAgents) == 0 {
		pb.err = errors.New("ThenAll requires at least one agent")
	}
	return pb
}

// isDuplicateNodeError is a small helper to detect "already exists" errors.
func isDuplicateNodeError(err error) bool {
	return errors.Is(err, graph.ErrDuplicateNode)
}
