package graph

import (
	"context"

	"github.com/paceline/paceline/pkg/state"
	"github.com/paceline/paceline/pkg/types"
	"github.com/pkg/errors"
)

// CompiledGraph is an immutable, executable version of the graph. It
// carries the base configuration assembled at compile time, and each Run
// works on its own clone of that configuration.
type CompiledGraph[T state.GraphState[T]] struct {
	graph  *Graph[T]
	config types.Config[T]
}

// Compile validates the graph and freezes it for execution
func (g *Graph[T]) Compile(opt ...CompilationOption[T]) (*CompiledGraph[T], error) {
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(err, "graph validation failed")
	}

	g.compiled = true
	return &CompiledGraph[T]{
		graph:  g,
		config: NewConfig(g.graphID, opt...),
	}, nil
}

// Run executes the graph with the given initial state
func (cg *CompiledGraph[T]) Run(ctx context.Context, initialState T, opt ...ExecutionOption[T]) (T, error) {
	config := cg.config.Clone()
	for _, o := range opt {
		o(&config)
	}
	return execute(ctx, cg.graph, initialState, config)
}

// Config returns a copy of the compiled base configuration
func (cg *CompiledGraph[T]) Config() types.Config[T] {
	return cg.config.Clone()
}
