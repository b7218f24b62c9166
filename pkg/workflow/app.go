package workflow

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/paceline/paceline/internal/graph"
	"github.com/paceline/paceline/pkg/state"
	"github.com/paceline/paceline/pkg/types"
)

// Listener is polled or awaited for new inputs to run in the workflow.
// For example, it might be reading from a queue, an HTTP endpoint, etc.
type Listener[T any] interface {
	// WaitForEvent blocks until a new event is available or context is done.
	// Returns the input state for the workflow.
	WaitForEvent(ctx context.Context) (T, error)
}

// Callback is invoked after execution (success or error).
type Callback[T any] interface {
	OnComplete(ctx context.Context, output T) error
	OnError(ctx context.Context, err error) error
}

// App represents a compiled workflow plus optional config like a checkpoint store.
type App[T state.GraphState[T]] struct {
	workflow *Builder[T]
	compiled *graph.CompiledGraph[T]
	listener Listener[T]
	callback Callback[T]

	// Additional config
	store types.CheckpointStore[T]
	debug bool
}

// AppOption is a functional option that configures the App before finalizing.
type AppOption[T state.GraphState[T]] func(*App[T])

func WithListener[T state.GraphState[T]](l Listener[T]) AppOption[T] {
	return func(a *App[T]) {
		a.listener = l
	}
}

func WithCallback[T state.GraphState[T]](cb Callback[T]) AppOption[T] {
	return func(a *App[T]) {
		a.callback = cb
	}
}

func WithCheckpointStore[T state.GraphState[T]](store types.CheckpointStore[T]) AppOption[T] {
	return func(a *App[T]) {
		a.store = store
	}
}

func WithDebug[T state.GraphState[T]]() AppOption[T] {
	return func(a *App[T]) {
		a.debug = true
	}
}

// WithThreadID pins an invocation to a conversation thread so its
// checkpoints land on, and resume from, that thread.
func WithThreadID[T state.GraphState[T]](id string) graph.ExecutionOption[T] {
	return graph.WithThreadID[T](id)
}

// WithConfigurable attaches per-invocation key/values that agents can
// read from their Config.
func WithConfigurable[T state.GraphState[T]](kv map[string]any) graph.ExecutionOption[T] {
	return graph.WithConfigurable[T](kv)
}

// NewApp compiles the Builder and sets up optional Listener, Callback, etc.
func NewApp[T state.GraphState[T]](wf *Builder[T], opts ...AppOption[T]) (*App[T], error) {
	app := &App[T]{workflow: wf}

	// Apply user-provided options
	for _, opt := range opts {
		opt(app)
	}

	// Prepare compilation options for the internal engine
	var compileOpts []graph.CompilationOption[T]
	if app.store != nil {
		compileOpts = append(compileOpts, graph.WithCheckpointStore(app.store))
	}
	if app.debug {
		compileOpts = append(compileOpts, graph.WithDebug[T]())
	}

	// Compile the workflow
	cg, err := wf.Compile(compileOpts...)
	if err != nil {
		return nil, fmt.Errorf("NewApp: failed to compile workflow: %w", err)
	}
	app.compiled = cg

	return app, nil
}

// ID returns the unique identifier of the compiled workflow graph.
func (app *App[T]) ID() string {
	return app.workflow.ID()
}

// PrintGraph renders the workflow structure to stdout.
func (app *App[T]) PrintGraph() {
	app.workflow.PrintGraph()
}

// CheckpointStore returns the configured store, or nil when the app runs
// without persistence.
func (app *App[T]) CheckpointStore() types.CheckpointStore[T] {
	return app.store
}

// Invoke runs the compiled workflow *once* with a given input.
// If the App has a callback set, OnComplete/OnError is called here.
func (app *App[T]) Invoke(
	ctx context.Context,
	input T,
	execOpts ...graph.ExecutionOption[T],
) (T, error) {
	// Actually run the flow
	out, err := app.compiled.Run(ctx, input, execOpts...)
	if err != nil {
		if app.callback != nil {
			_ = app.callback.OnError(ctx, err)
		}
		return out, errors.Wrap(err, "invoke: workflow failed")
	}
	// Success => OnComplete
	if app.callback != nil {
		if cbErr := app.callback.OnComplete(ctx, out); cbErr != nil {
			return out, fmt.Errorf("invoke: callback OnComplete failed: %w", cbErr)
		}
	}
	return out, nil
}

// Start runs in a loop, continuously invoking the workflow for each incoming
// event from the Listener. It blocks until the context is cancelled.
func (app *App[T]) Start(ctx context.Context, execOpts ...graph.ExecutionOption[T]) error {
	if app.listener == nil {
		return errors.New("start called, but no Listener is configured")
	}

	// Keep listening for new events
	for {
		select {
		case <-ctx.Done():
			// Time to shut down gracefully
			return errors.Wrap(ctx.Err(), "listener loop stopped")

		default:
			// Wait for an event from the listener
			input, err := app.listener.WaitForEvent(ctx)
			if err != nil {
				if app.callback != nil {
					_ = app.callback.OnError(ctx, err)
				}
				continue
			}

			// We got an input => run the workflow
			_, runErr := app.Invoke(ctx, input, execOpts...)
			if runErr != nil {
				// OnError has been called in app.Invoke
				continue
			}
		}
	}
}
