package graph

import (
	"context"
	"time"

	"github.com/paceline/paceline/pkg/state"
	"github.com/paceline/paceline/pkg/types"
)

const (
	// START is the virtual source every graph execution begins from.
	START = "START"
	// END is the virtual sink that terminates execution.
	END = "END"
)

// DefaultMaxRetries is the number of attempts a node gets when no
// RetryPolicy is configured.
const DefaultMaxRetries = 1

// NodeFunc is the unit of work attached to a graph node. It receives the
// accumulated state and returns a delta that the engine merges back in.
type NodeFunc[T state.GraphState[T]] func(ctx context.Context, s T, cfg types.Config[T]) (types.NodeResponse[T], error)

// RetryPolicy controls how a failing node is retried before the run aborts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// NodeSpec describes a single node: its name, the function to run and an
// optional retry policy.
type NodeSpec[T state.GraphState[T]] struct {
	Name        string
	Function    NodeFunc[T]
	Metadata    map[string]any
	RetryPolicy *RetryPolicy
}

// Edge is an unconditional transition between two named nodes.
type Edge struct {
	From     string
	To       string
	Metadata map[string]any
}

// CondFunc inspects the state after a node completes and names the next
// node. Returning an empty string means the condition selected nothing.
type CondFunc[T state.GraphState[T]] func(ctx context.Context, s T, cfg types.Config[T]) string

// Branch is a conditional transition evaluated before plain edges. The
// optional Then node runs after the branch target completes.
type Branch[T state.GraphState[T]] struct {
	Path     CondFunc[T]
	Then     string
	Metadata map[string]any
}
