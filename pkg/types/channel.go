package types

import (
	"context"

	"github.com/paceline/paceline/pkg/state"
)

// Channel represents state management operations shared between nodes
type Channel[T state.GraphState[T]] interface {
	// Read reads the current state from the channel
	Read(ctx context.Context, config Config[T]) (T, error)
	// Write writes a new state to the channel
	Write(ctx context.Context, value T, config Config[T]) error
}
