package types

import (
	"context"
	"time"

	"github.com/paceline/paceline/pkg/state"
)

// CheckpointKey uniquely identifies a checkpoint
type CheckpointKey struct {
	GraphID  string
	ThreadID string
}

// CheckpointMeta carries bookkeeping for a stored checkpoint
type CheckpointMeta struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Steps     int
	Status    NodeExecutionStatus
	NodeQueue []string
}

// Checkpoint is the persisted snapshot of a thread's execution
type Checkpoint[T state.GraphState[T]] struct {
	Key    CheckpointKey
	Meta   CheckpointMeta
	State  T
	NodeID string
}

// DataPoint is the executor-facing view of a checkpoint
type DataPoint[T state.GraphState[T]] struct {
	State       T
	Status      NodeExecutionStatus
	CurrentNode string
	Steps       int
	NodeQueue   []string
}

// CheckpointStore defines persistent storage operations
type CheckpointStore[T state.GraphState[T]] interface {
	Save(ctx context.Context, checkpoint Checkpoint[T]) error
	Load(ctx context.Context, key CheckpointKey) (*Checkpoint[T], error)
	Delete(ctx context.Context, key CheckpointKey) error
}

// Checkpointer handles state persistence during execution
type Checkpointer[T state.GraphState[T]] interface {
	// Save persists the current execution snapshot
	Save(ctx context.Context, config Config[T], data *DataPoint[T]) error
	// Load retrieves the last snapshot for the thread
	Load(ctx context.Context, config Config[T]) (*DataPoint[T], error)
}
