// Package state defines the contracts a workflow state must satisfy and
// ships the message-list state used by conversational agents.
package state

// Mergeable merges a partial update into a state, returning the result.
// Nodes return deltas; the engine folds them in with Merge.
type Mergeable[T any] interface {
	Merge(T) T
}

// State represents the base interface for any state type.
type State interface {
	// Validate validates the state
	Validate() error
}

// GraphState combines both interfaces for graph states.
type GraphState[T any] interface {
	State
	Mergeable[T]
}
