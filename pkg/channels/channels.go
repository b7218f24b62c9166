// Package channels provides state exchange primitives that workflow
// nodes share outside the main state flow: a last-value cell and
// barriers that hold reads until every declared writer has reported.
package channels

import (
	"context"
	"fmt"
	"sync"

	"github.com/paceline/paceline/pkg/state"
	"github.com/paceline/paceline/pkg/types"
)

// BaseChannel provides common channel functionality
type BaseChannel[T state.GraphState[T]] struct {
	mu    sync.RWMutex
	state T
}

// LastValue is a channel that only keeps the most recent state
type LastValue[T state.GraphState[T]] struct {
	BaseChannel[T]
	written bool
}

func NewLastValue[T state.GraphState[T]]() *LastValue[T] {
	return &LastValue[T]{}
}

func (l *LastValue[T]) Read(_ context.Context, _ types.Config[T]) (T, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.written {
		var zero T
		return zero, fmt.Errorf("channel is empty")
	}
	return l.state, nil
}

func (l *LastValue[T]) Write(_ context.Context, value T, _ types.Config[T]) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = value
	l.written = true
	return nil
}

// BarrierChannel waits for all required inputs before allowing reads.
// Writers identify themselves through the config ThreadID.
type BarrierChannel[T state.GraphState[T]] struct {
	BaseChannel[T]
	inputs map[string]*T
}

func NewBarrierChannel[T state.GraphState[T]](required []string) *BarrierChannel[T] {
	inputs := make(map[string]*T, len(required))
	for _, r := range required {
		inputs[r] = nil
	}
	return &BarrierChannel[T]{inputs: inputs}
}

func (b *BarrierChannel[T]) Read(_ context.Context, _ types.Config[T]) (T, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for source, input := range b.inputs {
		if input == nil {
			var zero T
			return zero, fmt.Errorf("waiting for input from: %s", source)
		}
	}
	return b.state, nil
}

func (b *BarrierChannel[T]) Write(_ context.Context, value T, config types.Config[T]) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	source := config.ThreadID
	if _, exists := b.inputs[source]; !exists {
		return fmt.Errorf("unexpected input from: %s", source)
	}

	valueCopy := value
	b.inputs[source] = &valueCopy
	b.state = value
	return nil
}

// Gather returns each writer's contribution in the given order. It
// fails like Read while any writer is still missing.
func (b *BarrierChannel[T]) Gather(_ context.Context, order []string) ([]T, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]T, 0, len(order))
	for _, source := range order {
		input, exists := b.inputs[source]
		if !exists {
			return nil, fmt.Errorf("unknown input source: %s", source)
		}
		if input == nil {
			return nil, fmt.Errorf("waiting for input from: %s", source)
		}
		out = append(out, *input)
	}
	return out, nil
}

// DynamicBarrierChannel is a barrier whose writer set is declared
// incrementally instead of at construction.
type DynamicBarrierChannel[T state.GraphState[T]] struct {
	BaseChannel[T]
	inputs map[string]*T
}

func NewDynamicBarrierChannel[T state.GraphState[T]]() *DynamicBarrierChannel[T] {
	return &DynamicBarrierChannel[T]{
		inputs: make(map[string]*T),
	}
}

// AddRequired registers another writer the barrier must wait for.
func (d *DynamicBarrierChannel[T]) AddRequired(source string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.inputs[source]; !exists {
		d.inputs[source] = nil
	}
}

func (d *DynamicBarrierChannel[T]) Read(_ context.Context, _ types.Config[T]) (T, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for source, input := range d.inputs {
		if input == nil {
			var zero T
			return zero, fmt.Errorf("waiting for input from: %s", source)
		}
	}
	return d.state, nil
}

func (d *DynamicBarrierChannel[T]) Write(_ context.Context, value T, config types.Config[T]) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	source := config.ThreadID
	if _, exists := d.inputs[source]; !exists {
		return fmt.Errorf("unexpected input from: %s", source)
	}

	valueCopy := value
	d.inputs[source] = &valueCopy
	d.state = value
	return nil
}

// Interface conformance checks
var (
	_ types.Channel[state.MessagesState] = (*LastValue[state.MessagesState])(nil)
	_ types.Channel[state.MessagesState] = (*BarrierChannel[state.MessagesState])(nil)
	_ types.Channel[state.MessagesState] = (*DynamicBarrierChannel[state.MessagesState])(nil)
)
