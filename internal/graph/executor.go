package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paceline/paceline/pkg/state"
	"github.com/paceline/paceline/pkg/types"
)

type NextNode struct {
	Target string // Next node to execute
	Then   string // Optional post-processing node
}

func executeNode[T state.GraphState[T]](
	ctx context.Context,
	node NodeSpec[T],
	st T,
	config types.Config[T],
) (types.NodeResponse[T], error) {
	maxAttempts := DefaultMaxRetries
	if node.RetryPolicy != nil && node.RetryPolicy.MaxAttempts > 0 {
		maxAttempts = node.RetryPolicy.MaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 && node.RetryPolicy != nil && node.RetryPolicy.Delay > 0 {
			select {
			case <-ctx.Done():
				return types.NodeResponse[T]{}, ctx.Err()
			case <-time.After(node.RetryPolicy.Delay):
			}
		}

		resp, err := node.Function(ctx, st, config)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return types.NodeResponse[T]{}, fmt.Errorf("failed to execute node %s: %w", node.Name, lastErr)
}

func saveCheckpoint[T state.GraphState[T]](
	ctx context.Context,
	st T,
	node string,
	status types.NodeExecutionStatus,
	steps int,
	config types.Config[T],
	nodeQueue ...string,
) error {
	if config.Checkpointer == nil {
		return nil
	}

	data := &types.DataPoint[T]{
		State:       st,
		CurrentNode: node,
		Status:      status,
		Steps:       steps,
		NodeQueue:   nodeQueue,
	}
	if err := config.Checkpointer.Save(ctx, config, data); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func loadOrInitCheckpoint[T state.GraphState[T]](
	ctx context.Context,
	entryPoint string,
	initialState T,
	config types.Config[T],
) types.DataPoint[T] {
	data := types.DataPoint[T]{
		State:       initialState,
		CurrentNode: entryPoint,
		Status:      types.StatusReady,
		Steps:       0,
		NodeQueue:   []string{entryPoint},
	}

	if config.Checkpointer == nil {
		return data
	}

	// Load the last checkpoint if available
	if checkpoint, err := config.Checkpointer.Load(ctx, config); err == nil {
		data.State = checkpoint.State.Merge(initialState)
		data.Steps = checkpoint.Steps
		// Resume from the last pending node and skip the nodes that have
		// already completed. The pending node goes back to the front of
		// the queue so it runs again with the merged state.
		if checkpoint.Status == types.StatusPending {
			data.CurrentNode = checkpoint.CurrentNode
			data.NodeQueue = append([]string{checkpoint.CurrentNode}, checkpoint.NodeQueue...)
		}
	}

	return data
}

func checkExecutionLimits[T state.GraphState[T]](ctx context.Context, steps int, config types.Config[T]) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("execution cancelled: %w", ctx.Err())
	default:
	}

	if config.MaxSteps > 0 && steps >= config.MaxSteps {
		return fmt.Errorf("max steps reached (%d): %w", config.MaxSteps, ErrMaxSteps)
	}

	return nil
}

func execute[T state.GraphState[T]](
	ctx context.Context,
	graph *Graph[T],
	initialState T,
	config types.Config[T],
) (T, error) {
	if err := initialState.Validate(); err != nil {
		return initialState, fmt.Errorf("invalid initial state: %w", err)
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(config.Timeout)*time.Second)
		defer cancel()
	}

	// Load or initialize the state and checkpoint
	checkpoint := loadOrInitCheckpoint(ctx, graph.entryPoint, initialState, config)
	st := checkpoint.State
	steps := checkpoint.Steps
	nodeQueue := checkpoint.NodeQueue

	for len(nodeQueue) > 0 {
		if err := checkExecutionLimits(ctx, steps, config); err != nil {
			return st, err
		}

		// Pop next node
		current := nodeQueue[0]
		nodeQueue = nodeQueue[1:]

		if current == END {
			continue
		}

		// Execute current node
		node, exists := graph.nodes[current]
		if !exists {
			return st, fmt.Errorf("node %s: %w", current, ErrNodeNotFound)
		}

		if config.Debug {
			slog.Debug("executing node",
				"graph_id", config.GraphID,
				"thread_id", config.ThreadID,
				"node", current,
				"step", steps,
			)
		}

		resp, err := executeNode(ctx, node, st, config)
		if err != nil {
			return st, err
		}
		st = st.Merge(resp.State)

		// Save the checkpoint after executing the node
		if err = saveCheckpoint(
			ctx, st, current, resp.Status, steps, config, nodeQueue...,
		); err != nil {
			return st, err
		}

		// If the node is pending, return the current state so the caller
		// can resume the thread later
		if resp.Status == types.StatusPending {
			if config.Debug {
				slog.Debug("node pending, suspending execution",
					"graph_id", config.GraphID,
					"thread_id", config.ThreadID,
					"node", current,
				)
			}
			return st, nil
		}

		// Queue next nodes
		next, err := getNextNode(ctx, graph, current, st, config)
		if err != nil {
			// An end point node with nothing left to select is a clean exit
			if graph.endPoints[current] && errors.Is(err, ErrNoTransition) {
				break
			}
			return st, err
		}

		// Queue Then node if exists
		if next.Target != END {
			nodeQueue = append(nodeQueue, next.Target)
		}
		if next.Then != "" && next.Then != END {
			nodeQueue = append(nodeQueue, next.Then)
		}

		steps++
	}

	if config.Debug {
		slog.Debug("execution finished",
			"graph_id", config.GraphID,
			"thread_id", config.ThreadID,
			"steps", steps,
		)
	}
	return st, nil
}

func getNextNode[T state.GraphState[T]](
	ctx context.Context,
	graph *Graph[T],
	currentNode string,
	st T,
	config types.Config[T],
) (NextNode, error) {
	// Check branches first
	for _, branch := range graph.branches[currentNode] {
		if target := branch.Path(ctx, st, config); target != "" {
			return NextNode{
				Target: target,
				Then:   branch.Then,
			}, nil
		}
	}

	// Fall back to direct edge
	for _, edge := range graph.edges {
		if edge.From == currentNode {
			return NextNode{Target: edge.To}, nil
		}
	}

	return NextNode{}, fmt.Errorf("no transition from node %s: %w", currentNode, ErrNoTransition)
}
