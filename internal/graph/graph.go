// Package graph implements a typed execution graph. Nodes carry state
// transformations, edges and branches carry control flow, and a compiled
// graph runs the whole thing step by step with checkpoint support.
//
// State flows through the graph as deltas. A node returns only what it
// changed and the engine folds the delta into the accumulated state via
// the state's own Merge method.
package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/paceline/paceline/pkg/state"
	"github.com/paceline/paceline/pkg/types"
	"github.com/pkg/errors"
)

const defaultGraphName = "graph"

// Graph represents the base graph structure
type Graph[T state.GraphState[T]] struct {
	graphID  string
	nodes    map[string]NodeSpec[T]
	edges    []Edge
	branches map[string][]Branch[T]
	channels map[string]types.Channel[T]

	entryPoint string
	endPoints  map[string]bool
	compiled   bool
}

type Option[T state.GraphState[T]] func(*Graph[T])

func WithGraphID[T state.GraphState[T]](id string) Option[T] {
	return func(g *Graph[T]) {
		g.graphID = id
	}
}

// NewGraph creates a new graph instance
func NewGraph[T state.GraphState[T]](name string, opt ...Option[T]) *Graph[T] {
	graphName := defaultGraphName
	if name != "" {
		graphName = name
	}

	g := Graph[T]{
		graphID:   uuid.New().String(),
		nodes:     make(map[string]NodeSpec[T]),
		branches:  make(map[string][]Branch[T]),
		channels:  make(map[string]types.Channel[T]),
		endPoints: make(map[string]bool),
	}
	for _, o := range opt {
		o(&g)
	}

	// remove spaces
	graphName = strings.ReplaceAll(graphName, " ", "-")
	// prepend graph name to graphID
	g.graphID = fmt.Sprintf("%s-%s", graphName, g.graphID)
	return &g
}

// ID returns the unique identifier of the graph
func (g *Graph[T]) ID() string {
	return g.graphID
}

// HasNode reports whether a node with the given name exists
func (g *Graph[T]) HasNode(name string) bool {
	_, exists := g.nodes[name]
	return exists
}

// Nodes returns the names of all registered nodes
func (g *Graph[T]) Nodes() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	return names
}

// AddNode adds a new node to the graph
func (g *Graph[T]) AddNode(name string, fn NodeFunc[T], metadata map[string]any) error {
	if g.compiled {
		return errors.Wrap(ErrAlreadyCompiled, "cannot add node")
	}

	if name == START || name == END {
		return fmt.Errorf("node name %s is reserved", name)
	}

	if _, exists := g.nodes[name]; exists {
		return errors.Wrapf(ErrDuplicateNode, "node %s", name)
	}

	g.nodes[name] = NodeSpec[T]{
		Name:     name,
		Function: fn,
		Metadata: metadata,
	}

	return nil
}

// SetNodeRetryPolicy attaches a retry policy to an existing node
func (g *Graph[T]) SetNodeRetryPolicy(name string, policy RetryPolicy) error {
	node, exists := g.nodes[name]
	if !exists {
		return errors.Wrapf(ErrNodeNotFound, "node %s", name)
	}
	node.RetryPolicy = &policy
	g.nodes[name] = node
	return nil
}

// AddEdge methods for edge management
func (g *Graph[T]) AddEdge(from, to string, metadata map[string]any) error {
	if g.compiled {
		return errors.Wrap(ErrAlreadyCompiled, "cannot add edge")
	}

	if err := g.validateEdgeNodes(from, []string{to}); err != nil {
		return err
	}

	g.edges = append(g.edges, Edge{
		From:     from,
		To:       to,
		Metadata: metadata,
	})

	return nil
}

// AddBranch adds a conditional branch from a node
func (g *Graph[T]) AddBranch(from string, path CondFunc[T], then string, metadata map[string]any) error {
	if g.compiled {
		return errors.Wrap(ErrAlreadyCompiled, "cannot add branch")
	}

	// Validate source node
	if _, exists := g.nodes[from]; !exists {
		return fmt.Errorf("source node %s does not exist", from)
	}

	// Validate target node if specified
	if then != "" && then != END {
		if _, exists := g.nodes[then]; !exists {
			return fmt.Errorf("target node %s does not exist", then)
		}
	}

	branch := Branch[T]{
		Path:     path,
		Then:     then,
		Metadata: metadata,
	}

	g.branches[from] = append(g.branches[from], branch)
	return nil
}

// AddChannel adds a state management channel
func (g *Graph[T]) AddChannel(name string, channel types.Channel[T]) error {
	if g.compiled {
		return errors.Wrap(ErrAlreadyCompiled, "cannot add channel")
	}

	if _, exists := g.channels[name]; exists {
		return fmt.Errorf("channel %s already exists", name)
	}

	g.channels[name] = channel
	return nil
}

// Channel returns a registered channel by name
func (g *Graph[T]) Channel(name string) (types.Channel[T], bool) {
	ch, exists := g.channels[name]
	return ch, exists
}

// AddConditionalEdge adds edges to all possible targets plus a branch that
// selects among them at runtime. A condition result outside the allowed
// targets selects nothing and falls through to plain edges.
func (g *Graph[T]) AddConditionalEdge(from string, possibleTargets []string, condition CondFunc[T], metadata map[string]any) error {
	// Validate nodes first
	if err := g.validateEdgeNodes(from, possibleTargets); err != nil {
		return err
	}

	for _, target := range possibleTargets {
		if err := g.AddEdge(from, target, metadata); err != nil {
			return errors.Wrapf(err, "failed to add conditional edge target %s", target)
		}
	}

	// Create branch with validated condition
	return g.AddBranch(from,
		func(ctx context.Context, st T, cfg types.Config[T]) string {
			next := condition(ctx, st, cfg)
			// Validate target is allowed
			for _, target := range possibleTargets {
				if target == next {
					return next
				}
			}
			return ""
		},
		"", // No then node
		metadata,
	)
}

// validateEdgeNodes validates source and target nodes
func (g *Graph[T]) validateEdgeNodes(from string, targets []string) error {
	if from == END {
		return errors.New("cannot add edge from END node")
	}

	// Validate source node exists
	if _, exists := g.nodes[from]; !exists {
		return fmt.Errorf("source node %s does not exist", from)
	}

	// Validate all possible targets exist
	for _, target := range targets {
		if target == START {
			return errors.New("cannot add edge to START node")
		}
		if target != END {
			if _, exists := g.nodes[target]; !exists {
				return fmt.Errorf("target node %s does not exist", target)
			}
		}
	}

	return nil
}

// SetEntryPoint sets the entry point of the graph
func (g *Graph[T]) SetEntryPoint(name string) error {
	if g.compiled {
		return errors.Wrap(ErrAlreadyCompiled, "cannot set entry point")
	}

	if name == END {
		return errors.New("cannot set END as entry point")
	}

	if _, exists := g.nodes[name]; !exists {
		return errors.Wrapf(ErrNodeNotFound, "node %s", name)
	}

	g.entryPoint = name
	return nil
}

// SetEndPoint marks a node as a valid exit. Validation accepts it as a
// path to END, which permits cyclic graphs, and execution ends cleanly
// when the node completes with no outgoing transition left to take.
func (g *Graph[T]) SetEndPoint(name string) error {
	if g.compiled {
		return errors.Wrap(ErrAlreadyCompiled, "cannot set end point")
	}

	if name == START {
		return errors.New("cannot set START as end point")
	}

	if _, exists := g.nodes[name]; !exists {
		return errors.Wrapf(ErrNodeNotFound, "node %s", name)
	}

	g.endPoints[name] = true
	return nil
}

// Validate checks the graph is runnable: an entry point is set, every
// node is reachable from it and at least one reachable node leads to END.
func (g *Graph[T]) Validate() error {
	if g.entryPoint == "" {
		return ErrNoEntryPoint
	}

	// Check if entry point exists
	if _, exists := g.nodes[g.entryPoint]; !exists {
		return fmt.Errorf("entry point node %s does not exist", g.entryPoint)
	}

	// Walk every edge from the entry point
	reachable := make(map[string]bool)
	g.walk(g.entryPoint, reachable)

	// Check all nodes are reachable
	for node := range g.nodes {
		if !reachable[node] {
			return fmt.Errorf("node %s is unreachable from entry point", node)
		}
	}

	// Verify path to END exists, end point nodes count as exits
	if !reachable[END] && !g.hasReachableEndPoint(reachable) {
		return ErrNoEndPoint
	}

	return nil
}

func (g *Graph[T]) walk(node string, seen map[string]bool) {
	if seen[node] {
		return
	}
	seen[node] = true
	if node == END {
		return
	}

	for _, edge := range g.edges {
		if edge.From == node {
			g.walk(edge.To, seen)
		}
	}
	for _, branch := range g.branches[node] {
		if branch.Then != "" {
			g.walk(branch.Then, seen)
		}
	}
}

func (g *Graph[T]) hasReachableEndPoint(reachable map[string]bool) bool {
	for node := range g.endPoints {
		if reachable[node] {
			return true
		}
	}
	return false
}
