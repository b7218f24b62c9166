package graph

import (
	"github.com/pkg/errors"
)

var (
	// ErrAlreadyCompiled is returned when attempting to modify a compiled graph
	ErrAlreadyCompiled = errors.New("graph is already compiled and cannot be modified")

	// ErrDuplicateNode is returned when adding a node that already exists
	ErrDuplicateNode = errors.New("node with this name already exists")

	// ErrNodeNotFound is returned when referencing a non-existent node
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoEntryPoint is returned when validating a graph with no entry point
	ErrNoEntryPoint = errors.New("graph must have an entry point")

	// ErrNoEndPoint is returned when no reachable node leads to END
	ErrNoEndPoint = errors.New("graph must have at least one path to END")

	// ErrMaxSteps is returned when execution exceeds the configured step limit
	ErrMaxSteps = errors.New("max steps reached")

	// ErrNoTransition is returned when a completed node has no outgoing
	// edge or branch that selects a successor
	ErrNoTransition = errors.New("no outgoing transition")
)
