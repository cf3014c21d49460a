package graph

import "errors"

// Connection and registry rejections. All are recovered locally: the caller
// is informed and the graph is left unchanged.
var (
	// ErrNodeNotFound is returned when an operation references an id that
	// is not (or is no longer) in the registry.
	ErrNodeNotFound = errors.New("node not found")

	// ErrSelfLoop rejects a connection from a node to itself.
	ErrSelfLoop = errors.New("node cannot connect to itself")

	// ErrDuplicateEdge rejects a connection that already exists between
	// the same ordered pair of nodes.
	ErrDuplicateEdge = errors.New("connection already exists")

	// ErrOutputOccupied rejects a second incoming connection on an output
	// node: output nodes accept at most one input.
	ErrOutputOccupied = errors.New("output node can have only 1 input")

	// ErrNotInputNode is returned when a value is set on a node that is
	// not an input node.
	ErrNotInputNode = errors.New("node is not an input node")

	// ErrNotLogicNode is returned when custom code is set on a node that
	// is not a logic node.
	ErrNotLogicNode = errors.New("node is not a logic node")
)
