package graph

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NodeID uniquely identifies a node for the lifetime of the session.
type NodeID string

// NewNodeID returns a fresh globally unique id.
func NewNodeID() NodeID {
	return NodeID(uuid.NewString())
}

// Short returns an abbreviated form of the id for error messages and logs.
func (id NodeID) Short() string {
	s := string(id)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// NodeKind enumerates the types of nodes in the flow graph.
// A node's kind is fixed for its lifetime and determines its behavior
// during evaluation.
type NodeKind int

const (
	KindInput  NodeKind = iota // holds a user-entered typed value
	KindLogic                  // runs user-supplied script code
	KindOutput                 // displays the value of its single input
)

func (k NodeKind) String() string {
	switch k {
	case KindInput:
		return "INPUT"
	case KindLogic:
		return "LOGIC"
	case KindOutput:
		return "OUTPUT"
	default:
		return "unknown"
	}
}

// ParseNodeKind converts a kind name ("INPUT", "logic", ...) into a
// NodeKind. The match is case-insensitive.
func ParseNodeKind(s string) (NodeKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INPUT":
		return KindInput, nil
	case "LOGIC":
		return KindLogic, nil
	case "OUTPUT":
		return KindOutput, nil
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}

// Node is the fundamental element of the flow graph.
//
// Inputs and Outputs are ordered lists of ids, not owning references; the
// FlowGraph resolves them on demand and is the sole owner of their mutual
// symmetry: A appears in B.Inputs exactly when B appears in A.Outputs.
// Input order is significant: it determines the positional input_i
// bindings seen by logic code.
type Node struct {
	ID         NodeID   `json:"id"`
	Kind       NodeKind `json:"kind"`
	Label      string   `json:"label"`
	DataType   DataType `json:"data_type"`
	Value      Value    `json:"-"`
	CustomCode string   `json:"custom_code,omitempty"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Inputs     []NodeID `json:"inputs,omitempty"`
	Outputs    []NodeID `json:"outputs,omitempty"`
}
