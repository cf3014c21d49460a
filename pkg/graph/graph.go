package graph

import (
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Connection is a directed edge between two nodes. It carries no state
// beyond the identity of its endpoints.
type Connection struct {
	Source NodeID `json:"source"`
	Target NodeID `json:"target"`
}

// FlowGraph owns every node of a session and the connections between them.
// Nodes are created singly, mutated in place, and destroyed individually;
// destroying a node removes its incident connections first.
//
// A FlowGraph is not safe for concurrent use. Evaluation and mutation are
// synchronous; callers (presentation adapters) serialize access.
type FlowGraph struct {
	nodes map[NodeID]*Node
	order []NodeID // insertion order, for deterministic iteration
}

// New creates an empty FlowGraph.
func New() *FlowGraph {
	return &FlowGraph{
		nodes: make(map[NodeID]*Node),
	}
}

// AddNode allocates a node with a fresh unique id and kind-dependent
// defaults, registers it, and returns it. Input nodes start with the number
// value 0; logic nodes with empty custom code; the label defaults to the
// kind name and the data type to Float on every node.
func (g *FlowGraph) AddNode(kind NodeKind, x, y float64) *Node {
	n := &Node{
		ID:       NewNodeID(),
		Kind:     kind,
		Label:    kind.String(),
		DataType: TypeFloat,
		Value:    NoValue,
		X:        x,
		Y:        y,
	}
	if kind == KindInput {
		n.Value = cty.Zero
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return n
}

// Get returns the node with the given id, or nil.
func (g *FlowGraph) Get(id NodeID) *Node {
	return g.nodes[id]
}

// Nodes returns all nodes in insertion order.
func (g *FlowGraph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// NodeCount returns the total number of nodes.
func (g *FlowGraph) NodeCount() int {
	return len(g.nodes)
}

// InputNodes returns all input nodes in insertion order.
func (g *FlowGraph) InputNodes() []*Node {
	var nodes []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.Kind == KindInput {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// OutputNodes returns all output nodes in insertion order.
func (g *FlowGraph) OutputNodes() []*Node {
	var nodes []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.Kind == KindOutput {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// DeleteNode removes a node and every connection incident to it, updating
// both endpoints of each removed connection. Deleting an id that is not in
// the registry is a no-op, so a second delete of the same node is not an
// error.
func (g *FlowGraph) DeleteNode(id NodeID) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	g.removeAllConnectionsOf(n)
	delete(g.nodes, id)
	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// CanConnect reports whether a connection from source to target would be
// structurally valid. It returns nil if so, or the specific rejection:
//
//	ErrSelfLoop       source and target are the same node
//	ErrDuplicateEdge  the same directed edge already exists
//	ErrOutputOccupied target is an output node that already has an input
//
// The checks are evaluated in that order. Longer cycles (A→B→C→A, or the
// reverse edge of an existing pair) are not detected here; they surface at
// evaluation time and in Validate diagnostics.
func (g *FlowGraph) CanConnect(source, target *Node) error {
	if source == target {
		return ErrSelfLoop
	}
	if containsID(source.Outputs, target.ID) {
		return ErrDuplicateEdge
	}
	if target.Kind == KindOutput && len(target.Inputs) >= 1 {
		return ErrOutputOccupied
	}
	return nil
}

// Connect creates a directed edge from source to target, appending target
// to source.Outputs and source to target.Inputs together. It fails with
// ErrNodeNotFound for unknown ids and with the CanConnect rejection when
// the edge would be invalid; on failure the graph is unchanged.
func (g *FlowGraph) Connect(sourceID, targetID NodeID) error {
	source := g.nodes[sourceID]
	target := g.nodes[targetID]
	if source == nil || target == nil {
		return ErrNodeNotFound
	}
	if err := g.CanConnect(source, target); err != nil {
		return err
	}
	source.Outputs = append(source.Outputs, target.ID)
	target.Inputs = append(target.Inputs, source.ID)
	return nil
}

// Disconnect removes the edge from source to target if present, updating
// both endpoints. Removing an edge that does not exist is a no-op. Unknown
// ids fail with ErrNodeNotFound.
func (g *FlowGraph) Disconnect(sourceID, targetID NodeID) error {
	source := g.nodes[sourceID]
	target := g.nodes[targetID]
	if source == nil || target == nil {
		return ErrNodeNotFound
	}
	source.Outputs = removeID(source.Outputs, target.ID)
	target.Inputs = removeID(target.Inputs, source.ID)
	return nil
}

// Connections returns the derived set of edges in deterministic order:
// sources in insertion order, each source's edges in connection order.
func (g *FlowGraph) Connections() []Connection {
	var conns []Connection
	for _, id := range g.order {
		n := g.nodes[id]
		for _, tid := range n.Outputs {
			conns = append(conns, Connection{Source: n.ID, Target: tid})
		}
	}
	return conns
}

// SetInputValue coerces raw text per the given data type and stores the
// result on an input node. Value and data type are updated together; on a
// coercion failure both keep their prior state and the error is returned.
func (g *FlowGraph) SetInputValue(id NodeID, t DataType, raw string) error {
	n := g.nodes[id]
	if n == nil {
		return ErrNodeNotFound
	}
	if n.Kind != KindInput {
		return ErrNotInputNode
	}
	v, err := Coerce(t, raw)
	if err != nil {
		return err
	}
	n.Value = v
	n.DataType = t
	return nil
}

// SetCustomCode replaces a logic node's code, trimming leading and trailing
// whitespace.
func (g *FlowGraph) SetCustomCode(id NodeID, code string) error {
	n := g.nodes[id]
	if n == nil {
		return ErrNodeNotFound
	}
	if n.Kind != KindLogic {
		return ErrNotLogicNode
	}
	n.CustomCode = strings.TrimSpace(code)
	return nil
}

// SetLabel replaces a node's display label.
func (g *FlowGraph) SetLabel(id NodeID, label string) error {
	n := g.nodes[id]
	if n == nil {
		return ErrNodeNotFound
	}
	n.Label = label
	return nil
}

// MoveNode updates a node's stored position.
func (g *FlowGraph) MoveNode(id NodeID, x, y float64) error {
	n := g.nodes[id]
	if n == nil {
		return ErrNodeNotFound
	}
	n.X = x
	n.Y = y
	return nil
}

// removeAllConnectionsOf removes every edge where n is source or target,
// updating the opposite endpoint of each.
func (g *FlowGraph) removeAllConnectionsOf(n *Node) {
	for _, tid := range n.Outputs {
		if t := g.nodes[tid]; t != nil {
			t.Inputs = removeID(t.Inputs, n.ID)
		}
	}
	for _, sid := range n.Inputs {
		if s := g.nodes[sid]; s != nil {
			s.Outputs = removeID(s.Outputs, n.ID)
		}
	}
	n.Outputs = nil
	n.Inputs = nil
}

func containsID(ids []NodeID, id NodeID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// removeID removes the first occurrence of id, preserving order.
func removeID(ids []NodeID, id NodeID) []NodeID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
