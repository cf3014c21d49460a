package graph

import (
	"errors"
	"testing"

	"github.com/zclconf/go-cty/cty"
)

func TestNewFlowGraph(t *testing.T) {
	g := New()
	if g.NodeCount() != 0 {
		t.Errorf("empty graph should have 0 nodes, got %d", g.NodeCount())
	}
	if len(g.Connections()) != 0 {
		t.Errorf("empty graph should have 0 connections, got %d", len(g.Connections()))
	}
}

func TestAddNodeDefaults(t *testing.T) {
	g := New()

	in := g.AddNode(KindInput, 100, 100)
	if in.Label != "INPUT" {
		t.Errorf("input label = %q, want %q", in.Label, "INPUT")
	}
	if in.DataType != TypeFloat {
		t.Errorf("input data type = %v, want Float", in.DataType)
	}
	if !in.Value.RawEquals(cty.Zero) {
		t.Errorf("input value = %#v, want 0", in.Value)
	}
	if in.X != 100 || in.Y != 100 {
		t.Errorf("position = (%v, %v), want (100, 100)", in.X, in.Y)
	}

	logic := g.AddNode(KindLogic, 250, 100)
	if logic.Label != "LOGIC" {
		t.Errorf("logic label = %q, want %q", logic.Label, "LOGIC")
	}
	if logic.CustomCode != "" {
		t.Errorf("new logic node should have no code, got %q", logic.CustomCode)
	}
	if !logic.Value.IsNull() {
		t.Errorf("logic value should start null, got %#v", logic.Value)
	}

	out := g.AddNode(KindOutput, 400, 100)
	if out.Label != "OUTPUT" {
		t.Errorf("output label = %q, want %q", out.Label, "OUTPUT")
	}
	if !out.Value.IsNull() {
		t.Errorf("output value should start null, got %#v", out.Value)
	}

	if g.NodeCount() != 3 {
		t.Errorf("node count = %d, want 3", g.NodeCount())
	}
}

func TestNodeIDUniqueness(t *testing.T) {
	g := New()
	seen := make(map[NodeID]bool)
	for i := 0; i < 100; i++ {
		n := g.AddNode(KindLogic, 0, 0)
		if seen[n.ID] {
			t.Fatalf("duplicate node id %s", n.ID)
		}
		seen[n.ID] = true
	}
}

func TestGet(t *testing.T) {
	g := New()
	n := g.AddNode(KindInput, 0, 0)

	if got := g.Get(n.ID); got != n {
		t.Errorf("Get returned wrong node")
	}
	if got := g.Get("missing"); got != nil {
		t.Errorf("Get for unknown id = %v, want nil", got)
	}
}

func TestNodesInsertionOrder(t *testing.T) {
	g := New()
	a := g.AddNode(KindInput, 0, 0)
	b := g.AddNode(KindLogic, 0, 0)
	c := g.AddNode(KindOutput, 0, 0)

	nodes := g.Nodes()
	if len(nodes) != 3 {
		t.Fatalf("len(Nodes()) = %d, want 3", len(nodes))
	}
	if nodes[0].ID != a.ID || nodes[1].ID != b.ID || nodes[2].ID != c.ID {
		t.Errorf("Nodes() not in creation order")
	}

	outs := g.OutputNodes()
	if len(outs) != 1 || outs[0].ID != c.ID {
		t.Errorf("OutputNodes() = %v, want [%s]", outs, c.ID)
	}
	ins := g.InputNodes()
	if len(ins) != 1 || ins[0].ID != a.ID {
		t.Errorf("InputNodes() = %v, want [%s]", ins, a.ID)
	}
}

func TestConnectSymmetry(t *testing.T) {
	g := New()
	a := g.AddNode(KindInput, 0, 0)
	b := g.AddNode(KindLogic, 0, 0)

	if err := g.Connect(a.ID, b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a.Outputs) != 1 || a.Outputs[0] != b.ID {
		t.Errorf("source outputs = %v, want [%s]", a.Outputs, b.ID)
	}
	if len(b.Inputs) != 1 || b.Inputs[0] != a.ID {
		t.Errorf("target inputs = %v, want [%s]", b.Inputs, a.ID)
	}

	conns := g.Connections()
	if len(conns) != 1 {
		t.Fatalf("connection count = %d, want 1", len(conns))
	}
	if conns[0].Source != a.ID || conns[0].Target != b.ID {
		t.Errorf("connection = %+v, want %s -> %s", conns[0], a.ID, b.ID)
	}
}

func TestConnectSelfLoop(t *testing.T) {
	g := New()
	a := g.AddNode(KindLogic, 0, 0)

	err := g.Connect(a.ID, a.ID)
	if !errors.Is(err, ErrSelfLoop) {
		t.Errorf("self connection error = %v, want ErrSelfLoop", err)
	}
	if len(a.Inputs) != 0 || len(a.Outputs) != 0 {
		t.Errorf("rejected connection must not mutate the node")
	}
}

func TestConnectDuplicate(t *testing.T) {
	g := New()
	a := g.AddNode(KindInput, 0, 0)
	b := g.AddNode(KindLogic, 0, 0)

	if err := g.Connect(a.ID, b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := g.Connect(a.ID, b.ID)
	if !errors.Is(err, ErrDuplicateEdge) {
		t.Errorf("duplicate connection error = %v, want ErrDuplicateEdge", err)
	}
	if len(a.Outputs) != 1 || len(b.Inputs) != 1 {
		t.Errorf("duplicate rejection must not add a second edge")
	}
}

func TestConnectReverseEdgeAllowed(t *testing.T) {
	// Only the same ordered pair counts as a duplicate. The reverse
	// direction is a distinct edge and is accepted, forming a 2-cycle.
	g := New()
	a := g.AddNode(KindLogic, 0, 0)
	b := g.AddNode(KindLogic, 0, 0)

	if err := g.Connect(a.ID, b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Connect(b.ID, a.ID); err != nil {
		t.Fatalf("reverse connection should be accepted, got %v", err)
	}
	if len(g.Connections()) != 2 {
		t.Errorf("connection count = %d, want 2", len(g.Connections()))
	}
}

func TestConnectOutputFanIn(t *testing.T) {
	g := New()
	a := g.AddNode(KindInput, 0, 0)
	b := g.AddNode(KindInput, 0, 0)
	out := g.AddNode(KindOutput, 0, 0)

	if err := g.Connect(a.ID, out.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := g.Connect(b.ID, out.ID)
	if !errors.Is(err, ErrOutputOccupied) {
		t.Errorf("second connection into output error = %v, want ErrOutputOccupied", err)
	}
	if len(out.Inputs) != 1 || out.Inputs[0] != a.ID {
		t.Errorf("output inputs = %v, want [%s]", out.Inputs, a.ID)
	}
	if len(b.Outputs) != 0 {
		t.Errorf("rejected source must not keep the edge")
	}
}

func TestConnectLogicFanIn(t *testing.T) {
	// Logic nodes accept any number of inputs, in connection order.
	g := New()
	logic := g.AddNode(KindLogic, 0, 0)

	var want []NodeID
	for i := 0; i < 4; i++ {
		in := g.AddNode(KindInput, 0, 0)
		if err := g.Connect(in.ID, logic.ID); err != nil {
			t.Fatalf("connection %d: unexpected error: %v", i, err)
		}
		want = append(want, in.ID)
	}

	if len(logic.Inputs) != 4 {
		t.Fatalf("logic inputs = %d, want 4", len(logic.Inputs))
	}
	for i, id := range want {
		if logic.Inputs[i] != id {
			t.Errorf("inputs[%d] = %s, want %s", i, logic.Inputs[i], id)
		}
	}
}

func TestConnectUnknownNode(t *testing.T) {
	g := New()
	a := g.AddNode(KindInput, 0, 0)

	if err := g.Connect(a.ID, "missing"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("connect to unknown target error = %v, want ErrNodeNotFound", err)
	}
	if err := g.Connect("missing", a.ID); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("connect from unknown source error = %v, want ErrNodeNotFound", err)
	}
}

func TestDisconnect(t *testing.T) {
	g := New()
	a := g.AddNode(KindInput, 0, 0)
	b := g.AddNode(KindLogic, 0, 0)

	if err := g.Connect(a.ID, b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Disconnect(a.ID, b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Outputs) != 0 || len(b.Inputs) != 0 {
		t.Errorf("disconnect must clear both sides")
	}

	// Disconnecting an absent edge is a no-op.
	if err := g.Disconnect(a.ID, b.ID); err != nil {
		t.Errorf("disconnect of absent edge: unexpected error: %v", err)
	}

	if err := g.Disconnect(a.ID, "missing"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("disconnect unknown node error = %v, want ErrNodeNotFound", err)
	}
}

func TestDeleteNodeCascade(t *testing.T) {
	g := New()
	in1 := g.AddNode(KindInput, 0, 0)
	in2 := g.AddNode(KindInput, 0, 0)
	hub := g.AddNode(KindLogic, 0, 0)
	out1 := g.AddNode(KindOutput, 0, 0)
	out2 := g.AddNode(KindOutput, 0, 0)

	for _, c := range []struct{ from, to NodeID }{
		{in1.ID, hub.ID},
		{in2.ID, hub.ID},
		{hub.ID, out1.ID},
		{hub.ID, out2.ID},
	} {
		if err := g.Connect(c.from, c.to); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	g.DeleteNode(hub.ID)

	if g.Get(hub.ID) != nil {
		t.Errorf("deleted node still present")
	}
	if g.NodeCount() != 4 {
		t.Errorf("node count = %d, want 4", g.NodeCount())
	}
	if len(g.Connections()) != 0 {
		t.Errorf("connections after cascade = %v, want none", g.Connections())
	}
	for _, n := range g.Nodes() {
		for _, id := range n.Inputs {
			if id == hub.ID {
				t.Errorf("node %s still references deleted node in inputs", n.ID.Short())
			}
		}
		for _, id := range n.Outputs {
			if id == hub.ID {
				t.Errorf("node %s still references deleted node in outputs", n.ID.Short())
			}
		}
	}
}

func TestDeleteNodePreservesOtherConnections(t *testing.T) {
	g := New()
	a := g.AddNode(KindInput, 0, 0)
	b := g.AddNode(KindLogic, 0, 0)
	c := g.AddNode(KindOutput, 0, 0)
	stray := g.AddNode(KindLogic, 0, 0)

	if err := g.Connect(a.ID, b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Connect(b.ID, c.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Connect(a.ID, stray.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g.DeleteNode(stray.ID)

	conns := g.Connections()
	if len(conns) != 2 {
		t.Fatalf("connection count = %d, want 2", len(conns))
	}
	if len(a.Outputs) != 1 || a.Outputs[0] != b.ID {
		t.Errorf("unrelated edge from %s was disturbed", a.ID.Short())
	}
}

func TestDeleteNodeIdempotent(t *testing.T) {
	g := New()
	n := g.AddNode(KindInput, 0, 0)
	g.DeleteNode(n.ID)
	g.DeleteNode(n.ID)
	g.DeleteNode("missing")
	if g.NodeCount() != 0 {
		t.Errorf("node count = %d, want 0", g.NodeCount())
	}
}

func TestSetInputValue(t *testing.T) {
	g := New()
	in := g.AddNode(KindInput, 0, 0)

	if err := g.SetInputValue(in.ID, TypeInteger, "42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !in.Value.RawEquals(cty.NumberIntVal(42)) {
		t.Errorf("value = %#v, want 42", in.Value)
	}
	if in.DataType != TypeInteger {
		t.Errorf("data type = %v, want Integer", in.DataType)
	}

	// Switching the declared type re-coerces the new text.
	if err := g.SetInputValue(in.ID, TypeBoolean, "Yes"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !in.Value.RawEquals(cty.True) {
		t.Errorf("value = %#v, want true", in.Value)
	}
	if in.DataType != TypeBoolean {
		t.Errorf("data type = %v, want Boolean", in.DataType)
	}
}

func TestSetInputValueFailureKeepsPriorState(t *testing.T) {
	g := New()
	in := g.AddNode(KindInput, 0, 0)
	if err := g.SetInputValue(in.ID, TypeInteger, "42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := g.SetInputValue(in.ID, TypeFloat, "abc")
	var ce CoercionError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want CoercionError", err)
	}
	if !in.Value.RawEquals(cty.NumberIntVal(42)) {
		t.Errorf("failed coercion must keep the prior value, got %#v", in.Value)
	}
	if in.DataType != TypeInteger {
		t.Errorf("failed coercion must keep the prior type, got %v", in.DataType)
	}
}

func TestSetInputValueWrongKind(t *testing.T) {
	g := New()
	logic := g.AddNode(KindLogic, 0, 0)

	if err := g.SetInputValue(logic.ID, TypeInteger, "1"); !errors.Is(err, ErrNotInputNode) {
		t.Errorf("error = %v, want ErrNotInputNode", err)
	}
	if err := g.SetInputValue("missing", TypeInteger, "1"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("error = %v, want ErrNodeNotFound", err)
	}
}

func TestSetCustomCode(t *testing.T) {
	g := New()
	logic := g.AddNode(KindLogic, 0, 0)

	if err := g.SetCustomCode(logic.ID, "  (def result 1)\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logic.CustomCode != "(def result 1)" {
		t.Errorf("code = %q, want trimmed", logic.CustomCode)
	}

	in := g.AddNode(KindInput, 0, 0)
	if err := g.SetCustomCode(in.ID, "(def result 1)"); !errors.Is(err, ErrNotLogicNode) {
		t.Errorf("error = %v, want ErrNotLogicNode", err)
	}
	if err := g.SetCustomCode("missing", ""); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("error = %v, want ErrNodeNotFound", err)
	}
}

func TestSetLabelAndMove(t *testing.T) {
	g := New()
	n := g.AddNode(KindInput, 10, 20)

	if err := g.SetLabel(n.ID, "temperature"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Label != "temperature" {
		t.Errorf("label = %q, want %q", n.Label, "temperature")
	}

	if err := g.MoveNode(n.ID, 300, 450); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.X != 300 || n.Y != 450 {
		t.Errorf("position = (%v, %v), want (300, 450)", n.X, n.Y)
	}

	if err := g.SetLabel("missing", "x"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("error = %v, want ErrNodeNotFound", err)
	}
	if err := g.MoveNode("missing", 0, 0); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("error = %v, want ErrNodeNotFound", err)
	}
}

func TestParseNodeKind(t *testing.T) {
	tests := []struct {
		in   string
		want NodeKind
	}{
		{"INPUT", KindInput},
		{"logic", KindLogic},
		{"Output", KindOutput},
	}
	for _, tt := range tests {
		got, err := ParseNodeKind(tt.in)
		if err != nil {
			t.Errorf("ParseNodeKind(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNodeKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseNodeKind("widget"); err == nil {
		t.Error("ParseNodeKind should reject unknown kinds")
	}
}

func TestNodeIDShort(t *testing.T) {
	id := NewNodeID()
	if len(id.Short()) != 8 {
		t.Errorf("Short() = %q, want 8 characters", id.Short())
	}
	if NodeID("abc").Short() != "abc" {
		t.Errorf("short ids should be returned whole")
	}
}
