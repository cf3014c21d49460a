package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/chamlis/flowgrid/pkg/engine"
	"github.com/chamlis/flowgrid/pkg/graph"
)

// inputPalette colors input nodes; each new input takes the next entry.
var inputPalette = []string{
	"#81D4FA", "#FF8A80", "#80D8FF", "#CFD8DC",
}

const (
	logicColor  = "#A5D6A7"
	outputColor = "#FFE082"
)

// App is the Wails backend. It exposes the flow editor operations to the
// frontend via bindings and owns the single graph being edited. Bindings
// serialize on a mutex: the frontend is event-driven and edits must not
// interleave with a running evaluation.
type App struct {
	ctx    context.Context
	mu     sync.Mutex
	graph  *graph.FlowGraph
	engine *engine.Engine
	log    *slog.Logger
}

// NodeData is the JSON-serializable node representation sent to the
// frontend.
type NodeData struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Label      string   `json:"label"`
	DataType   string   `json:"dataType"`
	Value      string   `json:"value"`
	CustomCode string   `json:"customCode"`
	Display    string   `json:"display"`
	Color      string   `json:"color"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Inputs     []string `json:"inputs"`
	Outputs    []string `json:"outputs"`
}

// ConnectionData is a JSON-serializable directed edge.
type ConnectionData struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// GraphData is the full editor state sent to the frontend.
type GraphData struct {
	Nodes       []NodeData       `json:"nodes"`
	Connections []ConnectionData `json:"connections"`
}

// RunResultData is the outcome of one output node after a run.
type RunResultData struct {
	Node    string `json:"node"`
	Label   string `json:"label"`
	Display string `json:"display"`
	Error   string `json:"error,omitempty"`
}

// RunData is the full result of a run. Error is set when the run could not
// start at all (no output nodes); per-output failures land on the results.
type RunData struct {
	Results []RunResultData `json:"results"`
	Error   string          `json:"error,omitempty"`
}

// DiagnosticData is a JSON-serializable validation finding.
type DiagnosticData struct {
	Node     string `json:"node,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// LogicEditorData is what the code editor dialog needs: the node's code
// (or the starter template) and a summary of the connected inputs.
type LogicEditorData struct {
	Code          string `json:"code"`
	InputsSummary string `json:"inputsSummary"`
}

// NewApp creates a new App with an empty graph.
func NewApp() *App {
	logger := slog.Default()
	return &App{
		graph:  graph.New(),
		engine: engine.NewEngine(nil, logger),
		log:    logger,
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// CreateNode adds a node of the given kind ("INPUT", "LOGIC", "OUTPUT")
// and places it on a 3-per-row grid so new nodes never stack.
func (a *App) CreateNode(kind string) (NodeData, error) {
	k, err := graph.ParseNodeKind(kind)
	if err != nil {
		return NodeData{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	count := a.graph.NodeCount()
	x := float64(100 + (count%3)*150)
	y := float64(100 + (count/3)*100)
	n := a.graph.AddNode(k, x, y)

	a.log.Debug("node created", "id", n.ID.Short(), "kind", k)
	return a.toNodeData(n), nil
}

// DeleteNode removes a node and all its connections. Unknown ids are a
// no-op.
func (a *App) DeleteNode(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.graph.DeleteNode(graph.NodeID(id))
}

// Connect adds a directed connection from source to target.
func (a *App) Connect(source, target string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.graph.Connect(graph.NodeID(source), graph.NodeID(target))
}

// Disconnect removes the connection from source to target, if present.
func (a *App) Disconnect(source, target string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.graph.Disconnect(graph.NodeID(source), graph.NodeID(target))
}

// SetInputValue updates an input node's declared type and value from the
// editor's raw text.
func (a *App) SetInputValue(id, dataType, value string) error {
	dt, err := graph.ParseDataType(dataType)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.graph.SetInputValue(graph.NodeID(id), dt, value)
}

// SetCustomCode stores the logic node's script.
func (a *App) SetCustomCode(id, code string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.graph.SetCustomCode(graph.NodeID(id), code)
}

// SetLabel renames a node.
func (a *App) SetLabel(id, label string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.graph.SetLabel(graph.NodeID(id), label)
}

// MoveNode records a node's new canvas position after a drag.
func (a *App) MoveNode(id string, x, y float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.graph.MoveNode(graph.NodeID(id), x, y)
}

// GetGraph returns the full editor state for rendering.
func (a *App) GetGraph() GraphData {
	a.mu.Lock()
	defer a.mu.Unlock()

	data := GraphData{
		Nodes:       []NodeData{},
		Connections: []ConnectionData{},
	}
	for _, n := range a.graph.Nodes() {
		data.Nodes = append(data.Nodes, a.toNodeData(n))
	}
	for _, c := range a.graph.Connections() {
		data.Connections = append(data.Connections, ConnectionData{
			Source: string(c.Source),
			Target: string(c.Target),
		})
	}
	return data
}

// RunFlow evaluates every output node. A graph without outputs returns
// a top-level error message; individual failures are reported per output
// and do not stop the others.
func (a *App) RunFlow() RunData {
	a.mu.Lock()
	defer a.mu.Unlock()

	data := RunData{Results: []RunResultData{}}
	results, err := a.engine.Execute(a.graph)
	if err != nil {
		data.Error = err.Error()
		return data
	}
	for _, r := range results {
		rd := RunResultData{
			Node:    string(r.Node),
			Label:   r.Label,
			Display: r.Display,
		}
		if r.Err != nil {
			rd.Error = r.Err.Error()
		}
		data.Results = append(data.Results, rd)
	}
	return data
}

// ValidateGraph reports structural findings for the problems panel.
func (a *App) ValidateGraph() []DiagnosticData {
	a.mu.Lock()
	defer a.mu.Unlock()

	diags := []DiagnosticData{}
	for _, d := range graph.Validate(a.graph) {
		diags = append(diags, DiagnosticData{
			Node:     string(d.Node),
			Message:  d.Message,
			Severity: d.Severity.String(),
		})
	}
	return diags
}

// LogicEditorInfo returns what the code editor dialog shows for a logic
// node: its code (or the starter template when empty) and one line per
// connected input describing the value it will see.
func (a *App) LogicEditorInfo(id string) (LogicEditorData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.graph.Get(graph.NodeID(id))
	if n == nil {
		return LogicEditorData{}, graph.ErrNodeNotFound
	}
	if n.Kind != graph.KindLogic {
		return LogicEditorData{}, graph.ErrNotLogicNode
	}

	code := n.CustomCode
	if code == "" {
		code = engine.CodeTemplate
	}

	var summary strings.Builder
	for i, id := range n.Inputs {
		up := a.graph.Get(id)
		if up == nil {
			continue
		}
		fmt.Fprintf(&summary, "input_%d: %s = %s\n", i, up.DataType, graph.DisplayValue(up.Value))
	}
	text := summary.String()
	if text == "" {
		text = "No inputs connected"
	}

	return LogicEditorData{Code: code, InputsSummary: text}, nil
}

// toNodeData converts a node for the frontend; the caller holds the lock.
func (a *App) toNodeData(n *graph.Node) NodeData {
	return NodeData{
		ID:         string(n.ID),
		Kind:       n.Kind.String(),
		Label:      n.Label,
		DataType:   n.DataType.String(),
		Value:      graph.DisplayValue(n.Value),
		CustomCode: n.CustomCode,
		Display:    a.displayText(n),
		Color:      a.nodeColor(n),
		X:          n.X,
		Y:          n.Y,
		Inputs:     idList(n.Inputs),
		Outputs:    idList(n.Outputs),
	}
}

// displayText is the node body text: inputs show their type and value,
// outputs show N/A until a run supplies a result.
func (a *App) displayText(n *graph.Node) string {
	switch n.Kind {
	case graph.KindInput:
		return fmt.Sprintf("%s\n%s: %s", n.Label, n.DataType, graph.DisplayValue(n.Value))
	case graph.KindOutput:
		return n.Label + "\n" + engine.NoValueDisplay
	}
	return n.Label
}

// nodeColor assigns the visual color: inputs rotate through the palette in
// creation order, logic and output nodes have fixed colors.
func (a *App) nodeColor(n *graph.Node) string {
	switch n.Kind {
	case graph.KindLogic:
		return logicColor
	case graph.KindOutput:
		return outputColor
	}
	idx := 0
	for _, in := range a.graph.InputNodes() {
		if in.ID == n.ID {
			break
		}
		idx++
	}
	return inputPalette[idx%len(inputPalette)]
}

func idList(ids []graph.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
