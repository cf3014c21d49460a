// Package engine evaluates flow graphs. Given an output node it
// recursively resolves the value of the subgraph feeding it, running
// user-supplied logic through a sandboxed script evaluator, and formats
// the results for display.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/chamlis/flowgrid/pkg/graph"
	"github.com/zclconf/go-cty/cty"
)

// MaxDepth bounds compute recursion. Connection admission does not reject
// long cycles, so a cyclic graph would otherwise recurse without end;
// hitting the bound surfaces as a runtime failure on the affected output.
const MaxDepth = 1000

// ErrNoOutputs reports an Execute call on a graph with no output nodes:
// there is nothing to run, and nothing is computed.
var ErrNoOutputs = errors.New("nothing to run: no output nodes in the flow")

// Reason classifies an evaluation failure.
type Reason int

const (
	ReasonNoCode   Reason = iota // logic node has no custom code
	ReasonRuntime                // script raised an error, or recursion was exhausted
	ReasonNoResult               // script completed without defining result
)

func (r Reason) String() string {
	switch r {
	case ReasonNoCode:
		return "no code"
	case ReasonRuntime:
		return "runtime failure"
	case ReasonNoResult:
		return "no result"
	default:
		return "unknown"
	}
}

// EvalError is an evaluation failure, surfaced per output at Execute time.
// Evaluation never mutates nodes, so a failure leaves no partial state
// behind.
type EvalError struct {
	Node    graph.NodeID
	Reason  Reason
	Message string
}

func (e EvalError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("node %s: %s", e.Node.Short(), e.Message)
	}
	return e.Message
}

// Result is the outcome of evaluating one output node.
type Result struct {
	Node    graph.NodeID `json:"node"`
	Label   string       `json:"label"`
	Display string       `json:"display"`
	Err     error        `json:"-"`
}

// Engine evaluates flow graphs. It keeps no state between runs: every
// Execute call recomputes the full subgraph behind each output from
// scratch, with no memoization across or within runs; a node feeding
// multiple downstream paths is recomputed once per path.
type Engine struct {
	eval ScriptEvaluator
	log  *slog.Logger
}

// NewEngine creates an Engine. A nil evaluator defaults to the zygomys
// sandbox and a nil logger to slog.Default().
func NewEngine(eval ScriptEvaluator, logger *slog.Logger) *Engine {
	if eval == nil {
		eval = NewZlispEvaluator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{eval: eval, log: logger}
}

// Compute resolves the value of a single node by walking its inputs
// recursively. Input nodes return their held value; logic nodes run their
// custom code against the positionally bound values of their inputs;
// output nodes return the value of their first input, or the no-value
// sentinel when nothing is connected.
func (e *Engine) Compute(g *graph.FlowGraph, n *graph.Node) (graph.Value, error) {
	return e.compute(g, n, 0)
}

func (e *Engine) compute(g *graph.FlowGraph, n *graph.Node, depth int) (graph.Value, error) {
	if depth > MaxDepth {
		return graph.NoValue, EvalError{
			Node:    n.ID,
			Reason:  ReasonRuntime,
			Message: "maximum evaluation depth exceeded (does the flow contain a cycle?)",
		}
	}

	switch n.Kind {
	case graph.KindInput:
		return n.Value, nil

	case graph.KindLogic:
		if n.CustomCode == "" {
			return graph.NoValue, EvalError{
				Node:    n.ID,
				Reason:  ReasonNoCode,
				Message: "no custom code defined for logic node",
			}
		}
		inputs := make([]graph.Value, 0, len(n.Inputs))
		for _, id := range n.Inputs {
			up := g.Get(id)
			if up == nil {
				return graph.NoValue, EvalError{
					Node:    n.ID,
					Reason:  ReasonRuntime,
					Message: fmt.Sprintf("input %s is not in the graph", id.Short()),
				}
			}
			v, err := e.compute(g, up, depth+1)
			if err != nil {
				// Propagate the upstream failure unchanged: no
				// partial results.
				return graph.NoValue, err
			}
			inputs = append(inputs, v)
		}
		v, err := e.eval.Eval(n.CustomCode, inputs)
		if err != nil {
			if errors.Is(err, ErrNoResult) {
				return graph.NoValue, EvalError{
					Node:    n.ID,
					Reason:  ReasonNoResult,
					Message: "no result variable set in custom code",
				}
			}
			return graph.NoValue, EvalError{
				Node:    n.ID,
				Reason:  ReasonRuntime,
				Message: "error in custom code: " + err.Error(),
			}
		}
		return v, nil

	case graph.KindOutput:
		// Only the first connected source is honored; admission keeps
		// output fan-in at one.
		if len(n.Inputs) == 0 {
			return graph.NoValue, nil
		}
		up := g.Get(n.Inputs[0])
		if up == nil {
			return graph.NoValue, EvalError{
				Node:    n.ID,
				Reason:  ReasonRuntime,
				Message: fmt.Sprintf("input %s is not in the graph", n.Inputs[0].Short()),
			}
		}
		return e.compute(g, up, depth+1)
	}

	return graph.NoValue, EvalError{
		Node:    n.ID,
		Reason:  ReasonRuntime,
		Message: fmt.Sprintf("unknown node kind %d", int(n.Kind)),
	}
}

// Execute evaluates every output node in the graph and formats the results
// for display. Failures are isolated per output: a failed computation is
// recorded on its Result, the display falls back to N/A, and the remaining
// outputs still evaluate. A graph with no output nodes fails with
// ErrNoOutputs before anything is computed.
func (e *Engine) Execute(g *graph.FlowGraph) ([]Result, error) {
	outs := g.OutputNodes()
	if len(outs) == 0 {
		return nil, ErrNoOutputs
	}

	e.log.Debug("executing flow", "outputs", len(outs), "nodes", g.NodeCount())

	results := make([]Result, 0, len(outs))
	for _, n := range outs {
		r := Result{Node: n.ID, Label: n.Label}
		v, err := e.Compute(g, n)
		if err != nil {
			e.log.Warn("output evaluation failed", "node", n.ID.Short(), "err", err)
			r.Err = err
			r.Display = NoValueDisplay
		} else {
			r.Display = FormatValue(v)
		}
		results = append(results, r)
	}
	return results, nil
}

// NoValueDisplay is how the no-value sentinel renders.
const NoValueDisplay = "N/A"

// FormatValue renders a computed value for display: numbers with exactly
// two digits after the decimal point, text verbatim, booleans as true or
// false, and the no-value sentinel as N/A.
func FormatValue(v graph.Value) string {
	if v.IsNull() {
		return NoValueDisplay
	}
	switch v.Type() {
	case cty.Number:
		return v.AsBigFloat().Text('f', 2)
	case cty.String:
		return v.AsString()
	case cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	}
	return v.GoString()
}
