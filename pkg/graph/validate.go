package graph

import "fmt"

// Severity indicates whether a diagnostic reports a broken invariant or an
// advisory finding.
type Severity int

const (
	SeverityError   Severity = iota // invariant breach
	SeverityWarning                 // advisory
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Diagnostic describes a single validation finding.
type Diagnostic struct {
	Node     NodeID   // which node has the problem (empty if graph-level)
	Message  string   // human-readable description
	Severity Severity // error or warning
}

func (d Diagnostic) String() string {
	if d.Node == "" {
		return fmt.Sprintf("[%s] %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", d.Severity, d.Node.Short(), d.Message)
}

// Validate runs structural checks on the graph and returns its findings.
// An empty result means no findings. The function is read-only.
//
// Connection admission (CanConnect) deliberately does not detect cycles
// beyond the duplicate-edge case, so a graph can legally contain them;
// Validate reports such cycles as warnings only. Error-severity findings
// (asymmetric relations, dangling references, output fan-in over 1) can
// only arise from mutating nodes outside the FlowGraph operations.
func Validate(g *FlowGraph) []Diagnostic {
	var diags []Diagnostic
	diags = append(diags, validateRelations(g)...)
	diags = append(diags, validateFanIn(g)...)
	diags = append(diags, validateCycles(g)...)
	return diags
}

// validateRelations checks that every referenced id exists and that the
// Inputs/Outputs lists are mutually consistent: A in B.Inputs exactly when
// B in A.Outputs.
func validateRelations(g *FlowGraph) []Diagnostic {
	var diags []Diagnostic

	for _, n := range g.Nodes() {
		for _, tid := range n.Outputs {
			t := g.Get(tid)
			if t == nil {
				diags = append(diags, Diagnostic{
					Node:     n.ID,
					Message:  fmt.Sprintf("output reference %s does not exist", tid.Short()),
					Severity: SeverityError,
				})
				continue
			}
			if !containsID(t.Inputs, n.ID) {
				diags = append(diags, Diagnostic{
					Node:     n.ID,
					Message:  fmt.Sprintf("asymmetric connection: %s is missing the matching input reference", tid.Short()),
					Severity: SeverityError,
				})
			}
		}
		for _, sid := range n.Inputs {
			s := g.Get(sid)
			if s == nil {
				diags = append(diags, Diagnostic{
					Node:     n.ID,
					Message:  fmt.Sprintf("input reference %s does not exist", sid.Short()),
					Severity: SeverityError,
				})
				continue
			}
			if !containsID(s.Outputs, n.ID) {
				diags = append(diags, Diagnostic{
					Node:     n.ID,
					Message:  fmt.Sprintf("asymmetric connection: %s is missing the matching output reference", sid.Short()),
					Severity: SeverityError,
				})
			}
		}
	}

	return diags
}

// validateFanIn checks that no output node has more than one input.
func validateFanIn(g *FlowGraph) []Diagnostic {
	var diags []Diagnostic

	for _, n := range g.OutputNodes() {
		if len(n.Inputs) > 1 {
			diags = append(diags, Diagnostic{
				Node:     n.ID,
				Message:  fmt.Sprintf("output node has %d inputs, at most 1 is allowed", len(n.Inputs)),
				Severity: SeverityError,
			})
		}
	}

	return diags
}

// validateCycles checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully
// explored. A gray node reached during traversal means a cycle. Cycles are
// reported as warnings: evaluation of any output downstream of one fails
// with a depth error instead of completing.
func validateCycles(g *FlowGraph) []Diagnostic {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var diags []Diagnostic

	var visit func(id NodeID) bool // returns true if cycle found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			diags = append(diags, Diagnostic{
				Node:     id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityWarning,
			})
			return true
		}

		color[id] = gray

		n := g.Get(id)
		if n == nil {
			// Dangling reference; reported by validateRelations.
			color[id] = black
			return false
		}

		for _, tid := range n.Outputs {
			if visit(tid) {
				return true
			}
		}

		color[id] = black
		return false
	}

	// Start DFS from every node to catch disconnected components.
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			if visit(n.ID) {
				// One cycle warning is sufficient; stop early.
				break
			}
		}
	}

	return diags
}
