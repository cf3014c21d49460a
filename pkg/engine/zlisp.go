package engine

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/chamlis/flowgrid/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/zclconf/go-cty/cty"
)

// ErrNoResult reports that a script ran to completion without defining the
// result variable.
var ErrNoResult = errors.New("script did not define result")

// ScriptEvaluator runs user logic code against positional input values.
// Implementations evaluate code in an isolated scope seeded only with
// bindings input_0, input_1, ... for the given values, and return whatever
// the script bound to result. The engine stays policy-agnostic about the
// script language; sandboxing and resource limits live behind this
// interface.
type ScriptEvaluator interface {
	Eval(code string, inputs []graph.Value) (graph.Value, error)
}

// CodeTemplate is the starter script an editor shows for a logic node that
// has no code yet.
const CodeTemplate = `// Available variables: input_0, input_1, etc. (based on connected inputs)
// Store your result in the variable result
// Example:
(def result (* input_0 2))
`

// ZlispEvaluator runs logic code in a fresh zygomys sandbox per call.
// Sandbox mode prevents the code from reaching the filesystem or syscalls,
// and a fresh environment per call keeps evaluations isolated from each
// other. The zero value is not usable; call NewZlispEvaluator.
type ZlispEvaluator struct {
	// Timeout bounds a single evaluation.
	Timeout time.Duration
}

// NewZlispEvaluator creates a ZlispEvaluator with the default timeout.
func NewZlispEvaluator() *ZlispEvaluator {
	return &ZlispEvaluator{Timeout: EvalTimeout}
}

// Eval implements ScriptEvaluator. Panics in the interpreter are converted
// to errors, and evaluations that exceed the timeout are abandoned.
func (z *ZlispEvaluator) Eval(code string, inputs []graph.Value) (graph.Value, error) {
	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		v, err := runScript(code, inputs)
		ch <- evalResult{val: v, err: err}
	}()

	return waitWithTimeout(ch, z.Timeout)
}

// runScript performs the actual zygomys evaluation in a fresh sandbox.
func runScript(code string, inputs []graph.Value) (graph.Value, error) {
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	// Input values cross into the interpreter through a builtin rather
	// than generated literals, so no escaping of user data is needed.
	env.AddFunction("inputval", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("inputval requires exactly 1 argument, got %d", len(args))
		}
		idx, ok := args[0].(*zygo.SexpInt)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("inputval: expected integer index, got %T", args[0])
		}
		if idx.Val < 0 || idx.Val >= int64(len(inputs)) {
			return zygo.SexpNull, fmt.Errorf("inputval: index %d out of range", idx.Val)
		}
		return toSexp(inputs[idx.Val]), nil
	})

	var src strings.Builder
	for i := range inputs {
		fmt.Fprintf(&src, "(def input_%d (inputval %d))\n", i, i)
	}
	src.WriteString(code)

	if err := env.LoadString(src.String()); err != nil {
		return graph.NoValue, err
	}
	if _, err := env.Run(); err != nil {
		return graph.NoValue, err
	}

	// Read the result binding back by evaluating the bare symbol; an
	// undefined symbol here means the script never set it.
	if err := env.LoadString("result"); err != nil {
		return graph.NoValue, err
	}
	res, err := env.Run()
	if err != nil {
		return graph.NoValue, ErrNoResult
	}
	return fromSexp(res), nil
}

// toSexp converts a graph value into its interpreter representation.
// Integral numbers become ints so user arithmetic stays integer-exact.
func toSexp(v graph.Value) zygo.Sexp {
	if v.IsNull() {
		return zygo.SexpNull
	}
	switch v.Type() {
	case cty.Number:
		bf := v.AsBigFloat()
		if n, acc := bf.Int64(); acc == big.Exact {
			return &zygo.SexpInt{Val: n}
		}
		f, _ := bf.Float64()
		return &zygo.SexpFloat{Val: f}
	case cty.String:
		return &zygo.SexpStr{S: v.AsString()}
	case cty.Bool:
		return &zygo.SexpBool{Val: v.True()}
	}
	return &zygo.SexpStr{S: v.GoString()}
}

// fromSexp converts a script result into a graph value. Results outside
// the primitive set degrade to their printed representation.
func fromSexp(s zygo.Sexp) graph.Value {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return cty.NumberIntVal(v.Val)
	case *zygo.SexpFloat:
		// The number model has no NaN/Inf; keep the printed form.
		if math.IsNaN(v.Val) || math.IsInf(v.Val, 0) {
			return cty.StringVal(strconv.FormatFloat(v.Val, 'g', -1, 64))
		}
		return cty.NumberFloatVal(v.Val)
	case *zygo.SexpStr:
		return cty.StringVal(v.S)
	case *zygo.SexpBool:
		return cty.BoolVal(v.Val)
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return graph.NoValue
		}
	}
	return cty.StringVal(s.SexpString(nil))
}
