package graph

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Value is the dynamic value held by a node or produced by evaluation.
// It is cty.Value under the hood: a number (arbitrary precision), string,
// bool, or the null sentinel.
type Value = cty.Value

// NoValue is the "no value" sentinel. It is distinct from every typed value
// and from every error: an output node with nothing connected resolves to
// NoValue, not to a failure.
var NoValue = cty.NilVal

// DataType enumerates the primitive kinds an input node's value may hold.
type DataType int

const (
	TypeInteger DataType = iota
	TypeFloat
	TypeText
	TypeBoolean
)

func (t DataType) String() string {
	switch t {
	case TypeInteger:
		return "Integer"
	case TypeFloat:
		return "Float"
	case TypeText:
		return "Text"
	case TypeBoolean:
		return "Boolean"
	default:
		return "unknown"
	}
}

// ParseDataType converts a display name ("Integer", "float", ...) into a
// DataType. The match is case-insensitive.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "integer":
		return TypeInteger, nil
	case "float":
		return TypeFloat, nil
	case "text":
		return TypeText, nil
	case "boolean":
		return TypeBoolean, nil
	}
	return 0, fmt.Errorf("unknown data type %q", s)
}

// CoercionError reports that raw text could not be interpreted as the
// requested data type. The node's prior value and type are left unchanged
// when coercion fails.
type CoercionError struct {
	Type DataType
	Raw  string
}

func (e CoercionError) Error() string {
	return fmt.Sprintf("cannot interpret %q as %s", e.Raw, e.Type)
}

// Coerce converts raw text into a typed Value per the declared data type.
//
// Integer and Float trim surrounding whitespace before parsing and fail
// with CoercionError on malformed input. Text is stored verbatim. Boolean
// maps the trimmed, lowercased text through {"true", "1", "yes"} and never
// fails: anything else is false.
func Coerce(t DataType, raw string) (Value, error) {
	switch t {
	case TypeInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return NoValue, CoercionError{Type: t, Raw: raw}
		}
		return cty.NumberIntVal(n), nil

	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			// The number model has no NaN/Inf representation.
			return NoValue, CoercionError{Type: t, Raw: raw}
		}
		return cty.NumberFloatVal(f), nil

	case TypeText:
		return cty.StringVal(raw), nil

	case TypeBoolean:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true", "1", "yes":
			return cty.True, nil
		default:
			return cty.False, nil
		}
	}
	return NoValue, fmt.Errorf("unknown data type %d", int(t))
}

// DisplayValue renders a stored value the way editors show it: integers
// without a decimal point, other numbers in their shortest form, text
// verbatim, booleans as true or false. The no-value sentinel renders empty.
func DisplayValue(v Value) string {
	if v.IsNull() {
		return ""
	}
	switch v.Type() {
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			return bf.Text('f', 0)
		}
		return bf.Text('g', -1)
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
