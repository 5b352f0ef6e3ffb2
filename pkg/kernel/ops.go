package kernel

import (
	"sort"
	"strings"
)

// mapOps apply one builtin function elementwise over vec4 lanes.
var mapOps = map[string]struct{}{
	"Abs":   {},
	"Acos":  {},
	"Asin":  {},
	"Atan":  {},
	"Ceil":  {},
	"Cos":   {},
	"Cosh":  {},
	"Exp":   {},
	"Floor": {},
	"Log":   {},
	"Round": {},
	"Sign":  {},
	"Sin":   {},
	"Sinh":  {},
	"Sqrt":  {},
	"Tan":   {},
	"Tanh":  {},
}

// copyOps leave the data untouched and only reinterpret its shape, so the
// kernel moves mat4x4 tiles instead of vec4 lanes.
var copyOps = map[string]struct{}{
	"Dropout": {},
	"Flatten": {},
	"Reshape": {},
	"Squeeze": {},
}

// arithmeticOps substitute an infix operator between two input lanes.
// And and Or render as bitwise operators and only make sense once an
// integer layout exists.
var arithmeticOps = map[string]string{
	"Add":            "+",
	"And":            "&",
	"Div":            "/",
	"Equal":          "==",
	"Greater":        ">",
	"GreaterOrEqual": ">=",
	"Less":           "<",
	"LessOrEqual":    "<=",
	"Mod":            "%",
	"Mul":            "*",
	"Or":             "|",
	"Sub":            "-",
}

// activationOps select a formula branch inside the activation skeleton.
var activationOps = map[string]struct{}{
	"Celu":     {},
	"Clip":     {},
	"Elu":      {},
	"Relu":     {},
	"Sigmoid":  {},
	"Softplus": {},
	"Softsign": {},
}

// Supported reports whether an operation routes to a kernel skeleton.
func Supported(op string) bool {
	if _, ok := mapOps[op]; ok {
		return true
	}
	if _, ok := copyOps[op]; ok {
		return true
	}
	if _, ok := arithmeticOps[op]; ok {
		return true
	}
	_, ok := activationOps[op]
	return ok
}

// Ops returns every supported operation name in sorted order.
func Ops() []string {
	out := make([]string, 0, len(mapOps)+len(copyOps)+len(arithmeticOps)+len(activationOps))
	for op := range mapOps {
		out = append(out, op)
	}
	for op := range copyOps {
		out = append(out, op)
	}
	for op := range arithmeticOps {
		out = append(out, op)
	}
	for op := range activationOps {
		out = append(out, op)
	}
	sort.Strings(out)
	return out
}

// MapOps returns the builtin function tokens the unary map skeleton accepts,
// in sorted order. These are the lowercase spellings Generate places in the
// call position.
func MapOps() []string {
	out := make([]string, 0, len(mapOps))
	for op := range mapOps {
		out = append(out, strings.ToLower(op))
	}
	sort.Strings(out)
	return out
}
