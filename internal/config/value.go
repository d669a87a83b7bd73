package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// MissingMarker is the literal used in config files for a value that still
// has to be supplied.
const MissingMarker = "???"

// interpolationPattern matches ${path.to.value} references.
var interpolationPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// State is the state held by a tree slot.
type State uint8

const (
	// StateConcrete is a fully known value.
	StateConcrete State = iota
	// StateRequired marks a value that must be supplied before use.
	StateRequired
	// StateInterpolation is a deferred reference to other paths.
	StateInterpolation
)

func (s State) String() string {
	switch s {
	case StateConcrete:
		return "concrete"
	case StateRequired:
		return "required"
	case StateInterpolation:
		return "interpolation"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Value is a three-state slot value: Concrete, Required or Interpolation.
// The zero Value is Concrete(nil).
type Value struct {
	state State
	data  any
	expr  string
}

// Concrete wraps a fully known value.
func Concrete(v any) Value {
	return Value{state: StateConcrete, data: v}
}

// Required returns the not-yet-supplied marker.
func Required() Value {
	return Value{state: StateRequired}
}

// Interpolation returns a deferred reference. expr is the raw text, either
// "${path}" or a string embedding one or more references.
func Interpolation(expr string) Value {
	return Value{state: StateInterpolation, expr: expr}
}

// Ref is shorthand for Interpolation("${" + path + "}").
func Ref(path string) Value {
	return Interpolation("${" + path + "}")
}

// FromRaw tags a raw value read from a file, an environment variable or a
// default. MissingMarker becomes Required, strings containing ${...} become
// Interpolation and everything else is Concrete.
func FromRaw(raw any) Value {
	switch v := raw.(type) {
	case Value:
		return v
	case string:
		if v == MissingMarker {
			return Required()
		}
		if IsInterpolationString(v) {
			return Interpolation(v)
		}
	}
	return Concrete(raw)
}

// IsInterpolationString reports whether s carries at least one ${...} reference.
func IsInterpolationString(s string) bool {
	return interpolationPattern.MatchString(s)
}

// State returns the slot state.
func (v Value) State() State { return v.state }

// IsConcrete reports whether v holds a known value.
func (v Value) IsConcrete() bool { return v.state == StateConcrete }

// IsRequired reports whether v is the Required marker.
func (v Value) IsRequired() bool { return v.state == StateRequired }

// IsInterpolation reports whether v is a deferred reference.
func (v Value) IsInterpolation() bool { return v.state == StateInterpolation }

// Data returns the concrete payload. It is nil for the other states.
func (v Value) Data() any { return v.data }

// Expr returns the raw interpolation expression.
func (v Value) Expr() string { return v.expr }

// Refs returns the referenced paths in order of appearance.
func (v Value) Refs() []string {
	if v.state != StateInterpolation {
		return nil
	}
	matches := interpolationPattern.FindAllStringSubmatch(v.expr, -1)
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, strings.TrimSpace(m[1]))
	}
	return refs
}

// single returns the referenced path when the expression is exactly one
// reference with nothing around it.
func (v Value) single() (string, bool) {
	loc := interpolationPattern.FindStringSubmatchIndex(v.expr)
	if loc == nil || loc[0] != 0 || loc[1] != len(v.expr) {
		return "", false
	}
	return strings.TrimSpace(v.expr[loc[2]:loc[3]]), true
}

// Encode returns the raw form used for serialization: MissingMarker for
// Required, the verbatim expression for Interpolation and the payload otherwise.
func (v Value) Encode() any {
	switch v.state {
	case StateRequired:
		return MissingMarker
	case StateInterpolation:
		return v.expr
	default:
		return plain(v.data)
	}
}

// plain returns data in the shape a decoded file yields, so that typed
// sequences survive a round trip unchanged.
func plain(data any) any {
	switch d := data.(type) {
	case Tuple:
		return []any(slices.Clone(d))
	case []string:
		out := make([]any, len(d))
		for i, s := range d {
			out[i] = s
		}
		return out
	}
	return data
}

func (v Value) String() string {
	switch v.state {
	case StateRequired:
		return MissingMarker
	case StateInterpolation:
		return v.expr
	default:
		return fmt.Sprintf("%v", v.data)
	}
}
