package config

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Kind enumerates the types a parameter can declare.
type Kind uint8

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
	KindStringList
	KindMapping
	KindTuple
)

// Type is a declared parameter type. Arity is only meaningful for KindTuple.
type Type struct {
	Kind  Kind
	Arity int
}

// Declared types.
var (
	Bool       = Type{Kind: KindBool}
	Int        = Type{Kind: KindInt}
	Float      = Type{Kind: KindFloat}
	String     = Type{Kind: KindString}
	StringList = Type{Kind: KindStringList}
	Mapping    = Type{Kind: KindMapping}
)

// TupleOf declares a fixed-arity tuple type.
func TupleOf(arity int) Type {
	return Type{Kind: KindTuple, Arity: arity}
}

func (t Type) String() string {
	switch t.Kind {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "str"
	case KindStringList:
		return "list[str]"
	case KindMapping:
		return "mapping"
	case KindTuple:
		return fmt.Sprintf("tuple[%d]", t.Arity)
	default:
		return fmt.Sprintf("Kind(%d)", uint8(t.Kind))
	}
}

// Tuple is the coerced form of a fixed-arity tuple.
type Tuple []any

// listTrim holds the characters stripped from each list element.
const listTrim = " \t\r\n'\"[](){}"

// ParseList splits a comma separated string, trimming whitespace, quotes and
// brackets around every element. Empty elements are dropped.
//
//	ParseList("data-science, torch ,none") // [data-science torch none]
//	ParseList("['a', 'b']")                // [a b]
func ParseList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, listTrim)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Zero returns the empty value of t.
func Zero(t Type) any {
	switch t.Kind {
	case KindBool:
		return false
	case KindInt:
		return 0
	case KindFloat:
		return 0.0
	case KindString:
		return ""
	case KindStringList:
		return []string{}
	case KindMapping:
		return map[string]any{}
	case KindTuple:
		return make(Tuple, t.Arity)
	default:
		return nil
	}
}

// Coerce converts raw into the Go representation of t: bool, int, float64,
// string, []string, map[string]any or Tuple. A nil raw is returned as nil when
// allowNil is set and as Zero(t) otherwise. Coerce is idempotent.
func Coerce(raw any, t Type, allowNil bool) (any, error) {
	if raw == nil {
		if allowNil {
			return nil, nil
		}
		return Zero(t), nil
	}
	if v, ok := raw.(Value); ok {
		if !v.IsConcrete() {
			return nil, &CoercionError{Value: v.String(), Type: t, Reason: "value is " + v.State().String()}
		}
		return Coerce(v.Data(), t, allowNil)
	}

	fail := func(err error) (any, error) {
		reason := ""
		if err != nil {
			reason = err.Error()
		}
		return nil, &CoercionError{Value: raw, Type: t, Reason: reason}
	}

	switch t.Kind {
	case KindBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
		if s, ok := raw.(string); ok {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "y", "yes", "on":
				return true, nil
			case "n", "no", "off":
				return false, nil
			}
		}
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return fail(err)
		}
		return b, nil

	case KindInt:
		if i, ok := raw.(int); ok {
			return i, nil
		}
		// strings are decimal: "010" is ten, not an octal literal
		if s, ok := raw.(string); ok {
			i, err := strconv.Atoi(trimZeroDecimal(strings.TrimSpace(s)))
			if err != nil {
				return fail(err)
			}
			return i, nil
		}
		i, err := cast.ToIntE(raw)
		if err != nil {
			return fail(err)
		}
		return i, nil

	case KindFloat:
		if f, ok := raw.(float64); ok {
			return f, nil
		}
		if s, ok := raw.(string); ok {
			raw = strings.TrimSpace(s)
		}
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return fail(err)
		}
		return f, nil

	case KindString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
		s, err := cast.ToStringE(raw)
		if err != nil {
			return fail(err)
		}
		return s, nil

	case KindStringList:
		switch v := raw.(type) {
		case string:
			return ParseList(v), nil
		case []string:
			return append([]string{}, v...), nil
		case []any, Tuple:
			items := sliceOf(v)
			out := make([]string, 0, len(items))
			for _, item := range items {
				s, err := cast.ToStringE(item)
				if err != nil {
					return fail(err)
				}
				out = append(out, s)
			}
			return out, nil
		default:
			s, err := cast.ToStringE(raw)
			if err != nil {
				return fail(err)
			}
			return []string{s}, nil
		}

	case KindMapping:
		if m, ok := raw.(map[string]any); ok {
			return maps.Clone(m), nil
		}
		m, err := cast.ToStringMapE(raw)
		if err != nil {
			return fail(err)
		}
		return m, nil

	case KindTuple:
		var items []any
		switch v := raw.(type) {
		case string:
			for _, s := range ParseList(v) {
				items = append(items, s)
			}
		case []string:
			for _, s := range v {
				items = append(items, s)
			}
		case []any, Tuple:
			items = sliceOf(v)
		default:
			return fail(fmt.Errorf("%T is not list-like", raw))
		}
		if len(items) != t.Arity {
			return fail(fmt.Errorf("expected %d elements, got %d", t.Arity, len(items)))
		}
		return append(Tuple{}, items...), nil
	}

	return fail(fmt.Errorf("unsupported type"))
}

func sliceOf(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case Tuple:
		return s
	}
	return nil
}

// trimZeroDecimal turns "3.00" into "3" so integral decimals parse as ints.
func trimZeroDecimal(s string) string {
	whole, frac, found := strings.Cut(s, ".")
	if !found || whole == "" || strings.Trim(frac, "0") != "" {
		return s
	}
	return whole
}
