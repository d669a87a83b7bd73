package schema

import (
	"errors"
	"fmt"
	"slices"

	"github.com/agnivade/levenshtein"

	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/config"
)

var (
	ErrDuplicateParameter = errors.New("duplicate parameter")
	ErrUnknownParameter   = errors.New("unknown parameter")
)

// DuplicateParameterError is returned by New when two parameters share a name.
type DuplicateParameterError struct {
	Namespace string
	Name      string
}

func (e *DuplicateParameterError) Error() string {
	return fmt.Sprintf("duplicate parameter %q in namespace %q", e.Name, e.Namespace)
}

func (e *DuplicateParameterError) Is(target error) bool { return target == ErrDuplicateParameter }

// UnknownParameterError is returned when a name is not declared by a schema.
// Suggestion holds the closest declared name, if any is close enough.
type UnknownParameterError struct {
	Namespace  string
	Name       string
	Suggestion string
}

func (e *UnknownParameterError) Error() string {
	msg := fmt.Sprintf("unknown parameter %q in namespace %q", e.Name, e.Namespace)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *UnknownParameterError) Is(target error) bool { return target == ErrUnknownParameter }

// Schema is an immutable, ordered set of parameters living in one namespace.
type Schema struct {
	namespace string
	params    []Parameter
	index     map[string]int

	// disable names a Bool parameter that, when true, skips the gated
	// parameters. An empty gated list gates every other parameter.
	disable string
	gated   []string
}

// New declares a schema. Parameters keep their declaration order.
func New(namespace string, params ...Parameter) (*Schema, error) {
	s := &Schema{
		namespace: namespace,
		params:    make([]Parameter, 0, len(params)),
		index:     make(map[string]int, len(params)),
	}
	for _, p := range params {
		if _, dup := s.index[p.Name]; dup {
			return nil, &DuplicateParameterError{Namespace: namespace, Name: p.Name}
		}
		s.index[p.Name] = len(s.params)
		s.params = append(s.params, p)
	}
	return s, nil
}

// MustNew is New panicking on error, for package-level declarations.
func MustNew(namespace string, params ...Parameter) *Schema {
	s, err := New(namespace, params...)
	if err != nil {
		panic(err)
	}
	return s
}

// WithDisable returns a copy of s where the Bool parameter flag disables the
// gated parameters (all others when none are listed).
func (s *Schema) WithDisable(flag string, gated ...string) (*Schema, error) {
	p, err := s.Describe(flag)
	if err != nil {
		return nil, err
	}
	if p.Type != config.Bool {
		return nil, fmt.Errorf("disable parameter %s.%s must be a bool, got %s", s.namespace, flag, p.Type)
	}
	for _, name := range gated {
		if _, err := s.Describe(name); err != nil {
			return nil, err
		}
	}
	out := *s
	out.disable = flag
	out.gated = slices.Clone(gated)
	return &out, nil
}

// MustWithDisable is WithDisable panicking on error.
func (s *Schema) MustWithDisable(flag string, gated ...string) *Schema {
	out, err := s.WithDisable(flag, gated...)
	if err != nil {
		panic(err)
	}
	return out
}

// Namespace returns the namespace the schema is anchored at.
func (s *Schema) Namespace() string { return s.namespace }

// Len returns the number of parameters.
func (s *Schema) Len() int { return len(s.params) }

// Parameters returns the parameters in declaration order.
func (s *Schema) Parameters() []Parameter {
	return slices.Clone(s.params)
}

// Names returns the parameter names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.params))
	for i, p := range s.params {
		names[i] = p.Name
	}
	return names
}

// Path returns the tree path of a parameter.
func (s *Schema) Path(name string) string {
	return config.Join(s.namespace, name)
}

// Describe returns the parameter declared under name.
func (s *Schema) Describe(name string) (Parameter, error) {
	i, ok := s.index[name]
	if !ok {
		return Parameter{}, &UnknownParameterError{
			Namespace:  s.namespace,
			Name:       name,
			Suggestion: s.closest(name),
		}
	}
	return s.params[i], nil
}

// DisableFlag returns the name of the disable parameter, or "".
func (s *Schema) DisableFlag() string { return s.disable }

// Gated reports whether name is skipped once the disable flag is true.
func (s *Schema) Gated(name string) bool {
	if s.disable == "" || name == s.disable {
		return false
	}
	if len(s.gated) == 0 {
		return true
	}
	return slices.Contains(s.gated, name)
}

// closest returns the declared name nearest to name, provided the edit
// distance is at most a third of its length (and at least 2).
func (s *Schema) closest(name string) string {
	best, bestDist := "", -1
	for _, p := range s.params {
		d := levenshtein.ComputeDistance(name, p.Name)
		if bestDist < 0 || d < bestDist {
			best, bestDist = p.Name, d
		}
	}
	limit := max(2, len(name)/3)
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}
