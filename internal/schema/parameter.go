package schema

import (
	"fmt"
	"slices"

	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/config"
)

// Parameter declares one user-facing setting of a namespace.
type Parameter struct {
	Name string
	Type config.Type

	// Default is the static default. Nil means the parameter has none. It
	// may hold an Interpolation, e.g. ${globals.owner}.
	Default *config.Value

	Help         string
	Choices      []string
	AllowMissing bool
}

// Option configures a Parameter.
type Option func(*Parameter)

// Default sets the static default. raw is tagged with config.FromRaw, so
// "???" and "${...}" keep their meaning.
func Default(raw any) Option {
	return func(p *Parameter) {
		v := config.FromRaw(raw)
		p.Default = &v
	}
}

// Help sets the text shown when prompting.
func Help(text string) Option {
	return func(p *Parameter) {
		p.Help = text
	}
}

// Choices restricts the accepted values. Lists are checked element-wise.
func Choices(choices ...string) Option {
	return func(p *Parameter) {
		p.Choices = choices
	}
}

// AllowMissing lets the parameter stay unset after resolution.
func AllowMissing() Option {
	return func(p *Parameter) {
		p.AllowMissing = true
	}
}

func newParameter(name string, t config.Type, opts []Option) Parameter {
	p := Parameter{Name: name, Type: t}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func Bool(name string, opts ...Option) Parameter {
	return newParameter(name, config.Bool, opts)
}

func Int(name string, opts ...Option) Parameter {
	return newParameter(name, config.Int, opts)
}

func Float(name string, opts ...Option) Parameter {
	return newParameter(name, config.Float, opts)
}

func String(name string, opts ...Option) Parameter {
	return newParameter(name, config.String, opts)
}

func StringList(name string, opts ...Option) Parameter {
	return newParameter(name, config.StringList, opts)
}

func Mapping(name string, opts ...Option) Parameter {
	return newParameter(name, config.Mapping, opts)
}

// Tuple declares a fixed-arity tuple parameter.
func Tuple(name string, arity int, opts ...Option) Parameter {
	return newParameter(name, config.TupleOf(arity), opts)
}

// HasDefault reports whether a static default was declared.
func (p Parameter) HasDefault() bool {
	return p.Default != nil
}

// Coerce converts raw to the declared type and checks the choice set.
func (p Parameter) Coerce(raw any) (any, error) {
	v, err := config.Coerce(raw, p.Type, p.AllowMissing)
	if err != nil {
		return nil, err
	}
	if err := p.checkChoices(v); err != nil {
		return nil, err
	}
	return v, nil
}

func (p Parameter) checkChoices(v any) error {
	if len(p.Choices) == 0 || v == nil {
		return nil
	}
	var items []string
	switch x := v.(type) {
	case string:
		items = []string{x}
	case []string:
		items = x
	default:
		items = []string{fmt.Sprint(x)}
	}
	for _, item := range items {
		if !slices.Contains(p.Choices, item) {
			return &config.CoercionError{
				Value:  item,
				Type:   p.Type,
				Reason: fmt.Sprintf("must be one of %v", p.Choices),
			}
		}
	}
	return nil
}
