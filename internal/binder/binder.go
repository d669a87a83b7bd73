// Package binder couples a schema with its namespace in the configuration
// tree, keeping typed reads and tree storage consistent in both directions.
package binder

import (
	"errors"
	"fmt"

	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/config"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/schema"
)

// Binder pairs one schema with one tree namespace for the duration of a
// single command's configuration step. It keeps no copies of values: every
// Pull reads the tree again.
//
// The caller guarantees that no other writer touches the namespace while the
// binder is in use.
type Binder struct {
	schema *schema.Schema
	tree   *config.Tree
}

// New binds s to its namespace in tree. The namespace must have been
// registered. Every parameter without a slot gets a Required one.
func New(tree *config.Tree, s *schema.Schema) (*Binder, error) {
	if !tree.HasNamespace(s.Namespace()) {
		return nil, &config.UnknownPathError{Path: s.Namespace()}
	}
	for _, p := range s.Parameters() {
		tree.Declare(s.Path(p.Name))
	}
	return &Binder{schema: s, tree: tree}, nil
}

// Schema returns the bound schema.
func (b *Binder) Schema() *schema.Schema { return b.schema }

// Tree returns the bound tree.
func (b *Binder) Tree() *config.Tree { return b.tree }

// Namespace returns the bound namespace.
func (b *Binder) Namespace() string { return b.schema.Namespace() }

// Pull reads the current typed value of a parameter.
//
// A Required slot yields the static default without touching the slot. An
// Interpolation is resolved through the tree; when its chain ends in a
// Required slot the result is a MissingValueError naming that slot, never
// the static default. The result is coerced to the declared type.
func (b *Binder) Pull(name string) (any, error) {
	p, err := b.schema.Describe(name)
	if err != nil {
		return nil, err
	}
	path := b.schema.Path(name)
	slot, err := b.tree.Get(path)
	if err != nil {
		return nil, err
	}

	switch slot.State() {
	case config.StateRequired:
		return b.staticDefault(p)
	case config.StateInterpolation:
		raw, err := b.tree.Resolve(path)
		var missing *config.MissingValueError
		if errors.As(err, &missing) {
			if p.AllowMissing {
				return nil, nil
			}
			return nil, &config.MissingValueError{
				Path:      path,
				Namespace: b.schema.Namespace(),
				Parameter: name,
				Reference: missing.Path,
			}
		}
		if err != nil {
			return nil, err
		}
		return p.Coerce(raw)
	default:
		return p.Coerce(slot.Data())
	}
}

// IsMissing reports whether the slot of a parameter ends in Required.
func (b *Binder) IsMissing(name string) (bool, error) {
	if _, err := b.schema.Describe(name); err != nil {
		return false, err
	}
	return b.tree.IsMissing(b.schema.Path(name))
}

// IsReference reports whether the slot of a parameter is itself an
// Interpolation, before following it.
func (b *Binder) IsReference(name string) (bool, error) {
	if _, err := b.schema.Describe(name); err != nil {
		return false, err
	}
	return b.tree.IsInterpolation(b.schema.Path(name))
}

// Push stores a value for a parameter. Required markers and interpolation
// expressions (as config.Value or raw strings) are stored as they are; any
// other value is coerced and stored as Concrete.
func (b *Binder) Push(name string, value any) error {
	p, err := b.schema.Describe(name)
	if err != nil {
		return err
	}
	path := b.schema.Path(name)

	tagged := config.FromRaw(value)
	if !tagged.IsConcrete() {
		b.tree.Set(path, tagged)
		return nil
	}
	v, err := p.Coerce(tagged.Data())
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	b.tree.Set(path, config.Concrete(v))
	return nil
}

// Sync re-pulls every parameter except those listed in skip and stores the
// results as Concrete, flattening references into plain values for
// consumers that do not resolve interpolation. Parameters allowed to be
// missing that are still missing keep their Required slot. Nothing is
// written unless every parameter could be pulled.
func (b *Binder) Sync(skip ...string) error {
	skipped := make(map[string]bool, len(skip))
	for _, name := range skip {
		skipped[name] = true
	}

	values := make(map[string]any, b.schema.Len())
	for _, p := range b.schema.Parameters() {
		if skipped[p.Name] {
			continue
		}
		v, err := b.Pull(p.Name)
		if err != nil {
			return err
		}
		if v == nil {
			// allowed to stay missing: keep the marker
			if missing, _ := b.tree.IsMissing(b.schema.Path(p.Name)); missing {
				continue
			}
		}
		values[p.Name] = v
	}
	for _, p := range b.schema.Parameters() {
		if v, ok := values[p.Name]; ok {
			b.tree.Set(b.schema.Path(p.Name), config.Concrete(v))
		}
	}
	return nil
}

// Values pulls every parameter. Parameters that are still missing map to
// nil; other failures are returned.
func (b *Binder) Values() (map[string]any, error) {
	out := make(map[string]any, b.schema.Len())
	for _, p := range b.schema.Parameters() {
		v, err := b.Pull(p.Name)
		if errors.Is(err, config.ErrMissingValue) {
			out[p.Name] = nil
			continue
		}
		if err != nil {
			return nil, err
		}
		out[p.Name] = v
	}
	return out, nil
}

// staticDefault returns the declared default of p, resolved and coerced.
func (b *Binder) staticDefault(p schema.Parameter) (any, error) {
	if !p.HasDefault() || p.Default.IsRequired() {
		return b.missing(p)
	}
	raw, err := b.tree.ResolveValue(*p.Default)
	if errors.Is(err, config.ErrMissingValue) {
		return b.missing(p)
	}
	if err != nil {
		return nil, err
	}
	return p.Coerce(raw)
}

func (b *Binder) missing(p schema.Parameter) (any, error) {
	if p.AllowMissing {
		return nil, nil
	}
	return nil, &config.MissingValueError{
		Path:      b.schema.Path(p.Name),
		Namespace: b.schema.Namespace(),
		Parameter: p.Name,
	}
}
