package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Tree is the hierarchical store shared by every namespace of a run. Paths
// are dotted; the first segment of a path with a dot is its namespace.
//
// A Tree is not safe for concurrent use. During a configuration step exactly
// one binder writes to a namespace.
type Tree struct {
	slots      map[string]Value
	order      []string
	namespaces []string
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{slots: make(map[string]Value)}
}

// AddNamespace registers a namespace. It is a no-op if already registered.
func (t *Tree) AddNamespace(name string) {
	if !t.HasNamespace(name) {
		t.namespaces = append(t.namespaces, name)
	}
}

// HasNamespace reports whether name was registered.
func (t *Tree) HasNamespace(name string) bool {
	return slices.Contains(t.namespaces, name)
}

// Namespaces returns the registered namespaces in registration order.
func (t *Tree) Namespaces() []string {
	return slices.Clone(t.namespaces)
}

// Paths returns every declared path in declaration order.
func (t *Tree) Paths() []string {
	return slices.Clone(t.order)
}

// Has reports whether path was declared.
func (t *Tree) Has(path string) bool {
	_, ok := t.slots[path]
	return ok
}

// Join builds a dotted path.
func Join(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// Get returns the slot stored at path without following references.
func (t *Tree) Get(path string) (Value, error) {
	v, ok := t.slots[path]
	if !ok {
		return Value{}, &UnknownPathError{Path: path}
	}
	return v, nil
}

// Set stores v at path, replacing any previous slot. The namespace of the
// path is registered on first use.
func (t *Tree) Set(path string, v Value) {
	if _, ok := t.slots[path]; !ok {
		t.order = append(t.order, path)
		if ns, _, found := strings.Cut(path, "."); found {
			t.AddNamespace(ns)
		}
	}
	t.slots[path] = v
}

// SetRaw tags raw with FromRaw and stores it at path.
func (t *Tree) SetRaw(path string, raw any) {
	t.Set(path, FromRaw(raw))
}

// Declare stores a Required slot at path unless one already exists.
func (t *Tree) Declare(path string) {
	if !t.Has(path) {
		t.Set(path, Required())
	}
}

// IsInterpolation reports whether the slot stored at path, before following
// any reference, is an Interpolation.
func (t *Tree) IsInterpolation(path string) (bool, error) {
	v, err := t.Get(path)
	if err != nil {
		return false, err
	}
	return v.IsInterpolation(), nil
}

// IsMissing reports whether path ends, after following its references, in a
// Required slot.
func (t *Tree) IsMissing(path string) (bool, error) {
	if _, err := t.Get(path); err != nil {
		return false, err
	}
	_, err := newChase(t).resolve(path)
	var missing *MissingValueError
	switch {
	case err == nil:
		return false, nil
	case errors.As(err, &missing):
		return true, nil
	default:
		return false, err
	}
}

// Resolve follows references from path and returns the concrete payload.
// It fails with MissingValueError when the chain ends in a Required slot and
// with InterpolationCycleError when the chain revisits a path.
func (t *Tree) Resolve(path string) (any, error) {
	return newChase(t).resolve(path)
}

// ResolveOr is Resolve with a fallback returned when the chain ends in a
// Required slot.
func (t *Tree) ResolveOr(path string, def any) (any, error) {
	v, err := newChase(t).resolve(path)
	var missing *MissingValueError
	if err != nil && errors.As(err, &missing) {
		return def, nil
	}
	return v, err
}

// ResolveValue resolves a value that is not stored in the tree, such as an
// interpolating default. A Required v fails with MissingValueError.
func (t *Tree) ResolveValue(v Value) (any, error) {
	return newChase(t).value(v, v.String())
}

// Merge returns a new tree holding t overlaid with other. Concrete and
// Interpolation slots of other win; Required slots of other only fill paths
// that t does not declare.
func (t *Tree) Merge(other *Tree) *Tree {
	out := t.Clone()
	for _, ns := range other.namespaces {
		out.AddNamespace(ns)
	}
	for _, path := range other.order {
		v := other.slots[path]
		if v.IsRequired() {
			out.Declare(path)
			continue
		}
		out.Set(path, v)
	}
	return out
}

// Clone returns a copy of t. Concrete payloads are shared.
func (t *Tree) Clone() *Tree {
	out := NewTree()
	out.namespaces = slices.Clone(t.namespaces)
	for _, path := range t.order {
		out.Set(path, t.slots[path])
	}
	return out
}

// Snapshot exports every slot as its raw encoded form: MissingMarker for
// Required slots and the verbatim expression for Interpolation slots.
func (t *Tree) Snapshot() map[string]any {
	out := make(map[string]any, len(t.slots))
	for path, v := range t.slots {
		out[path] = v.Encode()
	}
	return out
}

// Nested is Snapshot grouped by namespace, the shape of the persisted file.
// Registered namespaces without slots are exported as empty mappings.
func (t *Tree) Nested() map[string]any {
	out := make(map[string]any)
	for _, ns := range t.namespaces {
		out[ns] = map[string]any{}
	}
	for _, path := range t.order {
		ns, key, found := strings.Cut(path, ".")
		if !found {
			out[path] = t.slots[path].Encode()
			continue
		}
		group, ok := out[ns].(map[string]any)
		if !ok {
			group = map[string]any{}
			out[ns] = group
		}
		group[key] = t.slots[path].Encode()
	}
	return out
}

// chase resolves one path. visiting holds the paths currently being
// resolved so a repeated path is reported as a cycle.
type chase struct {
	tree     *Tree
	visiting map[string]bool
	stack    []string
}

func newChase(t *Tree) *chase {
	return &chase{tree: t, visiting: make(map[string]bool)}
}

func (c *chase) resolve(path string) (any, error) {
	if c.visiting[path] {
		return nil, &InterpolationCycleError{Chain: append(slices.Clone(c.stack), path)}
	}
	c.visiting[path] = true
	c.stack = append(c.stack, path)
	defer func() {
		delete(c.visiting, path)
		c.stack = c.stack[:len(c.stack)-1]
	}()

	v, err := c.lookup(path)
	if err != nil {
		return nil, err
	}
	return c.value(v, path)
}

// value resolves a slot value found at path.
func (c *chase) value(v Value, path string) (any, error) {
	switch v.State() {
	case StateRequired:
		return nil, &MissingValueError{Path: path}
	case StateInterpolation:
		if ref, ok := v.single(); ok {
			return c.resolve(ref)
		}
		return c.substitute(v.Expr())
	default:
		return v.Data(), nil
	}
}

// substitute renders an expression embedding references as text.
func (c *chase) substitute(expr string) (any, error) {
	var firstErr error
	out := interpolationPattern.ReplaceAllStringFunc(expr, func(match string) string {
		if firstErr != nil {
			return match
		}
		ref := strings.TrimSpace(match[2 : len(match)-1])
		v, err := c.resolve(ref)
		if err != nil {
			firstErr = err
			return match
		}
		return stringify(v)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// lookup returns the slot at path. A path below a declared slot holding a
// mapping addresses a key of that mapping.
func (c *chase) lookup(path string) (Value, error) {
	if v, ok := c.tree.slots[path]; ok {
		return v, nil
	}
	parts := strings.Split(path, ".")
	for i := len(parts) - 1; i > 0; i-- {
		prefix := strings.Join(parts[:i], ".")
		if !c.tree.Has(prefix) {
			continue
		}
		data, err := c.resolve(prefix)
		if err != nil {
			return Value{}, err
		}
		for _, key := range parts[i:] {
			m, ok := data.(map[string]any)
			if !ok {
				return Value{}, &UnknownPathError{Path: path}
			}
			if data, ok = m[key]; !ok {
				return Value{}, &UnknownPathError{Path: path}
			}
		}
		return FromRaw(data), nil
	}
	return Value{}, &UnknownPathError{Path: path}
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []string:
		return strings.Join(s, ",")
	default:
		return fmt.Sprint(v)
	}
}
