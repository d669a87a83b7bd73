package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownPath        = errors.New("unknown config path")
	ErrInterpolationCycle = errors.New("interpolation cycle")
	ErrMissingValue       = errors.New("missing value")
	ErrCoercion           = errors.New("coercion failed")
)

// UnknownPathError is returned when a path was never declared in the tree.
type UnknownPathError struct {
	Path string
}

func (e *UnknownPathError) Error() string {
	return fmt.Sprintf("unknown config path %q", e.Path)
}

func (e *UnknownPathError) Is(target error) bool { return target == ErrUnknownPath }

// InterpolationCycleError is returned when a reference chain revisits a path.
// Chain lists the paths in the order they were entered, ending with the
// repeated one.
type InterpolationCycleError struct {
	Chain []string
}

func (e *InterpolationCycleError) Error() string {
	return "interpolation cycle: " + strings.Join(e.Chain, " -> ")
}

func (e *InterpolationCycleError) Is(target error) bool { return target == ErrInterpolationCycle }

// MissingValueError is returned when a Required slot is read without a
// fallback. Namespace and Parameter are set when the failing path belongs to
// a declared parameter.
type MissingValueError struct {
	Path      string
	Namespace string
	Parameter string
	// Reference is the Required path an interpolation of Path ends in.
	Reference string
}

func (e *MissingValueError) Error() string {
	var msg string
	if e.Parameter != "" {
		msg = fmt.Sprintf("missing value for parameter %q in namespace %q", e.Parameter, e.Namespace)
	} else {
		msg = fmt.Sprintf("missing value at %q", e.Path)
	}
	if e.Reference != "" {
		msg += fmt.Sprintf(": it references %q, which has no value yet", e.Reference)
	}
	return msg
}

func (e *MissingValueError) Is(target error) bool { return target == ErrMissingValue }

// CoercionError is returned when a raw value cannot be converted.
type CoercionError struct {
	Value  any
	Type   Type
	Reason string
}

func (e *CoercionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot coerce %#v to %s: %s", e.Value, e.Type, e.Reason)
	}
	return fmt.Sprintf("cannot coerce %#v to %s", e.Value, e.Type)
}

func (e *CoercionError) Is(target error) bool { return target == ErrCoercion }
