package resolver

import (
	"context"
	"errors"

	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/config"
)

// ErrAborted matches every AbortError.
var ErrAborted = errors.New("aborted")

// Question is what the resolver asks the user for one parameter.
type Question struct {
	Namespace string
	Name      string
	Help      string
	Type      config.Type
	Choices   []string
	Optional  bool

	// Default is the best value found from the other sources, or nil.
	Default any

	// Parse converts an answer to the declared type and checks the choice
	// set. A Prompter asks again while Parse fails.
	Parse func(raw any) (any, error)
}

// Path returns the dotted path of the parameter.
func (q Question) Path() string {
	return config.Join(q.Namespace, q.Name)
}

// Prompter asks the user for a value.
type Prompter interface {
	Ask(ctx context.Context, q Question) (any, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, q Question) (any, error)

func (f PrompterFunc) Ask(ctx context.Context, q Question) (any, error) {
	return f(ctx, q)
}

// AbortError is returned when the user interrupts resolution.
type AbortError struct {
	Cause error
}

func (e *AbortError) Error() string {
	if e.Cause != nil {
		return "aborted: " + e.Cause.Error()
	}
	return "aborted"
}

func (e *AbortError) Unwrap() error { return e.Cause }

func (e *AbortError) Is(target error) bool { return target == ErrAborted }

// IsAbortError checks if an error is an abort.
func IsAbortError(err error) bool {
	var abort *AbortError
	return errors.As(err, &abort)
}
