// Package resolver computes the final value of every parameter of a bound
// schema.
//
// Sources are consulted in this order, highest first:
//
//  1. the environment variable MLOQ_<NAME>
//  2. the configuration tree, unless the slot ends in "???"
//  3. the default supplied by the caller
//  4. the static default of the parameter
//  5. the interactive prompt, when enabled
//
// In interactive mode every parameter is prompted, with the best value from
// the other sources offered as the default answer. Each resolved value is
// pushed back into the tree so later parameters can interpolate it.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/binder"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/config"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/event"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/logging"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/schema"
)

// Source names where a resolved value came from.
type Source string

const (
	SourceEnv     Source = "env"
	SourceConfig  Source = "config"
	SourceDefault Source = "default"
	SourcePrompt  Source = "prompt"
	SourceMissing Source = "missing"
)

// Result is the outcome of resolving one parameter.
type Result struct {
	Namespace string
	Name      string
	Value     any
	Source    Source
}

// DefaultFunc computes a caller default from the values resolved so far in
// the same namespace. Returning nil means no default.
type DefaultFunc func(resolved map[string]any) any

// Resolver resolves the parameters of one binder.
type Resolver struct {
	binder      *binder.Binder
	lookup      config.LookupFunc
	prefix      string
	interactive bool
	prompter    Prompter
	bus         *event.Bus
	log         zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithEnv replaces the environment lookup and variable prefix.
func WithEnv(lookup config.LookupFunc, prefix string) Option {
	return func(r *Resolver) {
		r.lookup = lookup
		r.prefix = prefix
	}
}

// Interactive enables prompting through p. A nil p leaves prompting off.
func Interactive(p Prompter) Option {
	return func(r *Resolver) {
		r.prompter = p
		r.interactive = p != nil
	}
}

// WithBus publishes a parameter.resolved event per parameter and a
// namespace.synced event per ResolveAll.
func WithBus(bus *event.Bus) Option {
	return func(r *Resolver) {
		r.bus = bus
	}
}

// WithLogger replaces the component logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Resolver) {
		r.log = log
	}
}

// New creates a resolver for b. By default it reads the process environment
// with the MLOQ prefix and never prompts.
func New(b *binder.Binder, opts ...Option) *Resolver {
	r := &Resolver{
		binder: b,
		lookup: config.OSLookup,
		prefix: config.EnvPrefix,
		log:    logging.For("resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With().Str("namespace", b.Namespace()).Logger()
	return r
}

// Binder returns the binder being resolved.
func (r *Resolver) Binder() *binder.Binder { return r.binder }

// Resolve resolves one parameter without a caller default.
func (r *Resolver) Resolve(ctx context.Context, name string) (Result, error) {
	return r.resolve(ctx, name, nil)
}

// ResolveWithDefault resolves one parameter, using def when neither the
// environment nor the tree provides a value. A nil def is ignored.
func (r *Resolver) ResolveWithDefault(ctx context.Context, name string, def any) (Result, error) {
	return r.resolve(ctx, name, def)
}

func (r *Resolver) resolve(ctx context.Context, name string, def any) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, &AbortError{Cause: err}
	}
	s := r.binder.Schema()
	p, err := s.Describe(name)
	if err != nil {
		return Result{}, err
	}

	value, source, err := r.bestValue(p, def)
	// an unresolved reference can still be answered at the prompt
	var unresolved error
	if err != nil {
		if !r.interactive || !errors.Is(err, config.ErrMissingValue) {
			return Result{}, err
		}
		unresolved = err
	}

	if r.interactive {
		answer, err := r.prompter.Ask(ctx, Question{
			Namespace: s.Namespace(),
			Name:      p.Name,
			Help:      p.Help,
			Type:      p.Type,
			Choices:   p.Choices,
			Optional:  p.AllowMissing,
			Default:   value,
			Parse:     p.Coerce,
		})
		if err != nil {
			if IsAbortError(err) {
				return Result{}, err
			}
			return Result{}, fmt.Errorf("prompt %s: %w", s.Path(name), err)
		}
		if answer != nil {
			value, source = answer, SourcePrompt
		}
	}

	if source == SourceMissing && !p.AllowMissing {
		if unresolved != nil {
			return Result{}, unresolved
		}
		return Result{}, &config.MissingValueError{
			Path:      s.Path(name),
			Namespace: s.Namespace(),
			Parameter: name,
		}
	}
	if source != SourceMissing {
		if err := r.binder.Push(name, value); err != nil {
			return Result{}, err
		}
	}

	res := Result{Namespace: s.Namespace(), Name: name, Value: value, Source: source}
	r.log.Debug().Str("param", name).Str("source", string(source)).Msg("resolved")
	if err := r.bus.Publish(event.ParameterResolved, event.ParameterResolvedData{
		Namespace: res.Namespace,
		Name:      res.Name,
		Source:    string(res.Source),
		Value:     res.Value,
	}); err != nil {
		r.log.Warn().Err(err).Msg("publish parameter.resolved")
	}
	return res, nil
}

// bestValue walks the non-interactive sources.
func (r *Resolver) bestValue(p schema.Parameter, def any) (any, Source, error) {
	key := config.EnvKey(r.prefix, p.Name)
	if raw, ok := r.lookup(key); ok {
		v, err := p.Coerce(raw)
		if err != nil {
			return nil, "", fmt.Errorf("environment variable %s: %w", key, err)
		}
		return v, SourceEnv, nil
	}

	missing, err := r.binder.IsMissing(p.Name)
	if err != nil {
		return nil, "", err
	}
	if !missing {
		v, err := r.binder.Pull(p.Name)
		if err != nil {
			return nil, "", err
		}
		return v, SourceConfig, nil
	}

	// an explicit reference is kept even while its target is unknown:
	// defaults must not replace it
	ref, err := r.binder.IsReference(p.Name)
	if err != nil {
		return nil, "", err
	}
	if ref {
		if _, err := r.binder.Pull(p.Name); err != nil {
			return nil, SourceMissing, err
		}
		return nil, SourceMissing, nil
	}

	if def != nil {
		v, err := p.Coerce(def)
		if err != nil {
			return nil, "", fmt.Errorf("default for %s: %w", r.binder.Schema().Path(p.Name), err)
		}
		return v, SourceDefault, nil
	}

	if p.HasDefault() {
		v, err := r.binder.Pull(p.Name)
		switch {
		case errors.Is(err, config.ErrMissingValue):
		case err != nil:
			return nil, "", err
		case v != nil:
			return v, SourceDefault, nil
		}
	}
	return nil, SourceMissing, nil
}

// Resolution is the outcome of ResolveAll.
type Resolution struct {
	Namespace string
	Results   []Result
	// Disabled is true when the disable flag of the namespace resolved true.
	Disabled bool
	Skipped  []string
}

// Values maps parameter names to their resolved values. Skipped and
// missing parameters are absent.
func (r *Resolution) Values() map[string]any {
	out := make(map[string]any, len(r.Results))
	for _, res := range r.Results {
		if res.Source != SourceMissing {
			out[res.Name] = res.Value
		}
	}
	return out
}

// ResolveAll resolves every parameter in declaration order and syncs the
// namespace. The disable flag, if declared, is resolved first; when it is
// true the gated parameters are skipped and left untouched in the tree.
func (r *Resolver) ResolveAll(ctx context.Context, defaults map[string]DefaultFunc) (*Resolution, error) {
	s := r.binder.Schema()
	out := &Resolution{Namespace: s.Namespace()}
	resolved := make(map[string]any, s.Len())

	one := func(name string) error {
		var def any
		if fn, ok := defaults[name]; ok && fn != nil {
			def = fn(resolved)
		}
		res, err := r.resolve(ctx, name, def)
		if err != nil {
			return err
		}
		out.Results = append(out.Results, res)
		if res.Source != SourceMissing {
			resolved[name] = res.Value
		}
		return nil
	}

	flag := s.DisableFlag()
	if flag != "" {
		if err := one(flag); err != nil {
			return nil, err
		}
		out.Disabled, _ = resolved[flag].(bool)
	}

	for _, name := range s.Names() {
		if name == flag {
			continue
		}
		if out.Disabled && s.Gated(name) {
			out.Skipped = append(out.Skipped, name)
			continue
		}
		if err := one(name); err != nil {
			return nil, err
		}
	}

	if err := r.binder.Sync(out.Skipped...); err != nil {
		return nil, err
	}
	if err := r.bus.Publish(event.NamespaceSynced, event.NamespaceSyncedData{
		Namespace: out.Namespace,
		Skipped:   out.Skipped,
	}); err != nil {
		r.log.Warn().Err(err).Msg("publish namespace.synced")
	}
	r.log.Info().Bool("disabled", out.Disabled).Int("resolved", len(out.Results)).Msg("namespace synced")
	return out, nil
}
