package generate

import (
	"context"
	"embed"
	"fmt"
	"maps"
	"slices"

	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/binder"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/config"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/event"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/logging"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/record"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/resolver"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Options configure a setup run.
type Options struct {
	// Only restricts generation to these namespaces. Globals are always
	// resolved.
	Only []string

	// Defaults adds caller defaults per namespace. They are consulted
	// before the command's own defaults for the same parameter.
	Defaults map[string]map[string]resolver.DefaultFunc

	Lookup   config.LookupFunc
	Prompter resolver.Prompter
	Bus      *event.Bus
}

// Setup is the outcome of a setup run.
type Setup struct {
	Tree        *config.Tree
	Resolutions []*resolver.Resolution
	// Values holds the synced values of every resolved namespace.
	Values map[string]map[string]any
	Record *record.Record
}

// Register declares the namespace of every command in tree.
func Register(tree *config.Tree) {
	for _, name := range Names() {
		tree.AddNamespace(name)
	}
}

// Run resolves every selected command against tree, in order, and renders
// the files of those that are not disabled. The tree is modified in place.
// On error nothing has been rendered.
func Run(ctx context.Context, tree *config.Tree, opts Options) (*Setup, error) {
	for _, name := range opts.Only {
		if _, ok := Lookup(name); !ok {
			return nil, fmt.Errorf("unknown command %q", name)
		}
	}
	Register(tree)

	// every slot is declared up front so references into namespaces that
	// are not resolved in this run end in "???" instead of an unknown path
	binders := make(map[string]*binder.Binder)
	for _, cmd := range Commands() {
		b, err := binder.New(tree, cmd.Schema)
		if err != nil {
			return nil, err
		}
		binders[cmd.Name()] = b
	}

	out := &Setup{Tree: tree, Values: make(map[string]map[string]any)}
	var enabled []Command
	for _, cmd := range Commands() {
		if cmd.Name() != Globals && len(opts.Only) > 0 && !slices.Contains(opts.Only, cmd.Name()) {
			continue
		}
		res, values, err := resolve(ctx, binders[cmd.Name()], cmd, opts)
		if err != nil {
			return nil, err
		}
		out.Resolutions = append(out.Resolutions, res)
		out.Values[cmd.Name()] = values
		if !res.Disabled {
			enabled = append(enabled, cmd)
		}
	}

	rec, err := Render(enabled, out.Values)
	if err != nil {
		return nil, err
	}
	out.Record = rec
	return out, nil
}

func resolve(ctx context.Context, b *binder.Binder, cmd Command, opts Options) (*resolver.Resolution, map[string]any, error) {
	ropts := []resolver.Option{resolver.WithBus(opts.Bus), resolver.Interactive(opts.Prompter)}
	if opts.Lookup != nil {
		ropts = append(ropts, resolver.WithEnv(opts.Lookup, config.EnvPrefix))
	}
	res, err := resolver.New(b, ropts...).ResolveAll(ctx, chainDefaults(opts.Defaults[cmd.Name()], cmd.Defaults))
	if err != nil {
		return nil, nil, err
	}
	values, err := b.Values()
	if err != nil {
		return nil, nil, err
	}
	return res, values, nil
}

// chainDefaults combines two sets of caller defaults. For a parameter in
// both, the first function that returns non-nil wins.
func chainDefaults(first, second map[string]resolver.DefaultFunc) map[string]resolver.DefaultFunc {
	if len(first) == 0 {
		return second
	}
	out := make(map[string]resolver.DefaultFunc, len(first)+len(second))
	maps.Copy(out, second)
	for name, fn := range first {
		next := second[name]
		if next == nil {
			out[name] = fn
			continue
		}
		out[name] = func(resolved map[string]any) any {
			if v := fn(resolved); v != nil {
				return v
			}
			return next(resolved)
		}
	}
	return out
}

// Render renders the outputs of cmds. Templates see the synced values of
// every namespace, keyed by namespace name.
func Render(cmds []Command, values map[string]map[string]any) (*record.Record, error) {
	r, err := record.NewRenderer(templates, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	data := templateData(values)
	log := logging.For("generate")

	rec := record.New()
	for _, cmd := range cmds {
		for _, o := range cmd.Outputs {
			if o.When != "" {
				if on, _ := values[cmd.Name()][o.When].(bool); !on {
					continue
				}
			}
			path, err := r.RenderString(o.Path, data)
			if err != nil {
				return nil, err
			}
			content, err := r.Render(o.Template, data)
			if err != nil {
				return nil, err
			}
			rec.Add(cmd.Name(), path, content)
			log.Debug().Str("namespace", cmd.Name()).Str("path", path).Msg("rendered")
		}
	}
	return rec, nil
}

func templateData(values map[string]map[string]any) map[string]any {
	data := make(map[string]any, len(values)+1)
	for ns, v := range values {
		data[ns] = v
	}
	if req, ok := values["requirements"]; ok {
		groups, _ := req["requirements"].([]string)
		extra, _ := req["extra"].([]string)
		data["pip"] = ExpandRequirements(groups, extra)
	}
	if docker, ok := values["docker"]; ok {
		groups, _ := docker["requirements"].([]string)
		data["docker_pip"] = ExpandRequirements(groups, nil)
	}
	return data
}
