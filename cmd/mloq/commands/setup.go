package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/config"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/event"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/generate"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/logging"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/prompt"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/record"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/resolver"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/vcs"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/watch"
)

var (
	setupOverwrite bool
	setupSkip      []string
	setupDryRun    bool
	setupExplain   bool
	setupOnly      []string
	setupNoGit     bool
	setupWatch     bool
)

var setupCmd = &cobra.Command{
	Use:   "setup [PATH]",
	Short: "Generate the project files in PATH",
	Long: `Resolve every parameter, render the project files into PATH (default:
the current directory) and write the resolved configuration to PATH/mloq.yaml.

Values are taken from MLOQ_<NAME> environment variables, then from the
configuration files, then from defaults. With --interactive every value is
confirmed at a prompt. Nothing is written if a value is missing.

Inside a git repository the origin remote, the current branch and the git
user provide defaults for the globals namespace (disable with --no-git).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVar(&setupOverwrite, "overwrite", false, "Replace files that already exist")
	setupCmd.Flags().StringArrayVar(&setupSkip, "skip", nil, "Do not write files matching this glob (repeatable)")
	setupCmd.Flags().BoolVar(&setupDryRun, "dry-run", false, "Print diffs instead of writing files")
	setupCmd.Flags().BoolVar(&setupExplain, "explain", false, "Print where every value came from")
	setupCmd.Flags().BoolVar(&setupNoGit, "no-git", false, "Do not take defaults from the git repository")
	setupCmd.Flags().BoolVarP(&setupWatch, "watch", "w", false, "Run setup again whenever a configuration file changes")
	setupCmd.Flags().StringSliceVar(&setupOnly, "only", nil, fmt.Sprintf("Only generate these namespaces (%s)", strings.Join(generate.Names(), ", ")))
}

func runSetup(cmd *cobra.Command, args []string) error {
	dir, err := GetWorkDir(args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := event.NewBus()
	defer bus.Close()
	bus.SubscribeAll(func(e event.Event) {
		logging.Debug().Str("event", string(e.Type)).RawJSON("data", e.Data).Msg("event")
	})

	if !setupWatch {
		return setupOnce(ctx, cmd, dir, bus)
	}
	if interactive {
		return errors.New("--watch cannot be combined with --interactive")
	}
	return watchSetup(ctx, cmd, dir, bus)
}

// watchSetup runs setup once, then again every time a configuration file
// changes, until ctx is done. Failed runs are reported and do not stop it.
func watchSetup(ctx context.Context, cmd *cobra.Command, dir string, bus *event.Bus) error {
	w, err := watch.New(configSources(dir), watch.WithBus(bus))
	if err != nil {
		return fmt.Errorf("watch configuration: %w", err)
	}
	defer w.Stop()

	errOut := cmd.ErrOrStderr()
	rerun := func() error {
		err := setupOnce(ctx, cmd, dir, bus)
		w.Refresh()
		if err != nil {
			if ExitCode(err) == ExitAborted {
				return err
			}
			fmt.Fprintf(errOut, "mloq: %s\n", Describe(err))
		}
		return nil
	}

	if err := rerun(); err != nil {
		return err
	}
	w.Start()
	fmt.Fprintf(errOut, "watching %s\n", strings.Join(w.Paths(), ", "))

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-w.Changes():
			fmt.Fprintf(errOut, "%s changed, running setup\n", strings.Join(paths, ", "))
			if err := rerun(); err != nil {
				return err
			}
		}
	}
}

func setupOnce(ctx context.Context, cmd *cobra.Command, dir string, bus *event.Bus) error {
	tree, err := loadTree(dir)
	if err != nil {
		return err
	}

	opts := generate.Options{Only: setupOnly, Bus: bus}
	if !setupNoGit {
		opts.Defaults = generate.GitDefaults(vcs.Inspect(dir))
	}
	if interactive {
		if !prompt.IsTerminal(os.Stdin) {
			logging.Warn().Msg("interactive mode without a terminal, reading answers from stdin")
		}
		opts.Prompter = prompt.NewConsole(cmd.InOrStdin(), cmd.ErrOrStderr())
	}

	result, err := generate.Run(ctx, tree, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if setupExplain {
		explain(out, result.Resolutions)
	}

	w, err := record.NewWriter(fsys, dir, record.Options{
		Overwrite: setupOverwrite,
		Skip:      setupSkip,
		DryRun:    setupDryRun,
		Diffs:     out,
		Bus:       bus,
	})
	if err != nil {
		return err
	}
	report, err := w.Write(result.Record)
	if err != nil {
		return err
	}

	if setupDryRun {
		fmt.Fprintf(out, "dry run: %d files would be written, %d skipped\n", len(report.Written), len(report.Skipped))
		return nil
	}
	if err := config.Save(fsys, config.ProjectConfigPath(dir), tree); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}
	fmt.Fprintf(out, "%d files written, %d skipped\n", len(report.Written), len(report.Skipped))
	return nil
}

func explain(w io.Writer, resolutions []*resolver.Resolution) {
	for _, res := range resolutions {
		for _, r := range res.Results {
			fmt.Fprintf(w, "%-36s %-8s %v\n", config.Join(r.Namespace, r.Name), r.Source, r.Value)
		}
		for _, name := range res.Skipped {
			fmt.Fprintf(w, "%-36s %-8s\n", config.Join(res.Namespace, name), "disabled")
		}
	}
}
