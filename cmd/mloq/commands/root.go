// Package commands provides the CLI commands for mloq.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/config"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/logging"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/resolver"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitAborted = 130
)

// Global flags
var (
	configFile  string
	interactive bool
	envFiles    []string
	printLogs   bool
	logLevel    string
	logToFile   bool
)

// fsys is the file system every command reads and writes.
var fsys afero.Fs = afero.NewOsFs()

var rootCmd = &cobra.Command{
	Use:   "mloq",
	Short: "mloq - quickstart for machine learning projects",
	Long: `mloq generates the boilerplate of a python machine learning project
(README, license, packaging, requirements, CI workflows, Dockerfile and linter
configuration) from a mloq.yaml file, MLOQ_* environment variables and,
optionally, interactive prompts.

Run 'mloq config template' to write a configuration skeleton, then
'mloq setup' to generate the project.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initRun,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file (YAML, JSON or JSONC)")
	rootCmd.PersistentFlags().BoolVarP(&interactive, "interactive", "i", false, "Prompt for every parameter")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Load environment variables from a .env file (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Print logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "WARN", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log-file", false, "Also write JSON logs to the mloq cache directory")

	rootCmd.SetVersionTemplate(fmt.Sprintf("mloq %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(configCmd)
}

// initRun configures logging and loads .env files before any command.
func initRun(cmd *cobra.Command, args []string) error {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(logLevel)
	cfg.Pretty = printLogs
	if !printLogs && !logToFile {
		cfg.Level = logging.Disabled
	}
	cfg.LogToFile = logToFile
	cfg.LogDir = config.GetPaths().Cache
	if logToFile && !printLogs {
		cfg.Output = io.Discard
	}
	if err := logging.Init(cfg); err != nil {
		return err
	}
	logging.WithRun(ulid.Make().String())

	if err := config.LoadDotEnv(envFiles...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	logging.Debug().Str("command", cmd.CommandPath()).Strs("env_files", envFiles).Msg("starting")
	return nil
}

// Execute runs the root command.
func Execute() error {
	defer logging.Close()
	return rootCmd.Execute()
}

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case resolver.IsAbortError(err):
		return ExitAborted
	default:
		return ExitFailure
	}
}

// Describe renders err for the terminal.
func Describe(err error) string {
	var missing *config.MissingValueError
	switch {
	case errors.As(err, &missing) && missing.Reference != "":
		return fmt.Sprintf("missing value for %s: it references %s, which has no value yet (set %s in %s or run with --interactive)",
			missing.Path, missing.Reference, missing.Reference, config.FileName)
	case errors.As(err, &missing) && missing.Parameter != "":
		return fmt.Sprintf("missing value for %s (set it in %s, export %s or run with --interactive)",
			missing.Path, config.FileName, config.EnvKey(config.EnvPrefix, missing.Parameter))
	case resolver.IsAbortError(err):
		return "aborted"
	default:
		return err.Error()
	}
}

// GetWorkDir returns the directory argument or the current directory.
func GetWorkDir(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	return os.Getwd()
}
