package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/itchyny/gojq"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/config"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/generate"
)

var (
	showQuery string
	showDir   string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
	Long:  `Utilities to write, inspect and locate mloq configuration files.`,
}

var configTemplateCmd = &cobra.Command{
	Use:   "template [FILE]",
	Short: "Write a configuration skeleton",
	Long: `Write a configuration file declaring every parameter. Parameters without
a default are written as "???" and must be filled in before running setup.
Without FILE the skeleton is printed to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigTemplate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the merged configuration",
	RunE:  runConfigShow,
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show configuration paths",
	RunE:  runConfigPaths,
}

func init() {
	configShowCmd.Flags().StringVarP(&showQuery, "query", "q", "", "jq expression applied to the configuration")
	configShowCmd.Flags().StringVar(&showDir, "dir", "", "Project directory whose mloq.yaml is merged")

	configCmd.AddCommand(configTemplateCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathsCmd)
}

// Template returns a tree declaring every parameter with its default, or
// the missing marker when it has none.
func Template() (*config.Tree, error) {
	tree := config.NewTree()
	generate.Register(tree)
	for _, cmd := range generate.Commands() {
		s := cmd.Schema
		for _, p := range s.Parameters() {
			path := s.Path(p.Name)
			if !p.HasDefault() {
				tree.Set(path, config.Required())
				continue
			}
			if !p.Default.IsConcrete() {
				tree.Set(path, *p.Default)
				continue
			}
			v, err := p.Coerce(p.Default.Data())
			if err != nil {
				return nil, fmt.Errorf("default of %s: %w", path, err)
			}
			tree.Set(path, config.Concrete(v))
		}
	}
	return tree, nil
}

func runConfigTemplate(cmd *cobra.Command, args []string) error {
	tree, err := Template()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		if err := config.Save(fsys, args[0], tree); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "configuration template written to %s\n", args[0])
		return nil
	}
	data, err := config.Marshal(tree)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	dir := showDir
	if dir == "" {
		if _, err := fsys.Stat(config.FileName); err == nil {
			dir = "."
		}
	}
	tree, err := loadTree(dir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if showQuery == "" {
		data, err := config.Marshal(tree)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}
	return query(out, showQuery, tree.Nested())
}

// query runs a jq expression over v and prints every result as JSON.
func query(w io.Writer, expr string, v map[string]any) error {
	q, err := gojq.Parse(expr)
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}

	// gojq only accepts JSON shaped values
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	iter := code.Run(input)
	for {
		result, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := result.(error); ok {
			return fmt.Errorf("query: %w", err)
		}
		if err := enc.Encode(result); err != nil {
			return err
		}
	}
}

func runConfigPaths(cmd *cobra.Command, args []string) error {
	paths := config.GetPaths()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "mloq paths:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Config:   %s\n", paths.Config)
	fmt.Fprintf(out, "  Cache:    %s\n", paths.Cache)
	fmt.Fprintf(out, "  Global:   %s%s\n", config.GlobalConfigPath(), existsNote(config.GlobalConfigPath()))
	if wd, err := os.Getwd(); err == nil {
		project := config.ProjectConfigPath(wd)
		fmt.Fprintf(out, "  Project:  %s%s\n", project, existsNote(project))
	}
	if configFile != "" {
		fmt.Fprintf(out, "  File:     %s%s\n", configFile, existsNote(configFile))
	}
	return nil
}

func existsNote(path string) string {
	if ok, _ := afero.Exists(fsys, path); ok {
		return ""
	}
	return " (not found)"
}
