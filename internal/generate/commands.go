package generate

import (
	"fmt"
	"time"

	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/resolver"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/schema"
)

// Output maps a template to the path it is written to. Path may itself
// contain template actions.
type Output struct {
	Template string
	Path     string
	// When names a bool parameter of the namespace gating this output.
	When string
}

// Command is one generation step: the parameters of a namespace, the caller
// defaults computed while resolving them and the files it renders.
type Command struct {
	Schema   *schema.Schema
	Defaults map[string]resolver.DefaultFunc
	Outputs  []Output
}

// Name returns the namespace of the command.
func (c Command) Name() string { return c.Schema.Namespace() }

// Globals is the namespace every other command interpolates from.
const Globals = "globals"

var (
	globalsSchema = schema.MustNew(Globals,
		schema.String("project_name", schema.Help("Name of the project, also the python package name")),
		schema.String("owner", schema.Help("GitHub user or organization owning the repository")),
		schema.String("author", schema.Default("${globals.owner}"), schema.Help("Author of the project")),
		schema.String("email", schema.Help("Contact email of the author")),
		schema.String("description", schema.Default(""), schema.Help("Short description of the project")),
		schema.Bool("open_source", schema.Default(true), schema.Help("Whether the project is open source")),
		schema.String("project_url", schema.Help("URL of the repository")),
		schema.String("default_branch", schema.Default("main"), schema.Help("Default git branch")),
	)

	licenseSchema = schema.MustNew("license",
		schema.Bool("disable", schema.Default(false), schema.Help("Do not generate a license")),
		schema.String("license", schema.Default("MIT"), schema.Choices(Licenses...), schema.Help("License of the project")),
		schema.Int("copyright_year", schema.Help("Year of the copyright notice")),
		schema.String("copyright_holder", schema.Default("${globals.owner}"), schema.Help("Holder of the copyright")),
	).MustWithDisable("disable")

	readmeSchema = schema.MustNew("readme",
		schema.Bool("disable", schema.Default(false), schema.Help("Do not generate a README")),
		schema.String("title", schema.Default("${globals.project_name}"), schema.Help("Title of the README")),
		schema.StringList("badges", schema.Default("ci,coverage,license"), schema.Choices("ci", "coverage", "license", "docs"), schema.Help("Badges shown below the title")),
		schema.String("docs_url", schema.Default("https://${globals.owner}.github.io/${globals.project_name}"), schema.Help("URL of the documentation")),
	).MustWithDisable("disable")

	requirementsSchema = schema.MustNew("requirements",
		schema.Bool("disable", schema.Default(false), schema.Help("Do not generate requirements files")),
		schema.StringList("requirements", schema.Default("none"), schema.Choices(RequirementChoices()...), schema.Help("Requirement groups of the project")),
		schema.StringList("extra", schema.Default(""), schema.Help("Additional pip requirements")),
	).MustWithDisable("disable")

	packageSchema = schema.MustNew("package",
		schema.Bool("disable", schema.Default(false), schema.Help("Do not generate python packaging files")),
		schema.String("package_name", schema.Default("${globals.project_name}"), schema.Help("Name of the python package")),
		schema.String("version", schema.Default("0.1.0"), schema.Help("Initial version")),
		schema.StringList("python_versions", schema.Default("3.10,3.11,3.12"), schema.Help("Supported python versions")),
	).MustWithDisable("disable")

	ciSchema = schema.MustNew("ci",
		schema.Bool("disable", schema.Default(false), schema.Help("Do not generate CI workflows")),
		schema.String("vendor", schema.Default("github"), schema.Choices("github"), schema.Help("CI provider")),
		schema.String("runner", schema.Default("ubuntu-latest"), schema.Help("Runner image of the jobs")),
		schema.StringList("python_versions", schema.Default("${package.python_versions}"), schema.AllowMissing(), schema.Help("Python versions of the test matrix")),
		schema.Float("coverage_threshold", schema.Default(80.0), schema.Help("Minimum test coverage in percent")),
	).MustWithDisable("disable")

	dockerSchema = schema.MustNew("docker",
		schema.Bool("disable", schema.Default(false), schema.Help("Do not generate a Dockerfile")),
		schema.String("base_image", schema.Default("python:3.11-slim"), schema.Help("Base image of the Dockerfile")),
		schema.Mapping("env", schema.Default(map[string]any{}), schema.Help("Environment variables set in the image")),
		schema.Tuple("port_mapping", 2, schema.AllowMissing(), schema.Help("Host and container port, e.g. 8080,80")),
		schema.StringList("requirements", schema.Default("${requirements.requirements}"), schema.AllowMissing(), schema.Help("Requirement groups installed in the image")),
		schema.Bool("makefile", schema.Default(true), schema.Help("Generate a Makefile with docker targets")),
	).MustWithDisable("disable")

	lintSchema = schema.MustNew("lint",
		schema.Bool("disable", schema.Default(false), schema.Help("Do not generate linter configuration")),
		schema.Int("line_length", schema.Default(99), schema.Help("Maximum line length")),
		schema.StringList("linters", schema.Default("ruff,black"), schema.Choices("black", "flake8", "isort", "ruff", "mypy"), schema.Help("Pre-commit hooks to enable")),
	).MustWithDisable("disable")
)

// Commands returns every generation command in resolution order.
func Commands() []Command {
	return []Command{
		{
			Schema: globalsSchema,
			Defaults: map[string]resolver.DefaultFunc{
				"project_url": projectURL,
			},
			Outputs: []Output{
				{Template: "gitignore.tmpl", Path: ".gitignore"},
			},
		},
		{
			Schema: licenseSchema,
			Defaults: map[string]resolver.DefaultFunc{
				"copyright_year": func(map[string]any) any { return time.Now().Year() },
			},
			Outputs: []Output{{Template: "LICENSE.tmpl", Path: "LICENSE"}},
		},
		{
			Schema:  readmeSchema,
			Outputs: []Output{{Template: "README.md.tmpl", Path: "README.md"}},
		},
		{
			Schema:  requirementsSchema,
			Outputs: []Output{{Template: "requirements.txt.tmpl", Path: "requirements.txt"}},
		},
		{
			Schema: packageSchema,
			Outputs: []Output{
				{Template: "pyproject.toml.tmpl", Path: "pyproject.toml"},
				{Template: "init.py.tmpl", Path: "src/{{ snake .package.package_name }}/__init__.py"},
				{Template: "version.py.tmpl", Path: "src/{{ snake .package.package_name }}/version.py"},
			},
		},
		{
			Schema:  ciSchema,
			Outputs: []Output{{Template: "push.yml.tmpl", Path: ".github/workflows/push.yml"}},
		},
		{
			Schema: dockerSchema,
			Outputs: []Output{
				{Template: "Dockerfile.tmpl", Path: "Dockerfile"},
				{Template: "Makefile.tmpl", Path: "Makefile", When: "makefile"},
			},
		},
		{
			Schema:  lintSchema,
			Outputs: []Output{{Template: "pre-commit-config.yaml.tmpl", Path: ".pre-commit-config.yaml"}},
		},
	}
}

// Lookup returns the command of a namespace.
func Lookup(name string) (Command, bool) {
	for _, c := range Commands() {
		if c.Name() == name {
			return c, true
		}
	}
	return Command{}, false
}

// Names returns the namespaces of every command in resolution order.
func Names() []string {
	cmds := Commands()
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Name()
	}
	return out
}

func projectURL(resolved map[string]any) any {
	owner, _ := resolved["owner"].(string)
	name, _ := resolved["project_name"].(string)
	if owner == "" || name == "" {
		return nil
	}
	return fmt.Sprintf("https://github.com/%s/%s", owner, name)
}
