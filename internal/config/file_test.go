package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `globals:
  project_name: rocket
  owner: acme
  email: ???
  project_url: https://github.com/${globals.owner}/${globals.project_name}
license:
  copyright_holder: ${globals.owner}
  copyright_year: 2024
docker:
  env:
    PYTHONPATH: /src
  port_mapping:
    - 8080
    - 80
lint:
`

func TestParse(t *testing.T) {
	tree, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"globals", "license", "docker", "lint"}, tree.Namespaces())
	assert.Equal(t, []string{
		"globals.project_name",
		"globals.owner",
		"globals.email",
		"globals.project_url",
		"license.copyright_holder",
		"license.copyright_year",
		"docker.env",
		"docker.port_mapping",
	}, tree.Paths())

	v, _ := tree.Get("globals.email")
	assert.True(t, v.IsRequired())
	v, _ = tree.Get("license.copyright_holder")
	assert.True(t, v.IsInterpolation())
	v, _ = tree.Get("license.copyright_year")
	assert.Equal(t, 2024, v.Data())
	v, _ = tree.Get("docker.env")
	assert.Equal(t, map[string]any{"PYTHONPATH": "/src"}, v.Data())

	url, err := tree.Resolve("globals.project_url")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/rocket", url)
}

func TestParseRejectsNonMapping(t *testing.T) {
	_, err := Parse([]byte("- a\n- b\n"))
	assert.Error(t, err)

	tree, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, tree.Paths())
}

func TestParseRejectsDottedKeys(t *testing.T) {
	_, err := Parse([]byte("a.b: 1\n"))
	assert.ErrorContains(t, err, `invalid key "a.b"`)

	_, err = Parse([]byte("globals:\n  owner.name: acme\n"))
	assert.ErrorContains(t, err, `globals: invalid key "owner.name"`)

	_, err = Parse([]byte(`{"": 1}`))
	assert.Error(t, err)
}

func TestMarshalRoundTripTypedSequences(t *testing.T) {
	tree := NewTree()
	tree.Set("docker.ports", Concrete(Tuple{8080, 80}))
	tree.Set("lint.linters", Concrete([]string{"ruff", "mypy"}))
	tree.Set("version", Concrete(3))

	data, err := Marshal(tree)
	require.NoError(t, err)
	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, tree.Snapshot(), back.Snapshot())
	assert.Equal(t, []any{8080, 80}, back.Snapshot()["docker.ports"])

	// the declared type restores the typed form
	v, _ := back.Get("docker.ports")
	ports, err := Coerce(v, TupleOf(2), false)
	require.NoError(t, err)
	assert.Equal(t, Tuple{8080, 80}, ports)
}

func TestMarshalRoundTrip(t *testing.T) {
	tree := NewTree()
	tree.Set("globals.project_name", Concrete("rocket"))
	tree.Set("globals.owner", Concrete("acme"))
	tree.Set("globals.open_source", Concrete(true))
	tree.Set("license.copyright_holder", Ref("globals.owner"))
	tree.Set("license.copyright_year", Concrete(2024))
	tree.Set("ci.coverage_threshold", Concrete(80.5))
	tree.Set("requirements.requirements", Concrete([]any{"torch", "numpy"}))
	tree.Set("docker.env", Concrete(map[string]any{"A": "1"}))
	tree.SetRaw("readme.docs_url", "https://${globals.owner}.github.io/${globals.project_name}")
	tree.AddNamespace("lint")

	data, err := Marshal(tree)
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, tree.Snapshot(), back.Snapshot())
	assert.Equal(t, tree.Paths(), back.Paths())
	assert.Equal(t, tree.Namespaces(), back.Namespaces())
}

func TestMarshalKeepsMarkers(t *testing.T) {
	tree := NewTree()
	tree.Set("globals.owner", Required())
	tree.Set("license.copyright_holder", Ref("globals.owner"))

	data, err := Marshal(tree)
	require.NoError(t, err)
	assert.Regexp(t, `owner: ['"]?\?\?\?`, string(data))
	assert.Regexp(t, `copyright_holder: ['"]?\$\{globals\.owner\}`, string(data))

	back, err := Parse(data)
	require.NoError(t, err)
	v, _ := back.Get("globals.owner")
	assert.True(t, v.IsRequired())
}

func TestLoadAndSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	tree, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	require.NoError(t, Save(fs, "/project/mloq.yaml", tree))
	exists, _ := afero.Exists(fs, "/project/mloq.yaml.tmp")
	assert.False(t, exists)

	back, err := Load(fs, "/project/mloq.yaml")
	require.NoError(t, err)
	assert.Equal(t, tree.Snapshot(), back.Snapshot())
}

func TestLoadJSONC(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := `{
		// owner of the repository
		"globals": {"owner": "acme", "project_name": "???"},
		"docker": {"port_mapping": [8080, 80]}, /* trailing */
	}`
	require.NoError(t, afero.WriteFile(fs, "/mloq.jsonc", []byte(doc), 0644))

	tree, err := Load(fs, "/mloq.jsonc")
	require.NoError(t, err)

	v, _ := tree.Get("globals.owner")
	assert.Equal(t, "acme", v.Data())
	v, _ = tree.Get("globals.project_name")
	assert.True(t, v.IsRequired())
	v, _ = tree.Get("docker.port_mapping")
	assert.Equal(t, []any{8080, 80}, v.Data())
}

func TestLoadOptional(t *testing.T) {
	fs := afero.NewMemMapFs()
	tree, err := LoadOptional(fs, "/missing.yaml")
	require.NoError(t, err)
	assert.Empty(t, tree.Paths())

	_, err = Load(fs, "/missing.yaml")
	assert.Error(t, err)
}
