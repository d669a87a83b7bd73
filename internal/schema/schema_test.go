package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/config"
)

func licenseSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := New("license",
		Bool("disable", Default(false)),
		String("license", Default("MIT"), Choices("MIT", "Apache-2.0")),
		Int("copyright_year"),
		String("copyright_holder", Default("${globals.owner}"), Help("Holder of the copyright")),
	)
	require.NoError(t, err)
	return s
}

func TestNewKeepsOrder(t *testing.T) {
	s := licenseSchema(t)
	assert.Equal(t, "license", s.Namespace())
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []string{"disable", "license", "copyright_year", "copyright_holder"}, s.Names())
	assert.Equal(t, "license.copyright_year", s.Path("copyright_year"))
}

func TestNewDuplicate(t *testing.T) {
	_, err := New("globals", String("owner"), String("owner"))
	require.ErrorIs(t, err, ErrDuplicateParameter)

	var dup *DuplicateParameterError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "owner", dup.Name)
	assert.Equal(t, "globals", dup.Namespace)

	assert.Panics(t, func() { MustNew("globals", Int("x"), Bool("x")) })
}

func TestDescribe(t *testing.T) {
	s := licenseSchema(t)

	p, err := s.Describe("copyright_holder")
	require.NoError(t, err)
	assert.Equal(t, config.String, p.Type)
	assert.Equal(t, "Holder of the copyright", p.Help)
	require.True(t, p.HasDefault())
	assert.True(t, p.Default.IsInterpolation())

	p, err = s.Describe("copyright_year")
	require.NoError(t, err)
	assert.False(t, p.HasDefault())
}

func TestDescribeUnknownSuggests(t *testing.T) {
	s := licenseSchema(t)

	_, err := s.Describe("copyright_yaer")
	require.ErrorIs(t, err, ErrUnknownParameter)
	var unknown *UnknownParameterError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "copyright_year", unknown.Suggestion)
	assert.Contains(t, err.Error(), `did you mean "copyright_year"`)

	_, err = s.Describe("zzz")
	require.ErrorAs(t, err, &unknown)
	assert.Empty(t, unknown.Suggestion)
}

func TestParametersAreCopies(t *testing.T) {
	s := licenseSchema(t)
	params := s.Parameters()
	params[0].Name = "changed"
	assert.Equal(t, "disable", s.Names()[0])
}

func TestWithDisable(t *testing.T) {
	s := licenseSchema(t)

	all := s.MustWithDisable("disable")
	assert.Equal(t, "disable", all.DisableFlag())
	assert.False(t, all.Gated("disable"))
	assert.True(t, all.Gated("license"))
	assert.True(t, all.Gated("copyright_year"))
	assert.Empty(t, s.DisableFlag(), "original schema is unchanged")

	some, err := s.WithDisable("disable", "license")
	require.NoError(t, err)
	assert.True(t, some.Gated("license"))
	assert.False(t, some.Gated("copyright_year"))

	_, err = s.WithDisable("license")
	assert.Error(t, err, "flag must be a bool")

	_, err = s.WithDisable("disable", "nope")
	assert.ErrorIs(t, err, ErrUnknownParameter)
}

func TestParameterCoerce(t *testing.T) {
	p := StringList("requirements", Choices("data-science", "torch", "none"))

	v, err := p.Coerce("data-science, torch ,none")
	require.NoError(t, err)
	assert.Equal(t, []string{"data-science", "torch", "none"}, v)

	_, err = p.Coerce("torch,jax")
	require.ErrorIs(t, err, config.ErrCoercion)
	assert.Contains(t, err.Error(), "jax")

	lic := String("license", Choices("MIT"))
	_, err = lic.Coerce("BSD")
	assert.ErrorIs(t, err, config.ErrCoercion)

	optional := Tuple("port_mapping", 2, AllowMissing())
	v, err = optional.Coerce(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = Int("line_length").Coerce(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}
