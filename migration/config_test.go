package migration

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiplanet/docmigrate"
	ierrors "github.com/weiplanet/docmigrate/kit/platform/errors"
	"go.uber.org/zap/zaptest"
)

const yamlConfig = `
page-size: 50
concurrency: 8
target-version: 0.12.0
collections:
  - id: users
    name: Users
    traverse: true
    attributes:
      - id: email
        type: string
        size: 256
`

func TestLoadConfig(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yamlConfig)))

	c, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 50, c.PageSize)
	assert.Equal(t, 8, c.Concurrency)
	assert.Equal(t, "0.12.0", c.TargetVersion)
	assert.Equal(t, DefaultSchema, c.Schema)
	require.Len(t, c.Collections, 1)
	assert.Equal(t, docmigrate.Collection{
		ID:       "users",
		Name:     "Users",
		Traverse: true,
		Attributes: []docmigrate.AttributeDef{
			{ID: "email", Type: docmigrate.AttributeString, Size: 256},
		},
	}, c.Collections[0])

	m, err := c.Manifest()
	require.NoError(t, err)
	assert.Len(t, m.Traversed(), 2)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("DOCMIGRATE_PAGE_SIZE", "25")
	t.Setenv("DOCMIGRATE_SCHEMA", "tenants")

	c, err := LoadConfig(viper.New())
	require.NoError(t, err)
	assert.Equal(t, 25, c.PageSize)
	assert.Equal(t, "tenants", c.Schema)
	assert.Zero(t, c.Concurrency)
}

func TestParseConfig(t *testing.T) {
	c, err := ParseConfig(`
page-size = 10
schema = "tenants"

[[collections]]
id = "teams"
name = "Teams"
traverse = true
`)
	require.NoError(t, err)
	assert.Equal(t, 10, c.PageSize)
	assert.Equal(t, "tenants", c.Schema)
	require.Len(t, c.Collections, 1)
	assert.Equal(t, "teams", c.Collections[0].ID)
	assert.True(t, c.Collections[0].Traverse)

	r, err := c.NewRunner(zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 10, r.pageSize)
	assert.Equal(t, "tenants", r.schema)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{name: "zero page size", toml: "page-size = 0"},
		{name: "negative concurrency", toml: "concurrency = -1"},
		{name: "malformed", toml: "page-size = "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(tt.toml)
			require.Error(t, err)
			assert.Equal(t, ierrors.EInvalid, ierrors.ErrorCode(err))
		})
	}

	_, err := ParseConfig(`[[collections]]
id = "audit"`)
	require.NoError(t, err, "manifest conflicts are reported when the manifest is built")
}
