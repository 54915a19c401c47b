package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 4, cfg.Resolver.MaxPathParts)
	assert.Equal(t, 2, cfg.Resolver.MaxBackStep)
	assert.Equal(t, 3, cfg.Resolver.MaxForwardStep)
	require.NotEmpty(t, cfg.Resolver.RootSubstitutions)
	assert.Equal(t, Substitution{Prefix: "~/", Replacement: "/assets/minecraft/optifine/"}, cfg.Resolver.RootSubstitutions[0])

	_, err = cfg.Compile()
	require.NoError(t, err)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "custom.yaml")
	content := `
workers: 3
resolver:
  max_path_parts: 6
properties:
  expected_extensions:
    - key: "texture"
      extensions: [".png", ".tga"]
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, file, cfg.File())
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 6, cfg.Resolver.MaxPathParts)
	// untouched keys keep their defaults
	assert.Equal(t, 2, cfg.Resolver.MaxBackStep)
	assert.Equal(t, "./output", cfg.OutputPath)
	require.Len(t, cfg.Properties.ExpectedExtensions, 1)
	assert.Equal(t, []string{".png", ".tga"}, cfg.Properties.ExpectedExtensions[0].Extensions)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_EnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "env.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"output_path": "/tmp/out"}`), 0o644))
	t.Setenv(EnvConfig, file)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", cfg.OutputPath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"zero path parts", func(c *Config) { c.Resolver.MaxPathParts = 0 }},
		{"negative back step", func(c *Config) { c.Resolver.MaxBackStep = -1 }},
		{"empty substitution prefix", func(c *Config) {
			c.Resolver.RootSubstitutions = []Substitution{{Prefix: "", Replacement: "/x/"}}
		}},
		{"extension without dot", func(c *Config) {
			c.Properties.ExpectedExtensions = []ExtensionRule{{Key: "texture", Extensions: []string{"png"}}}
		}},
		{"empty non path pattern", func(c *Config) {
			c.Properties.NonPathRules = []NonPathRule{{Pattern: ""}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestCompile_BadRegex(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	cfg.Properties.ExcludedPaths = []string{"("}

	_, err = cfg.Compile()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func testRules(t *testing.T) *Rules {
	t.Helper()
	cfg := &Config{
		Workers: 1,
		Resolver: ResolverConfig{
			MaxPathParts: 4, MaxBackStep: 2, MaxForwardStep: 3,
		},
		Properties: PropertiesConfig{
			ExpectedExtensions: []ExtensionRule{
				{Key: "texture", Extensions: []string{".png"}},
				{Key: "texture\\.special", Extensions: []string{".tga"}},
				{Key: "folder$", Extensions: nil},
			},
			ExcludedPaths: []string{"/assets/lang/"},
			NonPathRules: []NonPathRule{
				{Pattern: "type", Exclude: true},
				{Pattern: "nbt\\.path", Regex: true, Exclude: false},
				{Pattern: "nbt\\.", Regex: true, Exclude: true},
			},
		},
	}
	r, err := cfg.Compile()
	require.NoError(t, err)
	return r
}

func TestRules_ExpectedExtensions(t *testing.T) {
	r := testRules(t)

	exts, ok := r.ExpectedExtensions("texture.special")
	assert.True(t, ok)
	assert.Equal(t, []string{".png"}, exts, "first matching rule wins")

	exts, ok = r.ExpectedExtensions("folder")
	assert.True(t, ok)
	assert.Empty(t, exts)
	assert.NotNil(t, exts)

	exts, ok = r.ExpectedExtensions("unknown")
	assert.False(t, ok)
	assert.Nil(t, exts)

	_, ok = r.ExpectedExtensions("my.folder")
	assert.False(t, ok, "patterns are anchored at the start")
}

func TestRules_PathCandidate(t *testing.T) {
	r := testRules(t)

	tests := []struct {
		key  string
		want bool
	}{
		{"type", false},
		{"types", true},
		{"nbt.path", true},
		{"nbt.display.Name", false},
		{"texture", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, r.PathCandidate(tt.key))
		})
	}
}

func TestRules_ExcludedPath(t *testing.T) {
	r := testRules(t)
	assert.True(t, r.ExcludedPath("/assets/lang/en_us.properties"))
	assert.False(t, r.ExcludedPath("/pack/assets/lang/en_us.properties"))
}
