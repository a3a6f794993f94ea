package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "querydsl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, 0, cfg.PageSize)
	assert.Empty(t, cfg.Groups)
	assert.Empty(t, cfg.File)
}

func TestLoad_SearchPathFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
registry: fields.cue
endpoint: http://search:9200
index: dina_material_sample_index
page_size: 25
groups: [aafc, cnc]
timeout: 5s
`)
	cfg, err := Load(New(), "", dir)
	require.NoError(t, err)
	assert.Equal(t, "querydsl.yaml", filepath.Base(cfg.File))
	cfg.File = ""
	assert.Equal(t, Config{
		Registry: "fields.cue",
		Endpoint: "http://search:9200",
		Index:    "dina_material_sample_index",
		PageSize: 25,
		Groups:   []string{"aafc", "cnc"},
		Timeout:  5 * time.Second,
	}, cfg)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "index: from_file\npage_size: 10\n")
	t.Setenv("QUERYDSL_INDEX", "from_env")
	t.Setenv("QUERYDSL_GROUPS", "aafc, cnc")
	t.Setenv("QUERYDSL_PAGE_SIZE", "50")

	cfg, err := Load(New(), "", dir)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Index)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, []string{"aafc", "cnc"}, cfg.Groups)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("QUERYDSL_INDEX", "from_env")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("index", "", "")
	require.NoError(t, flags.Parse([]string{"--index", "from_flag"}))

	v := New()
	require.NoError(t, v.BindPFlag(KeyIndex, flags.Lookup("index")))
	cfg, err := Load(v, "", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "from_flag", cfg.Index)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog: catalog.db\n"), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "catalog.db", cfg.Catalog)
	assert.Equal(t, path, cfg.File)

	_, err = Load(New(), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "page_size: -1\n")
	_, err := Load(New(), "", dir)
	assert.Error(t, err)

	writeConfig(t, dir, "index: [unterminated\n")
	_, err = Load(New(), "", dir)
	assert.Error(t, err)
}
