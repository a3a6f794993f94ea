package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execResult captures one CLI invocation.
type execResult struct {
	Stdout string
	Stderr string
	Err    error
}

// execute runs the root command with args, stdin as input and a HOME
// without a config file.
func execute(t *testing.T, stdin string, args ...string) execResult {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return execResult{Stdout: out.String(), Stderr: errOut.String(), Err: err}
}

func readTestdata(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"compile", "validate", "encode", "decode", "search", "test", "fields", "catalog"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	cmd := NewRootCommand()
	flags := cmd.PersistentFlags()

	for _, name := range []string{"verbose", "format", "config", "registry", "catalog", "columns", "endpoint", "index", "page-size", "group", "timeout"} {
		assert.NotNil(t, flags.Lookup(name), "flag %s", name)
	}
	assert.Equal(t, "v", flags.Lookup("verbose").Shorthand)
	assert.Equal(t, "text", flags.Lookup("format").DefValue)
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	res := execute(t, "", "fields", "--format", "xml", "--registry", "testdata/registry.yaml")
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), `invalid format "xml"`)
	assert.Equal(t, ExitCommandError, GetExitCode(res.Err))
	assert.False(t, Reported(res.Err))
}

func TestRootCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	registryPath, err := filepath.Abs(filepath.Join("testdata", "registry.yaml"))
	require.NoError(t, err)
	cfgPath := filepath.Join(dir, "querydsl.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("registry: "+registryPath+"\npage_size: 5\n"), 0o644))

	res := execute(t, readTestdata(t, "tree.json"), "compile", "--config", cfgPath, "--format", "json")
	require.NoError(t, res.Err, res.Stderr)
	assert.Contains(t, res.Stdout, `"size": 5`)
}

func TestRootCommand_FlagOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "querydsl.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("registry: does-not-exist.yaml\npage_size: 5\n"), 0o644))

	res := execute(t, readTestdata(t, "tree.json"),
		"compile", "--config", cfgPath, "--registry", "testdata/registry.yaml", "--page-size", "7")
	require.NoError(t, res.Err, res.Stderr)
	assert.Contains(t, res.Stdout, `"size": 7`)
}

func TestRootCommand_MissingConfigFile(t *testing.T) {
	res := execute(t, "", "fields", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, res.Err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.Err))
	assert.False(t, Reported(res.Err))
	assert.Contains(t, res.Err.Error(), "load configuration")
}

func TestReported(t *testing.T) {
	e := NewExitError(ExitFailure, "x")
	assert.False(t, Reported(e))
	e.reported = true
	assert.True(t, Reported(e))
	assert.False(t, Reported(nil))
}
