package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jszwec/csvutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/talent-scout/internal/config"
	"github.com/jonathan/talent-scout/internal/types"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"run", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "talent_scout", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "3000", flag.DefValue)

	require.NotNil(t, serveCmd.Flags().Lookup("headless"))
}

func TestRunCommand_Flags(t *testing.T) {
	flag := runCmd.Flags().Lookup("out")
	require.NotNil(t, flag, "run command should have --out flag")
	assert.Equal(t, "o", flag.Shorthand)

	require.NotNil(t, runCmd.Flags().Lookup("provider"))
	assert.Error(t, runCmd.Args(runCmd, nil))
	assert.NoError(t, runCmd.Args(runCmd, []string{"companies.csv"}))
}

func withConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	c, err := config.Load("")
	require.NoError(t, err)
	c.Server.ResultsDir = filepath.Join(dir, "results")
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestRunScout_MissingFile(t *testing.T) {
	withConfig(t)

	err := runScout(runCmd, []string{"does-not-exist.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestRunScout_EmptyList(t *testing.T) {
	withConfig(t)
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("Company\n"), 0o644))

	err := runScout(runCmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no companies found")
}

func TestRunScout_MissingAPIKey(t *testing.T) {
	for _, key := range []string{"GEMINI_API_KEY", "SCOUT_LLM_API_KEY"} {
		t.Setenv(key, "")
	}
	withConfig(t)
	path := filepath.Join(t.TempDir(), "list.csv")
	require.NoError(t, os.WriteFile(path, []byte("Company\nAcme\n"), 0o644))

	err := runScout(runCmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no API key")
}

func TestWriteResults(t *testing.T) {
	withConfig(t)
	rows := []types.CompanyResult{types.NotFoundResult("Acme", "acme.com")}

	t.Run("default store", func(t *testing.T) {
		runOut = ""
		path, err := writeResults(rows)
		require.NoError(t, err)
		assert.Equal(t, cfg.Server.ResultsDir, filepath.Dir(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var got []types.CompanyResult
		require.NoError(t, csvutil.Unmarshal(data, &got))
		assert.Equal(t, rows, got)
	})

	t.Run("explicit out", func(t *testing.T) {
		runOut = filepath.Join(t.TempDir(), "nested", "out.csv")
		t.Cleanup(func() { runOut = "" })

		path, err := writeResults(rows)
		require.NoError(t, err)
		assert.Equal(t, runOut, path)
		_, err = os.Stat(path)
		assert.NoError(t, err)
	})
}
