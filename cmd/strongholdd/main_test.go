package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/stronghold/internal/envvar"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestModelsCommand(t *testing.T) {
	t.Setenv(envvar.StrongholdModelsPath, t.TempDir())
	path := writeConfig(t, "version: \"1\"\nmodels:\n  - internal: basic-v1.zip\n")

	out, err := runRoot(t, "models", "--config", path, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "basic-v1")
	assert.Contains(t, out, "loaded")
	assert.Contains(t, out, "*")
}

func TestModelsCommand_ReportsFailures(t *testing.T) {
	modelsDir := t.TempDir()
	t.Setenv(envvar.StrongholdModelsPath, modelsDir)
	path := writeConfig(t, "version: \"1\"\nmodels:\n  - internal: basic-v1.zip\n  - external: missing\n")

	out, err := runRoot(t, "models", "--config", path, "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 models failed")
	assert.Contains(t, out, "missing")
}

func TestModelsCommand_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "version: \"1\"\n")

	_, err := runRoot(t, "models", "--config", path, "--log-level", "error")
	assert.Error(t, err)
}

func TestModelsCommand_InvalidLogLevel(t *testing.T) {
	path := writeConfig(t, "version: \"1\"\nmodels: []\n")

	_, err := runRoot(t, "models", "--config", path, "--log-level", "loud")
	assert.Error(t, err)
}

func TestModelsCommand_Bundled(t *testing.T) {
	out, err := runRoot(t, "models", "--bundled", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "basic-v1.zip\n", out)
}

func TestRootCommand_LogRotationFlags(t *testing.T) {
	t.Setenv(envvar.StrongholdModelsPath, t.TempDir())
	logFile := filepath.Join(t.TempDir(), "stronghold.log")
	path := writeConfig(t, "version: \"1\"\nmodels: []\n")

	_, err := runRoot(t, "models", "--config", path, "--log-to-file", "--log-file", logFile,
		"--log-max-size", "1", "--log-max-backups", "2", "--log-max-age", "3")
	require.NoError(t, err)
	assert.FileExists(t, logFile)

	_, err = runRoot(t, "models", "--config", path, "--log-max-size", "0")
	assert.Error(t, err)
}
