package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BattGenie/battstats/internal/common/battstatserrors"
)

func execute(t *testing.T, args ...string) (string, error) {
	logFile := filepath.Join(t.TempDir(), "log.log")
	cmd := RootCmd()
	cmd.SetArgs(append([]string{"--logfile", logFile, "--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	contents, readErr := os.ReadFile(logFile)
	require.NoError(t, readErr)
	return string(contents), err
}

func TestRootCmd_TooFewArguments(t *testing.T) {
	logged, err := execute(t)
	assert.Error(t, err)
	assert.Contains(t, logged, "Too few CLI arguments")
}

func TestRootCmd_TooManyArguments(t *testing.T) {
	logged, err := execute(t, "a.json", "b.json")
	assert.Error(t, err)
	assert.Contains(t, logged, "Too many CLI arguments")
}

func TestRootCmd_MissingCredentials(t *testing.T) {
	for _, env := range []string{"DB_TARGET", "DB_USERNAME", "DB_PASSWORD", "DB_HOSTNAME", "DB_PORT"} {
		t.Setenv(env, "")
	}
	configPath := filepath.Join(t.TempDir(), "test_config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"test_name": "BG_AmBatt2_Cell7_ICT"}`), 0o644))

	logged, err := execute(t, configPath)
	assert.True(t, battstatserrors.IsConnection(err), "expected ErrConnection, got %v", err)
	assert.Contains(t, logged, "DB_PASSWORD is not set")
}

func TestRootCmd_EnvFile(t *testing.T) {
	for _, env := range []string{"DB_TARGET", "DB_USERNAME", "DB_PASSWORD", "DB_HOSTNAME", "DB_PORT"} {
		t.Setenv(env, "")
		// godotenv won't override variables that are already set, even if empty.
		require.NoError(t, os.Unsetenv(env))
	}
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"DB_TARGET=battdb\nDB_USERNAME=analyst\nDB_PASSWORD=secret\nDB_HOSTNAME=127.0.0.1\nDB_PORT=1\n"), 0o644))

	logFile := filepath.Join(dir, "log.log")
	cmd := RootCmd()
	cmd.SetArgs([]string{"--logfile", logFile, "--env-file", envFile, "--query-timeout", "2s", filepath.Join(dir, "missing.json")})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	// Credentials come from the file, so the run gets as far as reading the (missing) test config.
	err := cmd.Execute()
	assert.Equal(t, "config", battstatserrors.Kind(err))
}
