package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/readiness-cli/internal/config"
	"github.com/sells-group/readiness-cli/internal/eligibility"
	"github.com/sells-group/readiness-cli/internal/scorer"
)

// useTestConfig installs a config backed by a temp SQLite database.
func useTestConfig(t *testing.T) *config.Config {
	t.Helper()
	prev := cfg
	cfg = &config.Config{
		Store:       config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "cli.db")},
		Catalog:     config.CatalogConfig{Source: "embedded"},
		Eligibility: eligibility.DefaultConfig(),
		Scoring:     scorer.DefaultScoringConfig(),
		Render:      config.RenderConfig{Title: "AASB S2 Readiness Report", Placeholder: "Not provided", TimeoutSecs: 30},
		Batch:       config.BatchConfig{MaxConcurrency: 2},
		Server:      config.ServerConfig{Port: 8787, AllowedOrigins: []string{"*"}},
		Log:         config.LogConfig{Level: "info", Format: "json"},
	}
	t.Cleanup(func() { cfg = prev })
	return cfg
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"classify", "score", "assess", "export", "catalog", "batch", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "readiness-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestAssessCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range assessCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"create", "list", "show", "set-profile", "answer", "score", "history", "clear", "delete"} {
		assert.True(t, names[name], "assess should have subcommand %q", name)
	}
}

func TestCatalogCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range catalogCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"validate", "show", "pull-notion", "push-notion"} {
		assert.True(t, names[name], "catalog should have subcommand %q", name)
	}
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		name string
		cmd  *cobra.Command
		flag string
		def  string
	}{
		{"serve port", serveCmd, "port", "0"},
		{"serve snapshot", serveCmd, "snapshot-on-change", "true"},
		{"score format", scoreCmd, "format", "table"},
		{"export format", exportCmd, "format", "xlsx"},
		{"batch concurrency", batchCmd, "concurrency", "0"},
		{"history limit", assessHistoryCmd, "limit", "20"},
		{"pull format", catalogPullCmd, "format", "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := tt.cmd.Flags().Lookup(tt.flag)
			require.NotNil(t, flag, "%s should have --%s", tt.cmd.Name(), tt.flag)
			assert.Equal(t, tt.def, flag.DefValue)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := writeFile(t, ".env", "READINESS_TEST_DOTENV=loaded\n")
	t.Cleanup(func() { os.Unsetenv("READINESS_TEST_DOTENV") }) //nolint:errcheck
	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("READINESS_TEST_DOTENV"))
}
