package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/yuutai-cli/internal/config"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"sync", "company", "search", "report", "schedule", "runs"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "yuutai-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))
}

func TestSyncCommand_Flags(t *testing.T) {
	for _, name := range []string{"date", "start-date", "end-date", "dry-run", "test"} {
		assert.NotNil(t, syncCmd.Flags().Lookup(name), "sync should have --%s", name)
	}
}

func TestCompanyCommand_Flags(t *testing.T) {
	flag := companyCmd.Flags().Lookup("days-back")
	require.NotNil(t, flag)
	assert.Equal(t, "30", flag.DefValue)
	require.NotNil(t, companyCmd.Flags().Lookup("code"))
}

func TestReportCommand_Flags(t *testing.T) {
	flag := reportCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "text", flag.DefValue)
	require.NotNil(t, reportCmd.Flags().Lookup("out"))
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["show"])
	assert.True(t, names["stats"])

	flag := runsListCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "50", flag.DefValue)
}

func TestYesterday(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-02-28", yesterday(now))
}

func TestSplitKeywords(t *testing.T) {
	assert.Equal(t, []string{"優待", "QUOカード"}, splitKeywords(" 優待, ,QUOカード,"))
	assert.Empty(t, splitKeywords(" , "))
}

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestInitPipeline_ReadOnlyNeedsNoCredentials(t *testing.T) {
	withConfig(t, &config.Config{})

	env, err := initPipeline(context.Background(), envOptions{})
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Pipeline)
	assert.NotNil(t, env.Source)
	assert.Nil(t, env.Store)
}

func TestInitPipeline_DryRunNeedsNoCredentials(t *testing.T) {
	withConfig(t, &config.Config{})

	env, err := initPipeline(context.Background(), envOptions{Write: true, DryRun: true})
	require.NoError(t, err)
	defer env.Close()
	assert.Nil(t, env.Store)
}

func TestInitPipeline_WriteRequiresNotion(t *testing.T) {
	withConfig(t, &config.Config{})

	_, err := initPipeline(context.Background(), envOptions{Write: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion.token")
}

func TestInitPipeline_WriteOpensLedger(t *testing.T) {
	c := &config.Config{}
	c.Notion.Token = "secret"
	c.Notion.ParentPageID = "page"
	c.Store.Path = filepath.Join(t.TempDir(), "yuutai.db")
	withConfig(t, c)

	env, err := initPipeline(context.Background(), envOptions{Write: true})
	require.NoError(t, err)
	defer env.Close()
	assert.NotNil(t, env.Store)
}
