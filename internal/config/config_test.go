package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Contains(t, cfg.Communities, "golf")
	require.Contains(t, cfg.Communities, "buildinpublic")
	require.Equal(t, "bot_metrics.db", cfg.DatabasePath)
	require.Equal(t, 5, cfg.Reddit.MaxCandidates)
	require.Equal(t, "openai", cfg.Generator.Provider)
	require.Equal(t, ":8000", cfg.API.ListenAddr)
	require.False(t, cfg.Browser.Headless)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().Communities, cfg.Communities)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
communities: [golf]
database_path: /tmp/custom.db
browser:
  headless: true
  navigation_timeout: 45s
schedule:
  min_rotation: 1m
  break_after_rounds: 3
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"golf"}, cfg.Communities)
	require.Equal(t, "/tmp/custom.db", cfg.DatabasePath)
	require.True(t, cfg.Browser.Headless)
	require.Equal(t, 45*time.Second, cfg.GetNavigationTimeout())
	require.Equal(t, 3, cfg.Schedule.BreakAfterRounds)

	// Fields absent from the file keep their defaults.
	require.Equal(t, 5, cfg.Reddit.MaxCandidates)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("communities: [unclosed"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REDDIT_USERNAME", "golfer42")
	t.Setenv("REDDIT_PASSWORD", "hunter2")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("THREADPULSE_DB", "/var/lib/threadpulse/actions.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, "golfer42", cfg.Reddit.Username)
	require.Equal(t, "hunter2", cfg.Reddit.Password)
	require.Equal(t, "sk-test", cfg.Generator.APIKey)
	require.Equal(t, "openai", cfg.Generator.Provider)
	require.Equal(t, "/var/lib/threadpulse/actions.db", cfg.DatabasePath)
}

func TestGeminiKeyOnlyAppliesToGeminiProvider(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gm-test")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generator:\n  provider: gemini\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "gm-test", cfg.Generator.APIKey)

	// With the default provider the gemini key is ignored.
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Empty(t, cfg.Generator.APIKey)
}

func TestScheduleDurationsFallBackOnParseErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Schedule.MinRotation = "not-a-duration"

	minRot, maxRot, brk, minPause, maxPause := cfg.ScheduleDurations()
	require.Equal(t, 2*time.Minute, minRot)
	require.Equal(t, 30*time.Minute, maxRot)
	require.Equal(t, 3*time.Hour, brk)
	require.Equal(t, 60*time.Second, minPause)
	require.Equal(t, 120*time.Second, maxPause)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Communities = []string{"golf", "SaaS"}
	cfg.Reddit.Password = "hunter2"
	require.NoError(t, cfg.Save(path))

	// Secrets never land in the file.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "hunter2")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Communities, loaded.Communities)
}
