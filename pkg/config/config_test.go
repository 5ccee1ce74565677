package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BEARER_TOKEN",
		"SPOILERSCRAPER_BEARER_TOKEN",
		"SPOILERSCRAPER_DATA_PATH",
		"SPOILERSCRAPER_LANGUAGE",
		"SPOILERSCRAPER_LOG_LEVEL",
		"SPOILERSCRAPER_REQUESTS_PER_WINDOW",
		"TWITTER_CONSUMER_KEY",
		"TWITTER_CONSUMER_SECRET",
		"TWITTER_ACCESS_TOKEN",
		"TWITTER_ACCESS_TOKEN_SECRET",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 100, cfg.Twitter.PageSize)
	assert.Equal(t, DefaultQuery, cfg.Twitter.Query)
	assert.Equal(t, "data/tweets", cfg.Corpus.Directory)
	assert.Equal(t, "spoilers.txt", cfg.Corpus.SpoilerFile)
	assert.Equal(t, 1_000_000, cfg.Corpus.PreprocessLimit)
	assert.Equal(t, 100, cfg.Collector.TargetCount)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BEARER_TOKEN", "plain-token")
	t.Setenv("SPOILERSCRAPER_DATA_PATH", "/tmp/corpus")
	t.Setenv("SPOILERSCRAPER_LANGUAGE", "es")
	t.Setenv("SPOILERSCRAPER_LOG_LEVEL", "debug")
	t.Setenv("SPOILERSCRAPER_REQUESTS_PER_WINDOW", "450")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "plain-token", cfg.Twitter.BearerToken)
	assert.Equal(t, "/tmp/corpus", cfg.Corpus.Directory)
	assert.Equal(t, "es", cfg.Collector.Language)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 450, cfg.RateLimit.RequestsPerWindow)
}

func TestLoadFromEnvPrefixedTokenWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("BEARER_TOKEN", "plain-token")
	t.Setenv("SPOILERSCRAPER_BEARER_TOKEN", "prefixed-token")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, "prefixed-token", cfg.Twitter.BearerToken)
}

func TestLoadFromEnvRejectsBadNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPOILERSCRAPER_REQUESTS_PER_WINDOW", "lots")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SPOILERSCRAPER_REQUESTS_PER_WINDOW")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
twitter:
  page_size: 50
  tweet_mode: extended
collector:
  target_count: 500
  language: en
rate_limit:
  window: 5m
corpus:
  directory: /data/tweets
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 50, cfg.Twitter.PageSize)
	assert.Equal(t, "extended", cfg.Twitter.TweetMode)
	assert.Equal(t, 500, cfg.Collector.TargetCount)
	assert.Equal(t, "en", cfg.Collector.Language)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "/data/tweets", cfg.Corpus.Directory)
	// untouched keys keep their defaults
	assert.Equal(t, DefaultQuery, cfg.Twitter.Query)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"page size too large", func(c *Config) { c.Twitter.PageSize = 101 }, "page size"},
		{"page size zero", func(c *Config) { c.Twitter.PageSize = 0 }, "page size"},
		{"empty query", func(c *Config) { c.Twitter.Query = "  " }, "search query"},
		{"bad tweet mode", func(c *Config) { c.Twitter.TweetMode = "full" }, "tweet mode"},
		{"zero target", func(c *Config) { c.Collector.TargetCount = 0 }, "target count"},
		{"zero window", func(c *Config) { c.RateLimit.Window = 0 }, "window"},
		{"low multiplier", func(c *Config) { c.RateLimit.BackoffMultiplier = 0.5 }, "multiplier"},
		{"inverted fallback", func(c *Config) { c.RateLimit.MaxFallbackDelay = time.Second }, "max fallback"},
		{"no corpus dir", func(c *Config) { c.Corpus.Directory = "" }, "corpus directory"},
		{"spoiler file as batch", func(c *Config) { c.Corpus.SpoilerFile = "spoilers.jsonl" }, "batch extension"},
		{"spoiler file other ext", func(c *Config) { c.Corpus.SpoilerFile = "spoilers.json" }, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Twitter.PageSize = 0
	cfg.Corpus.Directory = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, 2, len(strings.Split(err.Error(), "\n")))
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"data-path": "/flags/tweets",
		"lang":      "fr",
		"n-tweets":  42,
		"limit":     10,
		"log-level": "warn",
		"log-file":  "",
		"output":    "es.txt",
	})

	assert.Equal(t, "/flags/tweets", cfg.Corpus.Directory)
	assert.Equal(t, "fr", cfg.Collector.Language)
	assert.Equal(t, 42, cfg.Collector.TargetCount)
	assert.Equal(t, 10, cfg.Corpus.PreprocessLimit)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)
	assert.Equal(t, "es.txt", cfg.Corpus.SpoilerFile)
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("corpus:\n  directory: /from/file\ncollector:\n  language: de\n"), 0644))
	t.Setenv("SPOILERSCRAPER_DATA_PATH", "/from/env")

	cfg, err := Load(path, map[string]interface{}{"lang": "it"})
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.Corpus.Directory)
	assert.Equal(t, "it", cfg.Collector.Language)
}

func TestLoadValidationFailure(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("twitter:\n  page_size: 1000\n"), 0644))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Collector.Language = "pt"

	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "pt", loaded.Collector.Language)
}
