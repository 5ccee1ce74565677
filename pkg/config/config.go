package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"spoilerscraper/pkg/storage"
)

// DefaultQuery matches posts mentioning "spoiler" while excluding retweets and quotes.
const DefaultQuery = `"spoiler" -filter:retweets -filter:quote`

// Config holds all configuration options for the spoiler scraper
type Config struct {
	// Search endpoint credentials and request shape
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// Collection loop settings
	Collector CollectorConfig `yaml:"collector" json:"collector"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Corpus location and preprocess output
	Corpus CorpusConfig `yaml:"corpus" json:"corpus"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TwitterConfig holds search endpoint configuration
type TwitterConfig struct {
	BearerToken       string        `yaml:"bearer_token" json:"-"`
	ConsumerKey       string        `yaml:"consumer_key" json:"-"`
	ConsumerSecret    string        `yaml:"consumer_secret" json:"-"`
	AccessToken       string        `yaml:"access_token" json:"-"`
	AccessTokenSecret string        `yaml:"access_token_secret" json:"-"`
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	Query             string        `yaml:"query" json:"query"`
	PageSize          int           `yaml:"page_size" json:"page_size"`
	TweetMode         string        `yaml:"tweet_mode" json:"tweet_mode"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
}

// UsesOAuth1 reports whether the full set of user-context keys is configured.
func (t TwitterConfig) UsesOAuth1() bool {
	return t.ConsumerKey != "" && t.ConsumerSecret != "" && t.AccessToken != "" && t.AccessTokenSecret != ""
}

// CollectorConfig holds collection loop configuration
type CollectorConfig struct {
	TargetCount int    `yaml:"target_count" json:"target_count"`
	Language    string `yaml:"language" json:"language"`
}

// RateLimitConfig holds client pacing and reset-wait configuration
type RateLimitConfig struct {
	RequestsPerWindow int           `yaml:"requests_per_window" json:"requests_per_window"`
	Window            time.Duration `yaml:"window" json:"window"`
	ResetPadding      time.Duration `yaml:"reset_padding" json:"reset_padding"`
	FallbackDelay     time.Duration `yaml:"fallback_delay" json:"fallback_delay"`
	MaxFallbackDelay  time.Duration `yaml:"max_fallback_delay" json:"max_fallback_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
}

// CorpusConfig holds corpus directory configuration
type CorpusConfig struct {
	Directory       string `yaml:"directory" json:"directory"`
	SpoilerFile     string `yaml:"spoiler_file" json:"spoiler_file"`
	PreprocessLimit int    `yaml:"preprocess_limit" json:"preprocess_limit"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			BaseURL:   "https://api.twitter.com/1.1",
			Query:     DefaultQuery,
			PageSize:  100,
			Timeout:   30 * time.Second,
			UserAgent: "spoilerscraper/1.0",
		},
		Collector: CollectorConfig{
			TargetCount: 100,
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: 180,
			Window:            15 * time.Minute,
			ResetPadding:      time.Second,
			FallbackDelay:     30 * time.Second,
			MaxFallbackDelay:  15 * time.Minute,
			BackoffMultiplier: 2.0,
		},
		Corpus: CorpusConfig{
			Directory:       "data/tweets",
			SpoilerFile:     "spoilers.txt",
			PreprocessLimit: 1_000_000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Credentials
	if token := os.Getenv("BEARER_TOKEN"); token != "" {
		c.Twitter.BearerToken = token
	}
	if token := os.Getenv("SPOILERSCRAPER_BEARER_TOKEN"); token != "" {
		c.Twitter.BearerToken = token
	}
	if v := os.Getenv("TWITTER_CONSUMER_KEY"); v != "" {
		c.Twitter.ConsumerKey = v
	}
	if v := os.Getenv("TWITTER_CONSUMER_SECRET"); v != "" {
		c.Twitter.ConsumerSecret = v
	}
	if v := os.Getenv("TWITTER_ACCESS_TOKEN"); v != "" {
		c.Twitter.AccessToken = v
	}
	if v := os.Getenv("TWITTER_ACCESS_TOKEN_SECRET"); v != "" {
		c.Twitter.AccessTokenSecret = v
	}

	// Rate limiting
	if rpw := os.Getenv("SPOILERSCRAPER_REQUESTS_PER_WINDOW"); rpw != "" {
		val, err := strconv.Atoi(rpw)
		if err != nil {
			return fmt.Errorf("invalid SPOILERSCRAPER_REQUESTS_PER_WINDOW %q: %w", rpw, err)
		}
		c.RateLimit.RequestsPerWindow = val
	}

	// Collection
	if lang := os.Getenv("SPOILERSCRAPER_LANGUAGE"); lang != "" {
		c.Collector.Language = lang
	}

	// Corpus directory
	if dataPath := os.Getenv("SPOILERSCRAPER_DATA_PATH"); dataPath != "" {
		c.Corpus.Directory = dataPath
	}

	// Logging level
	if logLevel := os.Getenv("SPOILERSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".spoilerscraper.yaml",
		".spoilerscraper.yml",
		filepath.Join(home, ".config", "spoilerscraper", "config.yaml"),
		filepath.Join(home, ".config", "spoilerscraper", "config.yml"),
		filepath.Join(home, ".spoilerscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are not checked
// here; the collect command resolves them separately so preprocess runs
// without any.
func (c *Config) Validate() error {
	var errs []error

	if c.Twitter.BaseURL == "" {
		errs = append(errs, errors.New("twitter base URL is required"))
	}
	if strings.TrimSpace(c.Twitter.Query) == "" {
		errs = append(errs, errors.New("search query is required"))
	}
	if c.Twitter.PageSize <= 0 || c.Twitter.PageSize > 100 {
		errs = append(errs, errors.New("page size must be between 1 and 100"))
	}
	if c.Twitter.TweetMode != "" && c.Twitter.TweetMode != "extended" && c.Twitter.TweetMode != "compat" {
		errs = append(errs, fmt.Errorf("invalid tweet mode %q", c.Twitter.TweetMode))
	}
	if c.Twitter.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Collector.TargetCount <= 0 {
		errs = append(errs, errors.New("target count must be positive"))
	}

	if c.RateLimit.RequestsPerWindow <= 0 {
		errs = append(errs, errors.New("requests per window must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	if c.RateLimit.ResetPadding < 0 {
		errs = append(errs, errors.New("reset padding cannot be negative"))
	}
	if c.RateLimit.FallbackDelay <= 0 {
		errs = append(errs, errors.New("fallback delay must be positive"))
	}
	if c.RateLimit.MaxFallbackDelay < c.RateLimit.FallbackDelay {
		errs = append(errs, errors.New("max fallback delay must not be below fallback delay"))
	}
	if c.RateLimit.BackoffMultiplier < 1 {
		errs = append(errs, errors.New("backoff multiplier must be at least 1"))
	}

	if c.Corpus.Directory == "" {
		errs = append(errs, errors.New("corpus directory is required"))
	}
	if c.Corpus.SpoilerFile == "" {
		errs = append(errs, errors.New("spoiler file name is required"))
	} else if strings.HasSuffix(c.Corpus.SpoilerFile, storage.BatchExt) {
		errs = append(errs, fmt.Errorf("spoiler file %q must not use the batch extension %s", c.Corpus.SpoilerFile, storage.BatchExt))
	}
	if c.Corpus.PreprocessLimit <= 0 {
		errs = append(errs, errors.New("preprocess limit must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dataPath, ok := flags["data-path"].(string); ok && dataPath != "" {
		c.Corpus.Directory = dataPath
	}
	if lang, ok := flags["lang"].(string); ok && lang != "" {
		c.Collector.Language = lang
	}
	if n, ok := flags["n-tweets"].(int); ok && n > 0 {
		c.Collector.TargetCount = n
	}
	if limit, ok := flags["limit"].(int); ok && limit > 0 {
		c.Corpus.PreprocessLimit = limit
	}
	if output, ok := flags["output"].(string); ok && output != "" {
		c.Corpus.SpoilerFile = output
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".spoilerscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
