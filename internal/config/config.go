// Package config loads intentbot settings from a .env file, the environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/viant/intentbot/embed/provider"
)

// Environment variable names.
const (
	EnvDataset           = "INTENTBOT_DATASET"
	EnvCache             = "INTENTBOT_CACHE"
	EnvThreshold         = "INTENTBOT_THRESHOLD"
	EnvIndex             = "INTENTBOT_INDEX"
	EnvProvider          = "INTENTBOT_EMBED_PROVIDER"
	EnvModel             = "INTENTBOT_EMBED_MODEL"
	EnvEmbedURL          = "INTENTBOT_EMBED_URL"
	EnvAPIKey            = "INTENTBOT_EMBED_API_KEY"
	EnvRPS               = "INTENTBOT_EMBED_RPS"
	EnvRetries           = "INTENTBOT_EMBED_RETRIES"
	EnvLocalLib          = "INTENTBOT_LOCAL_LIB"
	EnvLocalModel        = "INTENTBOT_LOCAL_MODEL"
	EnvEmbedCache        = "INTENTBOT_EMBED_CACHE"
	EnvAdminPassword     = "INTENTBOT_ADMIN_PASSWORD"
	EnvAdminPasswordHash = "INTENTBOT_ADMIN_PASSWORD_HASH"
	EnvLogLevel          = "INTENTBOT_LOG_LEVEL"
)

// Config holds every intentbot setting.
type Config struct {
	Dataset   string
	Cache     string
	Threshold float64
	Index     string

	Provider   string
	Model      string
	EmbedURL   string
	APIKey     string
	RPS        float64
	Retries    int
	LocalLib   string
	LocalModel string
	EmbedCache string

	AdminPassword     string
	AdminPasswordHash string

	LogLevel string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Dataset:    "intents.json",
		Cache:      "embeddings.db",
		Threshold:  0.6,
		Index:      "auto",
		Provider:   provider.ProviderOllama,
		Retries:    2,
		LocalLib:   "libllama_go.so",
		LocalModel: "MiniLM-L6-v2.Q8_0.gguf",
		LogLevel:   "warn",
	}
}

// Load reads envFile when it exists and then the process environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv overlays the variables returned by getenv on the defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	envOr := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	c := Default()
	c.Dataset = envOr(EnvDataset, c.Dataset)
	c.Cache = envOr(EnvCache, c.Cache)
	c.Index = envOr(EnvIndex, c.Index)
	c.Provider = envOr(EnvProvider, c.Provider)
	c.Model = envOr(EnvModel, c.Model)
	c.EmbedURL = envOr(EnvEmbedURL, c.EmbedURL)
	c.APIKey = envOr(EnvAPIKey, c.APIKey)
	c.LocalLib = envOr(EnvLocalLib, c.LocalLib)
	c.LocalModel = envOr(EnvLocalModel, c.LocalModel)
	c.EmbedCache = envOr(EnvEmbedCache, c.EmbedCache)
	c.AdminPassword = envOr(EnvAdminPassword, c.AdminPassword)
	c.AdminPasswordHash = envOr(EnvAdminPasswordHash, c.AdminPasswordHash)
	c.LogLevel = envOr(EnvLogLevel, c.LogLevel)

	var err error
	if v := getenv(EnvThreshold); v != "" {
		if c.Threshold, err = strconv.ParseFloat(v, 64); err != nil {
			return c, fmt.Errorf("config: %s=%q: %w", EnvThreshold, v, err)
		}
	}
	if v := getenv(EnvRPS); v != "" {
		if c.RPS, err = strconv.ParseFloat(v, 64); err != nil {
			return c, fmt.Errorf("config: %s=%q: %w", EnvRPS, v, err)
		}
	}
	if v := getenv(EnvRetries); v != "" {
		if c.Retries, err = strconv.Atoi(v); err != nil {
			return c, fmt.Errorf("config: %s=%q: %w", EnvRetries, v, err)
		}
	}
	return c, nil
}

// RegisterFlags binds the overridable settings to fs, using the current
// values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Dataset, "dataset", c.Dataset, "intent dataset JSON file")
	fs.StringVar(&c.Cache, "cache", c.Cache, "vector cache file")
	fs.Float64Var(&c.Threshold, "threshold", c.Threshold, "minimum cosine similarity for a match")
	fs.StringVar(&c.Index, "index", c.Index, "index kind: auto, brute, cover or sql")
	fs.StringVar(&c.Provider, "provider", c.Provider, "embedding provider: ollama, openai or local (local needs a -tags llama build)")
	fs.StringVar(&c.Model, "model", c.Model, "embedding model (provider default when empty)")
	fs.StringVar(&c.EmbedURL, "embed-url", c.EmbedURL, "embedding service base URL")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn or error")
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.Dataset == "" {
		errs = append(errs, fmt.Errorf("dataset path is empty"))
	}
	if c.Cache == "" {
		errs = append(errs, fmt.Errorf("cache path is empty"))
	}
	if c.Threshold < -1 || c.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold %v outside [-1, 1]", c.Threshold))
	}
	switch c.Index {
	case "auto", "brute", "cover", "sql":
	default:
		errs = append(errs, fmt.Errorf("unknown index %q", c.Index))
	}
	switch c.Provider {
	case provider.ProviderOllama, provider.ProviderOpenAI, provider.ProviderLocal:
	default:
		errs = append(errs, fmt.Errorf("unknown embedding provider %q", c.Provider))
	}
	if c.RPS < 0 {
		errs = append(errs, fmt.Errorf("negative rate limit %v", c.RPS))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("negative retries %d", c.Retries))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return slog.LevelWarn, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// Embed returns the embedder settings.
func (c Config) Embed(logger *slog.Logger) provider.Config {
	return provider.Config{
		Provider:   c.Provider,
		Model:      c.Model,
		URL:        c.EmbedURL,
		APIKey:     c.APIKey,
		RPS:        c.RPS,
		Retries:    c.Retries,
		LocalLib:   c.LocalLib,
		LocalModel: c.LocalModel,
		Cache:      c.EmbedCache,
		Logger:     logger,
	}
}
