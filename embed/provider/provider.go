// Package provider builds the configured embedder with its rate limit and
// cache decorators.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/viant/intentbot/embed"
	"github.com/viant/intentbot/embed/boltcache"
	"github.com/viant/intentbot/embed/ollama"
	"github.com/viant/intentbot/embed/openai"
	"github.com/viant/intentbot/embed/rediscache"
	"golang.org/x/time/rate"
)

// Provider names.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"
)

// DefaultOpenAIModel is used when the openai provider has no model set.
const DefaultOpenAIModel = "text-embedding-3-small"

// ErrLocalUnavailable is returned for the local provider in binaries built
// without the llama tag.
var ErrLocalUnavailable = errors.New("provider: local embeddings need a build with -tags llama")

// newLocal is set by the llama build to open the in-process vectorizer.
var newLocal func(cfg Config) (embed.Embedder, error)

// Config selects and tunes an embedder.
type Config struct {
	Provider string
	Model    string
	URL      string
	APIKey   string
	// RPS limits remote calls per second; 0 disables limiting.
	RPS float64
	// Retries is the number of retries of a failed HTTP request.
	Retries int
	Timeout time.Duration

	LocalLib   string
	LocalModel string
	GPULayers  int

	// Cache is "", "bolt:<path>" or "redis:<addr>".
	Cache    string
	CacheTTL time.Duration

	Logger *slog.Logger
}

// New builds the embedder described by cfg, wrapped with the configured
// rate limit and cache.
func New(ctx context.Context, cfg Config) (embed.Embedder, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := embed.NewRetryTransport(http.DefaultTransport, cfg.Retries)
	transport.Logger = logger
	client := &http.Client{Transport: transport, Timeout: timeout}

	var e embed.Embedder
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOllama:
		e = ollama.New(cfg.URL, cfg.Model, client)
	case ProviderOpenAI:
		model := cfg.Model
		if model == "" {
			model = DefaultOpenAIModel
		}
		e = openai.New(cfg.URL, cfg.APIKey, model, client)
	case ProviderLocal:
		if newLocal == nil {
			return nil, ErrLocalUnavailable
		}
		v, err := newLocal(cfg)
		if err != nil {
			return nil, err
		}
		e = v
	default:
		return nil, fmt.Errorf("%w: %q", embed.ErrUnknownProvider, cfg.Provider)
	}

	if cfg.RPS > 0 {
		burst := int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
		e = embed.WithRateLimit(e, rate.NewLimiter(rate.Limit(cfg.RPS), burst))
	}

	cache, err := OpenCache(ctx, cfg.Cache, cfg.CacheTTL)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	if cache != nil {
		logger.Debug("embedding cache enabled", "cache", cfg.Cache)
		e = embed.WithCache(e, cache, logger)
	}
	return e, nil
}

// OpenCache opens the cache named by spec: "bolt:<path>" or "redis:<addr>".
// An empty spec returns a nil Cache.
func OpenCache(ctx context.Context, spec string, ttl time.Duration) (embed.Cache, error) {
	if spec == "" {
		return nil, nil
	}
	kind, target, ok := strings.Cut(spec, ":")
	if !ok || target == "" {
		return nil, fmt.Errorf("provider: invalid cache %q, want bolt:<path> or redis:<addr>", spec)
	}
	switch kind {
	case "bolt":
		c, err := boltcache.Open(target)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "redis":
		c, err := rediscache.Open(ctx, target, ttl)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("provider: unknown cache kind %q", kind)
	}
}
