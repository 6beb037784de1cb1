package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
)

var (
	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("embed: unknown provider")
	// ErrEmptyEmbedding is returned when a provider answers with no values.
	ErrEmptyEmbedding = errors.New("embed: empty embedding")
)

// Embedder produces embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Model names the model the vectors come from.
	Model() string
	Close() error
}

// Cache stores embeddings by key. A miss is reported as ok == false with a
// nil error.
type Cache interface {
	Get(ctx context.Context, key string) (vec []float32, ok bool, err error)
	Put(ctx context.Context, key string, vec []float32) error
	Close() error
}

// Key returns the cache key of text embedded by model.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return model + ":" + hex.EncodeToString(sum[:])
}

type rateLimited struct {
	Embedder
	limiter *rate.Limiter
}

// WithRateLimit waits on limiter before every call to e.
func WithRateLimit(e Embedder, limiter *rate.Limiter) Embedder {
	if limiter == nil {
		return e
	}
	return &rateLimited{Embedder: e, limiter: limiter}
}

func (r *rateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embed: rate limit: %w", err)
	}
	return r.Embedder.Embed(ctx, text)
}

func (r *rateLimited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embed: rate limit: %w", err)
	}
	return r.Embedder.EmbedBatch(ctx, texts)
}

type cached struct {
	Embedder
	cache  Cache
	logger *slog.Logger
}

// WithCache serves embeddings from cache when present and stores fresh
// ones. Cache failures never fail the call.
func WithCache(e Embedder, cache Cache, logger *slog.Logger) Embedder {
	if cache == nil {
		return e
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &cached{Embedder: e, cache: cache, logger: logger}
}

func (c *cached) lookup(ctx context.Context, key string) ([]float32, bool) {
	vec, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("embedding cache read failed", "key", key, "error", err)
		return nil, false
	}
	return vec, ok && len(vec) > 0
}

func (c *cached) store(ctx context.Context, key string, vec []float32) {
	if err := c.cache.Put(ctx, key, vec); err != nil {
		c.logger.Warn("embedding cache write failed", "key", key, "error", err)
	}
}

func (c *cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := Key(c.Model(), text)
	if vec, ok := c.lookup(ctx, key); ok {
		return vec, nil
	}
	vec, err := c.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, vec)
	return vec, nil
}

func (c *cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var slots []int
	for i, text := range texts {
		if vec, ok := c.lookup(ctx, Key(c.Model(), text)); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		slots = append(slots, i)
	}
	if len(missing) == 0 {
		return out, nil
	}
	c.logger.Debug("embedding cache", "hits", len(texts)-len(missing), "misses", len(missing))
	fresh, err := c.Embedder.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("embed: batch returned %d vectors for %d texts", len(fresh), len(missing))
	}
	for j, vec := range fresh {
		out[slots[j]] = vec
		c.store(ctx, Key(c.Model(), missing[j]), vec)
	}
	return out, nil
}

func (c *cached) Close() error {
	return errors.Join(c.Embedder.Close(), c.cache.Close())
}
