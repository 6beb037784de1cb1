package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/viant/intentbot/embed"
	"github.com/viant/intentbot/index"
	"github.com/viant/intentbot/index/bruteforce"
	"github.com/viant/intentbot/index/cover"
	"github.com/viant/intentbot/intent"
	"github.com/viant/intentbot/veccache"
	"github.com/viant/intentbot/vecsync"
)

// DefaultThreshold is the minimum cosine similarity accepted as a match.
const DefaultThreshold = 0.6

// KindSQL scores candidates inside SQLite instead of an in-memory index.
const KindSQL = "sql"

// NoResponse is answered for a matched intent that has no responses.
const NoResponse = "I know what you mean, but I have no answer for it yet."

// ErrEmptyInput is returned for blank input, patterns or tags.
var ErrEmptyInput = errors.New("bot: empty input")

// Options configures a Bot.
type Options struct {
	Dataset     *intent.Dataset
	DatasetPath string
	Cache       *veccache.Cache
	Embedder    embed.Embedder
	Threshold   float64
	// IndexKind is auto, brute, cover or sql.
	IndexKind string
	Rand      *rand.Rand
	Logger    *slog.Logger
}

// Answer is the outcome of Reply.
type Answer struct {
	Matched  bool
	Tag      string
	Pattern  string
	Response string
	Score    float64
}

// Stats summarizes what the bot knows.
type Stats struct {
	Intents   int
	Patterns  int
	Dimension int
	Model     string
	Index     string
}

// Bot answers from the dataset and learns into it.
type Bot struct {
	dataset   *intent.Dataset
	path      string
	cache     *veccache.Cache
	embedder  embed.Embedder
	threshold float64
	kind      string
	rand      *rand.Rand
	logger    *slog.Logger

	model     string
	dim       int
	patterns  []string
	tags      []string
	index     index.Index
	indexKind string
	responses map[string][]string
}

// New creates a Bot. Call Load before Reply.
func New(opts Options) (*Bot, error) {
	if opts.Dataset == nil {
		return nil, fmt.Errorf("bot: dataset is required")
	}
	if opts.Cache == nil {
		return nil, fmt.Errorf("bot: cache is required")
	}
	if opts.Embedder == nil {
		return nil, fmt.Errorf("bot: embedder is required")
	}
	kind := opts.IndexKind
	if kind == "" {
		kind = index.KindAuto
	}
	switch kind {
	case index.KindAuto, index.KindBrute, index.KindCover, KindSQL:
	default:
		return nil, fmt.Errorf("bot: unknown index kind %q", kind)
	}
	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		dataset:   opts.Dataset,
		path:      opts.DatasetPath,
		cache:     opts.Cache,
		embedder:  opts.Embedder,
		threshold: opts.Threshold,
		kind:      kind,
		rand:      r,
		logger:    logger,
		responses: opts.Dataset.Responses(),
	}, nil
}

// Load reads the cache and builds the index. An empty cache is valid.
func (b *Bot) Load(ctx context.Context) error {
	snap, err := b.cache.Load(ctx)
	if err != nil {
		return err
	}
	if snap.ModelName != "" && snap.ModelName != b.embedder.Model() {
		b.logger.Warn("cache was built with a different embedding model",
			"cache_model", snap.ModelName, "embedder_model", b.embedder.Model())
	}
	if err := b.rebuild(snap); err != nil {
		return err
	}
	b.responses = b.dataset.Responses()
	b.logger.Debug("bot loaded", "patterns", len(b.patterns), "dimension", b.dim, "index", b.indexKind)
	return nil
}

func (b *Bot) rebuild(snap veccache.Snapshot) error {
	b.model = snap.ModelName
	b.dim = snap.Dimension()
	b.patterns = append([]string(nil), snap.Patterns...)
	b.tags = append([]string(nil), snap.Tags...)

	kind := b.kind
	if kind != KindSQL {
		kind = index.ResolveKind(kind, snap.Len(), b.dim)
	}
	b.indexKind = kind
	switch kind {
	case KindSQL:
		b.index = nil
		return nil
	case index.KindCover:
		b.index = cover.New()
	default:
		b.index = bruteforce.New()
	}
	if err := b.index.Build(snap.Embeddings); err != nil {
		return fmt.Errorf("bot: build index: %w", err)
	}
	return nil
}

func (b *Bot) reload(ctx context.Context) error {
	snap, err := b.cache.Load(ctx)
	if err != nil {
		return err
	}
	if err := b.rebuild(snap); err != nil {
		return err
	}
	b.responses = b.dataset.Responses()
	return nil
}

// Reply embeds input and answers with a random response of the closest
// intent when the similarity reaches the threshold.
func (b *Bot) Reply(ctx context.Context, input string) (Answer, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Answer{}, ErrEmptyInput
	}
	vec, err := b.embedder.Embed(ctx, input)
	if err != nil {
		return Answer{}, fmt.Errorf("bot: embed input: %w", err)
	}
	best, ok, err := b.nearest(ctx, vec)
	if err != nil {
		return Answer{}, err
	}
	if !ok {
		b.logger.Debug("no candidates", "input", input)
		return Answer{}, nil
	}
	if best.Score < b.threshold {
		b.logger.Debug("miss", "input", input, "closest", best.Pattern, "score", best.Score)
		best.Tag, best.Pattern = "", ""
		return best, nil
	}
	best.Matched = true
	best.Response = b.pick(best.Tag)
	b.logger.Debug("match", "input", input, "tag", best.Tag, "pattern", best.Pattern, "score", best.Score)
	return best, nil
}

func (b *Bot) nearest(ctx context.Context, vec []float32) (Answer, bool, error) {
	if b.dim > 0 && len(vec) != b.dim {
		return Answer{}, false, fmt.Errorf("%w: input embedding has %d dimensions, cache has %d; retrain the cache", veccache.ErrDimensionMismatch, len(vec), b.dim)
	}
	if b.indexKind == KindSQL {
		matches, err := b.cache.Nearest(ctx, vec, 1)
		if err != nil {
			return Answer{}, false, err
		}
		if len(matches) == 0 {
			return Answer{}, false, nil
		}
		m := matches[0]
		return Answer{Tag: m.Tag, Pattern: m.Pattern, Score: m.Score}, true, nil
	}
	if b.index == nil || b.index.Len() == 0 {
		return Answer{}, false, nil
	}
	hits, err := b.index.Query(vec, 1)
	if err != nil {
		return Answer{}, false, fmt.Errorf("bot: query index: %w", err)
	}
	if len(hits) == 0 {
		return Answer{}, false, nil
	}
	h := hits[0]
	return Answer{Tag: b.tags[h.Row], Pattern: b.patterns[h.Row], Score: h.Score}, true, nil
}

func (b *Bot) pick(tag string) string {
	candidates := b.responses[tag]
	if len(candidates) == 0 {
		return NoResponse
	}
	return candidates[b.rand.Intn(len(candidates))]
}

// Learn stores pattern under tag with an optional response. The cache row is
// written first; if the dataset cannot be saved it is removed again.
func (b *Bot) Learn(ctx context.Context, pattern, tag, response string) error {
	pattern = strings.TrimSpace(pattern)
	tag = strings.TrimSpace(tag)
	response = strings.TrimSpace(response)
	if pattern == "" || tag == "" {
		return ErrEmptyInput
	}
	vec, err := b.embedder.Embed(ctx, pattern)
	if err != nil {
		return fmt.Errorf("bot: embed pattern: %w", err)
	}
	id, err := b.cache.Append(ctx, veccache.Entry{Pattern: pattern, Tag: tag, Embedding: vec})
	if err != nil {
		return err
	}
	if b.model == "" {
		if err := b.cache.SetModelName(ctx, b.embedder.Model()); err != nil {
			b.logger.Warn("could not record model name", "error", err)
		} else {
			b.model = b.embedder.Model()
		}
	}

	undo := b.snapshotIntent(tag)
	b.dataset.Learn(tag, pattern, response)
	if err := b.save(); err != nil {
		undo()
		if rmErr := b.cache.Remove(ctx, id); rmErr != nil {
			return errors.Join(err, fmt.Errorf("bot: roll back cache entry %s: %w", id, rmErr))
		}
		return err
	}

	if b.index != nil {
		if _, err := b.index.Add(vec); err != nil {
			return fmt.Errorf("bot: index learned pattern: %w", err)
		}
	}
	if b.dim == 0 {
		b.dim = len(vec)
	}
	b.patterns = append(b.patterns, pattern)
	b.tags = append(b.tags, tag)
	b.responses = b.dataset.Responses()
	b.logger.Info("learned", "tag", tag, "pattern", pattern, "with_response", response != "")
	return nil
}

// snapshotIntent returns a func restoring the dataset entry of tag to its
// current state.
func (b *Bot) snapshotIntent(tag string) func() {
	in := b.dataset.Find(tag)
	if in == nil {
		n := len(b.dataset.Intents)
		return func() { b.dataset.Intents = b.dataset.Intents[:n] }
	}
	np, nr := len(in.Patterns), len(in.Responses)
	return func() {
		in.Patterns = in.Patterns[:np]
		in.Responses = in.Responses[:nr]
	}
}

func (b *Bot) save() error {
	if b.path == "" {
		return nil
	}
	return b.dataset.Save(b.path)
}

// Train embeds every dataset pattern and replaces the cache with the
// result. It returns the number of patterns embedded.
func (b *Bot) Train(ctx context.Context) (int, error) {
	if err := b.dataset.Validate(); err != nil {
		return 0, err
	}
	patterns, tags := b.dataset.Flatten()
	var vecs [][]float32
	if len(patterns) > 0 {
		var err error
		if vecs, err = b.embedder.EmbedBatch(ctx, patterns); err != nil {
			return 0, fmt.Errorf("bot: embed dataset: %w", err)
		}
	}
	snap := veccache.Snapshot{
		ModelName:  b.embedder.Model(),
		Patterns:   patterns,
		Tags:       tags,
		Embeddings: vecs,
	}
	if err := b.cache.Replace(ctx, snap); err != nil {
		return 0, err
	}
	if err := b.rebuild(snap); err != nil {
		return 0, err
	}
	b.responses = b.dataset.Responses()
	b.logger.Info("trained", "patterns", len(patterns), "model", snap.ModelName, "dimension", b.dim)
	return len(patterns), nil
}

// Retrain re-embeds the dataset held in memory.
func (b *Bot) Retrain(ctx context.Context) (int, error) {
	return b.Train(ctx)
}

// Forget removes the intent tag with all its patterns. The dataset is saved
// before the cache rows are deleted; a failure restores the dataset.
func (b *Bot) Forget(ctx context.Context, tag string) (int, error) {
	if b.dataset.Find(tag) == nil {
		return 0, fmt.Errorf("%w: %q", intent.ErrIntentNotFound, tag)
	}
	restore := b.snapshotDataset()
	if err := b.dataset.RemoveIntent(tag); err != nil {
		return 0, err
	}
	if err := b.save(); err != nil {
		restore()
		return 0, err
	}
	n, err := b.cache.RemoveTag(ctx, tag)
	if err != nil {
		return 0, b.rollback(restore, err)
	}
	b.logger.Info("forgot intent", "tag", tag, "patterns", n)
	return n, b.reload(ctx)
}

// ForgetPattern removes pattern from the intent tag.
func (b *Bot) ForgetPattern(ctx context.Context, tag, pattern string) (int, error) {
	if b.dataset.Find(tag) == nil {
		return 0, fmt.Errorf("%w: %q", intent.ErrIntentNotFound, tag)
	}
	restore := b.snapshotDataset()
	if err := b.dataset.RemovePattern(tag, pattern); err != nil {
		return 0, err
	}
	if err := b.save(); err != nil {
		restore()
		return 0, err
	}
	n, err := b.cache.RemovePattern(ctx, tag, pattern)
	if err != nil {
		return 0, b.rollback(restore, err)
	}
	b.logger.Info("forgot pattern", "tag", tag, "pattern", pattern, "rows", n)
	return n, b.reload(ctx)
}

// snapshotDataset returns a func restoring a deep copy of the current intents.
func (b *Bot) snapshotDataset() func() {
	saved := make([]*intent.Intent, len(b.dataset.Intents))
	for i, in := range b.dataset.Intents {
		c := *in
		c.Patterns = append([]string(nil), in.Patterns...)
		c.Responses = append([]string(nil), in.Responses...)
		saved[i] = &c
	}
	return func() { b.dataset.Intents = saved }
}

// rollback restores the dataset after the cache rejected a change that was
// already saved.
func (b *Bot) rollback(restore func(), err error) error {
	restore()
	if saveErr := b.save(); saveErr != nil {
		return errors.Join(err, fmt.Errorf("bot: restore dataset: %w", saveErr))
	}
	return err
}

// AddResponse appends a response to an existing intent.
func (b *Bot) AddResponse(_ context.Context, tag, response string) error {
	response = strings.TrimSpace(response)
	if response == "" {
		return ErrEmptyInput
	}
	if err := b.dataset.AddResponse(tag, response); err != nil {
		return err
	}
	if err := b.save(); err != nil {
		in := b.dataset.Find(tag)
		in.Responses = in.Responses[:len(in.Responses)-1]
		return err
	}
	b.responses = b.dataset.Responses()
	b.logger.Info("added response", "tag", tag)
	return nil
}

// Intent returns the dataset entry of tag, or nil.
func (b *Bot) Intent(tag string) *intent.Intent { return b.dataset.Find(tag) }

// Tags lists the dataset tags.
func (b *Bot) Tags() []string { return b.dataset.Tags() }

// Threshold returns the match threshold.
func (b *Bot) Threshold() float64 { return b.threshold }

// Stats reports dataset and cache sizes.
func (b *Bot) Stats() Stats {
	model := b.model
	if model == "" {
		model = b.embedder.Model()
	}
	return Stats{
		Intents:   len(b.dataset.Intents),
		Patterns:  len(b.patterns),
		Dimension: b.dim,
		Model:     model,
		Index:     b.indexKind,
	}
}

// History returns the newest cache changes.
func (b *Bot) History(ctx context.Context, limit int) ([]vecsync.LogEntry, error) {
	return b.cache.History(ctx, limit)
}
