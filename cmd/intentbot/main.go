// Command intentbot is a command-line chatbot that matches messages to
// intents by sentence-embedding similarity and learns new ones as it goes.
//
// Usage:
//
//	intentbot train [flags]   embed the dataset into the vector cache
//	intentbot [chat] [flags]  start the conversation
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/viant/intentbot/bot"
	"github.com/viant/intentbot/console"
	"github.com/viant/intentbot/embed"
	"github.com/viant/intentbot/embed/provider"
	"github.com/viant/intentbot/intent"
	"github.com/viant/intentbot/internal/config"
	"github.com/viant/intentbot/vecadmin"
	"github.com/viant/intentbot/veccache"
)

const cacheMissing = "Embeddings not found. Run 'intentbot train' first."

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	cmd := "chat"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "train", "chat":
	case "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "intentbot: unknown command %q\n", cmd)
		usage(stderr)
		return 2
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cmd == "train" {
		err = train(ctx, cfg, logger, stdout)
	} else {
		err = chat(ctx, cfg, logger, stdin, stdout)
	}
	return exitCode(err, stderr)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: intentbot [train|chat] [flags]")
	fmt.Fprintln(w, "  train  embed the dataset into the vector cache")
	fmt.Fprintln(w, "  chat   start the conversation (default)")
}

func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return 0
	case errors.Is(err, veccache.ErrCacheNotFound):
		fmt.Fprintln(stderr, cacheMissing)
	case errors.Is(err, intent.ErrDatasetNotFound):
		fmt.Fprintln(stderr, err)
	default:
		fmt.Fprintf(stderr, "intentbot: %v\n", err)
	}
	return 1
}

func newBot(ctx context.Context, cfg config.Config, logger *slog.Logger, ds *intent.Dataset, cache *veccache.Cache) (*bot.Bot, embed.Embedder, error) {
	emb, err := provider.New(ctx, cfg.Embed(logger))
	if err != nil {
		return nil, nil, err
	}
	b, err := bot.New(bot.Options{
		Dataset:     ds,
		DatasetPath: cfg.Dataset,
		Cache:       cache,
		Embedder:    emb,
		Threshold:   cfg.Threshold,
		IndexKind:   cfg.Index,
		Logger:      logger,
	})
	if err != nil {
		_ = emb.Close()
		return nil, nil, err
	}
	return b, emb, nil
}

func train(ctx context.Context, cfg config.Config, logger *slog.Logger, stdout io.Writer) error {
	ds, err := intent.Load(cfg.Dataset)
	if err != nil {
		return err
	}
	cache, err := veccache.Create(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer cache.Close()

	b, emb, err := newBot(ctx, cfg, logger, ds, cache)
	if err != nil {
		return err
	}
	defer emb.Close()

	n, err := b.Train(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Embedded %d patterns with %s into %s.\n", n, emb.Model(), cfg.Cache)
	return nil
}

func chat(ctx context.Context, cfg config.Config, logger *slog.Logger, stdin io.Reader, stdout io.Writer) error {
	ds, err := intent.Load(cfg.Dataset)
	if err != nil {
		return err
	}
	cache, err := veccache.Open(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer cache.Close()

	b, emb, err := newBot(ctx, cfg, logger, ds, cache)
	if err != nil {
		return err
	}
	defer emb.Close()
	if err := b.Load(ctx); err != nil {
		return err
	}

	var gate *vecadmin.Gate
	verify, err := vecadmin.NewPasswordVerifier(cfg.AdminPassword, cfg.AdminPasswordHash)
	switch {
	case err == nil:
		gate = &vecadmin.Gate{Verify: verify, Attempts: vecadmin.DefaultAttempts}
	case errors.Is(err, vecadmin.ErrAdminDisabled):
		logger.Debug("admin mode disabled, no password configured")
	default:
		return err
	}

	c := &console.Console{In: stdin, Out: stdout, Bot: b, Gate: gate, Logger: logger}
	return c.Run(ctx)
}
