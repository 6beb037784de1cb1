package vecadmin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/viant/intentbot/bot"
	"github.com/viant/intentbot/intent"
	"github.com/viant/intentbot/vecsync"
)

// ErrBack is returned by the back command to leave admin mode.
var ErrBack = errors.New("vecadmin: back")

// Bot is the part of *bot.Bot the admin commands use.
type Bot interface {
	Tags() []string
	Intent(tag string) *intent.Intent
	AddResponse(ctx context.Context, tag, response string) error
	Forget(ctx context.Context, tag string) (int, error)
	ForgetPattern(ctx context.Context, tag, pattern string) (int, error)
	Retrain(ctx context.Context) (int, error)
	History(ctx context.Context, limit int) ([]vecsync.LogEntry, error)
	Stats() bot.Stats
}

// Command is one admin command.
type Command struct {
	Usage string
	Run   func(ctx context.Context, s *Session, args []string) error
}

// Session runs admin commands against a bot.
type Session struct {
	Bot Bot
	Out io.Writer
	// Ask prints a prompt and reads one line.
	Ask func(prompt string) (string, error)

	commands map[string]Command
}

// NewSession builds a session with the standard command table.
func NewSession(b Bot, out io.Writer, ask func(prompt string) (string, error)) *Session {
	s := &Session{Bot: b, Out: out, Ask: ask}
	s.commands = map[string]Command{
		"help":    {Usage: "help", Run: runHelp},
		"tags":    {Usage: "tags", Run: runTags},
		"show":    {Usage: "show <tag>", Run: runShow},
		"respond": {Usage: "respond <tag>", Run: runRespond},
		"forget":  {Usage: "forget <tag>", Run: runForget},
		"unlearn": {Usage: "unlearn <tag>", Run: runUnlearn},
		"retrain": {Usage: "retrain", Run: runRetrain},
		"history": {Usage: "history [n]", Run: runHistory},
		"stats":   {Usage: "stats", Run: runStats},
		"back":    {Usage: "back", Run: func(context.Context, *Session, []string) error { return ErrBack }},
	}
	return s
}

// Dispatch runs one command line. Unknown commands print the usage.
func (s *Session) Dispatch(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, ok := s.commands[strings.ToLower(fields[0])]
	if !ok {
		s.printf("Unknown command %q.\n", fields[0])
		return runHelp(ctx, s, nil)
	}
	return cmd.Run(ctx, s, fields[1:])
}

func (s *Session) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.Out, format, args...)
}

func (s *Session) usage(name string) error {
	return fmt.Errorf("usage: %s", s.commands[name].Usage)
}

func runHelp(_ context.Context, s *Session, _ []string) error {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	s.printf("Commands:\n")
	for _, name := range names {
		s.printf("  %s\n", s.commands[name].Usage)
	}
	return nil
}

// tagArg joins the arguments into one tag, so tags may contain spaces.
func tagArg(args []string) string { return strings.Join(args, " ") }

func runTags(_ context.Context, s *Session, _ []string) error {
	tags := s.Bot.Tags()
	if len(tags) == 0 {
		s.printf("No intents.\n")
		return nil
	}
	for _, tag := range tags {
		in := s.Bot.Intent(tag)
		s.printf("  %s (%d patterns, %d responses)\n", tag, len(in.Patterns), len(in.Responses))
	}
	return nil
}

func runShow(_ context.Context, s *Session, args []string) error {
	tag := tagArg(args)
	if tag == "" {
		return s.usage("show")
	}
	in := s.Bot.Intent(tag)
	if in == nil {
		return fmt.Errorf("%w: %q", intent.ErrIntentNotFound, tag)
	}
	s.printf("Tag: %s\nPatterns:\n", in.Tag)
	for _, p := range in.Patterns {
		s.printf("  - %s\n", p)
	}
	s.printf("Responses:\n")
	for _, r := range in.Responses {
		s.printf("  - %s\n", r)
	}
	return nil
}

func runRespond(ctx context.Context, s *Session, args []string) error {
	tag := tagArg(args)
	if tag == "" {
		return s.usage("respond")
	}
	response, err := s.Ask("> New response: ")
	if err != nil {
		return err
	}
	if err := s.Bot.AddResponse(ctx, tag, response); err != nil {
		return err
	}
	s.printf("Response added to %s.\n", tag)
	return nil
}

func runForget(ctx context.Context, s *Session, args []string) error {
	tag := tagArg(args)
	if tag == "" {
		return s.usage("forget")
	}
	answer, err := s.Ask(fmt.Sprintf("> Remove intent %s? (y/N): ", tag))
	if err != nil {
		return err
	}
	if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
		s.printf("Cancelled.\n")
		return nil
	}
	n, err := s.Bot.Forget(ctx, tag)
	if err != nil {
		return err
	}
	s.printf("Removed %s (%d patterns).\n", tag, n)
	return nil
}

func runUnlearn(ctx context.Context, s *Session, args []string) error {
	tag := tagArg(args)
	if tag == "" {
		return s.usage("unlearn")
	}
	pattern, err := s.Ask("> Pattern to remove: ")
	if err != nil {
		return err
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		s.printf("Cancelled.\n")
		return nil
	}
	n, err := s.Bot.ForgetPattern(ctx, tag, pattern)
	if err != nil {
		return err
	}
	s.printf("Removed %q from %s (%d rows).\n", pattern, tag, n)
	return nil
}

func runRetrain(ctx context.Context, s *Session, _ []string) error {
	n, err := s.Bot.Retrain(ctx)
	if err != nil {
		return err
	}
	s.printf("Retrained %d patterns.\n", n)
	return nil
}

func runHistory(ctx context.Context, s *Session, args []string) error {
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return s.usage("history")
		}
		limit = n
	}
	entries, err := s.Bot.History(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		s.printf("No changes recorded.\n")
		return nil
	}
	for _, e := range entries {
		p, err := e.Decode()
		if err != nil {
			return err
		}
		s.printf("  #%d %-6s %s: %s (%s)\n", e.SCN, e.Op, p.Tag, p.Pattern, e.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runStats(_ context.Context, s *Session, _ []string) error {
	st := s.Bot.Stats()
	s.printf("Intents: %d\nPatterns: %d\nDimension: %d\nModel: %s\nIndex: %s\n",
		st.Intents, st.Patterns, st.Dimension, st.Model, st.Index)
	return nil
}
