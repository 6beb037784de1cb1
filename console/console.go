// Package console runs the interactive chat loop on a reader and a writer.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/viant/intentbot/bot"
	"github.com/viant/intentbot/vecadmin"
)

// Messages printed by the loop.
const (
	Greeting      = "Chatbot ready! Type 'bye' to quit."
	Prompt        = "You: "
	Farewell      = "Bot: See you!"
	NotUnderstood = "Bot: Sorry, I don't understand yet. Can you explain what you mean?"
	ExplainPrompt = "> Explain (or type 'skip'): "
	TagPrompt     = "> Tag/topic for this question?: "
	AnswerPrompt  = "> Ideal answer?: "
	Saved         = "Saved. Try the question again."
	AdminPrompt   = "admin> "
	AdminCommand  = "/admin"
)

// ExitWords end the conversation, compared case-insensitively.
var ExitWords = []string{"bye", "exit", "quit", "keluar"}

// Bot is what the loop needs from *bot.Bot.
type Bot interface {
	vecadmin.Bot
	Reply(ctx context.Context, input string) (bot.Answer, error)
	Learn(ctx context.Context, pattern, tag, response string) error
}

// Console reads user lines from In and writes the conversation to Out.
type Console struct {
	In     io.Reader
	Out    io.Writer
	Bot    Bot
	Gate   *vecadmin.Gate
	Logger *slog.Logger

	lines chan readResult
}

type readResult struct {
	line string
	err  error
}

// Run loops until an exit word, the end of input or ctx is done. Lines are
// read on a separate goroutine so a cancelled ctx interrupts a pending read.
func (c *Console) Run(ctx context.Context) error {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	done := make(chan struct{})
	defer close(done)
	lines := make(chan readResult)
	c.lines = lines
	go read(bufio.NewReader(c.In), lines, done)

	c.println(Greeting)
	c.println("")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := c.ask(ctx, Prompt)
		if errors.Is(err, io.EOF) {
			c.println("")
			return nil
		}
		if err != nil {
			return err
		}
		switch {
		case line == "":
			continue
		case isExitWord(line):
			c.println(Farewell)
			return nil
		case strings.EqualFold(line, AdminCommand):
			err = c.admin(ctx)
		default:
			err = c.respond(ctx, line)
		}
		if errors.Is(err, io.EOF) {
			c.println("")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *Console) respond(ctx context.Context, input string) error {
	ans, err := c.Bot.Reply(ctx, input)
	if err != nil {
		c.Logger.Warn("reply failed", "error", err)
		c.printf("Bot: (error: %v)\n", err)
		return nil
	}
	if ans.Matched {
		c.printf("Bot: %s\n", ans.Response)
		return nil
	}
	return c.teach(ctx, input)
}

// teach asks the user to label an unknown input and learns it.
func (c *Console) teach(ctx context.Context, input string) error {
	c.println(NotUnderstood)
	explanation, err := c.ask(ctx, ExplainPrompt)
	if err != nil {
		return err
	}
	if strings.EqualFold(explanation, "skip") {
		return nil
	}
	tag, err := c.ask(ctx, TagPrompt)
	if err != nil {
		return err
	}
	if tag == "" {
		c.println("Bot: No topic given, nothing learned.")
		return nil
	}
	answer, err := c.ask(ctx, AnswerPrompt)
	if err != nil {
		return err
	}
	if err := c.Bot.Learn(ctx, input, tag, answer); err != nil {
		c.Logger.Warn("learn failed", "tag", tag, "error", err)
		c.printf("Bot: (error: %v)\n", err)
		return nil
	}
	if explanation != "" && !strings.EqualFold(explanation, input) {
		if err := c.Bot.Learn(ctx, explanation, tag, ""); err != nil {
			c.Logger.Warn("learn explanation failed", "tag", tag, "error", err)
		}
	}
	c.println(Saved)
	c.println("")
	return nil
}

func (c *Console) admin(ctx context.Context) error {
	if c.Gate == nil || c.Gate.Verify == nil {
		c.println("Bot: Admin mode is disabled.")
		return nil
	}
	err := c.Gate.Authenticate(func(attempt int) (string, error) {
		if attempt > 1 {
			c.println("Wrong password.")
		}
		return c.ask(ctx, "Password: ")
	})
	switch {
	case errors.Is(err, vecadmin.ErrAccessDenied):
		c.Logger.Warn("admin access denied")
		c.println("Bot: Access denied.")
		return nil
	case err != nil:
		return err
	}

	c.Logger.Info("admin session started")
	session := vecadmin.NewSession(c.Bot, c.Out, func(prompt string) (string, error) {
		return c.ask(ctx, prompt)
	})
	c.println("Admin mode. Type 'help' for commands, 'back' to return.")
	for {
		line, err := c.ask(ctx, AdminPrompt)
		if err != nil {
			return err
		}
		err = session.Dispatch(ctx, line)
		switch {
		case errors.Is(err, vecadmin.ErrBack):
			c.println("Back to chat.")
			return nil
		case errors.Is(err, io.EOF):
			return err
		case err != nil:
			c.printf("error: %v\n", err)
		}
	}
}

// ask prints prompt and returns the next trimmed line.
func (c *Console) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(c.Out, prompt)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return r.line, r.err
	}
}

// read feeds out until the input fails or done is closed. A final line
// without a newline is delivered before io.EOF.
func read(r *bufio.Reader, out chan<- readResult, done <-chan struct{}) {
	defer close(out)
	for {
		line, err := r.ReadString('\n')
		res := readResult{line: strings.TrimSpace(line)}
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			res = readResult{err: err}
		}
		select {
		case out <- res:
		case <-done:
			return
		}
		if res.err != nil {
			return
		}
	}
}

func (c *Console) println(s string) { fmt.Fprintln(c.Out, s) }

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

func isExitWord(s string) bool {
	for _, w := range ExitWords {
		if strings.EqualFold(s, w) {
			return true
		}
	}
	return false
}
