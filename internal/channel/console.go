// ABOUTME: Console channel reads user messages from a terminal line by line.
// ABOUTME: Replies are rendered with color; errors are shown without aborting the loop.

package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Console is an interactive terminal channel. Each line of input becomes one
// inbound message on a single thread.
type Console struct {
	in        io.Reader
	out       io.Writer
	sender    string
	threadKey string
	logger    *slog.Logger

	prompt  *color.Color
	reply   *color.Color
	errText *color.Color
}

// ConsoleOption overrides Console defaults.
type ConsoleOption func(*Console)

// WithStreams overrides stdin/stdout, used in tests.
func WithStreams(in io.Reader, out io.Writer) ConsoleOption {
	return func(c *Console) {
		c.in = in
		c.out = out
	}
}

// WithSender sets the sender name attached to inbound messages.
func WithSender(sender string) ConsoleOption {
	return func(c *Console) { c.sender = sender }
}

// WithThreadKey overrides the conversation key. The default is stable so
// history survives restarts.
func WithThreadKey(key string) ConsoleOption {
	return func(c *Console) { c.threadKey = key }
}

// NewConsole creates a console channel on stdin/stdout.
func NewConsole(optFns ...ConsoleOption) *Console {
	c := &Console{
		in:        os.Stdin,
		out:       os.Stdout,
		sender:    "user",
		threadKey: "local",
		logger:    slog.Default().With("component", "console-channel"),
		prompt:    color.New(color.FgCyan, color.Bold),
		reply:     color.New(color.FgGreen),
		errText:   color.New(color.FgRed),
	}
	for _, fn := range optFns {
		fn(c)
	}
	return c
}

// Name identifies the channel kind.
func (c *Console) Name() string { return "console" }

// Run reads lines until EOF or context cancellation. Blank lines are
// skipped; "/quit" ends the session.
func (c *Console) Run(ctx context.Context, handler Handler) error {
	scanner := bufio.NewScanner(c.in)

	for {
		c.prompt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" {
			break
		}

		reply, err := handler(ctx, &InboundMessage{
			ID:        uuid.New().String(),
			ThreadKey: c.threadKey,
			Sender:    c.sender,
			Text:      text,
		})
		if err != nil {
			c.errText.Fprintf(c.out, "error: %v\n", err)
			c.logger.Warn("handler failed", "error", err)
			continue
		}
		if reply != "" {
			c.reply.Fprintln(c.out, reply)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
