package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/a-gn/claude-setup/internal/prompt"
)

// exitCancelled matches the shell convention for a SIGINT-terminated process.
const exitCancelled = 130

func main() {
	if err := run(); err != nil {
		// A cancelled prompt has already printed its notice
		if !errors.Is(err, prompt.ErrCancelled) {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		if isCancellation(err) {
			os.Exit(exitCancelled)
		}
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := createNewRootCommand().ExecuteContext(ctx); err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}
	return nil
}

// notifyContext cancels the returned context on the first SIGINT or SIGTERM
// and then restores the default handlers, so a second signal terminates the
// process at once.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}

func isCancellation(err error) bool {
	return errors.Is(err, prompt.ErrCancelled) || errors.Is(err, context.Canceled)
}
