// Package console prints the installer's human-facing messages with colored
// severity prefixes.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	infoPrefix  = color.New(color.FgGreen).Sprint("[INFO]")
	warnPrefix  = color.New(color.FgYellow, color.Bold).Sprint("[WARN]")
	errorPrefix = color.New(color.FgRed).Sprint("[ERROR]")
)

// Console writes prefixed messages to an output stream.
type Console struct {
	out io.Writer
}

// New creates a Console writing to out. A nil writer means stdout.
func New(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

// Info prints an informational message.
func (c *Console) Info(format string, args ...any) {
	c.line(infoPrefix, format, args...)
}

// Warn prints a warning.
func (c *Console) Warn(format string, args ...any) {
	c.line(warnPrefix, format, args...)
}

// Error prints an error message. It never stops the run by itself.
func (c *Console) Error(format string, args ...any) {
	c.line(errorPrefix, format, args...)
}

// Plain prints an unprefixed line.
func (c *Console) Plain(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format+"\n", args...)
}

// Blank prints an empty line.
func (c *Console) Blank() {
	_, _ = fmt.Fprintln(c.out)
}

// Writer exposes the underlying stream, e.g. for prompts.
func (c *Console) Writer() io.Writer {
	return c.out
}

func (c *Console) line(prefix, format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}
