// Package prompt reads interactive answers from the terminal.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
)

// ErrCancelled is returned when the user aborts a prompt with Ctrl+C or end of input.
var ErrCancelled = errors.New("cancelled by user")

// Prompter interface wraps basic prompting functionality for testability
type Prompter interface {
	Prompt(string) (string, error)
	Close() error
}

// LinerPrompter wraps liner.State to implement Prompter interface
type LinerPrompter struct {
	*liner.State
}

// NewLinerPrompter creates a new liner-based prompter
func NewLinerPrompter() Prompter {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return &LinerPrompter{State: line}
}

// ReaderPrompter reads answers line by line from a non-terminal input.
type ReaderPrompter struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewReaderPrompter creates a prompter that writes prompts to out and reads from in.
func NewReaderPrompter(in io.Reader, out io.Writer) *ReaderPrompter {
	if out == nil {
		out = io.Discard
	}
	return &ReaderPrompter{reader: bufio.NewReader(in), out: out}
}

// Prompt writes prompt and returns the next input line without its line ending.
func (p *ReaderPrompter) Prompt(prompt string) (string, error) {
	if _, err := io.WriteString(p.out, prompt); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err //nolint:wrapcheck // io.EOF is checked by callers
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Close does nothing; the input stream belongs to the caller.
func (*ReaderPrompter) Close() error {
	return nil
}

// New picks a liner prompter when in is a terminal and a line reader otherwise.
func New(in *os.File, out io.Writer) Prompter {
	fd := in.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return NewLinerPrompter()
	}
	return NewReaderPrompter(in, out)
}

// TextInputWithPrompter provides simple text input using a custom prompter
func TextInputWithPrompter(prompter Prompter, prompt string) (string, error) {
	coloredPrompt := color.CyanString(prompt + " ")
	result, err := prompter.Prompt(coloredPrompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("text input with prompter failed: %w", err)
	}
	return result, nil
}

// TextInputContext behaves like TextInputWithPrompter but returns ErrCancelled
// as soon as ctx is done. An abandoned read ends when its input delivers a
// line or is closed.
func TextInputContext(ctx context.Context, prompter Prompter, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	type answer struct {
		err  error
		text string
	}
	answers := make(chan answer, 1)
	go func() {
		text, err := TextInputWithPrompter(prompter, prompt)
		answers <- answer{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	case got := <-answers:
		return got.text, got.err
	}
}
