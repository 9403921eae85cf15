package prompt

import (
	"context"
	"errors"

	"github.com/a-gn/claude-setup/internal/console"
	"github.com/a-gn/claude-setup/internal/languages"
)

// ChooseLanguages lists available languages and asks which to install.
// The answer may mix 1-based numbers and names. On cancellation it prints a
// notice and returns ErrCancelled, also when ctx ends while waiting.
func ChooseLanguages(
	ctx context.Context, prompter Prompter, out *console.Console, available []string,
) (languages.Selection, error) {
	out.Blank()
	out.Info("Available languages:")
	for i, name := range available {
		out.Plain("  %d. %s", i+1, name)
	}

	out.Blank()
	out.Info("Enter language numbers (space-separated) or language names:")
	out.Info("Examples: '1 3' or 'python javascript' or 'python'")

	answer, err := TextInputContext(ctx, prompter, ">")
	if errors.Is(err, ErrCancelled) {
		out.Blank()
		out.Info("Installation cancelled")
		return languages.Selection{}, err
	}
	if err != nil {
		return languages.Selection{}, err
	}

	return languages.ParseSelection(answer, available)
}
