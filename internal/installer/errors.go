package installer

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrMissingExpectedFile means the fetched bundle does not have the expected shape.
	ErrMissingExpectedFile = errors.New("expected file not found in bundle")

	// ErrDestinationNotVacated means the user configuration directory still
	// exists after it should have been moved to a backup.
	ErrDestinationNotVacated = errors.New("destination still exists after backup")

	// ErrNoPrompter is returned for an interactive install without a prompter.
	ErrNoPrompter = errors.New("interactive selection requires a prompter")
)

// interrupted reports a cancelled run between steps that do not watch ctx themselves.
func interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("installation interrupted: %w", err)
	}
	return nil
}
