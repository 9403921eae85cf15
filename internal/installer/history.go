package installer

import (
	"context"

	"github.com/a-gn/claude-setup/internal/history"
	"github.com/a-gn/claude-setup/internal/logging"
)

// startRun records the beginning of a run. History is best effort: a failure
// is logged and the install carries on without a record.
func startRun(ctx context.Context, recorder history.Recorder, mode history.Mode, dest string) *history.Run {
	if recorder == nil {
		return nil
	}
	run, err := recorder.Start(ctx, mode, dest)
	if err != nil {
		logging.Get(ctx).Warn().Err(err).Msg("Failed to record install run")
		return nil
	}
	logging.Get(ctx).Debug().Str("install_run", run.ID).Str("mode", string(mode)).Msg("Install run started")
	return run
}

// finishRun stores the outcome even when ctx was cancelled by an interrupt.
func finishRun(ctx context.Context, recorder history.Recorder, run *history.Run, runErr error) {
	if recorder == nil || run == nil {
		return
	}
	if err := recorder.Finish(context.WithoutCancel(ctx), run, runErr); err != nil {
		logging.Get(ctx).Warn().Err(err).Str("install_run", run.ID).Msg("Failed to record install outcome")
	}
}
