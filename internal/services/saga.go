package services

import (
	"context"
	"log/slog"
)

type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// runSaga runs steps in order. When one fails, the compensations of the
// steps that completed run in reverse order; their failures are logged and
// never replace the original error. It returns the index of the failed step.
func runSaga(ctx context.Context, logger *slog.Logger, steps []sagaStep) (int, error) {
	for i, step := range steps {
		if err := step.run(ctx); err != nil {
			compensate(ctx, logger, steps[:i])
			return i, err
		}
	}
	return -1, nil
}

func compensate(ctx context.Context, logger *slog.Logger, done []sagaStep) {
	// the caller's context may already be cancelled
	ctx = context.WithoutCancel(ctx)

	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.compensate == nil {
			continue
		}
		if err := step.compensate(ctx); err != nil {
			logger.Error("compensation failed",
				slog.String("step", step.name),
				slog.Any("error", err),
			)
			continue
		}
		logger.Info("compensation applied", slog.String("step", step.name))
	}
}
