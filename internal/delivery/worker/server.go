// Package worker runs the background cleanup sweeper that removes expired
// sessions and stale verification codes on a cron schedule.
package worker

import (
	"context"
	"log/slog"

	"arcana/config"
	"arcana/internal/delivery"
	"arcana/internal/domain/lifecycle"
	"arcana/internal/domain/repository"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
)

type cleanupWorker struct {
	cfg              *config.Config
	logger           *slog.Logger
	sessionRepo      repository.SessionRepository
	verificationRepo repository.VerificationRepository
	scheduler        *cron.Cron
}

// WorkerParams holds dependencies for the cleanup worker.
type WorkerParams struct {
	fx.In

	Lc               fx.Lifecycle
	Cfg              *config.Config
	Logger           *slog.Logger
	SessionRepo      repository.SessionRepository
	VerificationRepo repository.VerificationRepository
}

// NewWorker creates the cron-driven cleanup sweeper. The store's TTL indexes
// already expire most records; the sweeper mops up what they miss, such as
// deactivated sessions.
func NewWorker(params WorkerParams) (delivery.Delivery, error) {
	worker := &cleanupWorker{
		cfg:              params.Cfg,
		logger:           params.Logger,
		sessionRepo:      params.SessionRepo,
		verificationRepo: params.VerificationRepo,
		scheduler:        cron.New(),
	}

	params.Lc.Append(fx.Hook{
		OnStop: worker.stop,
	})

	return worker, nil
}

// Serve registers the sweep job and starts the scheduler. An empty schedule
// disables the worker.
func (w *cleanupWorker) Serve(ctx context.Context) error {
	if w.cfg.Cleanup == nil || w.cfg.Cleanup.Schedule == "" {
		w.logger.Info("Cleanup worker disabled, no schedule configured")

		return nil
	}

	if _, err := w.scheduler.AddFunc(w.cfg.Cleanup.Schedule, func() {
		w.sweep(ctx)
	}); err != nil {
		return errors.Wrap(err, "failed to register cleanup job")
	}

	w.logger.Info("Starting cleanup worker", slog.String("schedule", w.cfg.Cleanup.Schedule))
	w.scheduler.Start()

	return nil
}

func (w *cleanupWorker) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	sessions, err := w.sessionRepo.DeleteExpired(sweepCtx)
	if err != nil {
		w.logger.Error("Failed to sweep expired sessions", slog.Any("error", err))
	}

	verifications, err := w.verificationRepo.DeleteExpired(sweepCtx)
	if err != nil {
		w.logger.Error("Failed to sweep expired verifications", slog.Any("error", err))
	}

	w.logger.Info("Cleanup sweep finished",
		slog.Int("sessions_removed", sessions),
		slog.Int("verifications_removed", verifications))
}

// stop halts the scheduler and waits for a running sweep to finish.
func (w *cleanupWorker) stop(ctx context.Context) error {
	w.logger.Info("Shutting down cleanup worker")

	stopCtx := w.scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}

	return nil
}
