// Command sweeper settles generation jobs abandoned by their clients: it
// periodically reconciles processing jobs whose records have not moved for a
// while, so provider outcomes land even when nobody is polling.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"studio/internal/adapter/repo"
	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/provider/replicate"
	"studio/internal/service"
)

const sweepBatchSize = 50

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("sweeper: db connection failed")
	}
	defer pool.Close()

	jobs := repo.NewJobRepository(pool)
	gateway := replicate.NewClient(replicate.Options{
		BaseURL:  cfg.ReplicateBaseURL,
		APIToken: cfg.ReplicateAPIToken,
		Timeout:  cfg.ProviderTimeout,
	})
	reconciler := service.NewReconciler(jobs, gateway, logger)

	logger.Info().
		Dur("interval", cfg.SweepInterval).
		Dur("stale_after", cfg.SweepStaleAfter).
		Msg("sweeper started")

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("sweeper stopped")
			return
		case <-ticker.C:
			sweep(ctx, jobs, reconciler, logger, int(cfg.SweepStaleAfter.Seconds()))
		}
	}
}

func sweep(ctx context.Context, jobs domain.JobRepository, reconciler *service.Reconciler, logger infra.Logger, staleSeconds int) {
	stale, err := jobs.ListStaleProcessing(ctx, staleSeconds, sweepBatchSize)
	if err != nil {
		logger.Error().Err(err).Msg("sweeper: failed to list stale jobs")
		return
	}
	for _, job := range stale {
		updated, err := reconciler.Reconcile(ctx, job.ID, job.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrProviderUnavailable) {
				// Transient: the next sweep retries.
				logger.Warn().Err(err).Str("job_id", job.ID).Msg("sweeper: provider unavailable")
				continue
			}
			logger.Error().Err(err).Str("job_id", job.ID).Msg("sweeper: reconcile failed")
			continue
		}
		if updated.Status.Terminal() {
			logger.Info().
				Str("job_id", job.ID).
				Str("status", string(updated.Status)).
				Msg("sweeper: job settled")
		}
	}
}
