package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ifuryst/scribe/internal/config"
	"github.com/ifuryst/scribe/internal/service/pipeline"
)

// BatchRunner runs one generation batch.
type BatchRunner interface {
	RunBatch(ctx context.Context, req pipeline.Request) (*pipeline.BatchResult, error)
}

// Scheduler triggers generation batches as the service caller. Whether a
// batch does any work is decided by the stored auto-generate flag.
type Scheduler struct {
	config     *config.SchedulerConfig
	logger     *zap.Logger
	runner     BatchRunner
	cronSecret string
	ticker     *time.Ticker
	stopCh     chan struct{}
}

func NewScheduler(cfg *config.SchedulerConfig, logger *zap.Logger, runner BatchRunner, cronSecret string) *Scheduler {
	return &Scheduler{
		config:     cfg,
		logger:     logger,
		runner:     runner,
		cronSecret: cronSecret,
		stopCh:     make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled")
		return nil
	}

	interval, err := time.ParseDuration(s.config.Interval)
	if err != nil {
		s.logger.Error("Invalid generation interval", zap.String("interval", s.config.Interval), zap.Error(err))
		return err
	}

	s.logger.Info("Starting scheduler",
		zap.String("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize))

	s.ticker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.logger.Info("Running scheduled generation")
				if _, err := s.RunOnce(ctx); err != nil {
					s.logger.Error("Scheduled generation failed", zap.Error(err))
				}
			case <-s.stopCh:
				s.logger.Info("Scheduler stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Scheduler context cancelled")
				return
			}
		}
	}()

	return nil
}

func (s *Scheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
	s.logger.Info("Scheduler shutdown completed")
}

// RunOnce runs a single scheduled batch.
func (s *Scheduler) RunOnce(ctx context.Context) (*pipeline.BatchResult, error) {
	start := time.Now()
	result, err := s.runner.RunBatch(ctx, pipeline.Request{
		Count:  s.config.BatchSize,
		Caller: pipeline.Caller{Kind: pipeline.ServiceCaller, Credential: s.cronSecret},
	})
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("Generation failed",
			zap.Error(err),
			zap.Duration("duration", duration))
		return nil, err
	}

	if result.Skipped {
		s.logger.Info("Generation skipped", zap.String("reason", result.Message))
		return result, nil
	}

	s.logger.Info("Generation completed",
		zap.Int("generated", result.Count),
		zap.Int("failed", len(result.Errors)),
		zap.Duration("duration", duration))
	return result, nil
}
