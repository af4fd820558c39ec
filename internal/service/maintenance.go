package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ErrorLogJanitor periodically purges resolved error logs.
type ErrorLogJanitor struct {
	monitoringService *MonitoringService
	logger            *zap.Logger
	retentionDays     int
	ticker            *time.Ticker
	done              chan bool
}

func NewErrorLogJanitor(monitoringService *MonitoringService, logger *zap.Logger, interval time.Duration, retentionDays int) *ErrorLogJanitor {
	return &ErrorLogJanitor{
		monitoringService: monitoringService,
		logger:            logger,
		retentionDays:     retentionDays,
		ticker:            time.NewTicker(interval),
		done:              make(chan bool),
	}
}

func (j *ErrorLogJanitor) Start(ctx context.Context) {
	go func() {
		j.logger.Info("Starting error log janitor", zap.Int("retention_days", j.retentionDays))
		for {
			select {
			case <-j.done:
				j.logger.Info("Error log janitor stopped")
				return
			case <-ctx.Done():
				j.logger.Info("Error log janitor stopped due to context cancellation")
				return
			case <-j.ticker.C:
				j.cleanup()
			}
		}
	}()
}

func (j *ErrorLogJanitor) Stop() {
	j.ticker.Stop()
	close(j.done)
}

func (j *ErrorLogJanitor) cleanup() {
	if err := j.monitoringService.CleanupOldData(j.retentionDays); err != nil {
		j.logger.Error("Failed to cleanup old error logs", zap.Error(err))
		return
	}
	j.logger.Debug("Old error logs cleaned up")
}
