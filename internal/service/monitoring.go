package service

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ifuryst/scribe/internal/models"
	"github.com/ifuryst/scribe/internal/service/pipeline"
)

const (
	LevelError = "ERROR"
	LevelWarn  = "WARN"
)

// MonitoringService keeps error logs for failed pipeline work. With a nil
// db it only logs.
type MonitoringService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewMonitoringService(db *gorm.DB, logger *zap.Logger) *MonitoringService {
	return &MonitoringService{
		db:     db,
		logger: logger,
	}
}

// RecordError stores an error log entry.
func (m *MonitoringService) RecordError(level, source, title, message string, options ...ErrorLogOption) error {
	errorLog := &models.ErrorLog{
		Level:   level,
		Source:  source,
		Title:   title,
		Message: message,
	}

	for _, option := range options {
		option(errorLog)
	}

	if m.db == nil {
		m.logger.Warn("Error log not persisted",
			zap.String("source", source),
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}
	return m.db.Create(errorLog).Error
}

// RecordItemFailure records a failed batch item.
func (m *MonitoringService) RecordItemFailure(batchID string, item int, stage pipeline.Stage, err error) {
	title := fmt.Sprintf("Blog %d failed while %s", item, stage)
	if recErr := m.RecordError(LevelError, "pipeline", title, err.Error(),
		WithBatch(batchID), WithItem(item), WithStage(string(stage))); recErr != nil {
		m.logger.Error("Failed to record item failure", zap.Error(recErr))
	}
}

// ErrorLogOption customizes a recorded error log.
type ErrorLogOption func(*models.ErrorLog)

func WithBatch(batchID string) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.BatchID = batchID
	}
}

func WithItem(item int) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.Item = item
	}
}

func WithStage(stage string) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.Stage = stage
	}
}

// WithContext attaches JSON encoded extras.
func WithContext(context map[string]interface{}) ErrorLogOption {
	return func(e *models.ErrorLog) {
		if contextBytes, err := json.Marshal(context); err == nil {
			e.Context = string(contextBytes)
		}
	}
}

// GetRecentErrors returns the newest error logs first.
func (m *MonitoringService) GetRecentErrors(limit int, unresolvedOnly bool) ([]models.ErrorLog, error) {
	if m.db == nil {
		return []models.ErrorLog{}, nil
	}
	query := m.db.Order("created_at desc, id desc").Limit(limit)
	if unresolvedOnly {
		query = query.Where("resolved = ?", false)
	}

	var logs []models.ErrorLog
	err := query.Find(&logs).Error
	return logs, err
}

func (m *MonitoringService) ResolveError(id uint) error {
	if m.db == nil {
		return nil
	}
	result := m.db.Model(&models.ErrorLog{}).Where("id = ?", id).Update("resolved", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CleanupOldData deletes resolved error logs older than daysToKeep.
func (m *MonitoringService) CleanupOldData(daysToKeep int) error {
	if m.db == nil {
		return nil
	}
	cutoffDate := time.Now().AddDate(0, 0, -daysToKeep)

	if err := m.db.Where("created_at < ? AND resolved = ?", cutoffDate, true).Delete(&models.ErrorLog{}).Error; err != nil {
		return fmt.Errorf("failed to cleanup resolved errors: %w", err)
	}
	return nil
}
