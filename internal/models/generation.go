package models

import (
	"time"
)

// GenerationConfigID is the primary key of the singleton settings row.
const GenerationConfigID uint = 1

// GenerationConfig holds the auto-generation feature flag and run counters.
type GenerationConfig struct {
	ID                  uint       `gorm:"primaryKey" json:"id" bson:"_id"`
	AutoGenerateEnabled bool       `gorm:"default:false" json:"auto_generate_enabled" bson:"auto_generate_enabled"`
	LastRunAt           *time.Time `json:"last_run_at" bson:"last_run_at"`
	TotalGenerated      int        `gorm:"default:0" json:"total_generated" bson:"total_generated"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at" bson:"updated_at"`
}
