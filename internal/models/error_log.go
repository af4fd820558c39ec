package models

import (
	"time"
)

// ErrorLog records a failed pipeline item for later inspection
type ErrorLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Level     string    `gorm:"size:20;not null;index" json:"level"`  // ERROR, WARN
	Source    string    `gorm:"size:100;not null;index" json:"source"` // pipeline, scheduler, comments
	BatchID   string    `gorm:"size:64;index" json:"batch_id"`
	Item      int       `json:"item"`
	Stage     string    `gorm:"size:50;index" json:"stage"`
	Title     string    `gorm:"size:500;not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Context   string    `gorm:"type:text" json:"context"` // JSON encoded extras
	Resolved  bool      `gorm:"default:false;index" json:"resolved"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
