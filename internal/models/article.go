package models

import (
	"time"
)

// Article is a published, generated blog article.
type Article struct {
	ID             uint        `gorm:"primaryKey" json:"id" bson:"_id"`
	Title          string      `gorm:"not null;size:500" json:"title" bson:"title"`
	Slug           string      `gorm:"uniqueIndex;not null;size:255" json:"slug" bson:"slug"`
	Excerpt        string      `gorm:"type:text" json:"excerpt" bson:"excerpt"`
	Content        string      `gorm:"type:text;not null" json:"content" bson:"content"`
	CoverImage     string      `gorm:"size:1000;not null" json:"cover_image" bson:"cover_image"`
	Category       string      `gorm:"size:100;index" json:"category" bson:"category"`
	Tags           StringArray `gorm:"type:text" json:"tags" bson:"tags"`
	Published      bool        `gorm:"default:true;index" json:"published" bson:"published"`
	PublishedAt    time.Time   `gorm:"index" json:"published_at" bson:"published_at"`
	SEOTitle       string      `gorm:"size:500" json:"seo_title" bson:"seo_title"`
	SEODescription string      `gorm:"type:text" json:"seo_description" bson:"seo_description"`
	ViewsCount     int         `gorm:"default:0" json:"views_count" bson:"views_count"`
	CreatedAt      time.Time   `gorm:"autoCreateTime" json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time   `gorm:"autoUpdateTime" json:"updated_at" bson:"updated_at"`
}
