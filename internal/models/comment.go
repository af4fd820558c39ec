package models

import (
	"time"
)

// Comment is a reader comment attached to an article.
type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id" bson:"_id"`
	ArticleID   uint      `gorm:"not null;index" json:"article_id" bson:"article_id"`
	AuthorName  string    `gorm:"size:200;not null" json:"author_name" bson:"author_name"`
	AuthorEmail string    `gorm:"size:320" json:"author_email" bson:"author_email"`
	Content     string    `gorm:"type:text;not null" json:"content" bson:"content"`
	Approved    bool      `gorm:"default:false;index" json:"approved" bson:"approved"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`

	Article *Article `gorm:"foreignKey:ArticleID" json:"-" bson:"-"`
}
