package store

import (
	"context"
	"errors"
	"time"

	"github.com/ifuryst/scribe/internal/models"
)

var (
	// ErrSlugCollision is returned by CreateArticle when the slug is taken.
	ErrSlugCollision = errors.New("article slug already exists")
	ErrNotFound      = errors.New("record not found")
)

// ConfigUpdate is applied atomically to the generation config row.
type ConfigUpdate struct {
	LastRunAt time.Time
	Increment int
}

// Store is the persistence boundary of the generation pipeline.
type Store interface {
	CreateArticle(ctx context.Context, article *models.Article) error
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	ReadConfig(ctx context.Context) (*models.GenerationConfig, error)
	UpdateConfig(ctx context.Context, update ConfigUpdate) error
	SetAutoGenerate(ctx context.Context, enabled bool) error
	InsertComment(ctx context.Context, comment *models.Comment) error

	GetArticleBySlug(ctx context.Context, slug string) (*models.Article, error)
	ListComments(ctx context.Context, articleID uint) ([]models.Comment, error)

	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) error

	Close(ctx context.Context) error
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MongoStore)(nil)
)
