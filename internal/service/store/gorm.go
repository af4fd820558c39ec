package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ifuryst/scribe/internal/models"
)

// GormStore persists articles in a relational database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates or updates the tables used by GormStore.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Article{},
		&models.Comment{},
		&models.GenerationConfig{},
		&models.User{},
		&models.ErrorLog{},
	)
}

func (s *GormStore) CreateArticle(ctx context.Context, article *models.Article) error {
	if err := s.db.WithContext(ctx).Create(article).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", ErrSlugCollision, article.Slug)
		}
		return fmt.Errorf("failed to create article: %w", err)
	}
	return nil
}

func (s *GormStore) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Article{}).Where("slug = ?", slug).Limit(1).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return count > 0, nil
}

// ReadConfig returns the singleton config row, creating it disabled on
// first use.
func (s *GormStore) ReadConfig(ctx context.Context) (*models.GenerationConfig, error) {
	var cfg models.GenerationConfig
	err := s.db.WithContext(ctx).
		Where(models.GenerationConfig{ID: models.GenerationConfigID}).
		FirstOrCreate(&cfg).Error
	if err != nil && isDuplicateKey(err) {
		// another writer seeded the row first
		err = s.db.WithContext(ctx).First(&cfg, models.GenerationConfigID).Error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read generation config: %w", err)
	}
	return &cfg, nil
}

// UpdateConfig increments total_generated in SQL so concurrent batches do
// not lose updates.
func (s *GormStore) UpdateConfig(ctx context.Context, update ConfigUpdate) error {
	if _, err := s.ReadConfig(ctx); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).
		Model(&models.GenerationConfig{}).
		Where("id = ?", models.GenerationConfigID).
		Updates(map[string]interface{}{
			"total_generated": gorm.Expr("total_generated + ?", update.Increment),
			"last_run_at":     update.LastRunAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update generation config: %w", err)
	}
	return nil
}

func (s *GormStore) SetAutoGenerate(ctx context.Context, enabled bool) error {
	if _, err := s.ReadConfig(ctx); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).
		Model(&models.GenerationConfig{}).
		Where("id = ?", models.GenerationConfigID).
		Update("auto_generate_enabled", enabled).Error
	if err != nil {
		return fmt.Errorf("failed to update auto generation flag: %w", err)
	}
	return nil
}

func (s *GormStore) InsertComment(ctx context.Context, comment *models.Comment) error {
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (s *GormStore) GetArticleBySlug(ctx context.Context, slug string) (*models.Article, error) {
	var article models.Article
	if err := s.db.WithContext(ctx).Where("slug = ? AND published = ?", slug, true).First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return &article, nil
}

func (s *GormStore) ListComments(ctx context.Context, articleID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("article_id = ? AND approved = ?", articleID, true).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpsertUser creates the user or updates name and role by email.
func (s *GormStore) UpsertUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "role"}),
	}).Create(user).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (s *GormStore) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "Duplicate entry")
}
