package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ifuryst/scribe/internal/models"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "scribe.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := NewGormStore(db)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func newArticle(slug string) *models.Article {
	return &models.Article{
		Title:       "Title " + slug,
		Slug:        slug,
		Content:     "<p>body</p>",
		CoverImage:  "https://img/cover.jpg",
		Category:    "destinations",
		Tags:        models.StringArray{"a", "b"},
		Published:   true,
		PublishedAt: time.Now().UTC(),
	}
}

func TestGormStoreCreateAndRead(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	a := newArticle("porto-abc")
	if err := s.CreateArticle(ctx, a); err != nil {
		t.Fatalf("CreateArticle: %v", err)
	}
	if a.ID == 0 {
		t.Fatal("expected an assigned id")
	}

	exists, err := s.ExistsBySlug(ctx, "porto-abc")
	if err != nil || !exists {
		t.Fatalf("ExistsBySlug = %v, %v", exists, err)
	}
	if exists, _ := s.ExistsBySlug(ctx, "other"); exists {
		t.Fatal("unexpected slug match")
	}

	got, err := s.GetArticleBySlug(ctx, "porto-abc")
	if err != nil {
		t.Fatalf("GetArticleBySlug: %v", err)
	}
	if got.ViewsCount != 0 || len(got.Tags) != 2 || got.CoverImage == "" {
		t.Fatalf("unexpected article: %+v", got)
	}

	if _, err := s.GetArticleBySlug(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGormStoreDuplicateSlug(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateArticle(ctx, newArticle("dup")); err != nil {
		t.Fatalf("CreateArticle: %v", err)
	}
	if err := s.CreateArticle(ctx, newArticle("dup")); !errors.Is(err, ErrSlugCollision) {
		t.Fatalf("expected ErrSlugCollision, got %v", err)
	}
}

func TestGormStoreConfig(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	cfg, err := s.ReadConfig(ctx)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.AutoGenerateEnabled || cfg.TotalGenerated != 0 || cfg.LastRunAt != nil {
		t.Fatalf("unexpected seeded config: %+v", cfg)
	}

	if err := s.SetAutoGenerate(ctx, true); err != nil {
		t.Fatalf("SetAutoGenerate: %v", err)
	}

	runAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.UpdateConfig(ctx, ConfigUpdate{LastRunAt: runAt, Increment: 2}); err != nil {
				t.Errorf("UpdateConfig: %v", err)
			}
		}()
	}
	wg.Wait()

	cfg, err = s.ReadConfig(ctx)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if !cfg.AutoGenerateEnabled || cfg.TotalGenerated != 8 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.LastRunAt == nil || !cfg.LastRunAt.Equal(runAt) {
		t.Fatalf("unexpected last run: %v", cfg.LastRunAt)
	}
}

func TestGormStoreComments(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	a := newArticle("with-comments")
	if err := s.CreateArticle(ctx, a); err != nil {
		t.Fatalf("CreateArticle: %v", err)
	}

	now := time.Now().UTC()
	for i, name := range []string{"Ana", "Tom"} {
		c := &models.Comment{
			ArticleID:   a.ID,
			AuthorName:  name,
			AuthorEmail: name + "@example.com",
			Content:     "nice",
			Approved:    true,
			CreatedAt:   now.Add(-time.Duration(i) * time.Hour),
		}
		if err := s.InsertComment(ctx, c); err != nil {
			t.Fatalf("InsertComment: %v", err)
		}
	}

	comments, err := s.ListComments(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(comments) != 2 || comments[0].AuthorName != "Ana" {
		t.Fatalf("unexpected comments: %+v", comments)
	}
}

func TestGormStoreUsers(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertUser(ctx, &models.User{Email: " Admin@Example.com ", Name: "Admin", Role: models.RoleMember}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if err := s.UpsertUser(ctx, &models.User{Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}

	u, err := s.GetUserByEmail(ctx, "ADMIN@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if !u.IsAdmin() {
		t.Fatalf("expected role to be updated, got %+v", u)
	}

	byID, err := s.GetUserByID(ctx, u.ID)
	if err != nil || byID.Email != "admin@example.com" {
		t.Fatalf("GetUserByID = %+v, %v", byID, err)
	}
	if _, err := s.GetUserByID(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
