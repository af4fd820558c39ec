package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Database.Type != "postgres" || cfg.Database.Port != 5432 {
		t.Fatalf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.LLM.Timeout != 90*time.Second {
		t.Fatalf("unexpected llm timeout: %s", cfg.LLM.Timeout)
	}
	if len(cfg.Image.GenericQueries) != 3 {
		t.Fatalf("expected three generic queries, got %v", cfg.Image.GenericQueries)
	}
	if cfg.Generation.Workers != 1 || cfg.Generation.CommentCount != 3 {
		t.Fatalf("unexpected generation defaults: %+v", cfg.Generation)
	}
	if !cfg.Generation.CommentsEnabled() {
		t.Fatal("comments should be enabled by default")
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	t.Parallel()

	disabled := false
	cfg := &Config{
		Database:   DatabaseConfig{Type: "mysql"},
		Generation: GenerationConfig{Workers: 3, EnableComments: &disabled},
	}
	ApplyDefaults(cfg)

	if cfg.Database.Port != 3306 {
		t.Fatalf("expected mysql default port, got %d", cfg.Database.Port)
	}
	if cfg.Generation.Workers != 3 {
		t.Fatalf("workers overwritten: %d", cfg.Generation.Workers)
	}
	if cfg.Generation.CommentsEnabled() {
		t.Fatal("comments should stay disabled")
	}
}
