package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/ifuryst/scribe/internal/config"
	"github.com/ifuryst/scribe/internal/models"
	"github.com/ifuryst/scribe/internal/service"
	"github.com/ifuryst/scribe/internal/service/pipeline"
	"github.com/ifuryst/scribe/internal/service/store"
)

type stubRunner struct {
	mu       sync.Mutex
	requests []pipeline.Request
	result   *pipeline.BatchResult
	err      error
}

func (s *stubRunner) RunBatch(_ context.Context, req pipeline.Request) (*pipeline.BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.result, s.err
}

type testEnv struct {
	srv        *Server
	store      *store.GormStore
	runner     *stubRunner
	totpSecret string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "scribe", AccountName: "admin"})
	if err != nil {
		t.Fatalf("generate totp key: %v", err)
	}

	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Database = config.DatabaseConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "scribe.db")}
	cfg.Auth = config.AuthConfig{JWTSecret: "jwt", TOTPSecret: key.Secret(), SessionTTL: time.Hour}
	cfg.Generation.CronSecret = "cron-secret"
	cfg.Metrics = config.MetricsConfig{Enabled: true, Path: "/metrics"}
	cfg.Scheduler.Interval = "1h"

	db, err := service.NewDatabase(&cfg.Database)
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	st := store.NewGormStore(db)
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	logger := zap.NewNop()
	runner := &stubRunner{result: &pipeline.BatchResult{Success: true, Count: 1, Blogs: []pipeline.BlogSummary{{Title: "T", Slug: "t-1", Category: "food", HasImage: true}}}}
	monitoring := service.NewMonitoringService(db, logger)
	svcs := &Services{
		Store:        st,
		DB:           db,
		Auth:         service.NewAuthService(logger, st, cfg.Auth, cfg.Generation.CronSecret),
		Monitoring:   monitoring,
		Orchestrator: runner,
		Scheduler:    service.NewScheduler(&cfg.Scheduler, logger, runner, cfg.Generation.CronSecret),
	}

	return &testEnv{
		srv:        NewServer(cfg, svcs, logger),
		store:      st,
		runner:     runner,
		totpSecret: key.Secret(),
	}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.Router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	if err := e.store.UpsertUser(ctx, &models.User{Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	code, err := totp.GenerateCode(e.totpSecret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}

	rec := e.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"email":"admin@example.com","code":"`+code+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("login response %s: %v", rec.Body.String(), err)
	}
	return resp.Token
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("health status %d", rec.Code)
	}
	rec := env.do(t, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "scribe_http_requests_total") {
		t.Fatalf("metrics status %d", rec.Code)
	}
}

func TestGenerateCallerAndCount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/generate", "cron-secret", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var result pipeline.BatchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Count != 1 || len(result.Blogs) != 1 || !result.Blogs[0].HasImage {
		t.Fatalf("unexpected result: %+v", result)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/generate", "some-session", `{"count":4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	if len(env.runner.requests) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(env.runner.requests))
	}
	first, second := env.runner.requests[0], env.runner.requests[1]
	if first.Count != 1 || first.Caller.Kind != pipeline.ServiceCaller {
		t.Fatalf("unexpected scheduled request: %+v", first)
	}
	if second.Count != 4 || second.Caller.Kind != pipeline.AuthenticatedAdmin || second.Caller.Credential != "some-session" {
		t.Fatalf("unexpected admin request: %+v", second)
	}

	if rec := env.do(t, http.MethodPost, "/api/v1/generate", "x", `{"count":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status %d", rec.Code)
	}
}

func TestGenerateErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{pipeline.ErrUnauthorized, http.StatusUnauthorized},
		{pipeline.ErrForbidden, http.StatusForbidden},
		{pipeline.ErrInvalidCount, http.StatusBadRequest},
		{pipeline.ErrMissingAPIKey, http.StatusBadRequest},
	}
	for _, tc := range cases {
		env := newTestEnv(t)
		env.runner.err = tc.err
		rec := env.do(t, http.MethodPost, "/api/v1/generate", "token", `{"count":9}`)
		if rec.Code != tc.want {
			t.Fatalf("%v: status %d, want %d", tc.err, rec.Code, tc.want)
		}
		if !strings.Contains(rec.Body.String(), `"success":false`) {
			t.Fatalf("%v: unexpected body %s", tc.err, rec.Body.String())
		}
	}
}

func TestAdminConfigRoutes(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/api/v1/config", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous config status %d", rec.Code)
	}

	token := env.adminToken(t)
	rec := env.do(t, http.MethodPut, "/api/v1/config/auto-generate", token, `{"enabled":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set auto-generate status %d: %s", rec.Code, rec.Body.String())
	}
	var cfg models.GenerationConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil || !cfg.AutoGenerateEnabled {
		t.Fatalf("unexpected config %s: %v", rec.Body.String(), err)
	}

	if rec := env.do(t, http.MethodPut, "/api/v1/config/auto-generate", token, `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing flag status %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/errors?limit=0", token, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/errors", token, ""); rec.Code != http.StatusOK {
		t.Fatalf("errors status %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/errors/42/resolve", token, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("resolve missing status %d", rec.Code)
	}
}

func TestLoginRejectsBadCode(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"email":"admin@example.com","code":"abc"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestGetArticle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if rec := env.do(t, http.MethodGet, "/api/v1/articles/missing", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing article status %d", rec.Code)
	}

	a := &models.Article{
		Title:       "Lisbon on Foot",
		Slug:        "lisbon-on-foot-abc",
		Content:     "<p>hills</p>",
		CoverImage:  "https://img/lisbon.jpg",
		Category:    "destinations",
		Tags:        models.StringArray{"lisbon"},
		Published:   true,
		PublishedAt: time.Now().UTC(),
	}
	if err := env.store.CreateArticle(ctx, a); err != nil {
		t.Fatalf("CreateArticle: %v", err)
	}
	if err := env.store.InsertComment(ctx, &models.Comment{ArticleID: a.ID, AuthorName: "Ana", AuthorEmail: "ana@example.com", Content: "Loved it", Approved: true, CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("InsertComment: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/articles/lisbon-on-foot-abc", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp struct {
		Article  models.Article   `json:"article"`
		Comments []models.Comment `json:"comments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Article.Title != "Lisbon on Foot" || len(resp.Comments) != 1 || resp.Comments[0].AuthorName != "Ana" {
		t.Fatalf("unexpected response: %s", rec.Body.String())
	}
}
