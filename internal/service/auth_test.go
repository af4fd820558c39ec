package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/ifuryst/scribe/internal/config"
	"github.com/ifuryst/scribe/internal/models"
	"github.com/ifuryst/scribe/internal/service/store"
)

type memoryUsers map[uint]*models.User

func (m memoryUsers) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (m memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func newTestAuth(t *testing.T) (*AuthService, string) {
	t.Helper()

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "scribe", AccountName: "admin"})
	if err != nil {
		t.Fatalf("generate totp key: %v", err)
	}
	users := memoryUsers{
		1: {ID: 1, Email: "admin@example.com", Role: models.RoleAdmin},
		2: {ID: 2, Email: "member@example.com", Role: models.RoleMember},
	}
	cfg := config.AuthConfig{JWTSecret: "jwt-secret", TOTPSecret: key.Secret(), SessionTTL: time.Hour}
	return NewAuthService(zap.NewNop(), users, cfg, "cron-secret"), key.Secret()
}

func TestIsServiceCaller(t *testing.T) {
	t.Parallel()
	a, _ := newTestAuth(t)

	if !a.IsServiceCaller("cron-secret") {
		t.Fatal("expected the cron secret to match")
	}
	for _, secret := range []string{"", "cron", "cron-secret-2"} {
		if a.IsServiceCaller(secret) {
			t.Fatalf("secret %q should not match", secret)
		}
	}

	unset := NewAuthService(zap.NewNop(), memoryUsers{}, config.AuthConfig{}, "")
	if unset.IsServiceCaller("") {
		t.Fatal("an unset cron secret must never match")
	}
}

func TestLoginAndIsAdmin(t *testing.T) {
	t.Parallel()
	a, secret := newTestAuth(t)
	ctx := context.Background()

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}

	token, user, err := a.Login(ctx, "admin@example.com", code)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != 1 {
		t.Fatalf("unexpected user: %+v", user)
	}
	ok, err := a.IsAdmin(ctx, token)
	if err != nil || !ok {
		t.Fatalf("IsAdmin = %v, %v", ok, err)
	}

	memberToken, err := a.IssueToken(&models.User{ID: 2})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if ok, err := a.IsAdmin(ctx, memberToken); err != nil || ok {
		t.Fatalf("member IsAdmin = %v, %v", ok, err)
	}

	if _, _, err := a.Login(ctx, "admin@example.com", "000000x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := a.Login(ctx, "nobody@example.com", code); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestIsAdminRejectsBadTokens(t *testing.T) {
	t.Parallel()
	a, _ := newTestAuth(t)
	ctx := context.Background()

	if _, err := a.IsAdmin(ctx, "not-a-jwt"); err == nil {
		t.Fatal("expected an error for a malformed token")
	}

	other := NewAuthService(zap.NewNop(), memoryUsers{}, config.AuthConfig{JWTSecret: "other", SessionTTL: time.Hour}, "")
	foreign, err := other.IssueToken(&models.User{ID: 1})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := a.IsAdmin(ctx, foreign); err == nil {
		t.Fatal("expected an error for a token signed with another secret")
	}

	expired, err := a.IssueToken(&models.User{ID: 1})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, err := a.IssueToken(&models.User{ID: 1})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := a.IsAdmin(ctx, stale); err == nil {
		t.Fatal("expected an error for an expired token")
	}
	if ok, err := a.IsAdmin(ctx, expired); err != nil || !ok {
		t.Fatalf("fresh token should still be valid: %v, %v", ok, err)
	}

	ghost, err := a.IssueToken(&models.User{ID: 42})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := a.IsAdmin(ctx, ghost); err == nil {
		t.Fatal("expected an error for a deleted user")
	}
}

func TestAdminMiddleware(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	a, _ := newTestAuth(t)

	adminToken, _ := a.IssueToken(&models.User{ID: 1})
	memberToken, _ := a.IssueToken(&models.User{ID: 2})

	r := gin.New()
	r.GET("/private", a.AdminMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer garbage", http.StatusUnauthorized},
		{"Bearer " + memberToken, http.StatusForbidden},
		{"Bearer " + adminToken, http.StatusOK},
		{"bearer " + adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("header %q: status %d, want %d", tc.header, rec.Code, tc.want)
		}
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":             "",
		"Bearer abc":   "abc",
		"BEARER  abc ": "abc",
		"abc":          "abc",
	}
	for in, want := range cases {
		if got := BearerToken(in); got != want {
			t.Fatalf("BearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}
