package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/ifuryst/scribe/internal/config"
	"github.com/ifuryst/scribe/internal/models"
	"github.com/ifuryst/scribe/internal/service/store"
)

const contextKeyUser = "user"

var ErrInvalidCredentials = errors.New("invalid email or code")

// UserStore looks up accounts for authentication.
type UserStore interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Claims is the session token payload.
type Claims struct {
	UserID uint `json:"uid"`
	jwtlib.RegisteredClaims
}

type AuthService struct {
	logger     *zap.Logger
	users      UserStore
	totpSecret string
	jwtSecret  []byte
	sessionTTL time.Duration
	cronSecret string
	now        func() time.Time
}

func NewAuthService(logger *zap.Logger, users UserStore, cfg config.AuthConfig, cronSecret string) *AuthService {
	return &AuthService{
		logger:     logger,
		users:      users,
		totpSecret: cfg.TOTPSecret,
		jwtSecret:  []byte(cfg.JWTSecret),
		sessionTTL: cfg.SessionTTL,
		cronSecret: cronSecret,
		now:        time.Now,
	}
}

func (a *AuthService) GenerateSecret(issuer, accountName string) (secret, url string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	return key.Secret(), key.URL(), nil
}

func (a *AuthService) ValidateCode(code string) bool {
	if a.totpSecret == "" {
		a.logger.Warn("TOTP secret is not configured")
		return false
	}
	valid := totp.Validate(strings.TrimSpace(code), a.totpSecret)
	if valid {
		a.logger.Info("TOTP code validation successful")
	} else {
		a.logger.Warn("TOTP code validation failed")
	}
	return valid
}

// Login checks the second factor and issues a session token for an existing
// account.
func (a *AuthService) Login(ctx context.Context, email, code string) (string, *models.User, error) {
	if !a.ValidateCode(code) {
		return "", nil, ErrInvalidCredentials
	}
	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	token, err := a.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (a *AuthService) IssueToken(user *models.User) (string, error) {
	if len(a.jwtSecret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	now := a.now()
	claims := Claims{
		UserID: user.ID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(now.Add(a.sessionTTL)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

func (a *AuthService) ParseToken(tokenStr string) (*Claims, error) {
	if len(a.jwtSecret) == 0 {
		return nil, errors.New("jwt secret is not configured")
	}
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// IsServiceCaller reports whether secret matches the configured cron secret.
func (a *AuthService) IsServiceCaller(secret string) bool {
	if a.cronSecret == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(a.cronSecret)) == 1
}

// IsAdmin resolves a session token. An error means the token does not
// identify anyone.
func (a *AuthService) IsAdmin(ctx context.Context, token string) (bool, error) {
	user, err := a.userFromToken(ctx, token)
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

func (a *AuthService) userFromToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := a.ParseToken(token)
	if err != nil {
		return nil, err
	}
	user, err := a.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session user: %w", err)
	}
	return user, nil
}

// AdminMiddleware rejects requests without an admin session token.
func (a *AuthService) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		user, err := a.userFromToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Set(contextKeyUser, user)
		c.Next()
	}
}

// BearerToken strips an optional "Bearer " prefix.
func BearerToken(raw string) string {
	token := strings.TrimSpace(raw)
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
