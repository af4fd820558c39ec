package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ifuryst/scribe/internal/service"
	"github.com/ifuryst/scribe/internal/service/pipeline"
	"github.com/ifuryst/scribe/internal/service/store"
)

type generateRequest struct {
	Count *int `json:"count"`
}

type loginRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type autoGenerateRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// handleGenerate runs one batch. A bearer token equal to the cron secret
// marks a scheduled call; anything else is treated as an admin session.
func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}
	count := 1
	if req.Count != nil {
		count = *req.Count
	}

	token := service.BearerToken(c.GetHeader("Authorization"))
	caller := pipeline.Caller{Kind: pipeline.AuthenticatedAdmin, Credential: token}
	if s.Services.Auth.IsServiceCaller(token) {
		caller.Kind = pipeline.ServiceCaller
	}

	result, err := s.Services.Orchestrator.RunBatch(c.Request.Context(), pipeline.Request{Count: count, Caller: caller})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, pipeline.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, pipeline.ErrForbidden):
			status = http.StatusForbidden
		case pipeline.IsValidation(err):
			status = http.StatusBadRequest
		default:
			s.Logger.Error("Generation batch failed", zap.Error(err))
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and code are required"})
		return
	}

	token, user, err := s.Services.Auth.Login(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or code"})
			return
		}
		s.Logger.Error("Login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (s *Server) handleGetArticle(c *gin.Context) {
	ctx := c.Request.Context()

	article, err := s.Services.Store.GetArticleBySlug(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
			return
		}
		s.Logger.Error("Failed to get article", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get article"})
		return
	}

	comments, err := s.Services.Store.ListComments(ctx, article.ID)
	if err != nil {
		s.Logger.Error("Failed to list comments", zap.Uint("article_id", article.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"article": article, "comments": comments})
}

func (s *Server) handleGetConfig(c *gin.Context) {
	cfg, err := s.Services.Store.ReadConfig(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to read generation config", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read config"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) handleSetAutoGenerate(c *gin.Context) {
	var req autoGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled is required"})
		return
	}

	ctx := c.Request.Context()
	if err := s.Services.Store.SetAutoGenerate(ctx, *req.Enabled); err != nil {
		s.Logger.Error("Failed to update auto generation flag", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update config"})
		return
	}
	s.Logger.Info("Auto generation flag updated", zap.Bool("enabled", *req.Enabled))

	s.handleGetConfig(c)
}

func (s *Server) handleGetErrors(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
		return
	}
	unresolved := c.Query("unresolved") == "true"

	logs, err := s.Services.Monitoring.GetRecentErrors(limit, unresolved)
	if err != nil {
		s.Logger.Error("Failed to get error logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get errors"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"errors": logs})
}

func (s *Server) handleResolveError(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid error id"})
		return
	}

	if err := s.Services.Monitoring.ResolveError(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Error log not found"})
			return
		}
		s.Logger.Error("Failed to resolve error log", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Error resolved"})
}
