package content

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ifuryst/scribe/internal/config"
	"github.com/ifuryst/scribe/internal/metrics"
	"github.com/ifuryst/scribe/internal/models"
	"github.com/ifuryst/scribe/internal/service/llm"
)

const commentBackdateWindow = 7 * 24 * time.Hour

// CommentSink persists a generated comment.
type CommentSink interface {
	InsertComment(ctx context.Context, comment *models.Comment) error
}

type generatedComment struct {
	AuthorName string `json:"authorName"`
	Content    string `json:"content"`
}

// CommentGenerator adds a few plausible reader comments to a new article.
// It never fails: every error is logged and dropped.
type CommentGenerator struct {
	client      llm.Client
	sink        CommentSink
	count       int
	emailDomain string
	opts        llm.Options
	logger      *zap.Logger

	now    func() time.Time
	mu     sync.Mutex
	random *rand.Rand
}

func NewCommentGenerator(client llm.Client, sink CommentSink, llmCfg config.LLMConfig, genCfg config.GenerationConfig, logger *zap.Logger) *CommentGenerator {
	return &CommentGenerator{
		client:      client,
		sink:        sink,
		count:       genCfg.CommentCount,
		emailDomain: genCfg.CommentEmailDomain,
		opts: llm.Options{
			SystemPrompt:    commentSystemPrompt,
			Temperature:     llmCfg.Temperature,
			TopP:            llmCfg.TopP,
			TopK:            llmCfg.TopK,
			MaxOutputTokens: llmCfg.CommentMaxOutputTokens,
		},
		logger: logger,
		now:    time.Now,
		random: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
}

// Generate returns the number of comments stored for article.
func (g *CommentGenerator) Generate(ctx context.Context, article *models.Article) int {
	logger := g.logger.With(zap.Uint("article_id", article.ID), zap.String("slug", article.Slug))

	raw, err := g.client.Generate(ctx, buildCommentPrompt(g.count, article.Title, article.Excerpt), g.opts)
	if err != nil {
		logger.Warn("Comment generation failed", zap.Error(err))
		return 0
	}

	var payload struct {
		Comments []generatedComment `json:"comments"`
	}
	if err := llm.DecodeJSON(raw, &payload); err != nil {
		logger.Warn("Failed to parse generated comments", zap.Error(err))
		return 0
	}

	inserted := 0
	for i, c := range payload.Comments {
		if i >= g.count {
			break
		}
		name := strings.TrimSpace(c.AuthorName)
		text := strings.TrimSpace(c.Content)
		if name == "" || text == "" {
			logger.Debug("Skipping incomplete comment", zap.Int("index", i))
			continue
		}

		comment := &models.Comment{
			ArticleID:   article.ID,
			AuthorName:  name,
			AuthorEmail: AuthorEmail(name, g.emailDomain),
			Content:     text,
			Approved:    true,
			CreatedAt:   g.backdate(),
		}
		if err := g.sink.InsertComment(ctx, comment); err != nil {
			logger.Warn("Failed to insert comment", zap.Int("index", i), zap.Error(err))
			continue
		}
		inserted++
	}

	metrics.CommentsCreated.Add(float64(inserted))
	logger.Info("Comments generated", zap.Int("inserted", inserted))
	return inserted
}

// backdate picks a time uniformly within the trailing window.
func (g *CommentGenerator) backdate() time.Time {
	g.mu.Lock()
	offset := time.Duration(g.random.Int64N(int64(commentBackdateWindow)))
	g.mu.Unlock()
	return g.now().Add(-offset)
}

// AuthorEmail derives the synthetic address for a comment author:
// "Ana María López" becomes "ana.maría.lópez@<domain>".
func AuthorEmail(name, domain string) string {
	local := strings.Join(strings.Fields(strings.ToLower(name)), ".")
	return local + "@" + domain
}
