package content

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ifuryst/scribe/internal/config"
	"github.com/ifuryst/scribe/internal/service/llm"
	"github.com/ifuryst/scribe/internal/service/topic"
)

// Generator asks the language model for a draft article about a topic.
type Generator struct {
	client llm.Client
	opts   llm.Options
	now    func() time.Time
	logger *zap.Logger
}

func NewGenerator(client llm.Client, cfg config.LLMConfig, logger *zap.Logger) *Generator {
	return &Generator{
		client: client,
		opts: llm.Options{
			SystemPrompt:    articleSystemPrompt,
			Temperature:     cfg.Temperature,
			TopP:            cfg.TopP,
			TopK:            cfg.TopK,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
		now:    time.Now,
		logger: logger,
	}
}

// Generate issues a single model call and returns the raw reply. Errors are
// returned as is; the caller decides whether the item fails.
func (g *Generator) Generate(ctx context.Context, t topic.Topic) (string, error) {
	prompt := buildArticlePrompt(t, g.now())

	g.logger.Debug("Generating article draft",
		zap.String("category", string(t.Category)),
		zap.String("topic", t.Text))

	return g.client.Generate(ctx, prompt, g.opts)
}
