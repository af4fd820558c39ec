package llm

import (
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"strings"
	"time"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
	jetopenai "go.jetify.com/ai/provider/openai"
	"go.uber.org/zap"

	"github.com/ifuryst/scribe/internal/config"
)

const (
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-haiku-4-5-20251001"
)

// Provider is a Client backed by an OpenAI or Anthropic language model.
type Provider struct {
	model   jetapi.LanguageModel
	modelID string
	timeout time.Duration
	logger  *zap.Logger
}

// NewProvider builds the language model described by cfg.
func NewProvider(cfg config.LLMConfig, logger *zap.Logger) (*Provider, error) {
	model, modelID, err := buildLanguageModel(cfg)
	if err != nil {
		return nil, err
	}
	return &Provider{
		model:   model,
		modelID: modelID,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	callOpts := []jetai.GenerateOption{jetai.WithModel(p.model)}
	if opts.MaxOutputTokens > 0 {
		callOpts = append(callOpts, jetai.WithMaxOutputTokens(opts.MaxOutputTokens))
	}
	if opts.Temperature > 0 {
		callOpts = append(callOpts, jetai.WithTemperature(opts.Temperature))
	}
	if opts.TopP > 0 {
		callOpts = append(callOpts, jetai.WithTopP(opts.TopP))
	}
	if opts.TopK > 0 {
		callOpts = append(callOpts, jetai.WithTopK(opts.TopK))
	}

	start := time.Now()
	resp, err := jetai.GenerateText(ctx, buildPromptMessages(opts.SystemPrompt, prompt), callOpts...)
	if err != nil {
		return "", fmt.Errorf("language model call failed: %w", err)
	}

	text, err := extractText(resp)
	if err != nil {
		return "", err
	}

	p.logger.Debug("Language model call completed",
		zap.String("model", p.modelID),
		zap.Int("chars", len(text)),
		zap.Duration("elapsed", time.Since(start)))
	return text, nil
}

func buildPromptMessages(systemPrompt, prompt string) []jetapi.Message {
	messages := make([]jetapi.Message, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, &jetapi.SystemMessage{Content: systemPrompt})
	}
	messages = append(messages, &jetapi.UserMessage{Content: jetapi.ContentFromText(prompt)})
	return messages
}

func extractText(resp *jetapi.Response) (string, error) {
	if resp == nil {
		return "", errors.New("empty response from language model")
	}

	var full strings.Builder
	for _, block := range resp.Content {
		textBlock, ok := block.(*jetapi.TextBlock)
		if !ok || textBlock.Text == "" {
			continue
		}
		full.WriteString(textBlock.Text)
	}

	text := full.String()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response from language model")
	}
	return text, nil
}

func buildLanguageModel(cfg config.LLMConfig) (jetapi.LanguageModel, string, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, "", ErrMissingAPIKey
	}

	modelID := strings.TrimSpace(cfg.Model)
	endpoint := strings.TrimSpace(cfg.Endpoint)

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "anthropic":
		if modelID == "" {
			modelID = defaultAnthropicModel
		}

		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithMaxRetries(0),
		}
		if endpoint != "" {
			opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
		}

		client := anthropicclient.NewClient(opts...)
		return jetanthropic.NewLanguageModel(modelID, jetanthropic.WithClient(client)), modelID, nil
	case "", "openai":
		if modelID == "" {
			modelID = defaultOpenAIModel
		}

		opts := []openaioption.RequestOption{
			openaioption.WithAPIKey(apiKey),
			openaioption.WithMaxRetries(0),
		}
		if normalized := normalizeOpenAIBaseURL(endpoint); normalized != "" {
			opts = append(opts, openaioption.WithBaseURL(normalized))
		}

		client := openaiclient.NewClient(opts...)
		return jetopenai.NewLanguageModel(modelID, jetopenai.WithClient(client)), modelID, nil
	default:
		return nil, "", fmt.Errorf("unsupported language model provider: %s", cfg.Provider)
	}
}

// normalizeOpenAIBaseURL makes sure a custom endpoint ends in /v1.
func normalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}

	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}
