package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ifuryst/scribe/internal/metrics"
	"github.com/ifuryst/scribe/internal/models"
	"github.com/ifuryst/scribe/internal/service/content"
	"github.com/ifuryst/scribe/internal/service/events"
	"github.com/ifuryst/scribe/internal/service/image"
	"github.com/ifuryst/scribe/internal/service/store"
	"github.com/ifuryst/scribe/internal/service/topic"
)

// TopicSource draws topics for new articles.
type TopicSource interface {
	Random(r *rand.Rand) topic.Topic
}

// DraftGenerator returns raw model output for a topic.
type DraftGenerator interface {
	Generate(ctx context.Context, t topic.Topic) (string, error)
}

// ImageResolver always yields a usable cover image.
type ImageResolver interface {
	Resolve(ctx context.Context, query string) image.Result
}

// SlugAssigner hands out unique slugs.
type SlugAssigner interface {
	Assign(ctx context.Context, title string, now time.Time) (string, error)
	Release(ctx context.Context, slug string)
}

// CommentWriter adds reader comments and reports how many were stored.
type CommentWriter interface {
	Generate(ctx context.Context, article *models.Article) int
}

// ArticleStore is the subset of store.Store used by the orchestrator.
type ArticleStore interface {
	CreateArticle(ctx context.Context, article *models.Article) error
	ReadConfig(ctx context.Context) (*models.GenerationConfig, error)
	UpdateConfig(ctx context.Context, update store.ConfigUpdate) error
}

// FailureRecorder keeps a durable trace of item failures.
type FailureRecorder interface {
	RecordItemFailure(batchID string, item int, stage Stage, err error)
}

// Options configure an Orchestrator.
type Options struct {
	Workers         int
	StrictFields    bool
	CommentsEnabled bool
	// LLMConfigured is false when no language model API key is set.
	LLMConfigured bool
}

// Deps are the collaborators of an Orchestrator. Comments, Events and
// Failures are optional.
type Deps struct {
	Authorizer Authorizer
	Topics     TopicSource
	Generator  DraftGenerator
	Images     ImageResolver
	Slugs      SlugAssigner
	Store      ArticleStore
	Comments   CommentWriter
	Events     events.Publisher
	Failures   FailureRecorder
}

// Orchestrator runs batches of the article pipeline.
type Orchestrator struct {
	deps   Deps
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	random *rand.Rand
}

func NewOrchestrator(deps Deps, opts Options, logger *zap.Logger) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if deps.Events == nil {
		deps.Events = events.NoopPublisher{}
	}
	return &Orchestrator{
		deps:   deps,
		opts:   opts,
		logger: logger,
		now:    time.Now,
		random: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x7091c)),
	}
}

// WithRand replaces the topic draw source.
func (o *Orchestrator) WithRand(r *rand.Rand) *Orchestrator {
	o.random = r
	return o
}

type itemResult struct {
	summary *BlogSummary
	err     *StageError
}

// RunBatch validates and authorizes req, then runs req.Count independent
// items. Item failures are reported in the result; only validation,
// authorization and config read failures are returned as errors.
func (o *Orchestrator) RunBatch(ctx context.Context, req Request) (*BatchResult, error) {
	if req.Count < MinBatchSize || req.Count > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, req.Count)
	}
	if !o.opts.LLMConfigured {
		return nil, ErrMissingAPIKey
	}
	if err := o.authorize(ctx, req.Caller); err != nil {
		metrics.BatchesTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if req.Caller.Kind == ServiceCaller {
		cfg, err := o.deps.Store.ReadConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read generation config: %w", err)
		}
		if !cfg.AutoGenerateEnabled {
			metrics.BatchesTotal.WithLabelValues("skipped").Inc()
			o.logger.Info("Auto-generation disabled, skipping scheduled batch")
			return &BatchResult{
				Success: true,
				Blogs:   []BlogSummary{},
				Message: "Auto-generation is disabled",
				Skipped: true,
			}, nil
		}
	}

	batchID := uuid.NewString()
	logger := o.logger.With(
		zap.String("batch_id", batchID),
		zap.String("caller", req.Caller.Kind.String()),
		zap.Int("count", req.Count))
	logger.Info("Starting generation batch")

	topics := o.drawTopics(req.Count)
	results := make([]itemResult, len(topics))

	g := new(errgroup.Group)
	g.SetLimit(o.opts.Workers)
	for i := range topics {
		g.Go(func() error {
			results[i] = o.runItem(ctx, logger.With(zap.Int("item", i+1)), batchID, topics[i])
			return nil
		})
	}
	_ = g.Wait()

	result := &BatchResult{Success: true, Blogs: []BlogSummary{}, BatchID: batchID}
	for i, r := range results {
		if r.err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Blog %d: %s", i+1, r.err.Err.Error()))
			if o.deps.Failures != nil {
				o.deps.Failures.RecordItemFailure(batchID, i+1, r.err.Stage, r.err.Err)
			}
			continue
		}
		result.Blogs = append(result.Blogs, *r.summary)
	}
	result.Count = len(result.Blogs)
	result.Message = fmt.Sprintf("Generated %d of %d blog posts", result.Count, req.Count)

	if result.Count > 0 {
		// Persisted items are counted even if the caller went away.
		update := store.ConfigUpdate{LastRunAt: o.now(), Increment: result.Count}
		if err := o.deps.Store.UpdateConfig(context.WithoutCancel(ctx), update); err != nil {
			logger.Error("Failed to update generation config", zap.Error(err))
		}
	}

	outcome := "complete"
	switch {
	case result.Count == 0:
		outcome = "failed"
	case len(result.Errors) > 0:
		outcome = "partial"
	}
	metrics.BatchesTotal.WithLabelValues(outcome).Inc()

	logger.Info("Generation batch finished",
		zap.Int("succeeded", result.Count),
		zap.Int("failed", len(result.Errors)))
	return result, nil
}

func (o *Orchestrator) authorize(ctx context.Context, caller Caller) error {
	if strings.TrimSpace(caller.Credential) == "" {
		return ErrUnauthorized
	}

	switch caller.Kind {
	case ServiceCaller:
		if !o.deps.Authorizer.IsServiceCaller(caller.Credential) {
			return ErrUnauthorized
		}
		return nil
	case AuthenticatedAdmin:
		ok, err := o.deps.Authorizer.IsAdmin(ctx, caller.Credential)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		if !ok {
			return ErrForbidden
		}
		return nil
	default:
		return ErrUnauthorized
	}
}

func (o *Orchestrator) drawTopics(n int) []topic.Topic {
	o.mu.Lock()
	defer o.mu.Unlock()

	topics := make([]topic.Topic, n)
	for i := range topics {
		topics[i] = o.deps.Topics.Random(o.random)
	}
	return topics
}

func (o *Orchestrator) runItem(ctx context.Context, logger *zap.Logger, batchID string, t topic.Topic) itemResult {
	start := time.Now()
	fail := func(stage Stage, err error) itemResult {
		metrics.ItemFailures.WithLabelValues(string(stage)).Inc()
		logger.Warn("Blog item failed", zap.String("stage", string(stage)), zap.Error(err))
		return itemResult{err: &StageError{Stage: stage, Err: err}}
	}

	if err := ctx.Err(); err != nil {
		return fail(StageSelecting, err)
	}
	logger = logger.With(zap.String("category", string(t.Category)))

	raw, err := o.deps.Generator.Generate(ctx, t)
	if err != nil {
		return fail(StageGenerating, err)
	}

	draft, err := content.ParseDraft(raw, o.opts.StrictFields)
	if err != nil {
		return fail(StageParsing, err)
	}

	query := draft.ImageQuery
	if query == "" {
		query = t.Text
	}
	cover := o.deps.Images.Resolve(ctx, query)

	now := o.now()
	slug, err := o.deps.Slugs.Assign(ctx, draft.Title, now)
	if err != nil {
		return fail(StageAssigningSlug, err)
	}
	defer o.deps.Slugs.Release(context.WithoutCancel(ctx), slug)

	if err := ctx.Err(); err != nil {
		return fail(StagePersisting, err)
	}

	article := &models.Article{
		Title:          draft.Title,
		Slug:           slug,
		Excerpt:        draft.Excerpt,
		Content:        draft.ContentHTML,
		CoverImage:     cover.URL,
		Category:       string(t.Category),
		Tags:           models.StringArray(draft.Tags),
		Published:      true,
		PublishedAt:    now,
		SEOTitle:       draft.SEOTitle,
		SEODescription: draft.SEODescription,
	}
	if err := o.deps.Store.CreateArticle(ctx, article); err != nil {
		if errors.Is(err, store.ErrSlugCollision) {
			return fail(StageAssigningSlug, err)
		}
		return fail(StagePersisting, err)
	}

	logger = logger.With(zap.Uint("article_id", article.ID), zap.String("slug", slug))

	comments := 0
	if o.opts.CommentsEnabled && o.deps.Comments != nil {
		comments = o.deps.Comments.Generate(ctx, article)
	}

	event := events.ArticleGenerated{
		BatchID:     batchID,
		ArticleID:   article.ID,
		Slug:        slug,
		Title:       article.Title,
		Category:    article.Category,
		HasImage:    !cover.Degraded,
		Comments:    comments,
		PublishedAt: now,
	}
	if err := o.deps.Events.PublishArticleGenerated(ctx, event); err != nil {
		logger.Warn("Failed to publish article event", zap.Error(err))
	}

	metrics.ArticlesGenerated.WithLabelValues(article.Category).Inc()
	metrics.ItemDuration.Observe(time.Since(start).Seconds())
	logger.Info("Blog item published",
		zap.String("image_tier", cover.Tier),
		zap.Int("comments", comments),
		zap.Duration("elapsed", time.Since(start)))

	return itemResult{summary: &BlogSummary{
		Title:    article.Title,
		Slug:     slug,
		Category: article.Category,
		HasImage: !cover.Degraded,
	}}
}
