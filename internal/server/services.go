package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ifuryst/scribe/internal/config"
	"github.com/ifuryst/scribe/internal/service"
	"github.com/ifuryst/scribe/internal/service/content"
	"github.com/ifuryst/scribe/internal/service/events"
	"github.com/ifuryst/scribe/internal/service/image"
	"github.com/ifuryst/scribe/internal/service/llm"
	"github.com/ifuryst/scribe/internal/service/pipeline"
	"github.com/ifuryst/scribe/internal/service/slug"
	"github.com/ifuryst/scribe/internal/service/store"
	"github.com/ifuryst/scribe/internal/service/topic"
)

const slugReservationTTL = time.Minute

// Services holds the wired application components shared by the HTTP
// server and the CLI.
type Services struct {
	Store        store.Store
	DB           *gorm.DB
	Auth         *service.AuthService
	Monitoring   *service.MonitoringService
	Orchestrator service.BatchRunner
	Scheduler    *service.Scheduler
	Janitor      *service.ErrorLogJanitor
	Events       events.Publisher

	redis *redis.Client
}

func NewServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	svcs := &Services{}
	ready := false
	defer func() {
		if !ready {
			_ = svcs.Close(context.Background())
		}
	}()

	if cfg.Database.Type == "mongo" {
		mongoStore, err := store.NewMongoStore(ctx, cfg.Database.URI, cfg.Database.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mongo store: %w", err)
		}
		svcs.Store = mongoStore
	} else {
		db, err := service.NewDatabase(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		svcs.DB = db
		svcs.Store = store.NewGormStore(db)
	}

	svcs.Monitoring = service.NewMonitoringService(svcs.DB, logger)
	if svcs.DB != nil {
		svcs.Janitor = service.NewErrorLogJanitor(svcs.Monitoring, logger,
			cfg.Monitoring.CleanupInterval, cfg.Monitoring.RetentionDays)
	}

	catalog, err := topic.Load(cfg.Generation.TopicCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic catalog: %w", err)
	}

	var reserver slug.Reserver
	if cfg.Redis.URL != "" {
		rdb, err := slug.ConnectRedis(cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		svcs.redis = rdb
		reserver = slug.NewRedisReserver(rdb, slugReservationTTL)
		logger.Info("Using redis for slug reservations")
	}

	svcs.Events, err = events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject, logger)
	if err != nil {
		return nil, err
	}

	llmConfigured := cfg.LLM.APIKey != ""
	var client llm.Client = llm.ClientFunc(func(context.Context, string, llm.Options) (string, error) {
		return "", llm.ErrMissingAPIKey
	})
	if llmConfigured {
		provider, err := llm.NewProvider(cfg.LLM, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize language model: %w", err)
		}
		client = provider
	} else {
		logger.Warn("No language model API key configured, generation requests will be rejected")
	}
	if cfg.Image.APIKey == "" {
		logger.Warn("No image search API key configured, articles will use the default cover image")
	}

	images := image.NewResolver(
		image.NewPexelsSearcher(cfg.Image.Endpoint, cfg.Image.APIKey, cfg.Image.SearchTimeout, logger),
		image.NewHTTPVerifier(),
		cfg.Image,
		logger)

	svcs.Auth = service.NewAuthService(logger, svcs.Store, cfg.Auth, cfg.Generation.CronSecret)

	svcs.Orchestrator = pipeline.NewOrchestrator(pipeline.Deps{
		Authorizer: svcs.Auth,
		Topics:     catalog,
		Generator:  content.NewGenerator(client, cfg.LLM, logger),
		Images:     images,
		Slugs:      slug.NewAssigner(svcs.Store, reserver, logger),
		Store:      svcs.Store,
		Comments:   content.NewCommentGenerator(client, svcs.Store, cfg.LLM, cfg.Generation, logger),
		Events:     svcs.Events,
		Failures:   svcs.Monitoring,
	}, pipeline.Options{
		Workers:         cfg.Generation.Workers,
		StrictFields:    cfg.Generation.StrictFields,
		CommentsEnabled: cfg.Generation.CommentsEnabled(),
		LLMConfigured:   llmConfigured,
	}, logger)

	svcs.Scheduler = service.NewScheduler(&cfg.Scheduler, logger, svcs.Orchestrator, cfg.Generation.CronSecret)

	ready = true
	return svcs, nil
}

// Close releases connections in reverse order of creation.
func (s *Services) Close(ctx context.Context) error {
	var errs []error
	if s.Events != nil {
		s.Events.Close()
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.Store != nil {
		errs = append(errs, s.Store.Close(ctx))
	}
	return errors.Join(errs...)
}
