package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/ifuryst/scribe/internal/metrics"
)

// ArticleGenerated is emitted once per persisted article.
type ArticleGenerated struct {
	EventID     string    `json:"eventId"`
	BatchID     string    `json:"batchId"`
	ArticleID   uint      `json:"articleId"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	HasImage    bool      `json:"hasImage"`
	Comments    int       `json:"comments"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Publisher announces pipeline events to downstream consumers.
type Publisher interface {
	PublishArticleGenerated(ctx context.Context, event ArticleGenerated) error
	Close()
}

type conn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes events on a core NATS subject.
type NATSPublisher struct {
	nc      *nats.Conn
	conn    conn
	subject string
	logger  *zap.Logger
}

// NewNATSPublisher connects to url. An empty url yields a no-op publisher.
func NewNATSPublisher(url, subject string, logger *zap.Logger) (Publisher, error) {
	if url == "" {
		return NoopPublisher{}, nil
	}

	nc, err := nats.Connect(url,
		nats.Name("scribe"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &NATSPublisher{nc: nc, conn: nc, subject: subject, logger: logger}, nil
}

func (p *NATSPublisher) PublishArticleGenerated(_ context.Context, event ArticleGenerated) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		metrics.NatsMessagesPublished.WithLabelValues(p.subject, "error").Inc()
		return fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.NatsMessagesPublished.WithLabelValues(p.subject, "success").Inc()
	p.logger.Debug("Published article event",
		zap.String("subject", p.subject),
		zap.String("slug", event.Slug))
	return nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			p.nc.Close()
		}
	}
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) PublishArticleGenerated(context.Context, ArticleGenerated) error { return nil }

func (NoopPublisher) Close() {}
