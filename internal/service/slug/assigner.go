package slug

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ifuryst/scribe/pkg/util"
)

const fallbackBase = "article"

// ErrCollision is returned when the candidate slug is already taken.
var ErrCollision = errors.New("slug already exists")

// Exister reports whether a slug is already stored.
type Exister interface {
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
}

// Assigner derives unique, time-salted slugs from titles.
type Assigner struct {
	store    Exister
	reserver Reserver
	clock    func() time.Time
	logger   *zap.Logger
}

func NewAssigner(store Exister, reserver Reserver, logger *zap.Logger) *Assigner {
	if reserver == nil {
		reserver = NewLocalReserver(time.Minute)
	}
	return &Assigner{
		store:    store,
		reserver: reserver,
		clock:    time.Now,
		logger:   logger,
	}
}

// WithClock replaces the salt clock.
func (a *Assigner) WithClock(clock func() time.Time) *Assigner {
	a.clock = clock
	return a
}

// Assign returns a slug for title. The salt comes from a fresh clock
// reading, not from now; now is only used for logging.
func (a *Assigner) Assign(ctx context.Context, title string, now time.Time) (string, error) {
	base := util.Slugify(title)
	if base == "" {
		base = fallbackBase
	}
	candidate := base + "-" + salt(a.clock())

	reserved, err := a.reserver.Reserve(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("failed to reserve slug: %w", err)
	}
	if !reserved {
		return "", fmt.Errorf("%w: %s", ErrCollision, candidate)
	}

	exists, err := a.store.ExistsBySlug(ctx, candidate)
	if err != nil {
		a.reserver.Release(ctx, candidate)
		return "", fmt.Errorf("failed to check slug: %w", err)
	}
	if exists {
		a.reserver.Release(ctx, candidate)
		return "", fmt.Errorf("%w: %s", ErrCollision, candidate)
	}

	a.logger.Debug("Slug assigned",
		zap.String("slug", candidate),
		zap.Time("requested_at", now))
	return candidate, nil
}

// Release drops the reservation held for slug.
func (a *Assigner) Release(ctx context.Context, slug string) {
	a.reserver.Release(ctx, slug)
}

func salt(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 36)
}
