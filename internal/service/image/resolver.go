package image

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ifuryst/scribe/internal/config"
	"github.com/ifuryst/scribe/internal/metrics"
)

const (
	TierSpecific = "specific"
	TierDefault  = "default"
)

// Result is a resolved cover image. Degraded is set when URL is the
// configured default rather than a verified search hit.
type Result struct {
	URL      string
	Degraded bool
	Tier     string
}

// Resolver turns a free-text query into a reachable image URL. It walks the
// query variants in order and falls back to a fixed default; it never fails.
type Resolver struct {
	searcher Searcher
	verifier Verifier
	cfg      config.ImageConfig
	logger   *zap.Logger

	mu     sync.Mutex
	random *rand.Rand
}

func NewResolver(searcher Searcher, verifier Verifier, cfg config.ImageConfig, logger *zap.Logger) *Resolver {
	return &Resolver{
		searcher: searcher,
		verifier: verifier,
		cfg:      cfg,
		logger:   logger,
		random:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x1a9e)),
	}
}

// WithRand replaces the candidate picker's random source.
func (r *Resolver) WithRand(random *rand.Rand) *Resolver {
	r.random = random
	return r
}

type variant struct {
	tier  string
	query string
}

func (r *Resolver) variants(query string) []variant {
	out := make([]variant, 0, len(r.cfg.GenericQueries)+1)
	if q := strings.TrimSpace(query); q != "" {
		if r.cfg.DomainKeyword != "" {
			q = r.cfg.DomainKeyword + " " + q
		}
		out = append(out, variant{tier: TierSpecific, query: q})
	}
	for i, q := range r.cfg.GenericQueries {
		out = append(out, variant{tier: fmt.Sprintf("generic-%d", i+1), query: q})
	}
	return out
}

func (r *Resolver) Resolve(ctx context.Context, query string) Result {
	for _, v := range r.variants(query) {
		if ctx.Err() != nil {
			break
		}

		candidates, err := r.searcher.Search(ctx, v.query, SearchOptions{
			PerPage:     r.cfg.PerPage,
			Orientation: r.cfg.Orientation,
		})
		if err != nil {
			r.logger.Debug("Image search failed",
				zap.String("tier", v.tier),
				zap.String("query", v.query),
				zap.Error(err))
			continue
		}

		if url, ok := r.pickVerified(ctx, candidates); ok {
			metrics.ImageFallbacks.WithLabelValues(v.tier).Inc()
			return Result{URL: url, Tier: v.tier}
		}

		r.logger.Debug("No verified candidate for image query",
			zap.String("tier", v.tier),
			zap.String("query", v.query),
			zap.Int("candidates", len(candidates)))
	}

	metrics.ImageFallbacks.WithLabelValues(TierDefault).Inc()
	r.logger.Warn("Falling back to default cover image", zap.String("query", query))
	return Result{URL: r.cfg.DefaultURL, Degraded: true, Tier: TierDefault}
}

// pickVerified tries up to MaxVerifyChecks distinct random candidates
// among the first PerPage results.
func (r *Resolver) pickVerified(ctx context.Context, candidates []string) (string, bool) {
	if r.cfg.PerPage > 0 && len(candidates) > r.cfg.PerPage {
		candidates = candidates[:r.cfg.PerPage]
	}
	if len(candidates) == 0 {
		return "", false
	}

	attempts := len(candidates)
	if r.cfg.MaxVerifyChecks > 0 && r.cfg.MaxVerifyChecks < attempts {
		attempts = r.cfg.MaxVerifyChecks
	}

	r.mu.Lock()
	order := r.random.Perm(len(candidates))
	r.mu.Unlock()

	for _, idx := range order[:attempts] {
		if ctx.Err() != nil {
			return "", false
		}
		url := candidates[idx]
		if res := r.verifier.Check(ctx, url, r.cfg.VerifyTimeout); res.OK {
			return url, true
		}
		r.logger.Debug("Image candidate rejected", zap.String("url", url))
	}
	return "", false
}
