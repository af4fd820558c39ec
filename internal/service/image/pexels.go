package image

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ErrNoAPIKey is returned when no image search key is configured.
var ErrNoAPIKey = errors.New("image search api key is not configured")

// SearchOptions narrow an image search.
type SearchOptions struct {
	PerPage     int
	Orientation string
}

// Searcher returns candidate image URLs for a query, best match first.
type Searcher interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]string, error)
}

// PexelsSearcher queries the Pexels photo search API.
type PexelsSearcher struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
}

func NewPexelsSearcher(endpoint, apiKey string, timeout time.Duration, logger *zap.Logger) *PexelsSearcher {
	return &PexelsSearcher{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type pexelsResponse struct {
	Photos []struct {
		ID  int64 `json:"id"`
		Src struct {
			Original string `json:"original"`
			Large2x  string `json:"large2x"`
			Large    string `json:"large"`
		} `json:"src"`
	} `json:"photos"`
}

func (p *PexelsSearcher) Search(ctx context.Context, query string, opts SearchOptions) ([]string, error) {
	if p.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("query", query)
	if opts.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	if opts.Orientation != "" {
		params.Set("orientation", opts.Orientation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pexels API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response pexelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	urls := make([]string, 0, len(response.Photos))
	for _, photo := range response.Photos {
		src := photo.Src.Large2x
		if src == "" {
			src = photo.Src.Large
		}
		if src == "" {
			src = photo.Src.Original
		}
		if src != "" {
			urls = append(urls, src)
		}
	}

	p.logger.Debug("Image search completed",
		zap.String("query", query),
		zap.Int("results", len(urls)))
	return urls, nil
}
