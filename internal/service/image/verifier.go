package image

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// CheckResult is the outcome of a reachability probe.
type CheckResult struct {
	OK          bool
	StatusCode  int
	ContentType string
}

// Verifier probes whether a URL serves an image.
type Verifier interface {
	Check(ctx context.Context, url string, timeout time.Duration) CheckResult
}

// HTTPVerifier issues a HEAD request and accepts 200 responses with an
// image/* content type.
type HTTPVerifier struct {
	client *http.Client
}

func NewHTTPVerifier() *HTTPVerifier {
	return &HTTPVerifier{client: &http.Client{}}
}

func (v *HTTPVerifier) Check(ctx context.Context, url string, timeout time.Duration) CheckResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return CheckResult{}
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return CheckResult{}
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	return CheckResult{
		OK:          resp.StatusCode == http.StatusOK && strings.HasPrefix(strings.ToLower(contentType), "image/"),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
	}
}
