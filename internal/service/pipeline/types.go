package pipeline

import (
	"context"
)

const (
	MinBatchSize = 1
	MaxBatchSize = 5
)

// CallerKind distinguishes scheduled runs from interactive admin runs.
type CallerKind int

const (
	ServiceCaller CallerKind = iota
	AuthenticatedAdmin
)

func (k CallerKind) String() string {
	switch k {
	case ServiceCaller:
		return "service"
	case AuthenticatedAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Caller carries the credential presented with a request: the shared
// secret for a ServiceCaller, the session token for an AuthenticatedAdmin.
type Caller struct {
	Kind       CallerKind
	Credential string
}

// Request asks for one batch of articles.
type Request struct {
	Count  int
	Caller Caller
}

// Authorizer decides whether a caller may trigger generation.
type Authorizer interface {
	IsServiceCaller(secret string) bool
	IsAdmin(ctx context.Context, token string) (bool, error)
}

// BlogSummary describes one generated article.
type BlogSummary struct {
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Category string `json:"category"`
	HasImage bool   `json:"hasImage"`
}

// BatchResult is returned for every authorized, valid request, even when
// no item succeeded. Callers must inspect Count and Errors.
type BatchResult struct {
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Blogs   []BlogSummary `json:"blogs"`
	Errors  []string      `json:"errors,omitempty"`
	Message string        `json:"message"`
	Skipped bool          `json:"skipped,omitempty"`
	BatchID string        `json:"batchId,omitempty"`
}
