package pipeline

import (
	"errors"
	"fmt"
)

// Batch-fatal errors. They are returned before any item starts.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("admin role required")
	ErrInvalidCount  = errors.New("count must be between 1 and 5")
	ErrMissingAPIKey = errors.New("language model api key is not configured")
)

// IsValidation reports whether err rejects the request itself.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidCount) || errors.Is(err, ErrMissingAPIKey)
}

// Stage names a step of the single-item pipeline.
type Stage string

const (
	StageSelecting      Stage = "selecting"
	StageGenerating     Stage = "generating"
	StageParsing        Stage = "parsing"
	StageResolvingImage Stage = "resolving_image"
	StageAssigningSlug  Stage = "assigning_slug"
	StagePersisting     Stage = "persisting"
	StageCommenting     Stage = "commenting"
	StageDone           Stage = "done"
)

// StageError is an item failure. It never aborts the batch.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
