package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/cinesrc/cinesrc/network"
	"github.com/cinesrc/cinesrc/source"
)

// FailureKind classifies why a driver produced nothing.
type FailureKind string

const (
	FailureNotFound    FailureKind = "not-found"
	FailureMalformed   FailureKind = "malformed"
	FailureCancelled   FailureKind = "cancelled"
	FailureUnsupported FailureKind = "unsupported"
	FailureError       FailureKind = "error"
)

// Classify maps a driver error onto a FailureKind.
func Classify(err error) FailureKind {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCancelled
	case errors.Is(err, source.ErrNotFound):
		return FailureNotFound
	case errors.Is(err, source.ErrMalformed), errors.Is(err, network.ErrDecode):
		return FailureMalformed
	case errors.Is(err, source.ErrUnsupported):
		return FailureUnsupported
	default:
		return FailureError
	}
}

// Result is one playable stream and the drivers that produced it.
type Result struct {
	SourceID string `json:"sourceId,omitempty"`
	// EmbedID is empty for streams a source returned directly.
	EmbedID string        `json:"embedId,omitempty"`
	Stream  source.Stream `json:"stream"`
}

// Failure records a driver call that produced nothing.
type Failure struct {
	SourceID string      `json:"sourceId,omitempty"`
	EmbedID  string      `json:"embedId,omitempty"`
	Kind     FailureKind `json:"kind"`
	Message  string      `json:"error"`
	Err      error       `json:"-"`
}

func newFailure(sourceID, embedID string, err error) Failure {
	return Failure{
		SourceID: sourceID,
		EmbedID:  embedID,
		Kind:     Classify(err),
		Message:  err.Error(),
		Err:      err,
	}
}

func (f Failure) Error() string {
	if f.EmbedID == "" {
		return fmt.Sprintf("%s: %s", f.SourceID, f.Message)
	}
	if f.SourceID == "" {
		return fmt.Sprintf("%s: %s", f.EmbedID, f.Message)
	}
	return fmt.Sprintf("%s/%s: %s", f.SourceID, f.EmbedID, f.Message)
}

// Report is the outcome of a run.
type Report struct {
	Media    source.Media `json:"media"`
	Results  []Result     `json:"results"`
	Failures []Failure    `json:"failures"`
}

// UnknownDriverError is returned when an id names no registered driver.
type UnknownDriverError struct {
	ID string
}

func (e *UnknownDriverError) Error() string {
	return fmt.Sprintf("unknown driver %q", e.ID)
}
