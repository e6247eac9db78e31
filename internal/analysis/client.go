package analysis

import (
	"context"
	"errors"

	"github.com/speedwagon-io/stepsmon/internal/model"
)

var (
	ErrEmptyResponse = errors.New("empty response from model")
	ErrInvalidHazard = errors.New("hazard level outside LOW/MODERATE/HIGH")
	ErrEmptyWindow   = errors.New("no samples to summarize")
)

// Summary is the structured answer expected from a summarization backend.
type Summary struct {
	Summary     string            `json:"summary"`
	HazardLevel model.HazardLevel `json:"hazardLevel"`
}

// Client is a summarization backend handed the raw sample window. Backends
// that talk to a model build their own prompt with BuildPrompt. HasCredential
// is consulted before every call; a client without one is never asked to
// Summarize.
type Client interface {
	Summarize(ctx context.Context, samples []model.Sample) (Summary, error)
	HasCredential() bool
	Name() string
}
