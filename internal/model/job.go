package model

import (
	"errors"
	"time"
)

var (
	ErrJobNotFound   = errors.New("job not found")
	ErrBatchNotFound = errors.New("batch not found")
	ErrBatchTooLarge = errors.New("batch size over limit")
	ErrBatchEmpty    = errors.New("batch is empty")
)

// Job wraps a GenerationRequest tracked by the queue. Job ids are opaque to
// callers; only uniqueness and stability are guaranteed.
type Job struct {
	ID          string            `json:"id"`
	BatchID     string            `json:"batchId,omitempty"`
	Phase       JobPhase          `json:"phase"`
	Progress    int               `json:"progress"`
	CurrentStep string            `json:"currentStep,omitempty"`
	ETASeconds  *int              `json:"etaSeconds,omitempty"`
	Error       *string           `json:"error,omitempty"`
	Request     GenerationRequest `json:"request"`
	Result      *GenerationResult `json:"result,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	StartedAt   *time.Time        `json:"startedAt,omitempty"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}

// EnqueueRequest is the async API request body.
type EnqueueRequest struct {
	GenerationRequest
	PreferredProvider string `json:"preferredProvider" validate:"omitempty,oneof=openai anthropic gemini mock"`
}

// EnqueueResponse acknowledges an accepted job.
type EnqueueResponse struct {
	JobID     string    `json:"jobId"`
	Phase     JobPhase  `json:"phase"`
	CreatedAt time.Time `json:"createdAt"`
}

// BatchEnqueueRequest fans out N independent jobs under one batch tag.
type BatchEnqueueRequest struct {
	Requests          []GenerationRequest `json:"requests" validate:"required,min=1,dive"`
	PreferredProvider string              `json:"preferredProvider" validate:"omitempty,oneof=openai anthropic gemini mock"`
}

// BatchEnqueueResponse acknowledges an accepted batch.
type BatchEnqueueResponse struct {
	BatchID string   `json:"batchId"`
	JobIDs  []string `json:"jobIds"`
}

// BatchProgress is derived from member jobs on every read, never stored.
type BatchProgress struct {
	BatchID   string `json:"batchId"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Errored   int    `json:"errored"`
	Jobs      []Job  `json:"jobs"`
}

// QueueStats summarizes queue occupancy for health/monitoring surfaces.
type QueueStats struct {
	Queued    int64 `json:"queued"`
	InFlight  int64 `json:"inFlight"`
	Completed int64 `json:"completed"`
	Errored   int64 `json:"errored"`
}
