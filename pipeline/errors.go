package pipeline

import (
	"errors"
	"fmt"

	"mediloon/models"
)

// ErrSessionBusy is surfaced when a second input arrives while the session's
// single writer is still processing. Callers should retry later; the input
// was not applied.
var ErrSessionBusy = errors.New("session busy")

// Reasons recorded for orchestrator-driven rejections.
const (
	ReasonStageUnavailable = "stage-unavailable"
	ReasonTimeout          = "timeout"
)

// stageUnavailableError marks a stage whose transient failures exhausted the
// retry budget. It is terminal: the orchestrator converts it into a rejected
// session, never an unbounded retry.
type stageUnavailableError struct {
	stage models.Stage
	last  error
}

func (e *stageUnavailableError) Error() string {
	return fmt.Sprintf("stage %s unavailable after retries: %v", e.stage, e.last)
}

func (e *stageUnavailableError) Unwrap() error { return e.last }
