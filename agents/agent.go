// Package agents holds the four pipeline decision units. Each agent is pure
// with respect to the orchestrator: it reads an immutable session snapshot
// and returns everything it wants changed; it never touches the live
// session or performs side effects itself.
package agents

import (
	"context"

	"mediloon/models"
)

// Outcome is what one stage evaluation produced.
type Outcome struct {
	Decision models.Decision
	Reason   string

	// Prompt is the customer-facing question when Decision is clarify.
	Prompt string

	// Items, when non-nil, replaces the session's line items (the
	// Ordering stage resolves product references this way).
	Items []models.LineItem

	// Intents are purchase intents to merge into the session by IntentID:
	// new ones are appended, known ones replaced (status updates).
	Intents []models.PurchaseIntent
}

// Agent evaluates an order snapshot. Returned errors are treated as
// transient and retried by the orchestrator; definitive outcomes (including
// rejections) are expressed through Outcome.
type Agent interface {
	Stage() models.Stage
	Evaluate(ctx context.Context, snap *models.OrderSession) (Outcome, error)
}

func approve(reason string) Outcome {
	return Outcome{Decision: models.DecisionApprove, Reason: reason}
}

func reject(reason string) Outcome {
	return Outcome{Decision: models.DecisionReject, Reason: reason}
}

func clarify(reason, prompt string) Outcome {
	return Outcome{Decision: models.DecisionClarify, Reason: reason, Prompt: prompt}
}
