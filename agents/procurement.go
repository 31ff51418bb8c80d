package agents

import (
	"context"
	"fmt"

	"mediloon/dispatch"
	"mediloon/models"
)

// Procurement hands pending purchase intents to the side-effect dispatcher.
// The dispatch acknowledgment is what it waits for; supplier confirmation
// arrives later on the webhook callback and never holds up the order.
type Procurement struct {
	Dispatcher dispatch.Dispatcher
}

func (a *Procurement) Stage() models.Stage { return models.StageProcurement }

func (a *Procurement) Evaluate(ctx context.Context, snap *models.OrderSession) (Outcome, error) {
	var updated []models.PurchaseIntent
	dispatched := 0

	for _, intent := range snap.PurchaseIntents {
		if intent.Status != models.IntentPending {
			continue
		}

		_, err := a.Dispatcher.Purchase(ctx, models.PurchaseRequest{
			IntentID:    intent.IntentID,
			SessionID:   snap.SessionID,
			SupplierRef: intent.SupplierRef,
			SKU:         intent.LineItemRef,
			Quantity:    intent.Quantity,
		})
		if err != nil {
			// Dispatch failure is transient: the orchestrator retries the
			// whole stage and already-sent intents are skipped above.
			return Outcome{}, fmt.Errorf("dispatch purchase %s: %w", intent.IntentID, err)
		}

		intent.Status = models.IntentSent
		updated = append(updated, intent)
		dispatched++
	}

	var out Outcome
	if dispatched == 0 {
		out = approve("no procurement needed")
	} else {
		out = approve(fmt.Sprintf("%d supplier request(s) dispatched", dispatched))
		out.Intents = updated
	}
	return out, nil
}
