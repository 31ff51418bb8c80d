// Package webhooks receives the side-effect dispatcher's asynchronous
// callbacks: supplier confirmations for purchase intents and notification
// delivery receipts.
package webhooks

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"mediloon/models"
	"mediloon/pipeline"
	"mediloon/sessionstore"
	"mediloon/utils"

	"github.com/julienschmidt/httprouter"
)

type API struct {
	orch *pipeline.Orchestrator
}

func NewAPI(orch *pipeline.Orchestrator) *API {
	return &API{orch: orch}
}

type supplierCallback struct {
	SessionID string `json:"sessionId"`
	IntentID  string `json:"intentId"`
	Status    string `json:"status"` // "confirmed" | "failed"
	Detail    string `json:"detail"`
}

// Supplier applies a supplier confirmation or failure to a purchase intent.
func (a *API) Supplier(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var cb supplierCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid callback body")
		return
	}

	var status models.PurchaseIntentStatus
	switch cb.Status {
	case "confirmed":
		status = models.IntentConfirmed
	case "failed":
		status = models.IntentFailed
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "status must be confirmed or failed")
		return
	}

	err := a.orch.ResolveIntent(r.Context(), cb.SessionID, cb.IntentID, status)
	switch {
	case errors.Is(err, pipeline.ErrSessionBusy):
		// Ask the dispatcher to redeliver; it is at-least-once anyway.
		utils.RespondWithError(w, http.StatusConflict, "Session busy, redeliver")
		return
	case errors.Is(err, sessionstore.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Unknown session")
		return
	case err != nil:
		log.Printf("supplier callback %s/%s: %v", cb.SessionID, cb.IntentID, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to apply callback")
		return
	}

	if cb.Detail != "" {
		log.Printf("supplier callback %s: %s", cb.IntentID, cb.Detail)
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}

// NotifyReceipt acknowledges notification delivery receipts. Delivery state
// is the dispatcher's concern; we just log failures for operators.
func (a *API) NotifyReceipt(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var receipt struct {
		DispatchID string `json:"dispatchId"`
		Delivered  bool   `json:"delivered"`
		Detail     string `json:"detail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&receipt); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid receipt body")
		return
	}
	if !receipt.Delivered {
		log.Printf("notification %s failed: %s", receipt.DispatchID, receipt.Detail)
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}
