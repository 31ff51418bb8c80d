// Package ordering exposes the conversational ordering endpoints: the chat
// turn, session inspection, prescription upload, and pickup receipts.
package ordering

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"mediloon/db"
	"mediloon/globals"
	"mediloon/medparse"
	"mediloon/models"
	"mediloon/pipeline"
	"mediloon/sessionstore"
	"mediloon/utils"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

type API struct {
	orch      *pipeline.Orchestrator
	store     *db.Store
	uploadDir string
}

func NewAPI(orch *pipeline.Orchestrator, store *db.Store, uploadDir string) *API {
	return &API{orch: orch, store: store, uploadDir: uploadDir}
}

type chatRequest struct {
	SessionID      string            `json:"sessionId"`
	Message        string            `json:"message"`
	Items          []models.LineItem `json:"items"`
	IdempotencyKey string            `json:"idempotencyKey"`
	Language       string            `json:"language"`
}

// Chat applies one customer turn to an ordering session.
func (a *API) Chat(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerID, _ := r.Context().Value(globals.UserIDKey).(string)
	if customerID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" && len(req.Items) == 0 && req.SessionID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Message or items required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	reply, err := a.orch.HandleInput(r.Context(), pipeline.Input{
		SessionID:      req.SessionID,
		CustomerID:     customerID,
		RawText:        req.Message,
		Items:          req.Items,
		IdempotencyKey: req.IdempotencyKey,
		Language:       req.Language,
	})
	switch {
	case errors.Is(err, pipeline.ErrSessionBusy):
		utils.RespondWithError(w, http.StatusConflict, "Session busy, retry shortly")
		return
	case errors.Is(err, medparse.ErrUnintelligibleInput):
		utils.RespondWithError(w, http.StatusUnprocessableEntity,
			"Sorry, I couldn't find a medicine in that. Try something like 'Paracetamol 500mg, 30 tablets'.")
		return
	case err != nil:
		log.Printf("chat: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to process input")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, reply)
}

// GetSession returns the current session state, stage history included.
func (a *API) GetSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sess, err := a.orch.Session(r.Context(), ps.ByName("sessionid"))
	if errors.Is(err, sessionstore.ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}

	customerID, _ := r.Context().Value(globals.UserIDKey).(string)
	if sess.CustomerID != customerID {
		utils.RespondWithError(w, http.StatusForbidden, "Not your session")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, sess)
}

// UploadPrescription stores a prescription image for a SKU and resumes the
// suspended Safety stage.
func (a *API) UploadPrescription(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	customerID, _ := r.Context().Value(globals.UserIDKey).(string)
	if customerID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	sessionID := ps.ByName("sessionid")

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Prescription file required")
		return
	}
	defer file.Close()

	sku := r.FormValue("sku")
	if sku == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "sku is required")
		return
	}

	filename, thumb, err := utils.SaveImage(file, header, a.uploadDir, 1600)
	if err != nil {
		log.Printf("prescription save: %v", err)
		utils.RespondWithError(w, http.StatusBadRequest, "Could not read prescription image")
		return
	}

	doc := models.PrescriptionDoc{
		PrescriptionID: uuid.NewString(),
		CustomerID:     customerID,
		SKU:            sku,
		Path:           filename,
		Thumbnail:      thumb,
		UploadedAt:     time.Now(),
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if _, err := a.store.Prescriptions.InsertOne(ctx, doc); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to record prescription")
		return
	}

	// Re-enter the suspended stage now that the document is on file.
	reply, err := a.orch.HandleInput(r.Context(), pipeline.Input{
		SessionID:      sessionID,
		CustomerID:     customerID,
		IdempotencyKey: "rx-" + doc.PrescriptionID,
	})
	if errors.Is(err, pipeline.ErrSessionBusy) {
		utils.RespondWithError(w, http.StatusConflict, "Session busy, retry shortly")
		return
	}
	if err != nil {
		log.Printf("resume after prescription: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Prescription saved but resume failed")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"prescriptionId": doc.PrescriptionID,
		"session":        reply,
	})
}

// History lists a customer's committed orders.
func (a *API) History(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerID, _ := r.Context().Value(globals.UserIDKey).(string)
	if customerID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	cur, err := a.store.Orders.Find(ctx, bson.M{"customerid": customerID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load orders")
		return
	}
	defer cur.Close(ctx)

	var orders []models.CommittedOrder
	if err := cur.All(ctx, &orders); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode orders")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"orders": orders})
}
