// Package medicines manages the product catalog and inventory records the
// pipeline's Ordering, Safety, and Forecast stages read.
package medicines

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"mediloon/db"
	"mediloon/models"
	"mediloon/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type API struct {
	store *db.Store
}

func NewAPI(store *db.Store) *API {
	return &API{store: store}
}

func (a *API) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var med models.Medicine
	if err := json.NewDecoder(r.Body).Decode(&med); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if med.SKU == "" || med.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "sku and name are required")
		return
	}
	med.CreatedAt = time.Now()
	med.UpdatedAt = med.CreatedAt

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	_, err := a.store.Medicines.UpdateOne(ctx,
		bson.M{"sku": med.SKU},
		bson.M{"$set": med},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db upsert failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, med)
}

func (a *API) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter := bson.M{}
	if q := r.URL.Query().Get("category"); q != "" {
		filter["category"] = q
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	cur, err := a.store.Medicines.Find(ctx, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var meds []models.Medicine
	if err := cur.All(ctx, &meds); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "decode error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"medicines": meds})
}

// SetStock replaces the inventory record for a SKU.
func (a *API) SetStock(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sku := ps.ByName("sku")
	var input struct {
		Available int `json:"available"`
		Reserved  int `json:"reserved"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if input.Available < 0 || input.Reserved < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "counts must be non-negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	_, err := a.store.Inventory.UpdateOne(ctx,
		bson.M{"sku": sku},
		bson.M{"$set": bson.M{
			"available": input.Available,
			"reserved":  input.Reserved,
			"updatedat": time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db upsert failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}
