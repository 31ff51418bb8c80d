package predict

import (
	"context"
	"net/http"
	"time"

	"mediloon/db"
	"mediloon/globals"
	"mediloon/models"
	"mediloon/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

type API struct {
	store *db.Store
}

func NewAPI(store *db.Store) *API {
	return &API{store: store}
}

// ForCustomer returns depletion predictions for every SKU the customer has
// ordered at least MinOrders times.
func (a *API) ForCustomer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, _ := r.Context().Value(globals.UserIDKey).(string)
	customerID := ps.ByName("userid")
	if requester != customerID {
		utils.RespondWithError(w, http.StatusForbidden, "Not your history")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cur, err := a.store.Orders.Find(ctx, bson.M{"customerid": customerID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var orders []models.CommittedOrder
	if err := cur.All(ctx, &orders); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "decode error")
		return
	}

	predictions := []Prediction{}
	for sku, history := range FromOrders(orders) {
		if p, ok := ForSKU(sku, history); ok {
			predictions = append(predictions, p)
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"predictions": predictions})
}
