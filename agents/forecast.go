package agents

import (
	"context"
	"fmt"
	"time"

	"mediloon/models"

	"github.com/google/uuid"
)

// Forecast decides whether stock covers the order. A shortfall on a live
// product produces a pending PurchaseIntent instead of blocking the order;
// only a discontinued product rejects.
type Forecast struct {
	Data StockData
}

func (a *Forecast) Stage() models.Stage { return models.StageForecast }

func (a *Forecast) Evaluate(ctx context.Context, snap *models.OrderSession) (Outcome, error) {
	var intents []models.PurchaseIntent

	for _, item := range snap.LineItems {
		med, err := a.Data.Medicine(ctx, item.ProductRef)
		if err != nil {
			return Outcome{}, fmt.Errorf("load medicine %s: %w", item.ProductRef, err)
		}
		if med.Discontinued {
			return reject(fmt.Sprintf("%s has been discontinued", med.Name)), nil
		}

		stock, err := a.Data.Stock(ctx, item.ProductRef)
		if err != nil {
			return Outcome{}, fmt.Errorf("load stock %s: %w", item.ProductRef, err)
		}

		available := stock.Available - stock.Reserved
		if available >= item.Quantity {
			continue
		}

		// Intent quantity is the shortfall; reorder padding is the
		// prediction service's business, not the pipeline's.
		intents = append(intents, models.PurchaseIntent{
			IntentID:    uuid.NewString(),
			SupplierRef: supplierFor(med),
			LineItemRef: item.ProductRef,
			Quantity:    item.Quantity - available,
			Status:      models.IntentPending,
			CreatedAt:   time.Now(),
		})
	}

	var out Outcome
	if len(intents) == 0 {
		out = approve("stock covers the order")
	} else {
		out = approve(fmt.Sprintf("stock shortfall, %d purchase intent(s) raised", len(intents)))
		out.Intents = intents
	}
	return out, nil
}

func supplierFor(med models.Medicine) string {
	if med.SupplierRef != "" {
		return med.SupplierRef
	}
	return "default-supplier"
}
