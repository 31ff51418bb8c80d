package predict

import (
	"testing"
	"time"

	"mediloon/models"
)

func day(offset int) time.Time {
	return time.Now().AddDate(0, 0, offset)
}

func TestForSKURegularRefills(t *testing.T) {
	history := []OrderPoint{
		{Date: day(-90), Quantity: 30},
		{Date: day(-60), Quantity: 30},
		{Date: day(-30), Quantity: 30},
		{Date: day(0), Quantity: 30},
	}

	p, ok := ForSKU("MED-ASP-100", history)
	if !ok {
		t.Fatal("expected a prediction for a regular refill history")
	}
	if p.DailyConsumption != 1.0 {
		t.Errorf("daily consumption = %v, want 1.0", p.DailyConsumption)
	}
	wantDepletion := day(30)
	if diff := p.DepletionDate.Sub(wantDepletion); diff < -24*time.Hour || diff > 24*time.Hour {
		t.Errorf("depletion %v, want about %v", p.DepletionDate, wantDepletion)
	}
	if p.Confidence != ConfidenceHigh {
		t.Errorf("confidence = %s, want high for identical intervals", p.Confidence)
	}
	if p.SuggestedQuantity != 30 {
		t.Errorf("suggested quantity = %d, want 30", p.SuggestedQuantity)
	}
	if !p.SuggestedReorder.Before(p.DepletionDate) {
		t.Error("reorder date must precede depletion")
	}
}

func TestForSKUThinHistory(t *testing.T) {
	history := []OrderPoint{
		{Date: day(-30), Quantity: 30},
		{Date: day(0), Quantity: 30},
	}
	if _, ok := ForSKU("MED-ASP-100", history); ok {
		t.Fatal("two orders are not enough to predict from")
	}
}

func TestForSKUErraticHistoryScoresLow(t *testing.T) {
	history := []OrderPoint{
		{Date: day(-200), Quantity: 10},
		{Date: day(-197), Quantity: 60},
		{Date: day(-100), Quantity: 5},
		{Date: day(0), Quantity: 90},
	}
	p, ok := ForSKU("MED-ASP-100", history)
	if !ok {
		t.Fatal("expected a prediction")
	}
	if p.Confidence == ConfidenceHigh {
		t.Fatalf("erratic intervals scored high (%v)", p.ConfidenceScore)
	}
}

func TestShouldNotifyNearDepletion(t *testing.T) {
	history := []OrderPoint{
		{Date: day(-85), Quantity: 30},
		{Date: day(-55), Quantity: 30},
		{Date: day(-25), Quantity: 30},
	}
	p, ok := ForSKU("MED-ASP-100", history)
	if !ok {
		t.Fatal("expected a prediction")
	}
	if !ShouldNotify(p) {
		t.Fatalf("depletion at %v should trigger a notification", p.DepletionDate)
	}
}

func TestFromOrdersGroupsBySKU(t *testing.T) {
	orders := []models.CommittedOrder{
		{
			CreatedAt: day(-30),
			Items: []models.LineItem{
				{Name: "Aspirin", ProductRef: "MED-ASP-100", Quantity: 30},
				{Name: "unresolved", Quantity: 5},
			},
		},
		{
			CreatedAt: day(0),
			Items: []models.LineItem{
				{Name: "Aspirin", ProductRef: "MED-ASP-100", Quantity: 30},
			},
		},
	}
	bySKU := FromOrders(orders)
	if len(bySKU) != 1 {
		t.Fatalf("expected 1 SKU, got %d", len(bySKU))
	}
	if pts := bySKU["MED-ASP-100"]; len(pts) != 2 {
		t.Fatalf("expected 2 points for MED-ASP-100, got %d", len(pts))
	}
}
