package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mediloon/catalog"
	"mediloon/dispatch"
	"mediloon/models"
)

// memMatcher ranks against a fixed catalog with the production scoring.
type memMatcher struct {
	meds []models.Medicine
	err  error
}

func (m *memMatcher) Match(_ context.Context, name, strength string) ([]catalog.Match, error) {
	if m.err != nil {
		return nil, m.err
	}
	return catalog.Rank(m.meds, name, strength), nil
}

type memData struct {
	profile       models.CustomerProfile
	meds          map[string]models.Medicine
	stock         map[string]models.StockRecord
	prescriptions map[string]bool
}

func (d *memData) Profile(_ context.Context, _ string) (models.CustomerProfile, error) {
	return d.profile, nil
}

func (d *memData) Medicine(_ context.Context, sku string) (models.Medicine, error) {
	med, ok := d.meds[sku]
	if !ok {
		return med, ErrUnknownSKU
	}
	return med, nil
}

func (d *memData) HasPrescription(_ context.Context, customerID, sku string) (bool, error) {
	return d.prescriptions[customerID+"/"+sku], nil
}

func (d *memData) Stock(_ context.Context, sku string) (models.StockRecord, error) {
	return d.stock[sku], nil
}

func aspirin100() models.Medicine {
	return models.Medicine{
		SKU:               "MED-ASP-100",
		Name:              "Aspirin",
		GenericName:       "acetylsalicylic acid",
		Aliases:           []string{"aspirine"},
		Strength:          "100mg",
		Form:              "tablet",
		ActiveIngredients: []string{"acetylsalicylic acid"},
		Interactions:      []string{"warfarin"},
		SupplierRef:       "sup-bayer",
		Prescription:      models.PrescriptionNo,
	}
}

func session(items ...models.LineItem) *models.OrderSession {
	return &models.OrderSession{
		SessionID:  "s1",
		CustomerID: "c1",
		Status:     models.StatusInReview,
		LineItems:  items,
	}
}

func TestOrderingResolvesSingleMatch(t *testing.T) {
	a := &Ordering{
		Catalog:   &memMatcher{meds: []models.Medicine{aspirin100()}},
		Threshold: 0.72,
		Margin:    0.08,
	}

	out, err := a.Evaluate(context.Background(), session(models.LineItem{Name: "aspirin", Strength: "100mg", Quantity: 30}))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Decision != models.DecisionApprove {
		t.Fatalf("decision %s, want approve", out.Decision)
	}
	if len(out.Items) != 1 || out.Items[0].ProductRef != "MED-ASP-100" {
		t.Fatalf("item not resolved: %+v", out.Items)
	}
	if out.Items[0].Name != "Aspirin" {
		t.Fatalf("name not canonicalized: %q", out.Items[0].Name)
	}
}

func TestOrderingClarifiesAmbiguousMatch(t *testing.T) {
	a500 := aspirin100()
	a500.SKU = "MED-ASP-500"
	a500.Strength = "500mg"
	a := &Ordering{
		Catalog:   &memMatcher{meds: []models.Medicine{aspirin100(), a500}},
		Threshold: 0.72,
		Margin:    0.08,
	}

	// No strength given: both dosage variants score identically.
	out, err := a.Evaluate(context.Background(), session(models.LineItem{Name: "aspirin", Quantity: 30}))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Decision != models.DecisionClarify {
		t.Fatalf("decision %s, want clarify", out.Decision)
	}
	if !strings.Contains(out.Prompt, "100mg") || !strings.Contains(out.Prompt, "500mg") {
		t.Fatalf("prompt does not list the candidates: %q", out.Prompt)
	}
}

func TestOrderingRejectsUnknownMedicine(t *testing.T) {
	a := &Ordering{
		Catalog:   &memMatcher{meds: []models.Medicine{aspirin100()}},
		Threshold: 0.72,
		Margin:    0.08,
	}
	out, err := a.Evaluate(context.Background(), session(models.LineItem{Name: "unobtanium", Quantity: 10}))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Decision != models.DecisionReject {
		t.Fatalf("decision %s, want reject", out.Decision)
	}
}

func TestOrderingRejectsInvalidQuantity(t *testing.T) {
	a := &Ordering{Catalog: &memMatcher{}, Threshold: 0.72, Margin: 0.08}
	out, err := a.Evaluate(context.Background(), session(models.LineItem{Name: "aspirin", Quantity: 0}))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Decision != models.DecisionReject {
		t.Fatalf("decision %s, want reject", out.Decision)
	}
}

func TestOrderingCatalogErrorIsTransient(t *testing.T) {
	a := &Ordering{
		Catalog:   &memMatcher{err: errors.New("mongo down")},
		Threshold: 0.72,
		Margin:    0.08,
	}
	if _, err := a.Evaluate(context.Background(), session(models.LineItem{Name: "aspirin", Quantity: 30})); err == nil {
		t.Fatal("expected transient error")
	}
}

func TestSafetyRejectsAllergy(t *testing.T) {
	data := &memData{
		profile: models.CustomerProfile{CustomerID: "c1", Allergies: []string{"acetylsalicylic acid"}},
		meds:    map[string]models.Medicine{"MED-ASP-100": aspirin100()},
	}
	a := &Safety{Data: data}

	out, err := a.Evaluate(context.Background(), session(models.LineItem{Name: "Aspirin", ProductRef: "MED-ASP-100", Quantity: 30}))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Decision != models.DecisionReject {
		t.Fatalf("decision %s, want reject", out.Decision)
	}
	if !strings.Contains(out.Reason, "cannot be overridden") {
		t.Fatalf("rejection must state it is not overridable: %q", out.Reason)
	}
}

func TestSafetyRejectsInteraction(t *testing.T) {
	data := &memData{
		profile: models.CustomerProfile{CustomerID: "c1", CurrentMedications: []string{"Warfarin"}},
		meds:    map[string]models.Medicine{"MED-ASP-100": aspirin100()},
	}
	a := &Safety{Data: data}

	out, err := a.Evaluate(context.Background(), session(models.LineItem{Name: "Aspirin", ProductRef: "MED-ASP-100", Quantity: 30}))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Decision != models.DecisionReject {
		t.Fatalf("decision %s, want reject", out.Decision)
	}
}

func TestSafetyClarifiesMissingPrescription(t *testing.T) {
	amoxi := models.Medicine{
		SKU:          "MED-AMX-500",
		Name:         "Amoxicillin",
		Strength:     "500mg",
		Prescription: models.PrescriptionYes,
	}
	data := &memData{
		meds:          map[string]models.Medicine{"MED-AMX-500": amoxi},
		prescriptions: map[string]bool{},
	}
	a := &Safety{Data: data}
	snap := session(models.LineItem{Name: "Amoxicillin", ProductRef: "MED-AMX-500", Quantity: 20})

	out, err := a.Evaluate(context.Background(), snap)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Decision != models.DecisionClarify {
		t.Fatalf("decision %s, want clarify", out.Decision)
	}

	// With the prescription on file the same snapshot passes.
	data.prescriptions["c1/MED-AMX-500"] = true
	out, err = a.Evaluate(context.Background(), snap)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Decision != models.DecisionApprove {
		t.Fatalf("decision %s, want approve", out.Decision)
	}
}

func TestForecastRaisesIntentOnShortfall(t *testing.T) {
	data := &memData{
		meds:  map[string]models.Medicine{"MED-ASP-100": aspirin100()},
		stock: map[string]models.StockRecord{"MED-ASP-100": {SKU: "MED-ASP-100", Available: 10, Reserved: 5}},
	}
	a := &Forecast{Data: data}

	out, err := a.Evaluate(context.Background(), session(models.LineItem{Name: "Aspirin", ProductRef: "MED-ASP-100", Quantity: 30}))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Decision != models.DecisionApprove {
		t.Fatalf("shortfall must not block, got %s", out.Decision)
	}
	if len(out.Intents) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(out.Intents))
	}
	intent := out.Intents[0]
	if intent.Quantity != 25 {
		t.Fatalf("intent quantity %d, want shortfall 25", intent.Quantity)
	}
	if intent.Status != models.IntentPending {
		t.Fatalf("intent status %s, want pending", intent.Status)
	}
	if intent.SupplierRef != "sup-bayer" {
		t.Fatalf("supplier %s, want sup-bayer", intent.SupplierRef)
	}
}

func TestForecastApprovesWhenStockCovers(t *testing.T) {
	data := &memData{
		meds:  map[string]models.Medicine{"MED-ASP-100": aspirin100()},
		stock: map[string]models.StockRecord{"MED-ASP-100": {SKU: "MED-ASP-100", Available: 100}},
	}
	a := &Forecast{Data: data}

	out, err := a.Evaluate(context.Background(), session(models.LineItem{Name: "Aspirin", ProductRef: "MED-ASP-100", Quantity: 30}))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Decision != models.DecisionApprove || len(out.Intents) != 0 {
		t.Fatalf("expected clean approve, got %s with %d intents", out.Decision, len(out.Intents))
	}
}

func TestForecastRejectsDiscontinued(t *testing.T) {
	med := aspirin100()
	med.Discontinued = true
	data := &memData{meds: map[string]models.Medicine{"MED-ASP-100": med}}
	a := &Forecast{Data: data}

	out, err := a.Evaluate(context.Background(), session(models.LineItem{Name: "Aspirin", ProductRef: "MED-ASP-100", Quantity: 30}))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Decision != models.DecisionReject {
		t.Fatalf("decision %s, want reject", out.Decision)
	}
}

type recordingDispatcher struct {
	purchases []models.PurchaseRequest
	err       error
}

func (d *recordingDispatcher) Notify(_ context.Context, _ models.NotifyRequest) (dispatch.Ack, error) {
	return dispatch.Ack{}, nil
}

func (d *recordingDispatcher) Purchase(_ context.Context, req models.PurchaseRequest) (dispatch.Ack, error) {
	if d.err != nil {
		return dispatch.Ack{}, d.err
	}
	d.purchases = append(d.purchases, req)
	return dispatch.Ack{DispatchID: "d1"}, nil
}

func TestProcurementDispatchesPendingOnly(t *testing.T) {
	disp := &recordingDispatcher{}
	a := &Procurement{Dispatcher: disp}

	snap := session(models.LineItem{Name: "Aspirin", ProductRef: "MED-ASP-100", Quantity: 30})
	snap.PurchaseIntents = []models.PurchaseIntent{
		{IntentID: "int-1", LineItemRef: "MED-ASP-100", Quantity: 25, Status: models.IntentPending},
		{IntentID: "int-2", LineItemRef: "MED-PAR-500", Quantity: 10, Status: models.IntentSent},
	}

	out, err := a.Evaluate(context.Background(), snap)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Decision != models.DecisionApprove {
		t.Fatalf("decision %s, want approve", out.Decision)
	}
	if len(disp.purchases) != 1 || disp.purchases[0].IntentID != "int-1" {
		t.Fatalf("expected only the pending intent dispatched, got %+v", disp.purchases)
	}
	if len(out.Intents) != 1 || out.Intents[0].Status != models.IntentSent {
		t.Fatalf("dispatched intent not marked sent: %+v", out.Intents)
	}
}

func TestProcurementDispatchErrorIsTransient(t *testing.T) {
	a := &Procurement{Dispatcher: &recordingDispatcher{err: errors.New("redis down")}}
	snap := session()
	snap.PurchaseIntents = []models.PurchaseIntent{
		{IntentID: "int-1", Status: models.IntentPending},
	}
	if _, err := a.Evaluate(context.Background(), snap); err == nil {
		t.Fatal("expected transient error")
	}
}
