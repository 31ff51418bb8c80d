package medparse

import (
	"errors"
	"testing"
)

func TestExtractFullRequest(t *testing.T) {
	items, err := New().Extract("Aspirin 100mg 30 tablets", "en")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.Name != "aspirin" {
		t.Errorf("name = %q, want aspirin", item.Name)
	}
	if item.Strength != "100mg" {
		t.Errorf("strength = %q, want 100mg", item.Strength)
	}
	if item.Quantity != 30 {
		t.Errorf("quantity = %d, want 30", item.Quantity)
	}
	if item.Form != "tablet" {
		t.Errorf("form = %q, want tablet", item.Form)
	}
	if item.Confidence < 0.6 {
		t.Errorf("confidence = %v, want >= 0.6", item.Confidence)
	}
}

func TestExtractBrandAlias(t *testing.T) {
	items, err := New().Extract("I need some Tylenol please", "en")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Name != "paracetamol" {
		t.Errorf("name = %q, want canonical paracetamol", items[0].Name)
	}
	if items[0].Quantity != 30 {
		t.Errorf("quantity = %d, want default 30", items[0].Quantity)
	}
}

func TestExtractMultipleMedicines(t *testing.T) {
	items, err := New().Extract("Paracetamol 500mg and ibuprofen 200mg", "en")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}
	if items[0].Name != "paracetamol" || items[1].Name != "ibuprofen" {
		t.Errorf("names = %q, %q", items[0].Name, items[1].Name)
	}
}

func TestExtractDosageNotMistakenForQuantity(t *testing.T) {
	items, err := New().Extract("Ibuprofen 400mg", "en")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if items[0].Quantity != 30 {
		t.Errorf("quantity = %d, dosage number must not become quantity", items[0].Quantity)
	}
	if items[0].Strength != "400mg" {
		t.Errorf("strength = %q, want 400mg", items[0].Strength)
	}
}

func TestExtractUnintelligible(t *testing.T) {
	if _, err := New().Extract("hm ok", "en"); !errors.Is(err, ErrUnintelligibleInput) {
		t.Fatalf("got %v, want ErrUnintelligibleInput", err)
	}
}
