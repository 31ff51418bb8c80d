package catalog

import (
	"testing"

	"mediloon/models"
)

func meds() []models.Medicine {
	return []models.Medicine{
		{SKU: "MED-ASP-100", Name: "Aspirin", GenericName: "acetylsalicylic acid", Strength: "100mg"},
		{SKU: "MED-ASP-500", Name: "Aspirin", GenericName: "acetylsalicylic acid", Strength: "500mg"},
		{SKU: "MED-PAR-500", Name: "Paracetamol", Aliases: []string{"tylenol", "acetaminophen"}, Strength: "500mg"},
		{SKU: "MED-IBU-200", Name: "Ibuprofen", Strength: "200mg"},
	}
}

func TestRankStrengthBreaksTie(t *testing.T) {
	matches := Rank(meds(), "aspirin", "100mg")
	if len(matches) < 2 {
		t.Fatalf("expected both aspirin variants, got %d matches", len(matches))
	}
	if matches[0].Medicine.SKU != "MED-ASP-100" {
		t.Fatalf("best match %s, want MED-ASP-100", matches[0].Medicine.SKU)
	}
	if matches[0].Score <= matches[1].Score {
		t.Fatalf("strength match must outrank: %v vs %v", matches[0].Score, matches[1].Score)
	}
}

func TestRankWithoutStrengthIsAmbiguous(t *testing.T) {
	matches := Rank(meds(), "aspirin", "")
	if len(matches) < 2 {
		t.Fatalf("expected both aspirin variants, got %d", len(matches))
	}
	if matches[0].Score != matches[1].Score {
		t.Fatalf("dosage variants should tie without a strength: %v vs %v", matches[0].Score, matches[1].Score)
	}
}

func TestSimilarityAlias(t *testing.T) {
	par := meds()[2]
	if got := Similarity(par, "tylenol", ""); got != 0.85 {
		t.Fatalf("alias score = %v, want 0.85", got)
	}
	if got := Similarity(par, "Paracetamol", "500mg"); got != 1.0 {
		t.Fatalf("exact name + strength = %v, want 1.0", got)
	}
}

func TestSimilarityGenericName(t *testing.T) {
	asp := meds()[0]
	if got := Similarity(asp, "acetylsalicylic acid", ""); got != 0.9 {
		t.Fatalf("generic name score = %v, want 0.9", got)
	}
}

func TestSimilarityNoMatch(t *testing.T) {
	if got := Similarity(meds()[3], "insulin", ""); got != 0 {
		t.Fatalf("unrelated query scored %v", got)
	}
	if got := Similarity(meds()[3], "", ""); got != 0 {
		t.Fatalf("empty query scored %v", got)
	}
}
