package agents

import (
	"context"
	"fmt"
	"strings"

	"mediloon/models"
)

// Safety checks every resolved product against the customer's allergies,
// current medications, and prescription requirements. It is the only stage
// allowed to reject on data the customer cannot change mid-session, so its
// rejection reasons must be explicit about why.
type Safety struct {
	Data SafetyData
}

func (a *Safety) Stage() models.Stage { return models.StageSafety }

func (a *Safety) Evaluate(ctx context.Context, snap *models.OrderSession) (Outcome, error) {
	profile, err := a.Data.Profile(ctx, snap.CustomerID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load profile: %w", err)
	}

	for _, item := range snap.LineItems {
		med, err := a.Data.Medicine(ctx, item.ProductRef)
		if err != nil {
			return Outcome{}, fmt.Errorf("load medicine %s: %w", item.ProductRef, err)
		}

		if allergen := allergyHit(profile.Allergies, med.ActiveIngredients); allergen != "" {
			return reject(fmt.Sprintf(
				"%s contains %s, which is on your allergy record; this check cannot be overridden in this order",
				med.Name, allergen)), nil
		}

		if other := interactionHit(profile.CurrentMedications, med.Interactions); other != "" {
			return reject(fmt.Sprintf(
				"%s has a flagged interaction with your current medication %s; please consult a pharmacist",
				med.Name, other)), nil
		}

		if med.Prescription == models.PrescriptionYes {
			ok, err := a.Data.HasPrescription(ctx, snap.CustomerID, med.SKU)
			if err != nil {
				return Outcome{}, fmt.Errorf("prescription lookup: %w", err)
			}
			if !ok {
				return clarify(
					fmt.Sprintf("prescription required for %s", med.Name),
					fmt.Sprintf("%s requires a prescription. Please upload one to continue.", med.Name),
				), nil
			}
		}
	}

	return approve("no contraindications found"), nil
}

func allergyHit(allergies, ingredients []string) string {
	for _, al := range allergies {
		for _, ing := range ingredients {
			if containsFold(ing, al) || containsFold(al, ing) {
				return al
			}
		}
	}
	return ""
}

func interactionHit(current, interactions []string) string {
	for _, cur := range current {
		for _, in := range interactions {
			if strings.EqualFold(cur, in) {
				return cur
			}
		}
	}
	return ""
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
