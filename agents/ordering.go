package agents

import (
	"context"
	"fmt"
	"strings"

	"mediloon/catalog"
	"mediloon/models"
)

// Ordering resolves every line item to exactly one catalog product. It asks
// for clarification when two products are equally plausible and rejects when
// nothing in the catalog matches.
type Ordering struct {
	Catalog   catalog.Matcher
	Threshold float64 // minimum similarity to consider a match
	Margin    float64 // score gap below which two matches are "equally plausible"
}

func (a *Ordering) Stage() models.Stage { return models.StageOrdering }

func (a *Ordering) Evaluate(ctx context.Context, snap *models.OrderSession) (Outcome, error) {
	if len(snap.LineItems) == 0 {
		return clarify("empty order",
			"Which medicine would you like to order? For example: 'Paracetamol 500mg, 30 tablets'."), nil
	}

	items := append([]models.LineItem(nil), snap.LineItems...)

	for i, item := range items {
		if item.Quantity <= 0 {
			return reject(fmt.Sprintf("invalid quantity for %s", item.Name)), nil
		}
		if item.Resolved() {
			continue
		}

		matches, err := a.Catalog.Match(ctx, item.Name, item.Strength)
		if err != nil {
			return Outcome{}, fmt.Errorf("catalog lookup for %q: %w", item.Name, err)
		}

		var usable []catalog.Match
		for _, m := range matches {
			if m.Score >= a.Threshold {
				usable = append(usable, m)
			}
		}

		switch {
		case len(usable) == 0:
			return reject(fmt.Sprintf("no product matches %q", item.Name)), nil

		case len(usable) > 1 && usable[0].Score-usable[1].Score < a.Margin:
			return clarify(
				fmt.Sprintf("ambiguous match for %q", item.Name),
				ambiguityPrompt(item.Name, usable),
			), nil

		default:
			med := usable[0].Medicine
			items[i].ProductRef = med.SKU
			items[i].Name = med.Name
			if items[i].Strength == "" {
				items[i].Strength = med.Strength
			}
			if items[i].Confidence < usable[0].Score {
				items[i].Confidence = usable[0].Score
			}
		}
	}

	out := approve("all line items resolved")
	out.Items = items
	return out, nil
}

func ambiguityPrompt(name string, matches []catalog.Match) string {
	var opts []string
	for i, m := range matches {
		if i == 4 {
			break
		}
		opts = append(opts, fmt.Sprintf("%s %s (%s)", m.Medicine.Name, m.Medicine.Strength, m.Medicine.Form))
	}
	return fmt.Sprintf("I found several products matching %q: %s. Which one did you mean?",
		name, strings.Join(opts, "; "))
}
