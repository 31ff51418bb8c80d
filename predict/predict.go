// Package predict estimates when a customer's recurring medicines run out,
// from their committed order history, and suggests a reorder date and
// quantity.
package predict

import (
	"math"
	"sort"
	"time"

	"mediloon/models"
)

const (
	// MinOrders is the history floor below which no prediction is made.
	MinOrders = 3

	highConfidence  = 0.7
	reorderLeadDays = 7
)

// Confidence buckets for a prediction.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// OrderPoint is one historical purchase of a SKU.
type OrderPoint struct {
	Date     time.Time
	Quantity int
}

// Prediction is the depletion estimate for one SKU.
type Prediction struct {
	SKU               string     `json:"sku"`
	DailyConsumption  float64    `json:"dailyConsumption"`
	DepletionDate     time.Time  `json:"depletionDate"`
	SuggestedReorder  time.Time  `json:"suggestedReorder"`
	SuggestedQuantity int        `json:"suggestedQuantity"`
	Confidence        Confidence `json:"confidence"`
	ConfidenceScore   float64    `json:"confidenceScore"`
}

// ForSKU predicts depletion from a purchase history. Returns false when the
// history is too thin or too irregular to say anything.
func ForSKU(sku string, history []OrderPoint) (Prediction, bool) {
	if len(history) < MinOrders {
		return Prediction{}, false
	}

	pts := append([]OrderPoint(nil), history...)
	sort.Slice(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })

	rate := consumptionRate(pts)
	if rate <= 0 {
		return Prediction{}, false
	}

	last := pts[len(pts)-1]
	daysToDeplete := float64(last.Quantity) / rate
	depletion := last.Date.AddDate(0, 0, int(daysToDeplete))

	reorder := depletion.AddDate(0, 0, -reorderLeadDays)
	if today := time.Now().Truncate(24 * time.Hour); reorder.Before(today) {
		reorder = today
	}

	score := intervalConsistency(pts)

	// Suggested quantity: average of the last three orders.
	tail := pts
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}
	sum := 0
	for _, p := range tail {
		sum += p.Quantity
	}

	return Prediction{
		SKU:               sku,
		DailyConsumption:  math.Round(rate*100) / 100,
		DepletionDate:     depletion,
		SuggestedReorder:  reorder,
		SuggestedQuantity: sum / len(tail),
		Confidence:        level(score),
		ConfidenceScore:   math.Round(score*100) / 100,
	}, true
}

// consumptionRate averages quantity-consumed-per-day across order gaps.
func consumptionRate(pts []OrderPoint) float64 {
	var rates []float64
	for i := 1; i < len(pts); i++ {
		days := pts[i].Date.Sub(pts[i-1].Date).Hours() / 24
		if days <= 0 {
			continue
		}
		rates = append(rates, float64(pts[i-1].Quantity)/days)
	}
	if len(rates) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rates {
		sum += r
	}
	return sum / float64(len(rates))
}

// intervalConsistency maps the coefficient of variation of order intervals
// to a 0..1 score: regular refills score high, erratic ones low.
func intervalConsistency(pts []OrderPoint) float64 {
	var intervals []float64
	for i := 1; i < len(pts); i++ {
		intervals = append(intervals, pts[i].Date.Sub(pts[i-1].Date).Hours()/24)
	}
	if len(intervals) == 0 {
		return 0.5
	}

	mean := 0.0
	for _, v := range intervals {
		mean += v
	}
	mean /= float64(len(intervals))
	if mean <= 0 {
		return 0.5
	}

	variance := 0.0
	for _, v := range intervals {
		variance += (v - mean) * (v - mean)
	}
	std := math.Sqrt(variance / float64(len(intervals)))

	cv := std / mean
	score := 1.0 - cv
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func level(score float64) Confidence {
	switch {
	case score >= highConfidence:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// FromOrders flattens committed orders into per-SKU histories.
func FromOrders(orders []models.CommittedOrder) map[string][]OrderPoint {
	bySKU := make(map[string][]OrderPoint)
	for _, o := range orders {
		for _, item := range o.Items {
			if item.ProductRef == "" {
				continue
			}
			bySKU[item.ProductRef] = append(bySKU[item.ProductRef], OrderPoint{
				Date:     o.CreatedAt,
				Quantity: item.Quantity,
			})
		}
	}
	return bySKU
}

// ShouldNotify reports whether a depletion is close and certain enough to
// proactively message the customer about.
func ShouldNotify(p Prediction) bool {
	days := int(time.Until(p.DepletionDate).Hours() / 24)
	return days >= 0 && days <= reorderLeadDays && p.Confidence == ConfidenceHigh
}
