// Package medparse extracts structured medicine line items from free-form
// customer text. It is the default intent-extraction capability behind the
// pipeline's Extractor boundary: rule based, no external calls.
package medparse

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"mediloon/models"
)

// ErrUnintelligibleInput is returned when no candidate clears the
// confidence floor.
var ErrUnintelligibleInput = errors.New("unintelligible input")

// aliases maps canonical medicine names to the spellings customers use.
var aliases = map[string][]string{
	"paracetamol":   {"paracetamol", "tylenol", "acetaminophen", "paracitamol"},
	"ibuprofen":     {"ibuprofen", "advil", "motrin", "brufen"},
	"aspirin":       {"aspirin", "aspirine", "acetylsalicylic"},
	"amoxicillin":   {"amoxicillin", "amoxycillin", "amoxy"},
	"metformin":     {"metformin", "glucophage"},
	"omeprazole":    {"omeprazole", "prilosec"},
	"lisinopril":    {"lisinopril", "prinivil", "zestril"},
	"atorvastatin":  {"atorvastatin", "lipitor"},
	"amlodipine":    {"amlodipine", "norvasc"},
	"metoprolol":    {"metoprolol", "lopressor"},
	"losartan":      {"losartan", "cozaar"},
	"gabapentin":    {"gabapentin", "neurontin"},
	"sertraline":    {"sertraline", "zoloft"},
	"simvastatin":   {"simvastatin", "zocor"},
	"insulin":       {"insulin", "humalog", "novolog"},
	"levothyroxine": {"levothyroxine", "synthroid"},
	"clopidogrel":   {"clopidogrel", "plavix"},
	"vitamin d":     {"vitamin d", "vit d", "cholecalciferol"},
	"vitamin c":     {"vitamin c", "vit c", "ascorbic acid"},
}

var (
	dosageRe   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mg|g|ml|mcg|iu|units?)`)
	quantityRe = regexp.MustCompile(`(?i)(\d+)\s*(tablet|capsule|pill|strip|bottle|pack|box|count|pieces?|tabs?|caps?)`)
	numberRe   = regexp.MustCompile(`\b(\d+)\b`)
	segmentRe  = regexp.MustCompile(`(?i)\band\b|\balso\b|,\s*`)
	cleanRe    = regexp.MustCompile(`[^\w\s]`)
)

const defaultQuantity = 30 // common pack size

// Parser is the rule-based extractor. The zero value is ready to use.
type Parser struct{}

func New() *Parser { return &Parser{} }

// Extract parses text into candidate line items. Language is accepted for
// interface parity; the rule tables are English.
func (p *Parser) Extract(text, language string) ([]models.LineItem, error) {
	var items []models.LineItem

	for _, segment := range segmentRe.Split(text, -1) {
		segment = strings.TrimSpace(segment)
		if len(segment) < 3 {
			continue
		}

		name := extractName(segment)
		if name == "" {
			continue
		}

		item := models.LineItem{
			Name:     name,
			Strength: extractDosage(segment),
			Form:     extractForm(segment),
			Quantity: extractQuantity(segment),
		}
		item.Confidence = confidence(item)
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, ErrUnintelligibleInput
	}
	return items, nil
}

func extractName(text string) string {
	lower := strings.ToLower(text)
	for canonical, variants := range aliases {
		for _, v := range variants {
			if strings.Contains(lower, v) {
				return canonical
			}
		}
	}

	// Unknown medicine: take a capitalized word or the word before a
	// dosage unit.
	words := strings.Fields(text)
	for i, word := range words {
		nextHasUnit := i < len(words)-1 && dosageRe.MatchString(words[i+1])
		if (word != "" && word[0] >= 'A' && word[0] <= 'Z') || nextHasUnit {
			clean := cleanRe.ReplaceAllString(word, "")
			if len(clean) > 2 {
				return strings.ToLower(clean)
			}
		}
	}
	return ""
}

func extractDosage(text string) string {
	m := dosageRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + strings.ToLower(m[2])
}

func extractQuantity(text string) int {
	if m := quantityRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}

	// Standalone numbers, ignoring anything that is part of a dosage.
	stripped := dosageRe.ReplaceAllString(text, "")
	best := 0
	for _, m := range numberRe.FindAllStringSubmatch(stripped, -1) {
		n, _ := strconv.Atoi(m[1])
		if n >= 1 && n <= 1000 && n > best {
			best = n
		}
	}
	if best > 0 {
		return best
	}
	return defaultQuantity
}

var formKeywords = map[string][]string{
	"tablet":    {"tablet", "tab", "pill"},
	"capsule":   {"capsule", "cap"},
	"syrup":     {"syrup", "liquid", "solution"},
	"injection": {"injection", "inject", "vial"},
	"cream":     {"cream", "ointment", "gel"},
	"drops":     {"drops"},
	"inhaler":   {"inhaler", "puff"},
	"patch":     {"patch", "transdermal"},
}

func extractForm(text string) string {
	lower := strings.ToLower(text)
	for form, kws := range formKeywords {
		for _, kw := range kws {
			if strings.Contains(lower, kw) {
				return form
			}
		}
	}
	return "tablet"
}

func confidence(item models.LineItem) float64 {
	score := 0.0
	if item.Name != "" {
		score += 0.4
		if _, known := aliases[item.Name]; known {
			score += 0.2
		}
	}
	if item.Strength != "" {
		score += 0.2
	}
	if item.Quantity != defaultQuantity {
		score += 0.2
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
