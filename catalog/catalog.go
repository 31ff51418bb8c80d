// Package catalog resolves free-form medicine names against the medicines
// collection. The Ordering stage consumes it through the Matcher interface.
package catalog

import (
	"context"
	"sort"
	"strings"

	"mediloon/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Match is one candidate product with its similarity to the query.
type Match struct {
	Medicine models.Medicine
	Score    float64
}

// Matcher looks up products for a requested name/strength pair, strongest
// match first.
type Matcher interface {
	Match(ctx context.Context, name, strength string) ([]Match, error)
}

// Mongo is the production Matcher over the medicines collection.
type Mongo struct {
	coll *mongo.Collection
}

func NewMongo(coll *mongo.Collection) *Mongo {
	return &Mongo{coll: coll}
}

func (c *Mongo) Match(ctx context.Context, name, strength string) ([]Match, error) {
	cur, err := c.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var meds []models.Medicine
	if err := cur.All(ctx, &meds); err != nil {
		return nil, err
	}
	return Rank(meds, name, strength), nil
}

// Rank scores candidates against the query and returns them best first.
// Exported so the in-memory test matcher shares the exact scoring.
func Rank(meds []models.Medicine, name, strength string) []Match {
	var matches []Match
	for _, med := range meds {
		score := Similarity(med, name, strength)
		if score > 0 {
			matches = append(matches, Match{Medicine: med, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// Similarity scores a product against a requested name and strength.
// Exact name or alias match dominates; the strength acts as a tie-breaker
// between dosage variants of the same product.
func Similarity(med models.Medicine, name, strength string) float64 {
	q := normalize(name)
	if q == "" {
		return 0
	}

	score := 0.0
	switch {
	case normalize(med.Name) == q || normalize(med.GenericName) == q:
		score = 0.9
	case hasAlias(med, q):
		score = 0.85
	case strings.Contains(normalize(med.Name), q) || strings.Contains(q, normalize(med.Name)):
		score = 0.6
	case tokenOverlap(normalize(med.Name), q) > 0:
		score = 0.4 * tokenOverlap(normalize(med.Name), q)
	default:
		return 0
	}

	if strength != "" {
		if normalize(med.Strength) == normalize(strength) {
			score += 0.1
		} else {
			score -= 0.1
		}
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func hasAlias(med models.Medicine, q string) bool {
	for _, a := range med.Aliases {
		if normalize(a) == q {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// tokenOverlap is the fraction of query tokens present in the name.
func tokenOverlap(name, q string) float64 {
	qTokens := strings.Fields(q)
	if len(qTokens) == 0 {
		return 0
	}
	nTokens := strings.Fields(name)
	hits := 0
	for _, qt := range qTokens {
		for _, nt := range nTokens {
			if qt == nt {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(qTokens))
}
