package menu

import (
	"strings"

	"drivethru/internal/models"
)

// RecommendationRules names the items the upsell rules suggest
type RecommendationRules struct {
	DefaultDrink        string
	DefaultSide         string
	DefaultMain         string
	ValueCombo          string
	SmallOrderThreshold float64
}

func (r RecommendationRules) withDefaults() RecommendationRules {
	if r.DefaultDrink == "" {
		r.DefaultDrink = "Baja Blast"
	}
	if r.DefaultSide == "" {
		r.DefaultSide = "Nacho Fries"
	}
	if r.DefaultMain == "" {
		r.DefaultMain = "Crunchy Taco"
	}
	if r.ValueCombo == "" {
		r.ValueCombo = "Cravings Box"
	}
	if r.SmallOrderThreshold == 0 {
		r.SmallOrderThreshold = 5.00
	}
	return r
}

// Recommend suggests additions for an order holding the named items:
//   - a main without a drink gets the default drink
//   - a main without a side gets the default side
//   - no main at all gets the default main
//   - a main with a subtotal under the threshold gets the value combo first
//
// Items already in the order and names missing from the catalog are skipped.
func (e *Engine) Recommend(current []string, subtotal float64) []models.CatalogItem {
	var hasDrink, hasSide, hasMain bool
	inOrder := make(map[string]bool, len(current))

	for _, name := range current {
		inOrder[strings.ToLower(name)] = true

		item, ok := e.ItemByName(name)
		if !ok {
			continue
		}
		switch {
		case item.Category == models.CategoryDrinks:
			hasDrink = true
		case item.Category == models.CategorySides:
			hasSide = true
		case item.Category.IsMain():
			hasMain = true
		}
	}

	var names []string
	if hasMain && subtotal < e.rules.SmallOrderThreshold {
		names = append(names, e.rules.ValueCombo)
	}
	if hasMain && !hasDrink {
		names = append(names, e.rules.DefaultDrink)
	}
	if hasMain && !hasSide {
		names = append(names, e.rules.DefaultSide)
	}
	if !hasMain {
		names = append(names, e.rules.DefaultMain)
	}

	var recommendations []models.CatalogItem
	for _, name := range names {
		if inOrder[strings.ToLower(name)] {
			continue
		}
		if item, ok := e.ItemByName(name); ok {
			inOrder[strings.ToLower(name)] = true
			recommendations = append(recommendations, item)
		}
	}
	return recommendations
}
