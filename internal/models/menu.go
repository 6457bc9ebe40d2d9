package models

import (
	"fmt"
	"strings"
)

// Category groups catalog items on the menu board
type Category string

const (
	// Menu categories, in board order
	CategoryTacos    Category = "Tacos"
	CategoryBurritos Category = "Burritos"
	CategoryDrinks   Category = "Drinks"
	CategorySides    Category = "Sides"
	CategoryCombos   Category = "Combos"
)

// Categories lists every category in board order
var Categories = []Category{
	CategoryTacos,
	CategoryBurritos,
	CategoryDrinks,
	CategorySides,
	CategoryCombos,
}

// ParseCategory resolves a category name case-insensitively
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(name)) {
			return c, true
		}
	}
	return "", false
}

// IsMain reports whether items in the category count as a main dish
func (c Category) IsMain() bool {
	return c == CategoryTacos || c == CategoryBurritos
}

// CatalogItem represents one orderable item on the menu. Items are loaded
// once at startup and treated as read-only afterwards.
type CatalogItem struct {
	Name           string   `json:"name"`
	Category       Category `json:"category"`
	Price          float64  `json:"price"`
	Description    string   `json:"description"`
	Calories       int      `json:"calories"`
	Customizations []string `json:"customizations"`
	Aliases        []string `json:"aliases"`
	Tags           []string `json:"tags"`
}

// HasTag checks whether the item carries a tag (case-insensitive)
func (ci CatalogItem) HasTag(tag string) bool {
	for _, t := range ci.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// SearchText is the descriptive text embedded for semantic matching
func (ci CatalogItem) SearchText() string {
	return fmt.Sprintf("%s %s %s %s %s price $%.2f",
		ci.Name,
		ci.Category,
		ci.Description,
		strings.Join(ci.Aliases, " "),
		strings.Join(ci.Tags, " "),
		ci.Price,
	)
}

// ValidateCatalogItem validates a catalog item
func ValidateCatalogItem(item CatalogItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("catalog item name is required")
	}
	if item.Price < 0 {
		return fmt.Errorf("catalog item %q has negative price", item.Name)
	}
	if _, ok := ParseCategory(string(item.Category)); !ok {
		return fmt.Errorf("catalog item %q has unknown category %q", item.Name, item.Category)
	}
	return nil
}
