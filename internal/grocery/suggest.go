// Package grocery guesses a shopping category for an item name from a fixed
// keyword table.
package grocery

import (
	"strings"

	"golang.org/x/text/cases"
)

var keywords = map[string][]string{
	"Produce": {
		"apple", "banana", "orange", "lemon", "lime", "grape", "berry", "avocado",
		"tomato", "potato", "onion", "garlic", "carrot", "lettuce", "spinach",
		"broccoli", "pepper", "cucumber", "mushroom", "celery", "herb", "fruit",
	},
	"Dairy": {
		"milk", "cheese", "yogurt", "yoghurt", "butter", "cream", "egg",
	},
	"Meat & Seafood": {
		"chicken", "beef", "pork", "turkey", "bacon", "sausage", "ham", "steak",
		"salmon", "tuna", "shrimp", "fish",
	},
	"Bakery": {
		"bread", "bagel", "muffin", "croissant", "tortilla", "bun", "roll",
	},
	"Frozen": {
		"frozen", "ice cream", "popsicle",
	},
	"Pantry": {
		"rice", "pasta", "flour", "sugar", "oil", "vinegar", "cereal", "oat",
		"beans", "soup", "sauce", "spice", "honey", "peanut butter", "canned",
	},
	"Beverages": {
		"coffee", "tea", "juice", "soda", "water", "beer", "wine",
	},
	"Snacks": {
		"chip", "cracker", "cookie", "popcorn", "pretzel", "candy", "chocolate", "snack",
	},
	"Household": {
		"paper towel", "toilet paper", "trash bag", "dish soap", "laundry",
		"detergent", "cleaner", "sponge", "foil", "battery", "light bulb",
	},
	"Personal Care": {
		"shampoo", "conditioner", "toothpaste", "toothbrush", "deodorant",
		"lotion", "sunscreen", "razor", "tissue", "soap",
	},
}

// Suggest returns the category whose keyword best matches name. The longest
// matching keyword wins so "peanut butter" beats "butter". ok is false when
// nothing matches.
func Suggest(name string) (category string, ok bool) {
	folded := cases.Fold().String(strings.TrimSpace(name))
	if folded == "" {
		return "", false
	}

	best := 0
	for cat, words := range keywords {
		for _, kw := range words {
			if len(kw) <= best || !strings.Contains(folded, kw) {
				continue
			}
			best = len(kw)
			category = cat
		}
	}
	return category, best > 0
}

// Categories lists every category Suggest can return.
func Categories() []string {
	out := make([]string, 0, len(keywords))
	for cat := range keywords {
		out = append(out, cat)
	}
	return out
}
