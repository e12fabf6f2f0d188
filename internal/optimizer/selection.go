package optimizer

import (
	"sort"
	"strings"

	"github.com/vanshika/basketwise/internal/domain"
)

// Select fills budget with one best-value product per desired item, then
// spends whatever is left on the remaining candidates in value order.
//
// Desired items are processed in the given order and each takes the
// candidate with the lowest price per normalized weight among products whose
// name contains the item text. A chosen product id is removed from the
// working pool and cannot be picked again. The result is a heuristic: a
// different ordering of desired items can produce a different total.
//
// pool is not modified. Total spend never exceeds budget.
func Select(pool []domain.Product, budget float64, desired []string, n *Normalizer) []domain.Product {
	if budget <= 0 || len(pool) == 0 {
		return []domain.Product{}
	}
	if n == nil {
		n = DefaultNormalizer()
	}

	working := make([]domain.Product, len(pool))
	copy(working, pool)

	selected := make([]domain.Product, 0, len(desired))
	remaining := budget

	for _, item := range desired {
		matches := matchingProducts(working, item)
		if len(matches) == 0 {
			continue
		}
		rankByValue(matches, n)

		best := matches[0]
		if best.Price <= remaining {
			selected = append(selected, best)
			remaining -= best.Price
			working = withoutProduct(working, best.ID)
		}
	}

	rankByValue(working, n)
	for _, p := range working {
		if remaining <= 0 {
			break
		}
		if p.Price > remaining || containsProduct(selected, p.ID) {
			continue
		}
		selected = append(selected, p)
		remaining -= p.Price
	}

	return selected
}

// matchesItem reports whether a product name contains the desired item text,
// ignoring case. A blank item matches every product; the planner drops
// blank items before they get here.
func matchesItem(p domain.Product, item string) bool {
	item = strings.ToLower(strings.TrimSpace(item))
	return strings.Contains(strings.ToLower(p.Name), item)
}

func matchingProducts(products []domain.Product, item string) []domain.Product {
	var out []domain.Product
	for _, p := range products {
		if matchesItem(p, item) {
			out = append(out, p)
		}
	}
	return out
}

// rankByValue sorts ascending by value density; ties keep input order.
func rankByValue(products []domain.Product, n *Normalizer) {
	sort.SliceStable(products, func(i, j int) bool {
		return n.ValueDensity(products[i]) < n.ValueDensity(products[j])
	})
}

func withoutProduct(products []domain.Product, id int64) []domain.Product {
	out := products[:0:0]
	for _, p := range products {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func containsProduct(products []domain.Product, id int64) bool {
	for _, p := range products {
		if p.ID == id {
			return true
		}
	}
	return false
}
