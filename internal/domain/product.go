package domain

import (
	"slices"
	"strings"
)

// DefaultSizes are offered when a product does not list its own sizes.
var DefaultSizes = []string{"S", "M", "L", "XL"}

// Collection sort orders.
const (
	SortRelevant = "relevant"
	SortLowHigh  = "low-high"
	SortHighLow  = "high-low"
)

// Product is a catalog record as served by the shop backend.
type Product struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Price        Money    `json:"price"`
	CurrentPrice *Money   `json:"current_price,omitempty"`
	Images       []string `json:"images"`
	Category     string   `json:"category"`
	Sizes        []string `json:"sizes"`
}

// EffectivePrice is the price a shopper pays: the current (discounted) price
// when the backend sets one, otherwise the list price.
func (p Product) EffectivePrice() Money {
	if p.CurrentPrice != nil {
		return *p.CurrentPrice
	}
	return p.Price
}

// Image returns the primary image, or "" when the product has none.
func (p Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// AvailableSizes returns the product's sizes, falling back to DefaultSizes.
func (p Product) AvailableSizes() []string {
	if len(p.Sizes) == 0 {
		return slices.Clone(DefaultSizes)
	}
	return slices.Clone(p.Sizes)
}

// ProductLookup resolves a product id against the catalog.
type ProductLookup func(id string) (Product, bool)

// LookupFrom builds a ProductLookup over a product list.
func LookupFrom(products []Product) ProductLookup {
	index := make(map[string]Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}
	return func(id string) (Product, bool) {
		p, ok := index[id]
		return p, ok
	}
}

// CollectionFilter narrows and orders a product list.
type CollectionFilter struct {
	Search     string
	Categories []string
	Sort       string
}

// Apply returns the products matching f, leaving the input untouched. Search
// is a case-insensitive substring match on the name; categories match exactly.
// Price sorts use the list price, not the sale price.
func (f CollectionFilter) Apply(products []Product) []Product {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if len(f.Categories) > 0 && !slices.Contains(f.Categories, p.Category) {
			continue
		}
		out = append(out, p)
	}

	switch f.Sort {
	case SortLowHigh:
		slices.SortStableFunc(out, func(a, b Product) int {
			return compareMoney(a.Price, b.Price)
		})
	case SortHighLow:
		slices.SortStableFunc(out, func(a, b Product) int {
			return compareMoney(b.Price, a.Price)
		})
	}
	return out
}

// ValidSort reports whether s is a known collection sort order. Empty means relevant.
func ValidSort(s string) bool {
	switch s {
	case "", SortRelevant, SortLowHigh, SortHighLow:
		return true
	default:
		return false
	}
}

// Related returns up to limit products sharing p's category, excluding p.
func Related(p Product, products []Product, limit int) []Product {
	out := make([]Product, 0, limit)
	for _, other := range products {
		if len(out) == limit {
			break
		}
		if other.ID == p.ID || other.Category != p.Category {
			continue
		}
		out = append(out, other)
	}
	return out
}

func compareMoney(a, b Money) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
