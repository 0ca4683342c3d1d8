package domain

import (
	"cmp"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// MaxLineQuantity caps a single cart line. Quantities above it are refused
// on write and dropped on decode, so whatever is saved can be loaded back.
const MaxLineQuantity = 9999

// ValidQuantity reports whether qty can be stored on a cart line.
func ValidQuantity(qty int) bool {
	return qty >= 1 && qty <= MaxLineQuantity
}

// LineKey identifies one cart line: a product in a given size.
type LineKey struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
}

// Line is a cart line with its quantity.
type Line struct {
	LineKey
	Quantity int `json:"quantity"`
}

// Cart maps line keys to quantities. It is an immutable value: every
// mutating method returns a new Cart and leaves the receiver untouched.
// A stored quantity is always positive; a line that reaches zero is deleted.
//
// On the wire and in storage a cart is the two-level mapping
// {"<productId>": {"<size>": <qty>}}.
type Cart struct {
	lines map[LineKey]int
}

// NewCart returns an empty cart.
func NewCart() Cart {
	return Cart{}
}

// Add increments the line (productID, size) by one, creating it when absent.
func (c Cart) Add(productID, size string) Cart {
	next := c.clone()
	next.lines[LineKey{ProductID: productID, Size: size}]++
	return next
}

// Remove decrements the line by one and deletes it at zero. The second
// return value is false, and the cart is returned as is, when the line does
// not exist.
func (c Cart) Remove(productID, size string) (Cart, bool) {
	key := LineKey{ProductID: productID, Size: size}
	qty, ok := c.lines[key]
	if !ok {
		return c, false
	}
	next := c.clone()
	if qty <= 1 {
		delete(next.lines, key)
	} else {
		next.lines[key] = qty - 1
	}
	return next, true
}

// SetQuantity sets the line to qty. A qty of zero or less deletes the line.
func (c Cart) SetQuantity(productID, size string, qty int) Cart {
	key := LineKey{ProductID: productID, Size: size}
	next := c.clone()
	if qty <= 0 {
		delete(next.lines, key)
	} else {
		next.lines[key] = qty
	}
	return next
}

// Subtract takes the quantities in ordered off c, deleting lines that reach
// zero. Lines added after ordered was taken are kept.
func (c Cart) Subtract(ordered Cart) Cart {
	next := c.clone()
	for key, qty := range ordered.lines {
		if left := next.lines[key] - qty; left > 0 {
			next.lines[key] = left
		} else {
			delete(next.lines, key)
		}
	}
	return next
}

// Quantity returns the quantity of a line, or 0 when absent.
func (c Cart) Quantity(productID, size string) int {
	return c.lines[LineKey{ProductID: productID, Size: size}]
}

// Has reports whether the line exists.
func (c Cart) Has(productID, size string) bool {
	_, ok := c.lines[LineKey{ProductID: productID, Size: size}]
	return ok
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Len returns the number of distinct lines.
func (c Cart) Len() int { return len(c.lines) }

// ItemCount returns the sum of all quantities.
func (c Cart) ItemCount() int {
	total := 0
	for _, qty := range c.lines {
		total += qty
	}
	return total
}

// Total returns the sum of quantity times effective price for every line
// whose product resolves. Unresolved lines contribute nothing.
func (c Cart) Total(lookup ProductLookup) Money {
	var total Money
	for key, qty := range c.lines {
		if p, ok := lookup(key.ProductID); ok {
			total += p.EffectivePrice().Mul(qty)
		}
	}
	return total
}

// Lines returns the lines ordered by product id, then size. Numeric ids sort
// numerically.
func (c Cart) Lines() []Line {
	out := make([]Line, 0, len(c.lines))
	for key, qty := range c.lines {
		out = append(out, Line{LineKey: key, Quantity: qty})
	}
	slices.SortFunc(out, func(a, b Line) int {
		if n := compareIDs(a.ProductID, b.ProductID); n != 0 {
			return n
		}
		return cmp.Compare(a.Size, b.Size)
	})
	return out
}

// Equal reports whether both carts hold the same lines and quantities.
func (c Cart) Equal(other Cart) bool {
	return maps.Equal(c.lines, other.lines)
}

// MarshalJSON encodes the cart as {"<productId>": {"<size>": <qty>}}.
func (c Cart) MarshalJSON() ([]byte, error) {
	doc := make(map[string]map[string]int, len(c.lines))
	for key, qty := range c.lines {
		sizes, ok := doc[key.ProductID]
		if !ok {
			sizes = make(map[string]int)
			doc[key.ProductID] = sizes
		}
		sizes[key.Size] = qty
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes the two-level mapping. Quantities that are not whole
// numbers in 1..MaxLineQuantity are dropped, so a corrupt document can never
// put the cart into an invalid state.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var doc map[string]map[string]json.Number
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode cart: %w", err)
	}
	lines := make(map[LineKey]int)
	for productID, sizes := range doc {
		if productID == "" {
			continue
		}
		for size, qty := range sizes {
			n, err := strconv.Atoi(qty.String())
			if size == "" || err != nil || !ValidQuantity(n) {
				continue
			}
			lines[LineKey{ProductID: productID, Size: size}] = n
		}
	}
	c.lines = lines
	return nil
}

func (c Cart) clone() Cart {
	lines := make(map[LineKey]int, len(c.lines)+1)
	maps.Copy(lines, c.lines)
	return Cart{lines: lines}
}

func compareIDs(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	if aErr == nil && bErr == nil {
		return cmp.Compare(ai, bi)
	}
	return cmp.Compare(a, b)
}
