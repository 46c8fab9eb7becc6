package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"cafeorders/internal/domain"
	applog "cafeorders/internal/log"
)

// Cart accumulates line items for one session. At most one item exists per
// product id and every quantity stays within 1..domain.MaxQuantity. A Cart is
// not safe for concurrent use; CartSessions serializes access per session.
type Cart struct {
	items []domain.CartItem
}

func NewCart(items ...domain.CartItem) *Cart {
	c := &Cart{}
	for _, it := range items {
		if err := c.AddItem(it.Product, it.Quantity, it.SpecialRequest); err != nil {
			applog.Warn("cart.item.skip", err, map[string]any{"product_id": it.Product.ID, "qty": it.Quantity})
		}
	}
	return c
}

func (c *Cart) index(productID string) int {
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// AddItem merges qty into the existing line for p.ID or appends a new line
// holding a copy of p. A merged line stops at domain.MaxQuantity. A non-empty
// special request replaces the previous one.
func (c *Cart) AddItem(p domain.Product, qty int, specialRequest string) error {
	if qty <= 0 || qty > domain.MaxQuantity {
		return ErrInvalidQuantity
	}
	specialRequest = strings.TrimSpace(specialRequest)
	if i := c.index(p.ID); i >= 0 {
		c.items[i].Quantity = min(c.items[i].Quantity+qty, domain.MaxQuantity)
		if specialRequest != "" {
			c.items[i].SpecialRequest = specialRequest
		}
		return nil
	}
	c.items = append(c.items, domain.CartItem{Product: p, Quantity: qty, SpecialRequest: specialRequest})
	return nil
}

// Increment raises the quantity by one up to domain.MaxQuantity.
func (c *Cart) Increment(productID string) {
	if i := c.index(productID); i >= 0 && c.items[i].Quantity < domain.MaxQuantity {
		c.items[i].Quantity++
	}
}

// Decrement lowers the quantity by one but never below 1; use Remove to drop a line.
func (c *Cart) Decrement(productID string) {
	if i := c.index(productID); i >= 0 && c.items[i].Quantity > 1 {
		c.items[i].Quantity--
	}
}

func (c *Cart) Remove(productID string) {
	if i := c.index(productID); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

// Total is the sum of price x quantity rendered with two decimals.
func (c *Cart) Total() string {
	return c.total().StringFixed(2)
}

func (c *Cart) total() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}

func (c *Cart) TotalQuantity() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Reset() { c.items = nil }

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []domain.CartItem {
	out := make([]domain.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int      { return len(c.items) }
func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Serialize encodes the lines as a JSON array ("[]" when empty).
func (c *Cart) Serialize() (string, error) {
	items := c.items
	if items == nil {
		items = []domain.CartItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Deserialize replaces the cart with the items encoded in param. param may be
// nil, a string, or a list whose first element is used. Absent or malformed
// input is logged and leaves the cart as it was. Reports whether the cart
// was replaced.
func (c *Cart) Deserialize(param any) bool {
	text, ok := ParamValue(param)
	if !ok {
		return false
	}
	items, err := DecodeItems(text)
	if err != nil {
		applog.Warn("cart.deserialize.fail", err, map[string]any{"len": len(text)})
		return false
	}
	c.items = items
	return true
}

// ParamValue normalizes a navigation parameter to a single string.
func ParamValue(param any) (string, bool) {
	var s string
	switch v := param.(type) {
	case nil:
		return "", false
	case string:
		s = v
	case []byte:
		s = string(v)
	case []string:
		if len(v) == 0 {
			return "", false
		}
		s = v[0]
	case [][]byte:
		if len(v) == 0 {
			return "", false
		}
		s = string(v[0])
	case []any:
		if len(v) == 0 {
			return "", false
		}
		return ParamValue(v[0])
	default:
		return "", false
	}
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// DecodeItems parses a serialized cart. Lines for the same product are merged.
// Quantities outside 1..domain.MaxQuantity are rejected.
func DecodeItems(text string) ([]domain.CartItem, error) {
	var raw []domain.CartItem
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	c := &Cart{}
	for i, it := range raw {
		if it.Product.ID == "" {
			return nil, fmt.Errorf("decode cart: item %d has no product id", i)
		}
		if it.Product.Price.IsNegative() {
			return nil, fmt.Errorf("decode cart: item %d: %w", i, domain.ErrNegativePrice)
		}
		if err := c.AddItem(it.Product, it.Quantity, it.SpecialRequest); err != nil {
			return nil, fmt.Errorf("decode cart: item %d: %w", i, err)
		}
	}
	if c.items == nil {
		c.items = []domain.CartItem{}
	}
	return c.items, nil
}
