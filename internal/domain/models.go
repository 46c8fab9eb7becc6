package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCategory is assigned to catalog entries that do not name one.
const DefaultCategory = "All Items"

// Categories shown on the menu, in display order.
var Categories = []string{DefaultCategory, "Beverages", "Meals", "Snacks", "Desserts"}

type Product struct {
	ID           string          `json:"id" yaml:"id"`
	Name         string          `json:"name" yaml:"name"`
	Price        decimal.Decimal `json:"price" yaml:"-"`
	ImageFile    string          `json:"imageFile,omitempty" yaml:"imageFile"`
	Customizable bool            `json:"customizable" yaml:"customizable"`
	Category     string          `json:"category" yaml:"category"`
}

// DisplayPrice renders the price as shown on the menu ("$2.50").
func (p Product) DisplayPrice() string { return "$" + p.Price.StringFixed(2) }

// MaxQuantity caps the quantity of a single cart line.
const MaxQuantity = 50

// CartItem pairs a product copy with a quantity. The product is copied at
// selection time so later catalog edits do not reach items already in a cart.
type CartItem struct {
	Product        Product `json:"product"`
	Quantity       int     `json:"quantity"`
	SpecialRequest string  `json:"specialRequest,omitempty"`
}

// Subtotal is price x quantity, unrounded.
func (it CartItem) Subtotal() decimal.Decimal {
	return it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusCompleted OrderStatus = "Completed"
	StatusCancelled OrderStatus = "Cancelled"
)

// ParseStatus accepts the known statuses case-insensitively.
func ParseStatus(s string) (OrderStatus, bool) {
	for _, st := range []OrderStatus{StatusPending, StatusCompleted, StatusCancelled} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

// Order is the persisted, immutable snapshot of a submitted cart. ID is the
// document key in the orders collection and is not repeated in the body.
type Order struct {
	ID            string      `json:"-"`
	Status        OrderStatus `json:"status"`
	Items         []CartItem  `json:"items"`
	Total         string      `json:"total"`
	TotalQuantity int         `json:"totalQuantity"`
	Timestamp     string      `json:"timestamp"`
}

var (
	ErrMissingPrice  = errors.New("missing price")
	ErrNegativePrice = errors.New("negative price")
)

// ParsePrice turns a stored price (JSON string or JSON number) into a decimal.
func ParsePrice(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" || s == `""` {
		return decimal.Zero, ErrMissingPrice
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return decimal.Zero, err
		}
		s = strings.TrimPrefix(strings.TrimSpace(str), "$")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativePrice
	}
	return d, nil
}
