package services

import (
	"encoding/json"
	"strconv"
	"strings"

	"cafeorders/internal/domain"
	applog "cafeorders/internal/log"
)

const (
	unknownProduct = "Unknown Product"
	notAvailable   = "N/A"
)

// OrderView is an order as displayed. Fields missing from the stored document
// are replaced by fallbacks instead of failing the whole list.
type OrderView struct {
	ID            string     `json:"id"`
	Status        string     `json:"status"`
	Items         []ItemView `json:"items"`
	Total         string     `json:"total"`
	TotalQuantity int        `json:"totalQuantity"`
	Timestamp     string     `json:"timestamp"`
}

type ItemView struct {
	ProductID      string `json:"productId,omitempty"`
	Name           string `json:"name"`
	ImageFile      string `json:"imageFile,omitempty"`
	Price          string `json:"price"`
	Quantity       int    `json:"quantity"`
	SpecialRequest string `json:"specialRequest,omitempty"`
}

type rawOrder struct {
	Status        string            `json:"status"`
	Items         []json.RawMessage `json:"items"`
	Total         json.RawMessage   `json:"total"`
	TotalQuantity json.RawMessage   `json:"totalQuantity"`
	Timestamp     string            `json:"timestamp"`
}

type rawItem struct {
	Product struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		ImageFile string          `json:"imageFile"`
		Price     json.RawMessage `json:"price"`
	} `json:"product"`
	Quantity       json.RawMessage `json:"quantity"`
	SpecialRequest string          `json:"specialRequest"`
}

// ProjectOrder turns a stored order document into its display form.
func ProjectOrder(key string, raw []byte) OrderView {
	v := OrderView{ID: key, Items: []ItemView{}, Total: notAvailable}
	var o rawOrder
	if err := json.Unmarshal(raw, &o); err != nil {
		applog.Warn("order.project.fail", err, map[string]any{"order_id": key})
		return v
	}
	v.Status = o.Status
	v.Timestamp = o.Timestamp
	v.Total = money(o.Total)
	v.TotalQuantity = count(o.TotalQuantity)
	for _, ri := range o.Items {
		v.Items = append(v.Items, projectItem(ri))
	}
	return v
}

func projectItem(raw json.RawMessage) ItemView {
	iv := ItemView{Name: unknownProduct, Price: notAvailable}
	var it rawItem
	if err := json.Unmarshal(raw, &it); err != nil {
		return iv
	}
	iv.ProductID = it.Product.ID
	if name := strings.TrimSpace(it.Product.Name); name != "" {
		iv.Name = name
	}
	iv.ImageFile = it.Product.ImageFile
	iv.Price = money(it.Product.Price)
	iv.Quantity = count(it.Quantity)
	iv.SpecialRequest = it.SpecialRequest
	return iv
}

func money(raw json.RawMessage) string {
	d, err := domain.ParsePrice(raw)
	if err != nil {
		return notAvailable
	}
	return "$" + d.StringFixed(2)
}

func count(raw json.RawMessage) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
