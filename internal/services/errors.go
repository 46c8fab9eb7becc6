package services

import "errors"

var (
	ErrInvalidQuantity = errors.New("quantity out of range")
	ErrUnknownProduct  = errors.New("unknown product")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrPersist         = errors.New("order could not be stored")
)

const (
	NoticeEmptyCart    = "Your cart is empty!"
	NoticeOrderPlaced  = "Order successfully placed!"
	NoticeOrderFailed  = "Failed to place the order. Try again."
	NoticeNoOrders     = "No completed orders found."
	NoticeOrderMissing = "No items found for this order."
)

// Notice maps a Submit result to the message shown to the customer.
func Notice(err error) string {
	switch {
	case err == nil:
		return NoticeOrderPlaced
	case errors.Is(err, ErrEmptyCart):
		return NoticeEmptyCart
	default:
		return NoticeOrderFailed
	}
}
