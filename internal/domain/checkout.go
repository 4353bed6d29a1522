package domain

import "time"

// CheckoutModePayment is the only supported payment mode.
const CheckoutModePayment = "payment"

// LineItem is one product-and-quantity entry within a checkout snapshot.
// UnitAmount is expressed in the minor currency unit (cents).
type LineItem struct {
	ProductName string   `json:"product_name"`
	Images      []string `json:"images"`
	UnitAmount  int64    `json:"unit_amount"`
	Quantity    int      `json:"quantity"`
}

// CheckoutSession is an immutable copy of cart contents taken at the
// start of checkout. It is the source of truth for the placed order and
// is never mutated after creation.
type CheckoutSession struct {
	ID         string     `json:"id"`
	LineItems  []LineItem `json:"line_items"`
	Mode       string     `json:"mode"`
	Currency   string     `json:"currency"`
	CapturedAt time.Time  `json:"captured_at"`
}
