package domain

import "time"

// ShippingForm carries shopper-entered shipping fields. Country is a
// two-element country/region tuple; the second element may be empty.
type ShippingForm struct {
	FirstName  string    `json:"fName" validate:"required"`
	LastName   string    `json:"lName"`
	Mobile     string    `json:"mobile" validate:"required"`
	PinCode    string    `json:"pinCode" validate:"required"`
	Address    string    `json:"address" validate:"required"`
	Area       string    `json:"area" validate:"required"`
	Landmark   string    `json:"landmark" validate:"required"`
	Country    [2]string `json:"country"`
}

// Address is created once per order placement and immutable thereafter.
type Address struct {
	ID         string
	FirstName  string
	LastName   string
	Phone      string
	Address    string
	Area       string
	Landmark   string
	PostalCode string
	Country    string
	State      string
	CreatedAt  time.Time
}

// PaymentDetails are externally issued payment identifiers plus the
// gateway signature over them.
type PaymentDetails struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// Order is created exactly once per successful placement attempt and
// never updated by the placement flow. A nil UserID marks an explicit
// guest order.
type Order struct {
	ID             string
	UserID         *string
	AddressID      string
	Total          float64
	PaymentMethod  string
	PaymentOrderID string
	PaymentID      string
	CreatedAt      time.Time
}

// OrderItem captures quantity and unit price as of placement, sourced
// from the checkout snapshot rather than the product's current price.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	Price     float64
}
