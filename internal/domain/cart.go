package domain

import "time"

// ImageRef points at a hosted product image.
type ImageRef struct {
	Src string `json:"src" bson:"src"`
}

type CartItem struct {
	ProductID string     `json:"product_id" bson:"product_id"`
	Name      string     `json:"name" bson:"name"`
	Price     float64    `json:"price" bson:"price"`
	Quantity  int        `json:"quantity" bson:"quantity"`
	Images    []ImageRef `json:"images" bson:"images"`
	AddedAt   time.Time  `json:"added_at" bson:"added_at"`
}

// Cart holds a shopper's in-progress selection, keyed by session.
// At most one item per product id; adding an existing product merges
// quantities instead of appending a duplicate entry.
type Cart struct {
	ID        string     `json:"-" bson:"_id,omitempty"`
	SessionID string     `json:"session_id" bson:"session_id"`
	Items     []CartItem `json:"items" bson:"items"`
	Open      bool       `json:"open" bson:"open"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

// Total is derived on every read and never stored, so it cannot drift
// from the items.
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
