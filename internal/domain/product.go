package domain

import "time"

type Availability string

const (
	AvailabilityInStock    Availability = "IN_STOCK"
	AvailabilityOutOfStock Availability = "OUT_OF_STOCK"
)

type Product struct {
	ID               string
	UserID           string
	CategoryID       string
	Name             string
	Description      string
	ShortDescription string
	Tag              string
	Thumbnail        string
	ShippingTime     string
	Price            float64
	Availability     Availability
	CreatedAt        time.Time
}

type ProductImage struct {
	ID        string
	ProductID string
	URL       string
	IsMain    bool
}

type Review struct {
	ID        string
	ProductID string
	UserID    string
	Rating    int
	Review    string
	CreatedAt time.Time
}
