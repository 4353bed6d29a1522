package checkout

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/marketbay/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

const currency = "usd"

// BuildSession captures the cart as an immutable checkout snapshot.
// Unit amounts are converted to the minor currency unit here and only
// converted back once, at order placement.
func BuildSession(cart *domain.Cart) (*domain.CheckoutSession, error) {
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	lineItems := make([]domain.LineItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		images := make([]string, 0, len(item.Images))
		for _, img := range item.Images {
			images = append(images, img.Src)
		}

		lineItems = append(lineItems, domain.LineItem{
			ProductName: item.Name,
			Images:      images,
			UnitAmount:  toMinorUnits(item.Price),
			Quantity:    item.Quantity,
		})
	}

	return &domain.CheckoutSession{
		ID:         uuid.NewString(),
		LineItems:  lineItems,
		Mode:       domain.CheckoutModePayment,
		Currency:   currency,
		CapturedAt: time.Now(),
	}, nil
}

func toMinorUnits(price float64) int64 {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
