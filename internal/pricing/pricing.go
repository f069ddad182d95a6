// Package pricing resolves the price a store shows and charges for a catalog product.
package pricing

import (
	"errors"

	"grocery-storefront/internal/model"

	"github.com/shopspring/decimal"
)

var (
	ErrPercentOutOfRange = errors.New("discount_percent must be between 0 and 100")
	ErrNegativePrice     = errors.New("price must be non-negative")
)

var hundred = decimal.NewFromInt(100)

// Quote is the resolved price for one (store, product).
type Quote struct {
	Price        decimal.Decimal // charged
	RegularPrice decimal.Decimal // shown struck through when Discounted
	Discounted   bool
}

// Resolve applies, first match wins: discount price, discount percent, price override, base price.
// override may be nil.
func Resolve(p *model.CatalogProduct, o *model.StoreProductOverride) Quote {
	regular := p.BasePrice
	if o == nil {
		return Quote{Price: regular, RegularPrice: regular}
	}
	if o.PriceOverride.Valid {
		regular = o.PriceOverride.Decimal
	}

	switch {
	case o.DiscountPrice.Valid && !o.DiscountPrice.Decimal.IsNegative():
		return Quote{Price: o.DiscountPrice.Decimal, RegularPrice: regular, Discounted: true}
	case o.DiscountPercent.Valid && ValidatePercent(o.DiscountPercent.Decimal) == nil:
		factor := hundred.Sub(o.DiscountPercent.Decimal).Div(hundred)
		// decimal.Round is half away from zero
		price := regular.Mul(factor).Round(2)
		return Quote{Price: price, RegularPrice: regular, Discounted: true}
	}
	return Quote{Price: regular, RegularPrice: regular}
}

// ValidatePercent rejects a discount percent outside [0, 100].
func ValidatePercent(v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return ErrPercentOutOfRange
	}
	return nil
}

// ValidatePrice rejects negative money amounts.
func ValidatePrice(v decimal.Decimal) error {
	if v.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}
