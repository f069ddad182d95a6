package pricing

import (
	"testing"

	"grocery-storefront/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nd(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

func TestResolve(t *testing.T) {
	product := &model.CatalogProduct{BasePrice: dec("10")}

	tests := []struct {
		name     string
		override *model.StoreProductOverride
		price    string
		regular  string
		disc     bool
	}{
		{"no override", nil, "10", "10", false},
		{"empty override", &model.StoreProductOverride{}, "10", "10", false},
		{"price override", &model.StoreProductOverride{PriceOverride: nd("12")}, "12", "12", false},
		{"percent on override", &model.StoreProductOverride{PriceOverride: nd("12"), DiscountPercent: nd("20")}, "9.6", "12", true},
		{"discount price wins over percent", &model.StoreProductOverride{PriceOverride: nd("12"), DiscountPercent: nd("20"), DiscountPrice: nd("7")}, "7", "12", true},
		{"percent on base", &model.StoreProductOverride{DiscountPercent: nd("15")}, "8.5", "10", true},
		{"zero percent", &model.StoreProductOverride{DiscountPercent: nd("0")}, "10", "10", true},
		{"full percent", &model.StoreProductOverride{DiscountPercent: nd("100")}, "0", "10", true},
		{"free via discount price", &model.StoreProductOverride{DiscountPrice: nd("0")}, "0", "10", true},
		{"out of range percent ignored", &model.StoreProductOverride{DiscountPercent: nd("150")}, "10", "10", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Resolve(product, tt.override)
			assert.True(t, dec(tt.price).Equal(q.Price), "price: got %s", q.Price)
			assert.True(t, dec(tt.regular).Equal(q.RegularPrice), "regular: got %s", q.RegularPrice)
			assert.Equal(t, tt.disc, q.Discounted)
		})
	}
}

func TestResolveRoundsHalfAwayFromZero(t *testing.T) {
	// 0.25 * 0.9 = 0.225 -> 0.23
	q := Resolve(&model.CatalogProduct{BasePrice: dec("0.25")}, &model.StoreProductOverride{DiscountPercent: nd("10")})
	assert.Equal(t, "0.23", q.Price.StringFixed(2))

	// 19.99 * 0.67 = 13.3933 -> 13.39
	q = Resolve(&model.CatalogProduct{BasePrice: dec("19.99")}, &model.StoreProductOverride{DiscountPercent: nd("33")})
	assert.Equal(t, "13.39", q.Price.StringFixed(2))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, ValidatePercent(dec("0")))
	assert.NoError(t, ValidatePercent(dec("100")))
	assert.ErrorIs(t, ValidatePercent(dec("-1")), ErrPercentOutOfRange)
	assert.ErrorIs(t, ValidatePercent(dec("100.01")), ErrPercentOutOfRange)

	assert.NoError(t, ValidatePrice(dec("0")))
	assert.ErrorIs(t, ValidatePrice(dec("-0.01")), ErrNegativePrice)
}
