package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCompute(t *testing.T) {
	cases := []struct {
		name         string
		unitPrice    string
		quantity     int64
		discountPct  string
		wantTotal    string
		wantDiscount string
		wantFinal    string
	}{
		{"no discount", "1500000", 3, "0", "4500000", "0", "4500000"},
		{"ten percent", "1000000000", 2, "10", "2000000000", "200000000", "1800000000"},
		{"full discount", "250000", 4, "100", "1000000", "1000000", "0"},
		{"fractional rounds half up", "33.335", 1, "50", "33.335", "16.67", "16.665"},
		{"rounding boundary", "10.05", 1, "5", "10.05", "0.5", "9.55"},
		{"zero quantity clamped", "100", 0, "10", "0", "0", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			price := dec(tc.unitPrice)
			got := Compute(&price, tc.quantity, dec(tc.discountPct))
			assert.True(t, got.TotalPrice.Equal(dec(tc.wantTotal)), "total %s", got.TotalPrice)
			assert.True(t, got.DiscountAmount.Equal(dec(tc.wantDiscount)), "discount %s", got.DiscountAmount)
			assert.True(t, got.FinalPrice.Equal(dec(tc.wantFinal)), "final %s", got.FinalPrice)
		})
	}
}

func TestComputeMissingUnitPrice(t *testing.T) {
	got := Compute(nil, 5, dec("20"))
	require.True(t, got.TotalPrice.IsZero())
	require.True(t, got.DiscountAmount.IsZero())
	require.True(t, got.FinalPrice.IsZero())
}

func TestComputeNegativeDiscountTreatedAsZero(t *testing.T) {
	price := dec("100")
	got := Compute(&price, 2, dec("-5"))
	assert.True(t, got.DiscountAmount.IsZero())
	assert.True(t, got.FinalPrice.Equal(dec("200")))
}

// Final price stays non-negative for any discount up to 100 percent.
func TestComputeFinalNonNegative(t *testing.T) {
	price := dec("999999999.99")
	for _, pct := range []string{"0", "0.01", "33.33", "50", "99.99", "100"} {
		got := Compute(&price, 7, dec(pct))
		require.False(t, got.FinalPrice.IsNegative(), "pct=%s final=%s", pct, got.FinalPrice)
		require.True(t, got.TotalPrice.Equal(got.DiscountAmount.Add(got.FinalPrice)))
	}
}

func TestHeaderDiscount(t *testing.T) {
	assert.True(t, HeaderDiscount(dec("2000000000"), dec("10")).Equal(dec("200000000")))
	assert.True(t, HeaderDiscount(dec("100"), dec("0")).IsZero())
	assert.True(t, HeaderDiscount(dec("100"), dec("-3")).IsZero())
	assert.True(t, HeaderDiscount(dec("10.01"), dec("2.5")).Equal(dec("0.25")))
}
