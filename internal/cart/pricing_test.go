package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priceItem(name string, unitPrice float64, qty int, vatRate float64) LineItem {
	return LineItem{
		EntryID:     "e-" + name,
		ProductName: name,
		Employee:    "E1",
		UnitPrice:   decimal.NewFromFloat(unitPrice),
		Quantity:    qty,
		VATRate:     decimal.NewFromFloat(vatRate),
	}
}

func TestPriceWaivesDeliveryAtThreshold(t *testing.T) {
	// Merged quantity 5 at 10 each with 5% VAT: the canonical scenario.
	summary := Price([]LineItem{priceItem("Basmati Rice", 10, 5, 5)}, DefaultPricingConfig())

	assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(50)), "subtotal %s", summary.Subtotal)
	assert.True(t, summary.DeliveryFee.IsZero(), "fee %s", summary.DeliveryFee)
	assert.True(t, summary.TotalVAT.Equal(decimal.NewFromFloat(2.5)), "vat %s", summary.TotalVAT)
	assert.True(t, summary.GrandTotal.Equal(decimal.NewFromFloat(52.5)), "total %s", summary.GrandTotal)
}

func TestPriceChargesDeliveryBelowThreshold(t *testing.T) {
	summary := Price([]LineItem{priceItem("Olive Oil", 20, 1, 0)}, DefaultPricingConfig())

	assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(20)))
	assert.True(t, summary.DeliveryFee.Equal(decimal.NewFromInt(2)))
	assert.True(t, summary.TotalVAT.IsZero())
	assert.True(t, summary.GrandTotal.Equal(decimal.NewFromInt(22)))
}

func TestPriceGrandTotalInvariant(t *testing.T) {
	carts := [][]LineItem{
		nil,
		{priceItem("A", 3.33, 7, 10)},
		{priceItem("A", 0.105, 3, 5), priceItem("B", 49.99, 1, 0)},
		{priceItem("A", 19.999, 2, 7.5), priceItem("B", 5, 4, 5), priceItem("C", 1.01, 9, 0)},
	}

	for _, items := range carts {
		summary := Price(items, DefaultPricingConfig())
		want := summary.Subtotal.Add(summary.DeliveryFee).Add(summary.TotalVAT)
		require.True(t, summary.GrandTotal.Equal(want), "grand total drifted: %s != %s", summary.GrandTotal, want)

		atThreshold := summary.Subtotal.GreaterThanOrEqual(decimal.NewFromInt(50))
		require.Equal(t, atThreshold, summary.DeliveryFee.IsZero())
	}
}

func TestPriceKeepsExactAccumulation(t *testing.T) {
	// 0.1 * 3 must be exactly 0.3; float accumulation would drift.
	summary := Price([]LineItem{priceItem("A", 0.1, 3, 0)}, DefaultPricingConfig())
	assert.True(t, summary.Subtotal.Equal(decimal.NewFromFloat(0.3)), "subtotal %s", summary.Subtotal)
}
