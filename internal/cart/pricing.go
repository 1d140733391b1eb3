package cart

import "github.com/shopspring/decimal"

// PricingConfig carries the delivery-fee constants.
type PricingConfig struct {
	// DeliveryThreshold is the subtotal at which the delivery fee is waived.
	DeliveryThreshold decimal.Decimal
	// DeliveryFee is the flat fee charged below the threshold.
	DeliveryFee decimal.Decimal
}

// DefaultPricingConfig returns the standard threshold (50) and fee (2).
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		DeliveryThreshold: decimal.NewFromInt(50),
		DeliveryFee:       decimal.NewFromInt(2),
	}
}

// PricingSummary is derived from the consolidated cart on every read and
// never persisted. GrandTotal always equals Subtotal + DeliveryFee + TotalVAT.
type PricingSummary struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	TotalVAT    decimal.Decimal `json:"totalVat"`
	GrandTotal  decimal.Decimal `json:"grandTotal"`
}

// Price computes the pricing summary for a consolidated line-item list.
// Accumulation stays exact; rounding to two places happens only at
// presentation boundaries.
func Price(items []LineItem, cfg PricingConfig) PricingSummary {
	subtotal := decimal.Zero
	totalVAT := decimal.Zero
	hundred := decimal.NewFromInt(100)

	for _, item := range items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
		totalVAT = totalVAT.Add(line.Mul(item.VATRate).Div(hundred))
	}

	fee := decimal.Zero
	if subtotal.LessThan(cfg.DeliveryThreshold) {
		fee = cfg.DeliveryFee
	}

	return PricingSummary{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		TotalVAT:    totalVAT,
		GrandTotal:  subtotal.Add(fee).Add(totalVAT),
	}
}
