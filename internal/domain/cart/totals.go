package cart

import (
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is applied when no pricing configuration is supplied
var DefaultTaxRate = decimal.NewFromFloat(0.10)

// Totals is the derived, never persisted money view of a snapshot
type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

// Calculator derives Totals from a Snapshot. It holds only policy constants.
type Calculator struct {
	taxRate  decimal.Decimal
	shipping decimal.Decimal
}

// NewCalculator creates a calculator with the given tax rate and flat shipping charge
func NewCalculator(taxRate, shipping decimal.Decimal) Calculator {
	return Calculator{
		taxRate:  taxRate,
		shipping: shipping,
	}
}

// DefaultCalculator uses DefaultTaxRate and free shipping
func DefaultCalculator() Calculator {
	return NewCalculator(DefaultTaxRate, decimal.Zero)
}

// TaxRate returns the configured rate
func (c Calculator) TaxRate() decimal.Decimal {
	return c.taxRate
}

// Calculate computes subtotal, shipping, tax, total and item count
func (c Calculator) Calculate(s Snapshot) Totals {
	subtotal := decimal.Zero
	for _, item := range s {
		subtotal = subtotal.Add(item.LineTotal())
	}
	tax := subtotal.Mul(c.taxRate)
	return Totals{
		Subtotal:  subtotal,
		Shipping:  c.shipping,
		Tax:       tax,
		Total:     subtotal.Add(c.shipping).Add(tax),
		ItemCount: s.ItemCount(),
	}
}
