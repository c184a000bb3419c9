package cart

import (
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculator_Empty(t *testing.T) {
	totals := DefaultCalculator().Calculate(EmptySnapshot())
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Tax.IsZero())
	assert.True(t, totals.Total.IsZero())
	assert.Equal(t, 0, totals.ItemCount)
}

func TestCalculator_SingleLine(t *testing.T) {
	s := EmptySnapshot().Merge(mustItem(t, shirt(), 2))
	totals := DefaultCalculator().Calculate(s)

	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(40)))
	assert.True(t, totals.Shipping.IsZero())
	assert.True(t, totals.Tax.Equal(decimal.NewFromInt(4)))
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(44)))
	assert.Equal(t, 2, totals.ItemCount)
}

func TestCalculator_ShippingAndRate(t *testing.T) {
	calc := NewCalculator(decimal.NewFromFloat(0.2), decimal.NewFromInt(5))
	s := EmptySnapshot().Merge(mustItem(t, mug(), 4))
	totals := calc.Calculate(s)

	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(30)))
	assert.True(t, totals.Tax.Equal(decimal.NewFromInt(6)))
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(41)))
	assert.True(t, calc.TaxRate().Equal(decimal.NewFromFloat(0.2)))
}

func TestCalculator_SubtotalMatchesFloatSum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	calc := DefaultCalculator()

	for run := 0; run < 50; run++ {
		s := EmptySnapshot()
		expected := 0.0
		for i := 0; i < 1+rng.Intn(8); i++ {
			price := float64(rng.Intn(100000)) / 100
			qty := 1 + rng.Intn(5)
			s = s.Merge(Item{
				ID:        ItemIDFor(int64(i+1), 0),
				ProductID: int64(i + 1),
				Quantity:  qty,
				Name:      "p",
				UnitPrice: decimal.NewFromFloat(price),
			})
			expected += price * float64(qty)
		}

		totals := calc.Calculate(s)
		subtotal, _ := totals.Subtotal.Float64()
		assert.LessOrEqual(t, math.Abs(subtotal-expected), 1e-9*math.Max(1, expected))
		assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Shipping).Add(totals.Tax)))
	}
}
