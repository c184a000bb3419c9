package cart

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Product is what the catalog collaborator hands over when a shopper adds something to the cart.
type Product struct {
	ProductID    int64           `json:"productId" validate:"gt=0"`
	VariantID    int64           `json:"variantId" validate:"gte=0"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Name         string          `json:"name" validate:"required,max=255"`
	ThumbnailRef string          `json:"thumbnailRef,omitempty" validate:"max=2048"`
}

var productValidator = validator.New()

// Validate checks the product fields required to build a cart line
func (p Product) Validate() error {
	if err := productValidator.Struct(p); err != nil {
		return ErrInvalidProduct
	}
	if p.UnitPrice.IsNegative() {
		return ErrInvalidProduct
	}
	return nil
}

// ItemID returns the cart line key this product would occupy
func (p Product) ItemID() string {
	return ItemIDFor(p.ProductID, p.VariantID)
}
