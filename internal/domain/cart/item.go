package cart

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// SessionID identifies an anonymous guest cart. It is independent of any login identity.
type SessionID string

// String returns the string representation of SessionID
func (s SessionID) String() string {
	return string(s)
}

// IsZero reports whether no session has been assigned
func (s SessionID) IsZero() bool {
	return s == ""
}

// Item is a single cart line. ID is the composite "productId-variantId" key.
// The line total is always derived from UnitPrice and Quantity.
type Item struct {
	ID           string          `json:"id"`
	ProductID    int64           `json:"productId"`
	VariantID    int64           `json:"variantId"`
	Quantity     int             `json:"quantity"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	ThumbnailRef string          `json:"thumbnailRef,omitempty"`
}

// ItemIDFor builds the composite item key for a product variant
func ItemIDFor(productID, variantID int64) string {
	return strconv.FormatInt(productID, 10) + "-" + strconv.FormatInt(variantID, 10)
}

// NewItem creates a cart line for the given product with the given quantity
func NewItem(p Product, quantity int) (Item, error) {
	if quantity < 1 {
		return Item{}, ErrInvalidQuantity
	}
	return Item{
		ID:           ItemIDFor(p.ProductID, p.VariantID),
		ProductID:    p.ProductID,
		VariantID:    p.VariantID,
		Quantity:     quantity,
		Name:         p.Name,
		UnitPrice:    p.UnitPrice,
		ThumbnailRef: p.ThumbnailRef,
	}, nil
}

// LineTotal returns UnitPrice * Quantity
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Equal compares two items field by field, using decimal equality for the price
func (i Item) Equal(other Item) bool {
	return i.ID == other.ID &&
		i.ProductID == other.ProductID &&
		i.VariantID == other.VariantID &&
		i.Quantity == other.Quantity &&
		i.Name == other.Name &&
		i.UnitPrice.Equal(other.UnitPrice) &&
		i.ThumbnailRef == other.ThumbnailRef
}
