package dto

import (
	"github.com/shopspring/decimal"

	appcart "github.com/storefront/cartsync/internal/application/cart"
	"github.com/storefront/cartsync/internal/domain/cart"
)

// AddItemRequest is the body of POST /cart/items
type AddItemRequest struct {
	ProductID    int64           `json:"productId" binding:"required,gt=0"`
	VariantID    int64           `json:"variantId" binding:"gte=0"`
	Quantity     int             `json:"quantity" binding:"required,min=1"`
	Name         string          `json:"name" binding:"required,max=255"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	ThumbnailRef string          `json:"thumbnailRef" binding:"max=2048"`
}

// Product converts the request into the domain product
func (r AddItemRequest) Product() cart.Product {
	return cart.Product{
		ProductID:    r.ProductID,
		VariantID:    r.VariantID,
		UnitPrice:    r.UnitPrice,
		Name:         r.Name,
		ThumbnailRef: r.ThumbnailRef,
	}
}

// UpdateQuantityRequest is the body of PUT /cart/items/:id. Zero or less removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CartItemView is one cart line as rendered
type CartItemView struct {
	ID           string `json:"id"`
	ProductID    int64  `json:"productId"`
	VariantID    int64  `json:"variantId"`
	Quantity     int    `json:"quantity"`
	Name         string `json:"name"`
	UnitPrice    string `json:"unitPrice"`
	LineTotal    string `json:"lineTotal"`
	ThumbnailRef string `json:"thumbnailRef,omitempty"`
}

// TotalsView carries totals rounded to cents
type TotalsView struct {
	Subtotal  string `json:"subtotal"`
	Shipping  string `json:"shipping"`
	Tax       string `json:"tax"`
	Total     string `json:"total"`
	ItemCount int    `json:"itemCount"`
}

// CartView is the response body of every cart endpoint
type CartView struct {
	SessionID string         `json:"sessionId"`
	Items     []CartItemView `json:"items"`
	Totals    TotalsView     `json:"totals"`
	Loading   bool           `json:"loading"`
	LastError string         `json:"lastError,omitempty"`
}

// NewCartView renders synchronizer state
func NewCartView(s appcart.State) CartView {
	items := make([]CartItemView, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, CartItemView{
			ID:           it.ID,
			ProductID:    it.ProductID,
			VariantID:    it.VariantID,
			Quantity:     it.Quantity,
			Name:         it.Name,
			UnitPrice:    it.UnitPrice.StringFixed(2),
			LineTotal:    it.LineTotal().StringFixed(2),
			ThumbnailRef: it.ThumbnailRef,
		})
	}

	view := CartView{
		SessionID: s.SessionID.String(),
		Items:     items,
		Totals:    NewTotalsView(s.Totals),
		Loading:   s.Loading,
	}
	if s.LastError != nil {
		view.LastError = s.LastError.Error()
	}
	return view
}

// NewTotalsView rounds totals for presentation
func NewTotalsView(t cart.Totals) TotalsView {
	return TotalsView{
		Subtotal:  t.Subtotal.StringFixed(2),
		Shipping:  t.Shipping.StringFixed(2),
		Tax:       t.Tax.StringFixed(2),
		Total:     t.Total.StringFixed(2),
		ItemCount: t.ItemCount,
	}
}
