package remote

import (
	"github.com/shopspring/decimal"

	"github.com/storefront/cartsync/internal/domain/cart"
)

// envelope is the common response shape of the cart service
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type fetchResponse struct {
	envelope
	Data *struct {
		CartView *struct {
			CartItems []WireItem `json:"cartItems"`
		} `json:"cartView"`
	} `json:"data"`
}

// WireItem is one cart line as the cart service reports it
type WireItem struct {
	ProductID   int64           `json:"productId"`
	VariantID   int64           `json:"variantId"`
	Quantity    int             `json:"quantity"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Thumbnail   string          `json:"thumbnail,omitempty"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// AddRequest is the POST /cart body
type AddRequest struct {
	SessionID string        `json:"sessionId"`
	UserID    string        `json:"userId,omitempty"`
	Items     []AddLineItem `json:"items"`
}

// AddLineItem is a single line of an AddRequest
type AddLineItem struct {
	ProductID int64 `json:"productId"`
	VariantID int64 `json:"variantId"`
	Quantity  int   `json:"quantity"`
}

// toItem maps a wire line to a cart item. The reported subtotal is ignored;
// line totals are always derived.
func (w WireItem) toItem() cart.Item {
	return cart.Item{
		ID:           cart.ItemIDFor(w.ProductID, w.VariantID),
		ProductID:    w.ProductID,
		VariantID:    w.VariantID,
		Quantity:     w.Quantity,
		Name:         w.ProductName,
		UnitPrice:    w.UnitPrice,
		ThumbnailRef: w.Thumbnail,
	}
}

// FromItem maps a cart item to its wire representation
func FromItem(item cart.Item) WireItem {
	return WireItem{
		ProductID:   item.ProductID,
		VariantID:   item.VariantID,
		Quantity:    item.Quantity,
		ProductName: item.Name,
		UnitPrice:   item.UnitPrice,
		Thumbnail:   item.ThumbnailRef,
		Subtotal:    item.LineTotal(),
	}
}

func (r *fetchResponse) snapshot() cart.Snapshot {
	if r.Data == nil || r.Data.CartView == nil {
		return cart.EmptySnapshot()
	}
	items := make(cart.Snapshot, 0, len(r.Data.CartView.CartItems))
	for _, w := range r.Data.CartView.CartItems {
		items = append(items, w.toItem())
	}
	return items.Normalize()
}
