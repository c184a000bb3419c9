package cart

import (
	"errors"

	"github.com/storefront/cartsync/internal/domain/shared"
)

// ErrRemoteFailed is the single outcome every remote cart failure collapses into.
// Transport, status, payload and application failures all wrap it.
var ErrRemoteFailed = errors.New("cart: remote operation failed")

// ErrStoreUnavailable reports that the persistent fallback store could not be used
// and the cart is being kept in memory only.
var ErrStoreUnavailable = errors.New("cart: persistent store unavailable")

// Rejections returned by the synchronizer without touching remote or local state.
var (
	ErrItemBusy        = shared.NewDomainError("ITEM_BUSY", "Another change to this cart item is still in progress")
	ErrItemNotFound    = shared.NewDomainError("ITEM_NOT_FOUND", "Cart item not found")
	ErrInvalidQuantity = shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	ErrInvalidProduct  = shared.NewDomainError("INVALID_PRODUCT", "Product is missing required fields")
	ErrUpdateAborted   = shared.NewDomainError("UPDATE_ABORTED", "Quantity update failed before the cart was changed")
)
