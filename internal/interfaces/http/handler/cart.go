package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	appcart "github.com/storefront/cartsync/internal/application/cart"
	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/interfaces/http/dto"
	"github.com/storefront/cartsync/internal/interfaces/http/middleware"
)

// CartService is the cart engine as seen by the HTTP layer
type CartService interface {
	State() appcart.State
	FetchCartItems(ctx context.Context)
	AddToCart(ctx context.Context, product cart.Product, quantity int) error
	RemoveFromCart(ctx context.Context, itemID string) error
	UpdateCartItemQuantity(ctx context.Context, itemID string, quantity int) error
	ClearCart(ctx context.Context)
	ResetSession(ctx context.Context) cart.SessionID
}

// CartHandler exposes the guest cart to the storefront UI
type CartHandler struct {
	BaseHandler
	service CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(service CartService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes mounts the cart endpoints on rg
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/cart")
	g.GET("", h.GetCart)
	g.DELETE("", h.ClearCart)
	g.POST("/refresh", h.RefreshCart)
	g.POST("/items", h.AddItem)
	g.PUT("/items/:id", h.UpdateItemQuantity)
	g.DELETE("/items/:id", h.RemoveItem)
	g.POST("/session/reset", h.ResetSession)
}

// GetCart returns the current cart with totals, without contacting the remote
func (h *CartHandler) GetCart(c *gin.Context) {
	h.render(c)
}

// RefreshCart re-fetches the authoritative cart
func (h *CartHandler) RefreshCart(c *gin.Context) {
	h.service.FetchCartItems(c.Request.Context())
	h.render(c)
}

// AddItem adds a product line, merging with an existing line of the same variant
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.service.AddToCart(c.Request.Context(), req.Product(), req.Quantity); err != nil {
		h.HandleError(c, err)
		return
	}
	h.render(c)
}

// UpdateItemQuantity sets a line's quantity; zero or less removes the line
func (h *CartHandler) UpdateItemQuantity(c *gin.Context) {
	itemID, ok := h.itemID(c)
	if !ok {
		return
	}

	var req dto.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.service.UpdateCartItemQuantity(c.Request.Context(), itemID, *req.Quantity); err != nil {
		h.HandleError(c, err)
		return
	}
	h.render(c)
}

// RemoveItem drops a line from the cart
func (h *CartHandler) RemoveItem(c *gin.Context) {
	itemID, ok := h.itemID(c)
	if !ok {
		return
	}

	if err := h.service.RemoveFromCart(c.Request.Context(), itemID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.render(c)
}

// ClearCart empties the cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	h.service.ClearCart(c.Request.Context())
	h.render(c)
}

// ResetSession abandons the current guest session and starts an empty one
func (h *CartHandler) ResetSession(c *gin.Context) {
	h.service.ResetSession(c.Request.Context())
	h.render(c)
}

func (h *CartHandler) itemID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		h.BadRequest(c, "Item id is required")
		return "", false
	}
	return id, true
}

func (h *CartHandler) render(c *gin.Context) {
	state := h.service.State()
	c.Set(middleware.SessionIDKey, state.SessionID.String())
	h.Success(c, dto.NewCartView(state))
}
