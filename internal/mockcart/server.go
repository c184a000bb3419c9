// Package mockcart is an in-memory stand-in for the authoritative cart
// service, with switchable failure injection.
package mockcart

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/cartsync/internal/infrastructure/remote"
)

type line struct {
	productID int64
	variantID int64
	quantity  int
}

func (l line) id() string {
	return strconv.FormatInt(l.productID, 10) + "-" + strconv.FormatInt(l.variantID, 10)
}

// Server holds every session's cart in memory
type Server struct {
	mu       sync.Mutex
	carts    map[string][]line
	catalog  map[int64]Product
	failures *failureSet
	logger   *zap.Logger
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCatalog replaces the default catalog
func WithCatalog(products []Product) Option {
	return func(s *Server) {
		s.catalog = make(map[int64]Product, len(products))
		for _, p := range products {
			s.catalog[p.ProductID] = p
		}
	}
}

// New creates a Server with the default catalog
func New(opts ...Option) *Server {
	s := &Server{
		carts:    make(map[string][]line),
		failures: newFailureSet(),
		logger:   zap.NewNop(),
	}
	WithCatalog(DefaultCatalog())(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetFailure makes op misbehave as mode. FailNone restores normal service.
func (s *Server) SetFailure(op Operation, mode Failure) {
	s.failures.set(op, mode)
	s.logger.Info("failure injection changed", zap.String("operation", string(op)), zap.String("mode", string(mode)))
}

// ResetFailures restores normal service on every endpoint
func (s *Server) ResetFailures() {
	s.failures.reset()
}

// Quantity reports the quantity of itemID in a session's cart, 0 when absent
func (s *Server) Quantity(session, itemID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.carts[session] {
		if l.id() == itemID {
			return l.quantity
		}
	}
	return 0
}

// Lines reports how many distinct lines a session's cart holds
func (s *Server) Lines(session string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts[session])
}

// RegisterRoutes mounts the cart service wire contract on rg
func (s *Server) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cart", s.inject(OpFetch), s.fetch)
	rg.POST("/cart", s.inject(OpAdd), s.add)
	rg.DELETE("/cart/item/:itemId", s.inject(OpRemove), s.remove)
	rg.DELETE("/cart/:sessionId", s.inject(OpClear), s.clear)
}

// RegisterAdminRoutes mounts the failure injection endpoints on rg
func (s *Server) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/failures", s.listFailures)
	rg.PUT("/failures/:operation", s.putFailure)
	rg.DELETE("/failures", s.deleteFailures)
}

// Handler returns a complete engine serving the contract under /api and the
// admin endpoints under /__admin
func (s *Server) Handler(middleware ...gin.HandlerFunc) http.Handler {
	engine := gin.New()
	engine.Use(middleware...)
	s.RegisterRoutes(engine.Group("/api"))
	s.RegisterAdminRoutes(engine.Group("/__admin"))
	return engine
}

func (s *Server) inject(op Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch s.failures.get(op) {
		case FailUnavailable:
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "cart service unavailable"})
		case FailRejected:
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"success": false, "message": "operation rejected"})
		case FailMalformed:
			c.Data(http.StatusOK, "application/json", []byte("<html>gateway error</html>"))
			c.Abort()
		default:
			c.Next()
		}
	}
}

func (s *Server) fetch(c *gin.Context) {
	session := c.Query("session")
	if session == "" {
		reject(c, http.StatusBadRequest, "session is required")
		return
	}

	s.mu.Lock()
	lines := s.carts[session]
	items := make([]remote.WireItem, 0, len(lines))
	for _, l := range lines {
		p := s.catalog[l.productID]
		items = append(items, remote.WireItem{
			ProductID:   l.productID,
			VariantID:   l.variantID,
			Quantity:    l.quantity,
			ProductName: p.Name,
			UnitPrice:   p.UnitPrice,
			Thumbnail:   p.Thumbnail,
			Subtotal:    p.UnitPrice.Mul(decimal.NewFromInt(int64(l.quantity))),
		})
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"cartView": gin.H{"cartItems": items},
		},
	})
}

func (s *Server) add(c *gin.Context) {
	var req remote.AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reject(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || len(req.Items) == 0 {
		reject(c, http.StatusBadRequest, "sessionId and items are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range req.Items {
		if _, ok := s.catalog[it.ProductID]; !ok {
			reject(c, http.StatusOK, "product not found")
			return
		}
		if it.Quantity < 1 {
			reject(c, http.StatusOK, "quantity must be positive")
			return
		}
	}

	cart := s.carts[req.SessionID]
	for _, it := range req.Items {
		cart = merge(cart, line{productID: it.ProductID, variantID: it.VariantID, quantity: it.Quantity})
	}
	s.carts[req.SessionID] = cart

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "added to cart"})
}

func (s *Server) remove(c *gin.Context) {
	session := c.Query("sessionId")
	if session == "" {
		reject(c, http.StatusBadRequest, "sessionId is required")
		return
	}
	itemID := c.Param("itemId")

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[session]
	kept := lines[:0]
	for _, l := range lines {
		if l.id() != itemID {
			kept = append(kept, l)
		}
	}
	s.carts[session] = kept

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "removed from cart"})
}

func (s *Server) clear(c *gin.Context) {
	session := c.Param("sessionId")
	if q := c.Query("sessionId"); q != "" && q != session {
		reject(c, http.StatusBadRequest, "session mismatch")
		return
	}

	s.mu.Lock()
	delete(s.carts, session)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "cart cleared"})
}

func (s *Server) listFailures(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.failures.snapshot()})
}

func (s *Server) putFailure(c *gin.Context) {
	op, err := ParseOperation(c.Param("operation"))
	if err != nil {
		reject(c, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Mode string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		reject(c, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := ParseFailure(strings.TrimSpace(body.Mode))
	if err != nil {
		reject(c, http.StatusBadRequest, err.Error())
		return
	}

	s.SetFailure(op, mode)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) deleteFailures(c *gin.Context) {
	s.ResetFailures()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func merge(lines []line, add line) []line {
	for i := range lines {
		if lines[i].id() == add.id() {
			lines[i].quantity += add.quantity
			return lines
		}
	}
	return append(lines, add)
}

func reject(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
