// Package integration runs the cart sync engine end to end against the mock
// cart service and an on-disk Badger store.
package integration

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	appcart "github.com/storefront/cartsync/internal/application/cart"
	"github.com/storefront/cartsync/internal/infrastructure/kvstore"
	"github.com/storefront/cartsync/internal/infrastructure/localstore"
	"github.com/storefront/cartsync/internal/infrastructure/remote"
	"github.com/storefront/cartsync/internal/infrastructure/session"
	"github.com/storefront/cartsync/internal/interfaces/http/handler"
	"github.com/storefront/cartsync/internal/interfaces/http/middleware"
	"github.com/storefront/cartsync/internal/interfaces/http/router"
	"github.com/storefront/cartsync/internal/mockcart"
	"github.com/storefront/cartsync/tests/testutil"
)

// remoteService is the mock cart service behind an httptest server
type remoteService struct {
	*mockcart.Server
	URL string
}

func newRemoteService(t *testing.T) *remoteService {
	t.Helper()
	srv := mockcart.New(mockcart.WithLogger(zaptest.NewLogger(t)))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &remoteService{Server: srv, URL: ts.URL + "/api"}
}

// stack is one storefront process: engine, store and UI API
type stack struct {
	client *testutil.APIClient
	kv     *kvstore.BadgerStore
}

func newStack(t *testing.T, dir string, rs *remoteService) *stack {
	t.Helper()
	log := zaptest.NewLogger(t)

	kv, err := kvstore.NewBadgerStore(kvstore.BadgerConfig{Path: dir}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	local := localstore.New(kv, localstore.WithLogger(log))
	sessions := session.NewManager(local, log)

	gw, err := remote.NewGateway(remote.Config{BaseURL: rs.URL, Timeout: 2 * time.Second}, remote.WithLogger(log))
	require.NoError(t, err)

	sync := appcart.NewSynchronizer(gw, local, sessions, appcart.WithLogger(log))

	engine := gin.New()
	engine.Use(middleware.RequestID())
	router.NewRouter(engine).
		Register(handler.NewCartHandler(sync)).
		Register(handler.NewSystemHandler("test", kv, local.Degraded)).
		Setup()

	return &stack{client: testutil.NewAPIClient(t, engine, "/api/v1"), kv: kv}
}

// stop closes the store, as a process exit would
func (s *stack) stop() {
	_ = s.kv.Close()
}

func sessionOf(resp testutil.APIResponse) string {
	id, _ := resp.Data["sessionId"].(string)
	return id
}

func lastErrorOf(resp testutil.APIResponse) string {
	msg, _ := resp.Data["lastError"].(string)
	return msg
}

func totalsOf(resp testutil.APIResponse) map[string]any {
	totals, _ := resp.Data["totals"].(map[string]any)
	return totals
}

func mug(qty int) map[string]any {
	return map[string]any{"productId": 2, "variantId": 0, "quantity": qty, "name": "Ceramic Mug", "unitPrice": "12.50"}
}

func shirt(qty int) map[string]any {
	return map[string]any{"productId": 3, "variantId": 0, "quantity": qty, "name": "Linen Shirt", "unitPrice": "49.90"}
}
