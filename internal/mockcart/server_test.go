package mockcart

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/infrastructure/remote"
)

func newTestGateway(t *testing.T) (*Server, *remote.Gateway, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := New()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	gw, err := remote.NewGateway(remote.Config{BaseURL: ts.URL + "/api", Timeout: 2 * time.Second})
	require.NoError(t, err)
	return srv, gw, ts
}

func TestServer_ContractRoundTrip(t *testing.T) {
	srv, gw, _ := newTestGateway(t)
	ctx := context.Background()
	const session = cart.SessionID("s-1")

	items, err := gw.Fetch(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, gw.Add(ctx, session, 2, 0, 1))
	require.NoError(t, gw.Add(ctx, session, 2, 0, 2))
	require.NoError(t, gw.Add(ctx, session, 3, 1, 1))
	assert.Equal(t, 3, srv.Quantity("s-1", "2-0"))

	items, err = gw.Fetch(ctx, session)
	require.NoError(t, err)
	require.Len(t, items, 2)
	mug, ok := items.Find("2-0")
	require.True(t, ok)
	assert.Equal(t, "Ceramic Mug", mug.Name)
	assert.Equal(t, 3, mug.Quantity)
	assert.Equal(t, "37.50", mug.LineTotal().StringFixed(2))

	require.NoError(t, gw.Remove(ctx, session, "2-0"))
	assert.Equal(t, 0, srv.Quantity("s-1", "2-0"))
	assert.Equal(t, 1, srv.Lines("s-1"))

	require.NoError(t, gw.Clear(ctx, session))
	assert.Equal(t, 0, srv.Lines("s-1"))
}

func TestServer_SessionsAreIsolated(t *testing.T) {
	srv, gw, _ := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, gw.Add(ctx, "a", 1, 0, 1))
	require.NoError(t, gw.Add(ctx, "b", 4, 0, 2))

	assert.Equal(t, 1, srv.Lines("a"))
	assert.Equal(t, 0, srv.Quantity("a", "4-0"))
	assert.Equal(t, 2, srv.Quantity("b", "4-0"))
}

func TestServer_UnknownProductRejected(t *testing.T) {
	_, gw, _ := newTestGateway(t)

	err := gw.Add(context.Background(), "s", 999, 0, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, cart.ErrRemoteFailed)
}

func TestServer_FailureInjection(t *testing.T) {
	tests := []struct {
		name string
		mode Failure
		kind remote.FailureKind
	}{
		{"unavailable", FailUnavailable, remote.FailureStatus},
		{"rejected", FailRejected, remote.FailureApplication},
		{"malformed", FailMalformed, remote.FailurePayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, gw, _ := newTestGateway(t)
			srv.SetFailure(OpFetch, tt.mode)

			_, err := gw.Fetch(context.Background(), "s")
			require.Error(t, err)

			var rerr *remote.Error
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, tt.kind, rerr.Kind)

			// other operations unaffected
			assert.NoError(t, gw.Add(context.Background(), "s", 1, 0, 1))
		})
	}
}

func TestServer_WildcardFailureAndOverride(t *testing.T) {
	srv, gw, _ := newTestGateway(t)
	ctx := context.Background()

	srv.SetFailure(OpAll, FailUnavailable)
	srv.SetFailure(OpAdd, FailRejected)

	assert.Error(t, gw.Clear(ctx, "s"))
	var rerr *remote.Error
	require.ErrorAs(t, gw.Add(ctx, "s", 1, 0, 1), &rerr)
	assert.Equal(t, remote.FailureApplication, rerr.Kind)

	srv.ResetFailures()
	assert.NoError(t, gw.Clear(ctx, "s"))
}

func TestServer_AdminEndpoints(t *testing.T) {
	srv, gw, ts := newTestGateway(t)

	put := func(path, body string) int {
		req, err := http.NewRequest(http.MethodPut, ts.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, put("/__admin/failures/remove", `{"mode":"unavailable"}`))
	assert.Error(t, gw.Remove(context.Background(), "s", "1-0"))
	assert.Equal(t, FailUnavailable, srv.failures.get(OpRemove))

	assert.Equal(t, http.StatusBadRequest, put("/__admin/failures/explode", `{"mode":"unavailable"}`))
	assert.Equal(t, http.StatusBadRequest, put("/__admin/failures/add", `{"mode":"sometimes"}`))

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/__admin/failures", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, gw.Remove(context.Background(), "s", "1-0"))
}

func TestServer_MissingSession(t *testing.T) {
	_, _, ts := newTestGateway(t)

	resp, err := http.Get(ts.URL + "/api/cart")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
