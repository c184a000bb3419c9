package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when absent", "", false},
		{"propagated when present", "abc-123", true},
		{"replaced when oversized", strings.Repeat("a", MaxRequestIDLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := gin.New()
			engine.Use(RequestID())
			var seen string
			engine.GET("/", func(c *gin.Context) {
				seen = c.GetString("request_id")
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
			if tt.keep {
				assert.Equal(t, tt.incoming, seen)
			} else {
				assert.NotEqual(t, tt.incoming, seen)
			}
		})
	}
}

func TestCORSWithConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		origins    []string
		origin     string
		method     string
		wantStatus int
		wantAllow  string
	}{
		{"allowed origin", []string{"http://shop.test"}, "http://shop.test", http.MethodGet, http.StatusOK, "http://shop.test"},
		{"unknown origin", []string{"http://shop.test"}, "http://evil.test", http.MethodGet, http.StatusOK, ""},
		{"wildcard", []string{"*"}, "http://any.test", http.MethodGet, http.StatusOK, "*"},
		{"empty whitelist", nil, "http://shop.test", http.MethodGet, http.StatusOK, ""},
		{"preflight allowed", []string{"http://shop.test"}, "http://shop.test", http.MethodOptions, http.StatusNoContent, "http://shop.test"},
		{"preflight refused", []string{"http://shop.test"}, "http://evil.test", http.MethodOptions, http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCORSConfig()
			cfg.AllowOrigins = tt.origins

			engine := gin.New()
			engine.Use(CORSWithConfig(cfg))
			engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllow, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantAllow != "" && tt.wantAllow != "*" {
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestTracing_RecordsSpanAttributesAndErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	engine := gin.New()
	engine.Use(RequestID())
	engine.Use(TracingWithConfig(TracingConfig{ServiceName: "cartsync-test", Enabled: true, TracerProvider: tp}))
	engine.Use(SpanAttributes())
	engine.Use(SpanErrorMarker())
	engine.GET("/ok", func(c *gin.Context) {
		c.Set(SessionIDKey, "session-9")
		c.Status(http.StatusOK)
	})
	engine.GET("/busy", func(c *gin.Context) { c.Status(http.StatusConflict) })

	for _, path := range []string{"/ok", "/busy"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(RequestIDHeader, "req-"+path[1:])
		engine.ServeHTTP(httptest.NewRecorder(), req)
	}

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "req-ok", attrs["request_id"])
	assert.Equal(t, "session-9", attrs["cart.session_id"])
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "Conflict", spans[1].Status().Description)
}

func TestTracing_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
