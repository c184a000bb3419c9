// Package remote is the HTTP client for the authoritative cart service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/infrastructure/logger"
)

// maxResponseSize caps how much of a response body is read
const maxResponseSize = 10 << 20

const tracerName = "github.com/storefront/cartsync/internal/infrastructure/remote"

// Config holds the cart service client settings
type Config struct {
	BaseURL string
	Timeout time.Duration
	// BearerToken is an opaque credential forwarded as-is when set
	BearerToken string
	// UserID is forwarded on add requests when set
	UserID string
}

// Gateway is the RemoteCartGateway over HTTP
type Gateway struct {
	cfg        Config
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// Option configures a Gateway
type Option func(*Gateway)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		if c != nil {
			g.httpClient = c
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithTracerProvider sets the tracer provider used for client spans
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(g *Gateway) {
		if tp != nil {
			g.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewGateway creates a Gateway for cfg.BaseURL
func NewGateway(cfg Config, opts ...Option) (*Gateway, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("remote: invalid base url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	g := &Gateway{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
		propagator: otel.GetTextMapPropagator(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.Named("remote")
	return g, nil
}

// Fetch reads the authoritative cart for session
func (g *Gateway) Fetch(ctx context.Context, session cart.SessionID) (cart.Snapshot, error) {
	q := url.Values{"session": {session.String()}}
	var resp fetchResponse
	if err := g.call(ctx, "fetch", http.MethodGet, "/cart", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.snapshot(), nil
}

// Add adds quantity of a product variant to the remote cart
func (g *Gateway) Add(ctx context.Context, session cart.SessionID, productID, variantID int64, quantity int) error {
	body := AddRequest{
		SessionID: session.String(),
		UserID:    g.cfg.UserID,
		Items: []AddLineItem{{
			ProductID: productID,
			VariantID: variantID,
			Quantity:  quantity,
		}},
	}
	var resp envelope
	return g.call(ctx, "add", http.MethodPost, "/cart", nil, body, &resp)
}

// Remove deletes a line from the remote cart
func (g *Gateway) Remove(ctx context.Context, session cart.SessionID, itemID string) error {
	q := url.Values{"sessionId": {session.String()}}
	var resp envelope
	return g.call(ctx, "remove", http.MethodDelete, "/cart/item/"+url.PathEscape(itemID), q, nil, &resp)
}

// Clear empties the remote cart
func (g *Gateway) Clear(ctx context.Context, session cart.SessionID) error {
	q := url.Values{"sessionId": {session.String()}}
	var resp envelope
	return g.call(ctx, "clear", http.MethodDelete, "/cart/"+url.PathEscape(session.String()), q, nil, &resp)
}

// successReporter is implemented by every decoded response
type successReporter interface {
	ok() (bool, string)
}

func (e *envelope) ok() (bool, string) { return e.Success, e.Message }

func (g *Gateway) call(ctx context.Context, op, method, path string, query url.Values, body any, out successReporter) error {
	ctx, span := g.tracer.Start(ctx, "cart.remote."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("cart.operation", op),
		),
	)
	defer span.End()

	err := g.do(ctx, op, method, path, query, body, out)
	if err != nil {
		var re *Error
		if errors.As(err, &re) {
			span.SetAttributes(attribute.String("cart.failure_kind", string(re.Kind)))
			if re.StatusCode != 0 {
				span.SetAttributes(attribute.Int("http.response.status_code", re.StatusCode))
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithLogger(ctx, g.logger).Warn("remote cart call failed",
			zap.String("operation", op),
			zap.Error(err),
		)
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (g *Gateway) do(ctx context.Context, op, method, path string, query url.Values, body any, out successReporter) error {
	// path segments arrive already escaped; keep that encoding on the wire.
	escaped := g.baseURL.EscapedPath() + path
	decoded, err := url.PathUnescape(escaped)
	if err != nil {
		return &Error{Op: op, Kind: FailureTransport, Err: err}
	}
	u := *g.baseURL
	u.Path = decoded
	u.RawPath = escaped
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Kind: FailurePayload, Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return &Error{Op: op, Kind: FailureTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.BearerToken)
	}
	g.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &Error{Op: op, Kind: FailureTransport, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &Error{Op: op, Kind: FailureTransport, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Op: op, Kind: FailureStatus, StatusCode: resp.StatusCode}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Op: op, Kind: FailurePayload, StatusCode: resp.StatusCode, Err: err}
	}
	if ok, msg := out.ok(); !ok {
		return &Error{Op: op, Kind: FailureApplication, StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}

var _ cart.RemoteGateway = (*Gateway)(nil)
