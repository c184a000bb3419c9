package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// APIResponse is the decoded dto.Response envelope
type APIResponse struct {
	Status  int
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Items returns data.items as a slice of objects
func (r APIResponse) Items() []map[string]any {
	raw, _ := r.Data["items"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Item finds a line in data.items by id
func (r APIResponse) Item(id string) (map[string]any, bool) {
	for _, it := range r.Items() {
		if it["id"] == id {
			return it, true
		}
	}
	return nil, false
}

// Quantity returns the quantity of line id, 0 when absent
func (r APIResponse) Quantity(id string) int {
	it, ok := r.Item(id)
	if !ok {
		return 0
	}
	q, _ := it["quantity"].(float64)
	return int(q)
}

// APIClient issues JSON requests against an http.Handler
type APIClient struct {
	t       *testing.T
	handler http.Handler
	prefix  string
}

// NewAPIClient creates a client that prefixes every path with prefix
func NewAPIClient(t *testing.T, handler http.Handler, prefix string) *APIClient {
	return &APIClient{t: t, handler: handler, prefix: prefix}
}

// Do sends a request with an optional JSON body and decodes the envelope.
func (c *APIClient) Do(method, path string, body any) APIResponse {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err, "Failed to marshal request body")
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, c.prefix+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	var resp APIResponse
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to parse JSON response: %s", w.Body.String())
	resp.Status = w.Code
	return resp
}

// AssertSuccess asserts a 200 response with success:true
func AssertSuccess(t *testing.T, resp APIResponse) {
	t.Helper()
	assert.Equal(t, http.StatusOK, resp.Status, "Unexpected status code")
	assert.True(t, resp.Success, "Expected success to be true")
	assert.Nil(t, resp.Error, "Expected no error")
}

// AssertError asserts an error response with the given status and code
func AssertError(t *testing.T, resp APIResponse, status int, code string) {
	t.Helper()
	assert.Equal(t, status, resp.Status, "Unexpected status code")
	assert.False(t, resp.Success, "Expected success to be false")
	require.NotNil(t, resp.Error, "Expected error object in response")
	assert.Equal(t, code, resp.Error.Code, "Unexpected error code")
}
