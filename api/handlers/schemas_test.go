package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/socialforge/schema"
	"github.com/BaSui01/socialforge/types"
)

func newSchemasRequest(t *testing.T, h *SchemasHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/schemas", h.HandleList)
	mux.HandleFunc("GET /v1/schemas/{name}", h.HandleGet)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSchemasHandler_ListBuiltins(t *testing.T) {
	h := NewSchemasHandler(schema.Builtin(), zap.NewNop())

	rec := newSchemasRequest(t, h, "/v1/schemas")

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	schemas, ok := data["schemas"].([]any)
	require.True(t, ok)
	assert.Len(t, schemas, 5)
}

func TestSchemasHandler_GetKnown(t *testing.T) {
	h := NewSchemasHandler(schema.Builtin(), zap.NewNop())

	rec := newSchemasRequest(t, h, "/v1/schemas/x")

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x", data["name"])
	fields, ok := data["fields"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, fields)
}

func TestSchemasHandler_GetUnknown(t *testing.T) {
	h := NewSchemasHandler(schema.Builtin(), zap.NewNop())

	rec := newSchemasRequest(t, h, "/v1/schemas/myspace")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, string(types.ErrUnknownSchema), resp.Error.Code)
}
