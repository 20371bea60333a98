package openapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_ProducesValidDocument(t *testing.T) {
	doc, err := Build()
	require.NoError(t, err)
	assert.Equal(t, "1.0", doc.Info.Version)
	assert.NotNil(t, doc.Paths.Find("/api/libraries"))
	assert.NotNil(t, doc.Paths.Find("/api/chunks/batch"))
}

func TestHandler_ServesJSON(t *testing.T) {
	h := NewHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, rec.Body.String(), "vectorbase API")
}
