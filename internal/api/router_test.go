package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vectorbase/internal/config"
	"vectorbase/internal/embeddings"
	"vectorbase/internal/indexmanager"
	"vectorbase/internal/logging"
	"vectorbase/internal/service"
	"vectorbase/internal/snapshot"
	"vectorbase/internal/store"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Generate(_ context.Context, text string, _ embeddings.InputType) ([]float32, error) {
	return []float32{float32(len(text)), 1, 0}, nil
}

func (f fakeEmbedder) GenerateBatch(ctx context.Context, texts []string, inputType embeddings.InputType) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = f.Generate(ctx, t, inputType)
	}
	return out, nil
}

func (fakeEmbedder) GetDimensions() int { return 3 }

func (fakeEmbedder) HealthCheck(_ context.Context) error { return nil }

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.Host = "localhost"

	st := store.New()
	idx := indexmanager.New(st, fakeEmbedder{}, logging.NewNoOpLogger())
	snap := snapshot.New(t.TempDir(), st, logging.NewNoOpLogger())
	svc := service.New(st, idx, snap, logging.NewNoOpLogger())

	return NewRouter(cfg, svc, logging.NewNoOpLogger())
}

func TestNewRouter(t *testing.T) {
	router := newTestRouter(t)

	assert.NotNil(t, router)
	assert.NotNil(t, router.Handler())
	assert.Equal(t, "1.0.0", router.version)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	w := httptest.NewRecorder()

	router.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestAPIHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody)
	w := httptest.NewRecorder()

	router.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestRootEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	w := httptest.NewRecorder()

	router.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestVersionMiddleware(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody)
	req.Header.Set("X-API-Version", "1.0")
	w := httptest.NewRecorder()

	router.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.0", w.Header().Get("X-API-Version"))
}

func TestCORSMiddleware(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/health", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()

	router.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFoundHandler(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", http.NoBody)
	w := httptest.NewRecorder()

	router.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPatch, "/health", http.NoBody)
	w := httptest.NewRecorder()

	router.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestLibraryLifecycleThroughRouter(t *testing.T) {
	router := newTestRouter(t)

	createReq := httptest.NewRequest(http.MethodPost, "/api/libraries", strings.NewReader(`{"name":"test lib"}`))
	createRec := httptest.NewRecorder()
	router.Handler().ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusCreated, createRec.Code)
}
