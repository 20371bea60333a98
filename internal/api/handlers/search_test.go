package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSearchRouter(idx *IndexHandler, search *SearchHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/libraries/{id}/index", idx.Start)
	r.Post("/libraries/{id}/search", search.Search)
	return r
}

func TestSearchHandler_MissingQueryTextIsBadRequest(t *testing.T) {
	svc := newTestFacade(t)
	lib := mustCreateLibrary(t, svc, "physics")
	router := newSearchRouter(NewIndexHandler(svc), NewSearchHandler(svc))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/libraries/"+lib.ID+"/search", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandler_BeforeIndexIsConflict(t *testing.T) {
	svc := newTestFacade(t)
	lib := mustCreateLibrary(t, svc, "physics")
	router := newSearchRouter(NewIndexHandler(svc), NewSearchHandler(svc))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/libraries/"+lib.ID+"/search?query_text=hello", http.NoBody))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestIndexHandler_StartReturnsOK(t *testing.T) {
	svc := newTestFacade(t)
	lib := mustCreateLibrary(t, svc, "physics")
	router := newSearchRouter(NewIndexHandler(svc), NewSearchHandler(svc))

	req := httptest.NewRequest(http.MethodPost, "/libraries/"+lib.ID+"/index", strings.NewReader(`{"indexer_type":"BRUTE_FORCE"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestIndexHandler_StartUnknownLibraryIsNotFound(t *testing.T) {
	svc := newTestFacade(t)
	router := newSearchRouter(NewIndexHandler(svc), NewSearchHandler(svc))

	req := httptest.NewRequest(http.MethodPost, "/libraries/does-not-exist/index", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
