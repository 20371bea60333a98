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

func newLibraryRouter(h *LibraryHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/libraries", h.Create)
	r.Get("/libraries", h.List)
	r.Get("/libraries/{id}", h.Get)
	r.Patch("/libraries/{id}", h.Update)
	r.Delete("/libraries/{id}", h.Delete)
	return r
}

func TestLibraryHandler_CreateAndGet(t *testing.T) {
	svc := newTestFacade(t)
	router := newLibraryRouter(NewLibraryHandler(svc))

	createReq := httptest.NewRequest(http.MethodPost, "/libraries", strings.NewReader(`{"name":"physics"}`))
	createRec := httptest.NewRecorder()
	router.ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusCreated, createRec.Code)
	assert.Contains(t, createRec.Body.String(), "physics")

	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/libraries", http.NoBody))
	assert.Equal(t, http.StatusOK, listRec.Code)
}

func TestLibraryHandler_GetMissingReturnsNotFound(t *testing.T) {
	svc := newTestFacade(t)
	router := newLibraryRouter(NewLibraryHandler(svc))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/libraries/does-not-exist", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLibraryHandler_UpdateRejectsDocumentsField(t *testing.T) {
	svc := newTestFacade(t)
	lib := mustCreateLibrary(t, svc, "chemistry")
	router := newLibraryRouter(NewLibraryHandler(svc))

	req := httptest.NewRequest(http.MethodPatch, "/libraries/"+lib.ID, strings.NewReader(`{"documents":[]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLibraryHandler_DeleteReturnsNoContent(t *testing.T) {
	svc := newTestFacade(t)
	lib := mustCreateLibrary(t, svc, "biology")
	router := newLibraryRouter(NewLibraryHandler(svc))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/libraries/"+lib.ID, http.NoBody))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
