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

func newDocumentRouter(h *DocumentHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/documents", h.Create)
	r.Get("/documents/library/{id}", h.ListByLibrary)
	r.Get("/documents/{id}", h.Get)
	r.Patch("/documents/{id}", h.Update)
	r.Delete("/documents/{id}", h.Delete)
	return r
}

func TestDocumentHandler_CreateUnderLibrary(t *testing.T) {
	svc := newTestFacade(t)
	lib := mustCreateLibrary(t, svc, "history")
	router := newDocumentRouter(NewDocumentHandler(svc))

	body := `{"library_id":"` + lib.ID + `","name":"chapter one"}`
	req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "chapter one")
}

func TestDocumentHandler_ListByLibrary(t *testing.T) {
	svc := newTestFacade(t)
	lib := mustCreateLibrary(t, svc, "geography")
	router := newDocumentRouter(NewDocumentHandler(svc))

	_, err := svc.CreateDocument([]byte(`{"library_id":"` + lib.ID + `","name":"rivers"}`))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/library/"+lib.ID, http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rivers")
}

func TestDocumentHandler_UpdateRejectsChunksField(t *testing.T) {
	svc := newTestFacade(t)
	lib := mustCreateLibrary(t, svc, "art")
	doc, err := svc.CreateDocument([]byte(`{"library_id":"` + lib.ID + `","name":"renaissance"}`))
	require.NoError(t, err)

	router := newDocumentRouter(NewDocumentHandler(svc))
	req := httptest.NewRequest(http.MethodPatch, "/documents/"+doc.ID, strings.NewReader(`{"chunks":[]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentHandler_DeleteReturnsNoContent(t *testing.T) {
	svc := newTestFacade(t)
	lib := mustCreateLibrary(t, svc, "music")
	doc, err := svc.CreateDocument([]byte(`{"library_id":"` + lib.ID + `","name":"baroque"}`))
	require.NoError(t, err)

	router := newDocumentRouter(NewDocumentHandler(svc))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/documents/"+doc.ID, http.NoBody))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
