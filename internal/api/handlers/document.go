package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vectorbase/internal/api/response"
	"vectorbase/internal/service"
)

// DocumentHandler exposes document CRUD over HTTP.
type DocumentHandler struct {
	svc *service.Facade
}

// NewDocumentHandler creates a document handler bound to a service facade.
func NewDocumentHandler(svc *service.Facade) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Create handles POST /documents, optionally cascading nested chunks.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.WriteBadRequest(w, "failed to read request body", err.Error())
		return
	}

	doc, err := h.svc.CreateDocument(body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteCreated(w, doc)
}

// Get handles GET /documents/{id}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.svc.GetDocument(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, doc)
}

// ListByLibrary handles GET /documents/library/{id}.
func (h *DocumentHandler) ListByLibrary(w http.ResponseWriter, r *http.Request) {
	libraryID := chi.URLParam(r, "id")
	response.WriteSuccess(w, h.svc.ListDocumentsByLibrary(libraryID))
}

// Update handles PATCH /documents/{id}.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.WriteBadRequest(w, "failed to read request body", err.Error())
		return
	}

	doc, err := h.svc.UpdateDocument(id, body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, doc)
}

// Delete handles DELETE /documents/{id}.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteDocument(id); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteNoContent(w)
}
