package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vectorbase/internal/api/response"
	"vectorbase/internal/service"
)

// LibraryHandler exposes library CRUD over HTTP.
type LibraryHandler struct {
	svc *service.Facade
}

// NewLibraryHandler creates a library handler bound to a service facade.
func NewLibraryHandler(svc *service.Facade) *LibraryHandler {
	return &LibraryHandler{svc: svc}
}

// Create handles POST /libraries, optionally cascading nested documents/chunks.
func (h *LibraryHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.WriteBadRequest(w, "failed to read request body", err.Error())
		return
	}

	lib, err := h.svc.CreateLibrary(body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteCreated(w, lib)
}

// List handles GET /libraries.
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, h.svc.ListLibraries())
}

// Get handles GET /libraries/{id}.
func (h *LibraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lib, err := h.svc.GetLibrary(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, lib)
}

// Update handles PATCH /libraries/{id}.
func (h *LibraryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.WriteBadRequest(w, "failed to read request body", err.Error())
		return
	}

	lib, err := h.svc.UpdateLibrary(id, body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, lib)
}

// Delete handles DELETE /libraries/{id}.
func (h *LibraryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteLibrary(id); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteNoContent(w)
}
