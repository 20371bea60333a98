package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vectorbase/internal/api/response"
	"vectorbase/internal/service"
)

// ChunkHandler exposes chunk CRUD and batch ingestion over HTTP.
type ChunkHandler struct {
	svc *service.Facade
}

// NewChunkHandler creates a chunk handler bound to a service facade.
func NewChunkHandler(svc *service.Facade) *ChunkHandler {
	return &ChunkHandler{svc: svc}
}

// Create handles POST /chunks.
func (h *ChunkHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.WriteBadRequest(w, "failed to read request body", err.Error())
		return
	}

	chunk, err := h.svc.CreateChunk(body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteCreated(w, chunk)
}

// CreateBatch handles POST /chunks/batch, creating every chunk under a
// document all-or-nothing.
func (h *ChunkHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.WriteBadRequest(w, "failed to read request body", err.Error())
		return
	}

	var payload struct {
		DocumentID string `json:"document_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		response.WriteBadRequest(w, "invalid JSON", err.Error())
		return
	}
	if payload.DocumentID == "" {
		response.WriteBadRequest(w, "document_id is required")
		return
	}

	chunks, err := h.svc.CreateChunksBatch(payload.DocumentID, body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteCreated(w, chunks)
}

// Get handles GET /chunks/{id}.
func (h *ChunkHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	chunk, err := h.svc.GetChunk(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, chunk)
}

// ListByDocument handles GET /chunks/document/{id}.
func (h *ChunkHandler) ListByDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	response.WriteSuccess(w, h.svc.ListChunksByDocument(documentID))
}

// Update handles PATCH /chunks/{id}.
func (h *ChunkHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.WriteBadRequest(w, "failed to read request body", err.Error())
		return
	}

	chunk, err := h.svc.UpdateChunk(id, body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, chunk)
}

// Delete handles DELETE /chunks/{id}.
func (h *ChunkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteChunk(id); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteNoContent(w)
}
