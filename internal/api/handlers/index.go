package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vectorbase/internal/api/response"
	"vectorbase/internal/service"
)

// IndexHandler exposes index build and status over HTTP.
type IndexHandler struct {
	svc *service.Facade
}

// NewIndexHandler creates an index handler bound to a service facade.
func NewIndexHandler(svc *service.Facade) *IndexHandler {
	return &IndexHandler{svc: svc}
}

type startIndexRequest struct {
	IndexerType string `json:"indexer_type"`
	LeafSize    int    `json:"leaf_size"`
}

// Start handles POST /libraries/{id}/index.
func (h *IndexHandler) Start(w http.ResponseWriter, r *http.Request) {
	libraryID := chi.URLParam(r, "id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.WriteBadRequest(w, "failed to read request body", err.Error())
		return
	}

	var req startIndexRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			response.WriteBadRequest(w, "invalid JSON", err.Error())
			return
		}
	}

	status, err := h.svc.StartIndex(libraryID, req.IndexerType, req.LeafSize)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, status)
}

// Status handles GET /libraries/{id}/index/status.
func (h *IndexHandler) Status(w http.ResponseWriter, r *http.Request) {
	libraryID := chi.URLParam(r, "id")

	status, description, err := h.svc.IndexStatus(libraryID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteSuccess(w, struct {
		Status      interface{} `json:"status"`
		Description interface{} `json:"description,omitempty"`
	}{Status: status, Description: description})
}
