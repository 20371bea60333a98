package openapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"vectorbase/internal/api/response"
)

// Handler serves the generated OpenAPI document, built once and cached.
type Handler struct {
	once sync.Once
	doc  []byte
	err  error
}

// NewHandler creates an OpenAPI document handler.
func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) build() {
	doc, err := Build()
	if err != nil {
		h.err = err
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		h.err = err
		return
	}
	h.doc = data
}

// ServeHTTP writes the cached OpenAPI JSON document.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(h.build)
	if h.err != nil {
		response.WriteInternalError(w, "failed to generate OpenAPI document", h.err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.doc)
}
