// Package embeddings provides interfaces and types for text embedding generation.
package embeddings

import (
	"context"
)

// InputType tells the embedding provider whether the text being embedded is
// content being indexed or a query being searched, so it can pick the
// asymmetric embedding variant appropriate to each.
type InputType string

const (
	// InputTypeDocument marks text being ingested into a library for later search.
	InputTypeDocument InputType = "search_document"
	// InputTypeQuery marks text submitted as a nearest-neighbor search query.
	InputTypeQuery InputType = "search_query"
)

// EmbeddingService defines the interface for generating text embeddings.
type EmbeddingService interface {
	// Generate creates an embedding for a single text.
	Generate(ctx context.Context, text string, inputType InputType) ([]float32, error)

	// GenerateBatch creates embeddings for multiple texts efficiently.
	GenerateBatch(ctx context.Context, texts []string, inputType InputType) ([][]float32, error)

	// GetDimensions returns the number of dimensions in embeddings.
	GetDimensions() int

	// HealthCheck verifies the service is working properly.
	HealthCheck(ctx context.Context) error
}

// EmbeddingRequest represents a request for embeddings generation.
type EmbeddingRequest struct {
	Text      string    `json:"text,omitempty"`
	Texts     []string  `json:"texts,omitempty"`
	InputType InputType `json:"input_type,omitempty"`
}

// EmbeddingResponse represents the response from embeddings generation.
type EmbeddingResponse struct {
	Embedding  []float32 `json:"embedding,omitempty"`
	Embeddings [][]float32 `json:"embeddings,omitempty"`
	Dimensions int       `json:"dimensions"`
	Model      string    `json:"model"`
}
