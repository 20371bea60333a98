// Package embeddings provides Cohere embeddings integration with retry logic and caching
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"
)

// DefaultEmbeddingModel is the default Cohere embedding model.
const DefaultEmbeddingModel = "embed-english-v3.0"

// CohereService implements embeddings generation using the Cohere API.
type CohereService struct {
	apiKey      string
	baseURL     string
	model       string
	httpClient  *http.Client
	logger      *slog.Logger
	cache       *EmbeddingCache
	metrics     *ServiceMetrics
	rateLimiter *RateLimiter
}

// CohereConfig contains configuration for the Cohere embeddings service.
type CohereConfig struct {
	APIKey         string        `json:"api_key"`
	BaseURL        string        `json:"base_url"`
	Model          string        `json:"model"`
	Timeout        time.Duration `json:"timeout"`
	CacheSize      int           `json:"cache_size"`
	CacheTTL       time.Duration `json:"cache_ttl"`
	RequestsPerMin int           `json:"requests_per_min"`
}

// DefaultCohereConfig returns sensible defaults for the Cohere embedder.
func DefaultCohereConfig() *CohereConfig {
	return &CohereConfig{
		BaseURL:        "https://api.cohere.ai/v1/embed",
		Model:          DefaultEmbeddingModel,
		Timeout:        60 * time.Second,
		CacheSize:      1000,
		CacheTTL:       24 * time.Hour,
		RequestsPerMin: 600,
	}
}

// NewCohereService creates a new Cohere embeddings service.
func NewCohereService(config *CohereConfig, logger *slog.Logger) (*CohereService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("cohere API key is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultCohereConfig().BaseURL
	}
	if config.Model == "" {
		config.Model = DefaultCohereConfig().Model
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultCohereConfig().Timeout
	}

	service := &CohereService{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		model:   config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:      logger,
		cache:       NewEmbeddingCache(config.CacheSize, config.CacheTTL),
		metrics:     NewServiceMetrics(),
		rateLimiter: NewRateLimiter(config.RequestsPerMin, time.Minute),
	}

	return service, nil
}

// Generate creates an embedding for the given text.
func (s *CohereService) Generate(ctx context.Context, text string, inputType InputType) ([]float32, error) {
	start := time.Now()
	defer s.updateMetrics("generate", start)

	if strings.TrimSpace(text) == "" {
		s.incrementErrorCount("generate")
		return nil, fmt.Errorf("text cannot be empty")
	}

	if cached, found := s.cache.Get(text, inputType); found {
		s.incrementCacheHit()
		return cached, nil
	}
	s.incrementCacheMiss()

	if err := s.rateLimiter.Wait(ctx); err != nil {
		s.incrementErrorCount("generate")
		return nil, fmt.Errorf("rate limiting error: %w", err)
	}

	embeddings, err := s.generateWithRetry(ctx, text, inputType)
	if err != nil {
		s.incrementErrorCount("generate")
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	s.cache.Set(text, inputType, embeddings)

	s.logger.Debug("embedding generated successfully",
		slog.Int("dimensions", len(embeddings)),
		slog.Int("text_length", len(text)))

	return embeddings, nil
}

// GenerateBatch creates embeddings for multiple texts efficiently.
func (s *CohereService) GenerateBatch(ctx context.Context, texts []string, inputType InputType) ([][]float32, error) {
	start := time.Now()
	defer s.updateMetrics("generate_batch", start)

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var uncachedTexts []string
	var uncachedIndices []int
	results := make([][]float32, len(texts))

	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			s.incrementErrorCount("generate_batch")
			return nil, fmt.Errorf("text at index %d cannot be empty", i)
		}

		if cached, found := s.cache.Get(text, inputType); found {
			results[i] = cached
			s.incrementCacheHit()
		} else {
			uncachedTexts = append(uncachedTexts, text)
			uncachedIndices = append(uncachedIndices, i)
			s.incrementCacheMiss()
		}
	}

	if len(uncachedTexts) == 0 {
		return results, nil
	}

	if err := s.rateLimiter.Wait(ctx); err != nil {
		s.incrementErrorCount("generate_batch")
		return nil, fmt.Errorf("rate limiting error: %w", err)
	}

	embeddings, err := s.generateBatchWithRetry(ctx, uncachedTexts, inputType)
	if err != nil {
		s.incrementErrorCount("generate_batch")
		return nil, fmt.Errorf("failed to generate batch embeddings: %w", err)
	}

	for i, embedding := range embeddings {
		originalIndex := uncachedIndices[i]
		results[originalIndex] = embedding
		s.cache.Set(uncachedTexts[i], inputType, embedding)
	}

	s.logger.Debug("batch embeddings generated successfully",
		slog.Int("total_texts", len(texts)),
		slog.Int("cached", len(texts)-len(uncachedTexts)),
		slog.Int("generated", len(uncachedTexts)))

	return results, nil
}

// GetDimensions returns the embedding dimensions for the configured model.
func (s *CohereService) GetDimensions() int {
	switch s.model {
	case "embed-english-light-v3.0", "embed-multilingual-light-v3.0":
		return 384
	default:
		return 1024 // embed-english-v3.0 / embed-multilingual-v3.0
	}
}

// HealthCheck verifies the service is working properly.
func (s *CohereService) HealthCheck(ctx context.Context) error {
	_, err := s.Generate(ctx, "health check test", InputTypeDocument)
	return err
}

// GetMetrics returns current service metrics.
func (s *CohereService) GetMetrics() *ServiceMetrics {
	return s.metrics
}

func (s *CohereService) generateWithRetry(ctx context.Context, text string, inputType InputType) ([]float32, error) {
	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		embeddings, err := s.callCohereAPI(ctx, []string{text}, inputType)
		if err == nil && len(embeddings) > 0 {
			return embeddings[0], nil
		}

		lastErr = err
		s.logger.Warn("embedding generation attempt failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}

	return nil, fmt.Errorf("all retry attempts failed, last error: %w", lastErr)
}

func (s *CohereService) generateBatchWithRetry(ctx context.Context, texts []string, inputType InputType) ([][]float32, error) {
	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		embeddings, err := s.callCohereAPI(ctx, texts, inputType)
		if err == nil {
			return embeddings, nil
		}

		lastErr = err
		s.logger.Warn("batch embedding generation attempt failed",
			slog.Int("attempt", attempt+1),
			slog.Int("texts_count", len(texts)),
			slog.String("error", err.Error()))
	}

	return nil, fmt.Errorf("all batch retry attempts failed, last error: %w", lastErr)
}

func (s *CohereService) callCohereAPI(ctx context.Context, texts []string, inputType InputType) ([][]float32, error) {
	if inputType == "" {
		inputType = InputTypeDocument
	}

	requestBody := map[string]interface{}{
		"texts":      texts,
		"model":      s.model,
		"truncate":   "END",
		"input_type": string(inputType),
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cohere API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response CohereResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Embeddings) == 0 {
		return nil, fmt.Errorf("cohere response missing embeddings")
	}

	return response.Embeddings, nil
}

func (s *CohereService) updateMetrics(operation string, start time.Time) {
	duration := time.Since(start)
	s.metrics.OperationCounts[operation]++

	current := s.metrics.AverageLatency[operation]
	count := s.metrics.OperationCounts[operation]
	s.metrics.AverageLatency[operation] = (current*float64(count-1) + duration.Seconds()) / float64(count)
}

func (s *CohereService) incrementErrorCount(operation string) {
	s.metrics.ErrorCounts[operation]++
}

func (s *CohereService) incrementCacheHit() {
	s.metrics.CacheHits++
}

func (s *CohereService) incrementCacheMiss() {
	s.metrics.CacheMisses++
}

// CohereResponse represents the response structure from the Cohere embed API.
type CohereResponse struct {
	ID         string      `json:"id"`
	Embeddings [][]float32 `json:"embeddings"`
	Texts      []string    `json:"texts"`
	Meta       struct {
		APIVersion struct {
			Version string `json:"version"`
		} `json:"api_version"`
	} `json:"meta"`
}

// ServiceMetrics tracks embeddings service performance.
type ServiceMetrics struct {
	OperationCounts map[string]int64   `json:"operation_counts"`
	AverageLatency  map[string]float64 `json:"average_latency"`
	ErrorCounts     map[string]int64   `json:"error_counts"`
	CacheHits       int64              `json:"cache_hits"`
	CacheMisses     int64              `json:"cache_misses"`
	LastUpdated     time.Time          `json:"last_updated"`
}

// NewServiceMetrics creates new service metrics.
func NewServiceMetrics() *ServiceMetrics {
	return &ServiceMetrics{
		OperationCounts: make(map[string]int64),
		AverageLatency:  make(map[string]float64),
		ErrorCounts:     make(map[string]int64),
		LastUpdated:     time.Now(),
	}
}
