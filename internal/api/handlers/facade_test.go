package handlers

import (
	"context"
	"testing"

	"vectorbase/internal/embeddings"
	"vectorbase/internal/indexmanager"
	"vectorbase/internal/logging"
	"vectorbase/internal/service"
	"vectorbase/internal/snapshot"
	"vectorbase/internal/store"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Generate(_ context.Context, text string, _ embeddings.InputType) ([]float32, error) {
	return []float32{float32(len(text)), 1, 0}, nil
}

func (f fakeEmbedder) GenerateBatch(ctx context.Context, texts []string, inputType embeddings.InputType) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = f.Generate(ctx, t, inputType)
	}
	return out, nil
}

func (fakeEmbedder) GetDimensions() int { return 3 }

func (fakeEmbedder) HealthCheck(_ context.Context) error { return nil }

func newTestFacade(t *testing.T) *service.Facade {
	t.Helper()
	st := store.New()
	idx := indexmanager.New(st, fakeEmbedder{}, logging.NewNoOpLogger())
	snap := snapshot.New(t.TempDir(), st, logging.NewNoOpLogger())
	return service.New(st, idx, snap, logging.NewNoOpLogger())
}

func mustCreateLibrary(t *testing.T, svc *service.Facade, name string) *store.Library {
	t.Helper()
	lib, err := svc.CreateLibrary([]byte(`{"name":"` + name + `"}`))
	if err != nil {
		t.Fatalf("failed to create library: %v", err)
	}
	return lib
}
