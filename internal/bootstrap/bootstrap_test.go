package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vectorbase/internal/config"
	"vectorbase/internal/snapshot"
	"vectorbase/internal/store"
)

func TestRun_LoadsSnapshotsFromDataDir(t *testing.T) {
	dir := t.TempDir()

	seedStore := store.New()
	seedSnap := snapshot.New(dir, seedStore, nil)
	lib, err := seedStore.CreateLibrary(&store.Library{ID: "lib-1", Name: "Seeded"})
	require.NoError(t, err)
	require.NoError(t, seedSnap.Save(lib.ID))

	cfg := &config.Config{Storage: config.StorageConfig{DataDir: dir}}
	st := store.New()
	snap := snapshot.New(dir, st, nil)

	require.NoError(t, Run(cfg, st, snap, nil))

	assert.NotNil(t, st.GetLibrary("lib-1"))
}

func TestRun_LoadsTestingDataSeed(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{DataDir: dir},
		Bootstrap: config.BootstrapConfig{
			TestingData: `{"id":"seed-lib","name":"Seed","documents":[{"id":"seed-doc","name":"D","chunks":[{"id":"seed-chunk","text":"hi"}]}]}`,
		},
	}
	st := store.New()
	snap := snapshot.New(dir, st, nil)

	require.NoError(t, Run(cfg, st, snap, nil))

	assert.NotNil(t, st.GetLibrary("seed-lib"))
	assert.NotNil(t, st.GetDocument("seed-doc"))
	assert.NotNil(t, st.GetChunk("seed-chunk"))
}

func TestRun_MalformedTestingDataReturnsError(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Storage:   config.StorageConfig{DataDir: dir},
		Bootstrap: config.BootstrapConfig{TestingData: `not json`},
	}
	st := store.New()
	snap := snapshot.New(dir, st, nil)

	err := Run(cfg, st, snap, nil)
	require.Error(t, err)
}
