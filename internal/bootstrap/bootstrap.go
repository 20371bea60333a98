// Package bootstrap seeds the in-memory store at process startup: every
// snapshot file already in DATA_DIR, plus an optional extra seed library
// named by TESTING_DATA or TESTING_DATA_FILE.
package bootstrap

import (
	"encoding/json"
	"fmt"
	"os"

	"vectorbase/internal/config"
	"vectorbase/internal/logging"
	"vectorbase/internal/snapshot"
	"vectorbase/internal/store"
)

// Run loads every snapshot in the configured data directory, then applies
// any TESTING_DATA / TESTING_DATA_FILE seed on top. Failures loading
// individual files are logged and skipped; Run itself only returns an
// error if the testing-data seed cannot be read, parsed or installed,
// since that one is explicit operator input rather than best-effort
// recovery.
func Run(cfg *config.Config, st *store.Store, snap *snapshot.Manager, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}

	for _, err := range snap.LoadAll() {
		logger.Warn("bootstrap: skipped snapshot file", "error", err)
	}

	seed := cfg.Bootstrap.TestingData
	if seed == "" && cfg.Bootstrap.TestingDataFile != "" {
		data, err := os.ReadFile(cfg.Bootstrap.TestingDataFile)
		if err != nil {
			return fmt.Errorf("bootstrap: read TESTING_DATA_FILE: %w", err)
		}
		seed = string(data)
	}
	if seed == "" {
		return nil
	}

	if err := loadSeed(seed, st); err != nil {
		return fmt.Errorf("bootstrap: load testing data: %w", err)
	}
	logger.Info("bootstrap: loaded testing data seed")
	return nil
}

type seedDocument struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Chunks   []seedChunk            `json:"chunks"`
}

type seedChunk struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type seedLibrary struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Documents []seedDocument         `json:"documents"`
}

// loadSeed parses seed as a single library (mirroring the shape accepted
// by POST /libraries, nested documents and chunks included) and installs
// it directly into the store.
func loadSeed(seed string, st *store.Store) error {
	var lib seedLibrary
	if err := json.Unmarshal([]byte(seed), &lib); err != nil {
		return err
	}
	if lib.ID == "" || lib.Name == "" {
		return fmt.Errorf("seed library requires id and name")
	}

	if _, err := st.CreateLibrary(&store.Library{ID: lib.ID, Name: lib.Name, Metadata: lib.Metadata}); err != nil {
		return err
	}
	for _, d := range lib.Documents {
		if _, err := st.CreateDocument(&store.Document{ID: d.ID, LibraryID: lib.ID, Name: d.Name, Metadata: d.Metadata}); err != nil {
			return err
		}
		for _, c := range d.Chunks {
			if _, err := st.CreateChunk(&store.Chunk{ID: c.ID, DocumentID: d.ID, Text: c.Text, Metadata: c.Metadata}); err != nil {
				return err
			}
		}
	}
	return nil
}
