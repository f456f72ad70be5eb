package testsupport

import (
	"context"
	"testing"

	"agencyboard/internal/config"
	"agencyboard/internal/pipeline"
	"agencyboard/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// InsertRecord stores rec for tests using the provided store.
func InsertRecord(t testing.TB, st *store.Store, rec pipeline.Record) pipeline.Record {
	t.Helper()

	stored, err := st.Insert(context.Background(), rec)
	if err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return stored
}
