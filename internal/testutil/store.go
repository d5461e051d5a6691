// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/spf13/afero"

	"github.com/adanyl0v/go-task-delivery/internal/filestore"
	"github.com/adanyl0v/go-task-delivery/internal/storage/sqlite"
)

// NewTestStore creates an in-memory SQLite store with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestFileStore returns a local file store on an in-memory file
// system together with that file system for inspection.
func NewTestFileStore(t *testing.T) (*filestore.Local, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	s, err := filestore.NewLocal(fs, "/uploads")
	if err != nil {
		t.Fatalf("creating test file store: %v", err)
	}
	return s, fs
}
