// Package local implements interfaces.ArchiveFile against the filesystem,
// backing the hard-archive JSON export (spec §4.6 step 5). Page Markdown is
// not written through it.
package local

import (
	"context"
	"os"
	"path/filepath"

	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// Store writes relative paths under a single root directory.
type Store struct {
	root string
}

// New builds a filesystem-rooted ArchiveFile adapter.
func New(root string) *Store {
	return &Store{root: root}
}

var _ interfaces.ArchiveFile = (*Store)(nil)

func (s *Store) Write(_ context.Context, relativePath string, data []byte) error {
	fullPath := filepath.Join(s.root, filepath.Clean("/"+relativePath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, data, 0o644)
}

func (s *Store) Read(_ context.Context, relativePath string) ([]byte, error) {
	fullPath := filepath.Join(s.root, filepath.Clean("/"+relativePath))
	return os.ReadFile(fullPath)
}
