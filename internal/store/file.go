// internal/store/file.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/civbuilder/civdraft/internal/models"
)

// FileStore persists each draft as <dir>/<id>.json, the draft-config
// document layout. Corrupt or unreadable files are reported as ErrNotFound
// rather than surfaced as faults.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create draft dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// DefaultDir is the fallback on-disk location for drafts.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "civdraft", "drafts")
}

func (s *FileStore) path(id string) (string, bool) {
	// Draft ids are numeric; anything else would escape the directory.
	if id == "" || strings.ContainsAny(id, "/\\.") {
		return "", false
	}
	return filepath.Join(s.dir, id+".json"), true
}

func (s *FileStore) Get(ctx context.Context, id string) (*models.Draft, error) {
	p, ok := s.path(id)
	if !ok {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, ErrNotFound
	}
	var d models.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		log.Printf("FileStore: draft %s is corrupt, treating as missing: %v", id, err)
		return nil, ErrNotFound
	}
	if !wellFormed(&d) {
		log.Printf("FileStore: draft %s violates structural invariants, treating as missing.", id)
		return nil, ErrNotFound
	}
	models.NormalizeDraft(&d)
	return &d, nil
}

func (s *FileStore) Put(ctx context.Context, draft *models.Draft) error {
	p, ok := s.path(draft.ID)
	if !ok {
		return fmt.Errorf("invalid draft id %q", draft.ID)
	}
	data, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal draft %s: %w", draft.ID, err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write draft %s: %w", draft.ID, err)
	}
	return os.Rename(tmp, p)
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	p, ok := s.path(id)
	if !ok {
		return nil
	}
	err := os.Remove(p)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Exists reports whether a draft id is taken, used for id generation.
func (s *FileStore) Exists(id string) bool {
	p, ok := s.path(id)
	if !ok {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}
