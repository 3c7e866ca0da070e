package history

// The Gmail history checkpoint is a single opaque history ID persisted to a
// text file. Writes are whole-file truncate writes; there is intentionally
// no locking, merging, or retry behavior here.

import (
	"errors"
	"os"
	"strings"
)

type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the saved history ID. ok is false when no checkpoint exists
// yet, which callers treat as "first check, establish a baseline".
func (s *Store) Load() (id string, ok bool, err error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	id = strings.TrimSpace(string(raw))
	return id, id != "", nil
}

// Save overwrites the checkpoint with the given history ID.
func (s *Store) Save(id string) error {
	return os.WriteFile(s.path, []byte(strings.TrimSpace(id)+"\n"), 0644)
}
