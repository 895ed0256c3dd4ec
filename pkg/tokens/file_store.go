package tokens

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zhaopengme/dwtrbot/pkg/logger"
)

type tokenFile struct {
	Tokens map[string]string `json:"tokens"`
}

// FileStore is a MemoryStore mirrored to a JSON file so logins survive a
// restart. The file is rewritten on every Put.
type FileStore struct {
	*MemoryStore
	path    string
	writeMu sync.Mutex
}

// NewFileStore loads path if it exists. A missing file is an empty store.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	s := &FileStore{
		MemoryStore: NewMemoryStore(opts...),
		path:        path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading token store: %w", err)
	}

	var f tokenFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing token store: %w", err)
	}
	for userID, token := range f.Tokens {
		s.MemoryStore.Put(userID, token)
	}

	logger.InfoCF("tokens", "Token store loaded", map[string]interface{}{
		"path":  path,
		"users": len(f.Tokens),
	})
	return s, nil
}

func (s *FileStore) Put(userID, token string) {
	s.MemoryStore.Put(userID, token)
	if err := s.save(); err != nil {
		logger.ErrorCF("tokens", "Failed to persist token store", map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		})
	}
}

func (s *FileStore) save() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := json.MarshalIndent(tokenFile{Tokens: s.snapshot()}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
