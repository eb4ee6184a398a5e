package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned by Load when no profile has been stored yet.
var ErrNotFound = errors.New("profile not found")

// UpdateFunc receives the stored profile (nil when none exists) and returns
// the profile to persist. Returning an error aborts the write.
type UpdateFunc func(current *Profile) (*Profile, error)

// FileStore keeps the profile as a single JSON document on disk.
//
// Every read-modify-write goes through Update, which holds the store lock for
// the whole cycle. Writes land in a temp file that is renamed over the
// target, so readers never observe a partially written document.
type FileStore struct {
	path string

	mu sync.Mutex
}

// NewFileStore returns a store backed by the file at path. The file is not
// touched until the first Load or Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the location of the profile document.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the stored profile. It returns ErrNotFound if the file does not
// exist. The document is not validated beyond JSON decoding.
func (s *FileStore) Load() (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save overwrites the stored profile with p.
func (s *FileStore) Save(p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(p)
}

// Update runs fn against the stored profile and persists what it returns,
// all under the store lock.
func (s *FileStore) Update(fn UpdateFunc) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, fmt.Errorf("updating profile: update returned no profile")
	}

	if err := s.save(next); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

func (s *FileStore) load() (*Profile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", s.path, err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding profile %s: %w", s.path, err)
	}
	p.normalize()
	return &p, nil
}

func (s *FileStore) save(p *Profile) error {
	out := p.Clone()
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling profile: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".profile-*.json")
	if err != nil {
		return fmt.Errorf("creating temp profile: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp profile: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing temp profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp profile: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing profile %s: %w", s.path, err)
	}

	slog.Debug("profile saved", "path", s.path, "plan_len", len(out.Plan), "history_len", len(out.History))
	return nil
}
