// Package checkpoint persists the highest identifier attempted so a crawl can resume.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/olympedia-scraper/pkg/utils"
)

// State is the on-disk checkpoint document
type State struct {
	LastID    int       `json:"last_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store reads and writes the checkpoint file. Save is safe for concurrent use.
type Store struct {
	path string
	mu   sync.Mutex
	log  *logrus.Entry
	now  func() time.Time
}

// NewStore creates a Store backed by the file at path
func NewStore(path string, log *logrus.Entry) *Store {
	return &Store{
		path: path,
		log:  log.WithField("component", "checkpoint"),
		now:  time.Now,
	}
}

// Path returns the checkpoint file path
func (s *Store) Path() string {
	return s.path
}

// Save records id as the last attempted identifier. The file is replaced
// atomically: written to a temp file in the same directory, synced, then renamed.
func (s *Store) Save(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(State{LastID: id, UpdatedAt: s.now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode checkpoint: %w", utils.ErrFilesystem, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create checkpoint dir '%s': %w", utils.ErrFilesystem, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp checkpoint: %w", utils.ErrFilesystem, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("%w: write checkpoint: %w", utils.ErrFilesystem, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("%w: sync checkpoint: %w", utils.ErrFilesystem, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: close checkpoint: %w", utils.ErrFilesystem, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("%w: replace checkpoint '%s': %w", utils.ErrFilesystem, s.path, err)
	}
	return nil
}

// Read returns the stored state. A missing file yields an error wrapping fs.ErrNotExist.
func (s *Store) Read() (State, error) {
	var st State
	data, err := os.ReadFile(s.path)
	if err != nil {
		return st, fmt.Errorf("%w: read checkpoint '%s': %w", utils.ErrFilesystem, s.path, err)
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("%w: decode checkpoint '%s': %w", utils.ErrParsing, s.path, err)
	}
	return st, nil
}

// Load returns the last attempted identifier, or 0 when the checkpoint is missing,
// unreadable or corrupt. It never fails.
func (s *Store) Load() int {
	st, err := s.Read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Debugf("No checkpoint at '%s', starting fresh", s.path)
		} else {
			s.log.Warnf("Ignoring unusable checkpoint: %v", err)
		}
		return 0
	}
	if st.LastID < 0 {
		s.log.Warnf("Ignoring negative checkpoint id %d", st.LastID)
		return 0
	}
	return st.LastID
}
