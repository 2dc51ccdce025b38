// Package sink appends completed records to the tabular output file.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/olympedia-scraper/pkg/models"
	"github.com/Sriram-PR/olympedia-scraper/pkg/utils"
)

// CSVSink appends rows to a CSV file whose header is models.Fields.
// Rows already written are never rewritten. Safe for concurrent use.
type CSVSink struct {
	path string
	mu   sync.Mutex
	log  *logrus.Entry
}

// NewCSVSink creates a sink writing to path
func NewCSVSink(path string, log *logrus.Entry) *CSVSink {
	return &CSVSink{
		path: path,
		log:  log.WithField("component", "sink"),
	}
}

// Path returns the output file path
func (s *CSVSink) Path() string {
	return s.path
}

// EnsureHeader creates the file with the header row if it is absent or empty.
// Calling it again is a no-op.
func (s *CSVSink) EnsureHeader() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureHeaderLocked()
}

func (s *CSVSink) ensureHeaderLocked() error {
	info, err := os.Stat(s.path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: stat output '%s': %w", utils.ErrFilesystem, s.path, err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: create output dir '%s': %w", utils.ErrFilesystem, dir, err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%w: create output '%s': %w", utils.ErrFilesystem, s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.Fields); err != nil {
		return fmt.Errorf("%w: write header: %w", utils.ErrFilesystem, err)
	}
	if err := flushAndSync(w, f); err != nil {
		return err
	}
	s.log.Infof("Created output file '%s' with header", s.path)
	return nil
}

// Append writes one row per record, in order. An empty slice is a no-op.
func (s *CSVSink) Append(records []*models.Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureHeaderLocked(); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: open output '%s': %w", utils.ErrFilesystem, s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if err := w.Write(rec.Row()); err != nil {
			return fmt.Errorf("%w: write row: %w", utils.ErrFilesystem, err)
		}
	}
	return flushAndSync(w, f)
}

func flushAndSync(w *csv.Writer, f *os.File) error {
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flush output: %w", utils.ErrFilesystem, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: sync output: %w", utils.ErrFilesystem, err)
	}
	return nil
}
