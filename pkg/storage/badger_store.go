package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/olympedia-scraper/pkg/log"
	"github.com/Sriram-PR/olympedia-scraper/pkg/models"
	"github.com/Sriram-PR/olympedia-scraper/pkg/utils"
)

const (
	attemptKeyPrefix = "attempt:"    // Prefix for identifier keys in DB
	attemptDBDir     = "attempts_db" // Subdirectory name within stateDir for Badger DB files
	idKeyWidth       = 12            // Zero-padding keeps key order equal to numeric order
)

// Options controls how the ledger is opened
type Options struct {
	Fresh    bool // Remove any existing ledger before opening
	ReadOnly bool // Open without write access (reporting tools)
}

// BadgerStore implements the Ledger interface using BadgerDB
type BadgerStore struct {
	db       *badger.DB
	log      *logrus.Entry
	readOnly bool
	snapshot string       // Temp copy opened while a crawl holds the lock; removed on Close
	keyCount atomic.Int64 // Cached key count for O(1) GetAttemptCount
}

// DBPath returns the ledger directory inside stateDir
func DBPath(stateDir string) string {
	return filepath.Join(stateDir, attemptDBDir)
}

// NewBadgerStore initializes and returns a new BadgerStore
func NewBadgerStore(stateDir string, opts Options, logger *logrus.Entry) (*BadgerStore, error) {
	store := &BadgerStore{
		log:      logger,
		readOnly: opts.ReadOnly,
	}

	dbPath := DBPath(stateDir)

	if opts.Fresh && !opts.ReadOnly {
		logger.Warnf("Fresh run requested. REMOVING existing attempt ledger: %s", dbPath)
		if err := os.RemoveAll(dbPath); err != nil {
			// Log error but attempt to continue; Badger might recover or create new files
			logger.Errorf("Failed to remove existing ledger directory %s: %v", dbPath, err)
		}
	}

	logger.Infof("Initializing attempt ledger at: %s (ReadOnly: %v)", dbPath, opts.ReadOnly)

	if opts.ReadOnly {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("%w: no ledger at %s: %w", utils.ErrDatabase, dbPath, err)
		}
	} else if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create state directory %s: %w", utils.ErrFilesystem, dbPath, err)
	}

	badgerLogger := log.NewBadgerLogrusAdapter(logger.WithField("component", "badgerdb"))
	badgerOpts := badger.DefaultOptions(dbPath).
		WithLogger(badgerLogger).
		WithNumVersionsToKeep(1). // Only the latest attempt matters
		WithReadOnly(opts.ReadOnly)

	var err error
	store.db, err = badger.Open(badgerOpts)
	if err != nil && opts.ReadOnly && lockHeld(err) {
		store.db, err = store.openSnapshot(dbPath, badgerOpts)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database at %s: %w", utils.ErrDatabase, dbPath, err)
	}

	if !opts.Fresh {
		count, err := store.countKeys()
		if err != nil {
			logger.Warnf("Failed to count existing ledger keys: %v", err)
		} else {
			store.keyCount.Store(int64(count))
			logger.Infof("Loaded existing ledger with %d identifiers", count)
		}
	}

	logger.Debug("Attempt ledger initialized successfully.")
	return store, nil
}

// openSnapshot opens a point-in-time copy of a ledger whose lock is held by a running crawl.
// The copy is opened writable so badger can trim the half-written WAL tail, but the store stays read-only.
func (s *BadgerStore) openSnapshot(dbPath string, badgerOpts badger.Options) (*badger.DB, error) {
	s.log.Infof("Ledger %s is locked by a running crawl; reading a snapshot copy", dbPath)
	dir, err := snapshotLedger(dbPath)
	if err != nil {
		return nil, fmt.Errorf("snapshot of locked ledger: %w", err)
	}
	db, err := badger.Open(badgerOpts.WithDir(dir).WithValueDir(dir).WithReadOnly(false))
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	s.snapshot = dir
	return db, nil
}

func attemptKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%0*d", attemptKeyPrefix, idKeyWidth, id))
}

func idFromKey(key []byte) (int, error) {
	return strconv.Atoi(string(key[len(attemptKeyPrefix):]))
}

// countKeys performs a one-time full key scan (used only during initialization).
func (s *BadgerStore) countKeys() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(attemptKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
// Concurrent MVCC transactions on overlapping keys can return badger.ErrConflict;
// these resolve in microseconds, so a tight retry loop is sufficient.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// RecordAttempt implements the AttemptLedger interface
func (s *BadgerStore) RecordAttempt(id int, entry *models.AttemptEntry) error {
	if s.db == nil {
		return fmt.Errorf("%w: ledger not initialized", utils.ErrDatabase)
	}
	if s.readOnly {
		return fmt.Errorf("%w: ledger opened read-only", utils.ErrDatabase)
	}
	if !entry.Status.IsValid() {
		return fmt.Errorf("%w: invalid attempt status '%s' for id %d", utils.ErrDatabase, entry.Status, id)
	}
	key := attemptKey(id)

	isNew := false
	err := s.dbUpdate(func(txn *badger.Txn) error {
		// Reset on every run: a conflict retry may find the key written meanwhile.
		isNew = false
		toStore := *entry
		toStore.Attempts = 1

		item, errGet := txn.Get(key)
		switch {
		case errors.Is(errGet, badger.ErrKeyNotFound):
			isNew = true
		case errGet != nil:
			return errGet
		default:
			errVal := item.Value(func(val []byte) error {
				var prev models.AttemptEntry
				if json.Unmarshal(val, &prev) == nil {
					toStore.Attempts = prev.Attempts + 1
				}
				return nil
			})
			if errVal != nil {
				return errVal
			}
		}

		entryBytes, errJSON := json.Marshal(toStore)
		if errJSON != nil {
			return fmt.Errorf("%w: marshal attempt for id %d: %w", utils.ErrParsing, id, errJSON)
		}
		return txn.SetEntry(badger.NewEntry(key, entryBytes))
	})

	if err != nil {
		s.log.WithField("athlete_id", id).Errorf("DB Update error in RecordAttempt: %v", err)
		return fmt.Errorf("%w: failed recording attempt for id %d: %w", utils.ErrDatabase, id, err)
	}
	if isNew {
		s.keyCount.Add(1)
	}

	s.log.Debugf("Recorded attempt for id %d: %s", id, entry.Status)
	return nil
}

// GetAttempt implements the AttemptLedger interface
func (s *BadgerStore) GetAttempt(id int) (models.AttemptStatus, *models.AttemptEntry, error) {
	status := models.AttemptStatusNotFound
	var entry *models.AttemptEntry
	key := attemptKey(id)

	errView := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return fmt.Errorf("%w: failed getting key '%s': %w", utils.ErrDatabase, string(key), errGet)
		}

		return item.Value(func(val []byte) error {
			var decoded models.AttemptEntry
			if errJSON := json.Unmarshal(val, &decoded); errJSON != nil {
				s.log.Warnf("Failed to unmarshal AttemptEntry for key '%s': %v. Treating as 'not_found'.", string(key), errJSON)
				return nil
			}
			entry = &decoded
			status = decoded.Status
			return nil
		})
	})

	if errView != nil {
		s.log.Errorf("DB View error in GetAttempt for key '%s': %v", string(key), errView)
		return models.AttemptStatusDBError, nil, errView
	}
	return status, entry, nil
}

// GetAttemptCount implements the LedgerAdmin interface.
// Returns the cached key count (O(1)) maintained by atomic increments on writes.
func (s *BadgerStore) GetAttemptCount() int {
	return int(s.keyCount.Load())
}

// scan iterates all attempt entries in ascending id order, stopping on the first error fn returns.
func (s *BadgerStore) scan(ctx context.Context, fn func(id int, entry *models.AttemptEntry) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(attemptKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			id, errID := idFromKey(item.Key())
			if errID != nil {
				s.log.Warnf("Skipping malformed ledger key '%s'", string(item.Key()))
				continue
			}

			var entry models.AttemptEntry
			errVal := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if errVal != nil {
				s.log.Warnf("Skipping unreadable ledger entry for id %d: %v", id, errVal)
				continue
			}
			if err := fn(id, &entry); err != nil {
				return err
			}
		}
		return nil
	})
}

var errStopScan = errors.New("stop scan")

// Stats implements the LedgerAdmin interface
func (s *BadgerStore) Stats(ctx context.Context) (models.LedgerStats, error) {
	var stats models.LedgerStats
	err := s.scan(ctx, func(id int, entry *models.AttemptEntry) error {
		switch entry.Status {
		case models.AttemptStatusFound:
			stats.Found++
		case models.AttemptStatusMiss:
			stats.Missed++
		case models.AttemptStatusError:
			stats.Errored++
		}
		if id > stats.Highest {
			stats.Highest = id
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("%w: ledger stats scan: %w", utils.ErrDatabase, err)
	}
	return stats, nil
}

// ListMisses implements the LedgerAdmin interface
func (s *BadgerStore) ListMisses(ctx context.Context, limit int) ([]int, error) {
	var ids []int
	err := s.scan(ctx, func(id int, entry *models.AttemptEntry) error {
		if !entry.Status.CountsAsMiss() {
			return nil
		}
		ids = append(ids, id)
		if limit > 0 && len(ids) >= limit {
			return errStopScan
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return ids, fmt.Errorf("%w: ledger miss scan: %w", utils.ErrDatabase, err)
	}
	return ids, nil
}

// WriteMissLog implements the LedgerAdmin interface
func (s *BadgerStore) WriteMissLog(ctx context.Context, filePath string) (int, error) {
	ids, err := s.ListMisses(ctx, 0)
	if err != nil {
		return 0, err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return 0, fmt.Errorf("%w: create miss log '%s': %w", utils.ErrFilesystem, filePath, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, id := range ids {
		if _, err := writer.WriteString(strconv.Itoa(id) + "\n"); err != nil {
			return 0, fmt.Errorf("%w: write miss log: %w", utils.ErrFilesystem, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return 0, fmt.Errorf("%w: flush miss log: %w", utils.ErrFilesystem, err)
	}
	if err := file.Sync(); err != nil {
		return 0, fmt.Errorf("%w: sync miss log: %w", utils.ErrFilesystem, err)
	}

	s.log.Infof("Wrote %d missed identifiers to %s", len(ids), filePath)
	return len(ids), nil
}

// RunGC runs BadgerDB's garbage collection periodically
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Debug("BadgerDB GC goroutine started.")

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				continue
			}

			var err error
			// Loop GC until it returns ErrNoRewrite or another error
			for {
				if err = s.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}

			if errors.Is(err, badger.ErrNoRewrite) {
				s.log.Debug("BadgerDB GC finished (no rewrite needed).")
			} else {
				s.log.Errorf("BadgerDB GC error: %v", err)
			}

		case <-ctx.Done():
			s.log.Debugf("Stopping BadgerDB garbage collection goroutine: %v", ctx.Err())
			return
		}
	}
}

// Close implements the LedgerAdmin interface
func (s *BadgerStore) Close() error {
	if s.snapshot != "" {
		defer func() {
			_ = os.RemoveAll(s.snapshot)
			s.snapshot = ""
		}()
	}
	if s.db != nil && !s.db.IsClosed() {
		s.log.Debug("Closing attempt ledger...")
		if err := s.db.Close(); err != nil {
			s.log.Errorf("Error closing attempt ledger: %v", err)
			return err
		}
		return nil
	}
	return nil
}
