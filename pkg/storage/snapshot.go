package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
)

const snapshotAttempts = 3

// lockHeld reports whether badger refused to open because another process holds the directory lock.
func lockHeld(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.EWOULDBLOCK) ||
		strings.Contains(err.Error(), "Cannot acquire directory lock")
}

// snapshotLedger copies the ledger at dbPath into a fresh temp directory so it can be
// opened while a crawl holds the lock. A file vanishing mid-copy (compaction) restarts the copy.
func snapshotLedger(dbPath string) (string, error) {
	var lastErr error
	for i := 0; i < snapshotAttempts; i++ {
		dir, err := os.MkdirTemp("", "olympedia-ledger-")
		if err != nil {
			return "", err
		}
		if lastErr = copyLedgerFiles(dbPath, dir); lastErr == nil {
			return dir, nil
		}
		_ = os.RemoveAll(dir)
		if !errors.Is(lastErr, fs.ErrNotExist) {
			break
		}
	}
	return "", lastErr
}

// snapshotRank orders the copy: WAL and value logs first, then the manifest, then tables.
// A memtable flushed mid-copy then shows up in both the WAL copy and a table, never in neither.
func snapshotRank(name string) int {
	switch {
	case strings.HasPrefix(name, "MANIFEST"):
		return 1
	case strings.HasSuffix(name, ".sst"):
		return 2
	default:
		return 0
	}
}

func copyLedgerFiles(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || e.Name() == "LOCK" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.SliceStable(names, func(i, j int) bool {
		return snapshotRank(names[i]) < snapshotRank(names[j])
	})
	for _, name := range names {
		if err := copyFile(filepath.Join(src, name), filepath.Join(dst, name)); err != nil {
			return fmt.Errorf("copy %s: %w", name, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
