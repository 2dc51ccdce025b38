package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockHeld(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"wrapped flock errno", fmt.Errorf("open: %w", syscall.EWOULDBLOCK), true},
		{"badger message", errors.New(`Cannot acquire directory lock on "/x".  Another process is using this Badger database.: resource temporarily unavailable`), true},
		{"other", errors.New("manifest corrupted"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lockHeld(tt.err))
		})
	}
}

func TestCopyLedgerFiles(t *testing.T) {
	src := t.TempDir()
	for name, body := range map[string]string{
		"000001.sst":  "table",
		"00002.mem":   "wal",
		"MANIFEST":    "manifest",
		"KEYREGISTRY": "keys",
		"LOCK":        "pid",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte(body), 0644))
	}

	dst := t.TempDir()
	require.NoError(t, copyLedgerFiles(src, dst))

	got, err := os.ReadFile(filepath.Join(dst, "00002.mem"))
	require.NoError(t, err)
	assert.Equal(t, "wal", string(got))
	assert.FileExists(t, filepath.Join(dst, "MANIFEST"))
	assert.FileExists(t, filepath.Join(dst, "000001.sst"))
	assert.NoFileExists(t, filepath.Join(dst, "LOCK"))

	assert.Less(t, snapshotRank("00002.mem"), snapshotRank("MANIFEST"))
	assert.Less(t, snapshotRank("MANIFEST"), snapshotRank("000001.sst"))
}
