package sink

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/olympedia-scraper/pkg/models"
	"github.com/Sriram-PR/olympedia-scraper/pkg/utils"
)

// testLogger returns a logger that discards output
func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func record(id int, name string) *models.Record {
	rec := models.NewRecord()
	rec.Set(models.FieldAthleteID, strconv.Itoa(id))
	rec.Set(models.FieldName, name)
	return rec
}

func TestEnsureHeader_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "athletes.csv")
	s := NewCSVSink(path, testLogger())

	require.NoError(t, s.EnsureHeader())
	require.NoError(t, s.EnsureHeader())

	rows := readRows(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, models.Fields, rows[0])
}

func TestEnsureHeader_KeepsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "athletes.csv")
	s := NewCSVSink(path, testLogger())
	require.NoError(t, s.Append([]*models.Record{record(1, "A")}))

	require.NoError(t, s.EnsureHeader())

	assert.Len(t, readRows(t, path), 2)
}

func TestEnsureHeader_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "data", "athletes.csv")
	s := NewCSVSink(path, testLogger())

	require.NoError(t, s.EnsureHeader())
	assert.FileExists(t, path)
}

func TestEnsureHeader_EmptyFileGetsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "athletes.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	require.NoError(t, NewCSVSink(path, testLogger()).EnsureHeader())

	rows := readRows(t, path)
	require.Len(t, rows, 1)
}

func TestAppend_EmptyIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "athletes.csv")
	s := NewCSVSink(path, testLogger())

	require.NoError(t, s.Append(nil))
	require.NoError(t, s.Append([]*models.Record{}))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no file should be created for an empty append")
}

func TestAppend_WritesRowsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "athletes.csv")
	s := NewCSVSink(path, testLogger())

	require.NoError(t, s.Append([]*models.Record{record(1, "First"), record(2, `Comma, "Quoted"`)}))
	require.NoError(t, s.Append([]*models.Record{record(3, "Third")}))

	rows := readRows(t, path)
	require.Len(t, rows, 4)
	assert.Equal(t, models.Fields, rows[0])
	assert.Equal(t, []string{"1", "First"}, rows[1][:2])
	assert.Equal(t, []string{"2", `Comma, "Quoted"`}, rows[2][:2])
	assert.Equal(t, "3", rows[3][0])
	for _, row := range rows {
		assert.Len(t, row, len(models.Fields))
	}
	assert.Equal(t, "", rows[1][len(models.Fields)-1], "unset fields are empty")
}

func TestAppend_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "athletes.csv")
	s := NewCSVSink(path, testLogger())

	var wg sync.WaitGroup
	for i := 1; i <= 25; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			assert.NoError(t, s.Append([]*models.Record{record(id, strings.Repeat("x", id))}))
		}(i)
	}
	wg.Wait()

	rows := readRows(t, path)
	require.Len(t, rows, 26, "one header plus one row per append")
	seen := make(map[string]bool)
	for _, row := range rows[1:] {
		seen[row[0]] = true
	}
	assert.Len(t, seen, 25)
}

func TestAppend_Unwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	s := NewCSVSink(filepath.Join(blocker, "athletes.csv"), testLogger())
	err := s.Append([]*models.Record{record(1, "A")})

	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrFilesystem))
}
