package log

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferEntry(level logrus.Level) (*logrus.Entry, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(buf)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return logrus.NewEntry(logger), buf
}

func TestBadgerLogrusAdapter_Methods(t *testing.T) {
	entry, _ := newBufferEntry(logrus.DebugLevel)
	adapter := NewBadgerLogrusAdapter(entry)

	assert.NotPanics(t, func() { adapter.Errorf("error %s", "test") })
	assert.NotPanics(t, func() { adapter.Warningf("warning %d", 42) })
	assert.NotPanics(t, func() { adapter.Infof("info %v", true) })
	assert.NotPanics(t, func() { adapter.Debugf("debug") })
}

func TestBadgerLogrusAdapter_DemotesInfo(t *testing.T) {
	entry, buf := newBufferEntry(logrus.InfoLevel)
	adapter := NewBadgerLogrusAdapter(entry)

	adapter.Infof("All %d tables opened\n", 0)
	assert.Empty(t, buf.String(), "badger info should not reach an info-level logger")

	adapter.Warningf("value log %s\n", "truncated")
	assert.Contains(t, buf.String(), "level=warning")
	assert.Contains(t, buf.String(), "value log truncated")
	assert.NotContains(t, buf.String(), "truncated\n\n")
}

func TestNew_Levels(t *testing.T) {
	t.Run("valid level", func(t *testing.T) {
		log := New(Options{Level: "debug"})
		assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		log := New(Options{Level: "chatty"})
		assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	})

	t.Run("json format", func(t *testing.T) {
		log := New(Options{Format: "json"})
		_, ok := log.Formatter.(*logrus.JSONFormatter)
		assert.True(t, ok)
	})
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.log")
	log := New(Options{Level: "info", File: path})
	log.Info("hello from the test")

	assert.FileExists(t, path)
	opts := Options{Level: "info", Format: "text", File: path}
	require.Contains(t, opts.Describe(), "file="+path)
}
