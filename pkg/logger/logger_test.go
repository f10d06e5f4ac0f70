package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "verbose"})
	assert.Error(t, err)
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(Config{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appgate.log")

	log, err := New(Config{Level: "debug", Format: "json", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Named("test").With(String("remote_addr", "10.0.0.7:5000")).Info("hello", String("runway", "ZBAA_01"), Float64("gate_km", 18.41))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"runway":"ZBAA_01"`)
	assert.Contains(t, string(data), `"logger":"test"`)
	assert.Contains(t, string(data), `"remote_addr":"10.0.0.7:5000"`)
}

func TestNopLoggerIsSilent(t *testing.T) {
	log := NewNop()
	log.Named("x").Error("ignored", Int("n", 1))
	assert.NoError(t, log.Sync())
}
