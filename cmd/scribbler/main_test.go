package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribblerbot/scribbler/internal/logging"
)

func TestOpenLogFile_AppendsWithinSameSecond(t *testing.T) {
	dir := t.TempDir()
	path := logging.LogFilePath(dir, appName, time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC))

	for _, line := range []string{"first run\n", "second run\n"} {
		f, err := openLogFile(path)
		require.NoError(t, err)
		_, err = f.WriteString(line)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first run\nsecond run\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOpenLogFile_MissingDir(t *testing.T) {
	_, err := openLogFile(filepath.Join(t.TempDir(), "missing", "scribbler.log"))
	assert.Error(t, err)
}
