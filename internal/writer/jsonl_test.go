package writer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLFlushOnLineCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.jsonl")
	l, err := openJSONL(path, 2, time.Hour)
	require.NoError(t, err)
	defer l.close()

	require.NoError(t, l.writeLine("a"))
	// Not yet flushed: one line short of the threshold.
	data, _ := os.ReadFile(path)
	assert.Empty(t, data)

	require.NoError(t, l.writeLine("b"))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}

func TestJSONLFlushOnInterval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.jsonl")
	l, err := openJSONL(path, 1_000_000, time.Millisecond)
	require.NoError(t, err)
	defer l.close()

	require.NoError(t, l.writeLine("a"))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, l.writeLine("b"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}

func TestJSONLCloseFlushesPending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.jsonl")
	l, err := openJSONL(path, 1_000_000, time.Hour)
	require.NoError(t, err)

	require.NoError(t, l.writeLine("only"))
	require.NoError(t, l.close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "only\n", string(data))
}

func TestJSONLAppendsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.jsonl")

	l1, err := openJSONL(path, 1, time.Hour)
	require.NoError(t, err)
	require.NoError(t, l1.writeLine("first"))
	require.NoError(t, l1.close())

	l2, err := openJSONL(path, 1, time.Hour)
	require.NoError(t, err)
	require.NoError(t, l2.writeLine("second"))
	require.NoError(t, l2.close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}
