package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileSinkCreateTruncates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale content"), 0644))

	s := NewFile(path, Create)
	require.NoError(t, s.Open())
	s.Print("fresh")
	require.NoError(t, s.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "fresh", string(got))
}

func TestFileSinkAppendPreservesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0644))

	s := NewFile(path, Append)
	require.NoError(t, s.Open())
	s.Println("second")
	require.NoError(t, s.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "first\nsecond\n", string(got))
}

func TestFileSinkAppendCreatesMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "new.txt")

	s := NewFile(path, Append)
	require.NoError(t, s.Open())
	s.Print("hello")
	require.NoError(t, s.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestFileSinkPrintBeforeOpenIsNoop(t *testing.T) {
	s := NewFile(filepath.Join(t.TempDir(), "never.txt"), Create)
	// Print without Open must not panic.
	s.Print("dropped")
}
