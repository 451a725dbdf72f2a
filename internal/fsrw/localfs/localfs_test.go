package localfs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReaderListAndReadDirAndReadFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello world"), 0o644))

	r := NewReader(root)
	parts, err := r.ListPartitions()
	require.NoError(t, err)
	require.Len(t, parts, 1)

	h, err := r.Mount(0)
	require.NoError(t, err)
	defer h.Close()

	entries, err := h.ReadDir("/")
	require.NoError(t, err)
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = e.IsDir
	}
	require.Contains(t, names, "a.txt")
	require.Contains(t, names, "sub")
	require.False(t, names["a.txt"])
	require.True(t, names["sub"])

	data, err := h.ReadFile("/a.txt", 6, 5)
	require.NoError(t, err)
	require.Equal(t, "world", string(data))

	attr, err := h.GetAttr("/a.txt")
	require.NoError(t, err)
	require.Equal(t, int64(11), attr.Size)
}

func TestWriterRoundTrip(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)
	require.NoError(t, w.MkFs(512, 1000, "fat32"))
	require.NoError(t, w.NewDir("/docs", time.Now()))

	ts := time.Unix(1700000000, 0)
	sink, err := w.NewFile("/docs/report.txt", ts)
	require.NoError(t, err)
	_, err = sink.Write([]byte("content"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(filepath.Join(root, "docs", "report.txt"))
	require.NoError(t, err)
	require.Equal(t, "content", string(data))

	require.NoError(t, w.Unmount())
}
