// Package localfs is a reference fsrw.Reader/fsrw.Writer implementation
// rooted at a local directory tree, grounded on the teacher's
// backend/local List/NewObject/Put/Mkdir shape (directory walking via
// os.Open + Readdirnames, Lstat per entry, wrapped errors naming the
// path). It stands in for a real FAT/exFAT/NTFS/ext4/ISO-9660 binding
// (out of scope per spec.md §1) so localsource and fswriter are
// exercisable end-to-end against plain files.
package localfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cea-sec/usbsas-go/internal/fsrw"
)

// Reader roots an fsrw.Reader at a local directory. It reports a single
// synthetic partition (index 0) spanning the whole tree, since there is
// no real partition table to parse for a plain directory.
type Reader struct {
	root string
}

func NewReader(root string) *Reader { return &Reader{root: root} }

func (r *Reader) ListPartitions() ([]fsrw.Partition, error) {
	return []fsrw.Partition{{Index: 0, Type: 0x83, StartLBA: 0, SizeLBA: 0}}, nil
}

func (r *Reader) Mount(index int) (fsrw.Handle, error) {
	if index != 0 {
		return nil, fmt.Errorf("localfs: no partition %d", index)
	}
	return &handle{root: r.root}, nil
}

type handle struct{ root string }

func (h *handle) localPath(p string) string {
	clean := filepath.Clean("/" + p)
	return filepath.Join(h.root, clean)
}

func (h *handle) ReadDir(path string) ([]fsrw.DirEntry, error) {
	dirPath := h.localPath(path)
	if _, err := os.Stat(dirPath); err != nil {
		return nil, fmt.Errorf("localfs: directory not found: %s: %w", path, err)
	}
	fd, err := os.Open(dirPath)
	if err != nil {
		return nil, fmt.Errorf("localfs: failed to open directory %q: %w", path, err)
	}
	defer fd.Close()

	names, err := fd.Readdirnames(-1)
	if err != nil {
		return nil, fmt.Errorf("localfs: failed to read directory %q: %w", path, err)
	}
	entries := make([]fsrw.DirEntry, 0, len(names))
	for _, name := range names {
		fi, err := os.Lstat(filepath.Join(dirPath, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue // entry removed concurrently
			}
			return nil, fmt.Errorf("localfs: failed to stat %q: %w", name, err)
		}
		entries = append(entries, fsrw.DirEntry{
			Name:  name,
			IsDir: fi.IsDir(),
			Size:  fi.Size(),
			Mtime: fi.ModTime(),
		})
	}
	return entries, nil
}

func (h *handle) GetAttr(path string) (fsrw.Attr, error) {
	fi, err := os.Lstat(h.localPath(path))
	if err != nil {
		return fsrw.Attr{}, fmt.Errorf("localfs: getattr %q: %w", path, err)
	}
	return fsrw.Attr{Size: fi.Size(), Mtime: fi.ModTime(), IsDir: fi.IsDir()}, nil
}

func (h *handle) ReadFile(path string, offset, length int64) ([]byte, error) {
	f, err := os.Open(h.localPath(path))
	if err != nil {
		return nil, fmt.Errorf("localfs: open %q: %w", path, err)
	}
	defer f.Close()
	buf := make([]byte, length)
	n, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("localfs: read %q at %d: %w", path, offset, err)
	}
	return buf[:n], nil
}

func (h *handle) Close() error { return nil }

// Writer roots an fsrw.Writer at a local directory, standing in for a
// freshly formatted image: MkFs here just ensures the root directory is
// present rather than writing a real filesystem superblock, since the
// native formatters are out of scope. Existing contents of the root are
// not removed.
type Writer struct {
	root string
}

func NewWriter(root string) *Writer { return &Writer{root: root} }

func (w *Writer) MkFs(sectorSize uint32, count uint64, fsType string) error {
	return os.MkdirAll(w.root, 0o755)
}

func (w *Writer) NewFile(path string, ts time.Time) (fsrw.Sink, error) {
	full := filepath.Join(w.root, filepath.Clean("/"+path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("localfs: mkdir for %q: %w", path, err)
	}
	f, err := os.Create(full)
	if err != nil {
		return nil, fmt.Errorf("localfs: create %q: %w", path, err)
	}
	return &sink{f: f, path: full, mtime: ts}, nil
}

func (w *Writer) NewDir(path string, ts time.Time) error {
	full := filepath.Join(w.root, filepath.Clean("/"+path))
	if err := os.MkdirAll(full, 0o755); err != nil {
		return fmt.Errorf("localfs: mkdir %q: %w", path, err)
	}
	return os.Chtimes(full, ts, ts)
}

func (w *Writer) SetTimestamp(path string, ts time.Time) error {
	full := filepath.Join(w.root, filepath.Clean("/"+path))
	return os.Chtimes(full, ts, ts)
}

func (w *Writer) Unmount() error { return nil }

type sink struct {
	f     *os.File
	path  string
	mtime time.Time
}

func (s *sink) Write(p []byte) (int, error) { return s.f.Write(p) }

func (s *sink) Close() error {
	if err := s.f.Close(); err != nil {
		return err
	}
	return os.Chtimes(s.path, s.mtime, s.mtime)
}
