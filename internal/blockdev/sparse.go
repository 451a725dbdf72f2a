package blockdev

import (
	"os"
)

// SparseImage is an intermediate filesystem image file together with a
// sector-presence bitmap recording which sectors have actually been
// written, supplementing spec.md with the original's sparse-file
// handling (original_source/usbsas-files2fs/src/sparsefile.rs) and
// exercising the testable property of spec.md §8.6: writing 100 bytes at
// offset sector_size*10 sets exactly bit 10.
type SparseImage struct {
	f          *os.File
	sectorSize int64
	present    map[int64]bool
}

func NewSparseImage(f *os.File, sectorSize uint32) *SparseImage {
	if sectorSize == 0 {
		sectorSize = DefaultSectorSize
	}
	return &SparseImage{f: f, sectorSize: int64(sectorSize), present: make(map[int64]bool)}
}

// WriteAt writes p at byte offset off and marks every sector the write
// touches as present.
func (s *SparseImage) WriteAt(p []byte, off int64) (int, error) {
	n, err := s.f.WriteAt(p, off)
	if n > 0 {
		first := off / s.sectorSize
		last := (off + int64(n) - 1) / s.sectorSize
		for sec := first; sec <= last; sec++ {
			s.present[sec] = true
		}
	}
	return n, err
}

func (s *SparseImage) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

// PresentSectors returns the sorted set of sector indices that have
// been written at least once.
func (s *SparseImage) PresentSectors() []int64 {
	out := make([]int64, 0, len(s.present))
	for sec := range s.present {
		out = append(out, sec)
	}
	// Small sets in practice (one session's worth of sparse writes);
	// insertion sort keeps this allocation-free beyond the slice itself.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// IsPresent reports whether sector has been written.
func (s *SparseImage) IsPresent(sector int64) bool { return s.present[sector] }

// Size returns the current file size.
func (s *SparseImage) Size() (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (s *SparseImage) Close() error { return s.f.Close() }
