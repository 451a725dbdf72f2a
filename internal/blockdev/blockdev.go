// Package blockdev adapts an arbitrary seekable byte source to the
// sector-addressed reader/writer spec.md §4.6 "Block device wrapper"
// names, used by filesystem-family libraries that expect sector
// addressing rather than a byte stream.
package blockdev

import (
	"fmt"
	"io"
)

// DefaultSectorSize is the sector size spec.md §6 fixes "unless
// overridden" for intermediate filesystem images.
const DefaultSectorSize = 512

// Device wraps an io.ReaderAt/io.WriterAt (typically an *os.File backing
// a USB device node or an intermediate image) as a sector-addressed
// store.
type Device struct {
	ra         io.ReaderAt
	wa         io.WriterAt
	sectorSize uint32
}

func NewDevice(ra io.ReaderAt, wa io.WriterAt, sectorSize uint32) *Device {
	if sectorSize == 0 {
		sectorSize = DefaultSectorSize
	}
	return &Device{ra: ra, wa: wa, sectorSize: sectorSize}
}

func (d *Device) SectorSize() uint32 { return d.sectorSize }

// ReadSectors reads count full sectors starting at sector offset.
func (d *Device) ReadSectors(offset uint64, count uint32) ([]byte, error) {
	buf := make([]byte, uint64(count)*uint64(d.sectorSize))
	n, err := d.ra.ReadAt(buf, int64(offset)*int64(d.sectorSize))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("blockdev: read sectors at %d: %w", offset, err)
	}
	return buf[:n], nil
}

// WriteSectors writes data at the given sector offset. data need not be
// a whole number of sectors; callers that require full-sector semantics
// should pad before calling, per spec.md §4.6 "(optionally) write with
// full-sector semantics".
func (d *Device) WriteSectors(offset uint64, data []byte) error {
	if d.wa == nil {
		return fmt.Errorf("blockdev: device is read-only")
	}
	_, err := d.wa.WriteAt(data, int64(offset)*int64(d.sectorSize))
	if err != nil {
		return fmt.Errorf("blockdev: write sectors at %d: %w", offset, err)
	}
	return nil
}
