// Package proto is the protocol catalogue of spec.md §4.2: for each
// channel (a pair of adjacent worker kinds) it defines a closed
// request/response schema. Variants absent from a channel's schema are
// rejected as Protocol errors by the worker runtime before ever reaching
// handler code.
//
// Serialisation is hand-rolled varint + length-prefixed-bytes encoding
// (see wire.go) rather than a third-party format: the pack's only
// serialisation libraries (json-iterator in mjnovice-aistore, yaml.v2 in
// rclone) are text/line-oriented formats never used for a tight binary
// RPC frame anywhere in the retrieved pack, so there is no teacher
// idiom to follow here and a minimal purpose-built encoder keeps the
// closed variant set easy to audit against spec.md's schema tables.
package proto

import (
	"encoding/binary"
	"fmt"
)

// encoder accumulates a message payload.
type encoder struct{ buf []byte }

func (e *encoder) byte(b byte) { e.buf = append(e.buf, b) }

func (e *encoder) uvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	e.buf = append(e.buf, tmp[:n]...)
}

func (e *encoder) i64(v int64) { e.uvarint(uint64(v)) }

func (e *encoder) str(s string) {
	e.uvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) bytes(b []byte) {
	e.uvarint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) strSlice(ss []string) {
	e.uvarint(uint64(len(ss)))
	for _, s := range ss {
		e.str(s)
	}
}

// decoder consumes a message payload left-to-right; any malformed input
// surfaces as an error, which worker.Runtime wraps as a Protocol-kind
// error.
type decoder struct {
	buf []byte
	off int
}

func newDecoder(b []byte) *decoder { return &decoder{buf: b} }

func (d *decoder) byte() (byte, error) {
	if d.off >= len(d.buf) {
		return 0, fmt.Errorf("proto: truncated message (byte)")
	}
	b := d.buf[d.off]
	d.off++
	return b, nil
}

func (d *decoder) uvarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf[d.off:])
	if n <= 0 {
		return 0, fmt.Errorf("proto: truncated or invalid varint")
	}
	d.off += n
	return v, nil
}

func (d *decoder) i64() (int64, error) {
	v, err := d.uvarint()
	return int64(v), err
}

func (d *decoder) str() (string, error) {
	n, err := d.uvarint()
	if err != nil {
		return "", err
	}
	if uint64(d.off)+n > uint64(len(d.buf)) {
		return "", fmt.Errorf("proto: truncated message (str)")
	}
	s := string(d.buf[d.off : d.off+int(n)])
	d.off += int(n)
	return s, nil
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	if uint64(d.off)+n > uint64(len(d.buf)) {
		return nil, fmt.Errorf("proto: truncated message (bytes)")
	}
	b := d.buf[d.off : d.off+int(n)]
	d.off += int(n)
	return append([]byte(nil), b...), nil
}

func (d *decoder) strSlice() ([]string, error) {
	n, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	// Every element needs at least one byte (its own length varint), so
	// a declared count exceeding the remaining buffer is malformed;
	// reject it before sizing an allocation off attacker-controlled n.
	if n > uint64(len(d.buf)-d.off) {
		return nil, fmt.Errorf("proto: truncated message (strSlice count %d exceeds remaining bytes)", n)
	}
	out := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		s, err := d.str()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *decoder) atEnd() bool { return d.off >= len(d.buf) }
