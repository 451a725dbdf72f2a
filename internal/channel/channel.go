// Package channel implements spec.md §4.1: a length-prefixed, typed
// message transport over a pair of one-way pipe file descriptors.
//
// Framing is a varint (unsigned LEB128, little-endian base-128) byte
// length followed by that many payload bytes, per spec.md §3 "Message".
// This is deliberately not the teacher's (hayabusa-cloud-framer) 1-byte
// header + extended-length scheme: spec.md fixes the varint format
// exactly, so Channel implements it directly. The package shape —
// distinct Reader/Writer-like halves, io-compatible blocking calls, and
// package-level sentinel errors for control-flow signals — follows
// hayabusa-cloud-framer's framer.Reader/framer.Writer split.
package channel

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// maxMessageLen guards against a corrupt or hostile peer declaring an
// unbounded length; no legitimate message in this protocol exceeds it.
const maxMessageLen = 256 * 1024 * 1024

// Channel carries a sequence of length-prefixed byte payloads between
// this process and exactly one peer, per spec.md §3's fd table
// invariant: one input pipe, one output pipe.
type Channel struct {
	r      *bufio.Reader
	rf     *os.File
	w      io.Writer
	wf     *os.File
	ended  bool
	closed bool
}

// New wraps an already-open pair of pipe ends. Either may be nil for a
// half-duplex channel (a worker whose kind only ever sends or only ever
// receives on this particular pipe).
func New(in, out *os.File) *Channel {
	c := &Channel{rf: in, wf: out}
	if in != nil {
		c.r = bufio.NewReader(in)
	}
	c.w = out
	return c
}

// InputFD returns the numeric fd of the read half, or -1 if absent.
// Confinement uses this to name the fd in its read-allow rule.
func (c *Channel) InputFD() int {
	if c.rf == nil {
		return -1
	}
	return int(c.rf.Fd())
}

// OutputFD returns the numeric fd of the write half, or -1 if absent.
func (c *Channel) OutputFD() int {
	if c.wf == nil {
		return -1
	}
	return int(c.wf.Fd())
}

// Send frames and writes payload as one message. It is fatal to the
// channel (spec.md §4.1 "Failure") if any I/O error other than a clean
// peer close occurs; the caller is expected to treat a non-nil error as
// terminal for the worker.
func (c *Channel) Send(payload []byte) error {
	if c.ended {
		return fmt.Errorf("channel: send after End")
	}
	if len(payload) > maxMessageLen {
		return fmt.Errorf("channel: message too long (%d bytes)", len(payload))
	}
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(payload)))
	if _, err := c.w.Write(lenBuf[:n]); err != nil {
		return fmt.Errorf("channel: write length: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := c.w.Write(payload); err != nil {
		return fmt.Errorf("channel: write payload: %w", err)
	}
	return nil
}

// Recv reads and returns the next message's raw payload. io.EOF is
// returned verbatim when the peer has closed cleanly with no partial
// message in flight; any other error, including a close mid-message, is
// fatal per spec.md §4.1.
func (c *Channel) Recv() ([]byte, error) {
	if c.r == nil {
		return nil, fmt.Errorf("channel: no input pipe")
	}
	length, err := binary.ReadUvarint(c.r)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("channel: read length: %w", err)
	}
	if length > maxMessageLen {
		return nil, fmt.Errorf("channel: peer declared oversized message (%d bytes)", length)
	}
	if length == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("channel: peer closed mid-message: %w", io.ErrUnexpectedEOF)
		}
		return nil, fmt.Errorf("channel: read payload: %w", err)
	}
	return buf, nil
}

// MarkEnded records that an End message was sent or received on this
// channel, enforcing spec.md invariant 5: anything after End is a
// protocol error.
func (c *Channel) MarkEnded() { c.ended = true }

// Ended reports whether End has already been observed on this channel.
func (c *Channel) Ended() bool { return c.ended }

// Close releases both pipe ends. Safe to call more than once.
func (c *Channel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	var firstErr error
	if c.rf != nil {
		if err := c.rf.Close(); err != nil {
			firstErr = err
		}
	}
	if c.wf != nil {
		if err := c.wf.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
