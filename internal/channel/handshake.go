package channel

import (
	"encoding/binary"
	"fmt"
)

// ProtocolVersion is bumped whenever a request/response schema in
// package proto changes in a wire-incompatible way.
const ProtocolVersion = 1

// Handshake is the one-time first framed message on every channel, per
// spec.md §4.2 "Versioning": it ties the channel to a (kind-pair,
// version) pair. A mismatch is fatal.
type Handshake struct {
	Kind    string
	Version uint32
}

func encodeHandshake(h Handshake) []byte {
	kb := []byte(h.Kind)
	buf := make([]byte, 0, 4+len(kb))
	var vb [4]byte
	binary.LittleEndian.PutUint32(vb[:], h.Version)
	buf = append(buf, vb[:]...)
	buf = append(buf, kb...)
	return buf
}

func decodeHandshake(b []byte) (Handshake, error) {
	if len(b) < 4 {
		return Handshake{}, fmt.Errorf("channel: truncated handshake")
	}
	v := binary.LittleEndian.Uint32(b[:4])
	return Handshake{Kind: string(b[4:]), Version: v}, nil
}

// SendHandshake sends the handshake message as the first message on the
// channel. It must be called exactly once, before any other Send.
func (c *Channel) SendHandshake(kind string) error {
	return c.Send(encodeHandshake(Handshake{Kind: kind, Version: ProtocolVersion}))
}

// RecvHandshake reads and validates the peer's handshake. Mismatch
// (wrong kind-pair label or wrong version) is fatal, per spec.md §4.2.
func (c *Channel) RecvHandshake(wantKind string) error {
	b, err := c.Recv()
	if err != nil {
		return fmt.Errorf("channel: handshake: %w", err)
	}
	h, err := decodeHandshake(b)
	if err != nil {
		return err
	}
	if h.Kind != wantKind {
		return fmt.Errorf("channel: handshake kind mismatch: got %q, want %q", h.Kind, wantKind)
	}
	if h.Version != ProtocolVersion {
		return fmt.Errorf("channel: handshake version mismatch: got %d, want %d", h.Version, ProtocolVersion)
	}
	return nil
}
