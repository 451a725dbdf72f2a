package channel

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func pipePair(t *testing.T) (*Channel, *Channel) {
	t.Helper()
	r1, w1, err := os.Pipe()
	require.NoError(t, err)
	r2, w2, err := os.Pipe()
	require.NoError(t, err)
	a := New(r2, w1)
	b := New(r1, w2)
	t.Cleanup(func() { a.Close(); b.Close() })
	return a, b
}

func TestSendRecvOrdering(t *testing.T) {
	a, b := pipePair(t)
	msgs := [][]byte{[]byte("one"), []byte(""), []byte("three"), {0xff, 0x00, 0x01}}
	done := make(chan error, 1)
	go func() {
		for _, m := range msgs {
			if err := a.Send(m); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	for _, want := range msgs {
		got, err := b.Recv()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	require.NoError(t, <-done)
}

func TestRecvEOFOnCleanClose(t *testing.T) {
	a, b := pipePair(t)
	require.NoError(t, a.Close())
	_, err := b.Recv()
	require.ErrorIs(t, err, io.EOF)
}

func TestRecvMidMessageCloseIsFatal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	c := New(r, nil)

	var lenBuf [1]byte
	lenBuf[0] = 10 // declare 10 bytes, then only send 3 before closing
	_, err = w.Write(lenBuf[:])
	require.NoError(t, err)
	_, err = w.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = c.Recv()
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
}

func TestHandshakeMismatch(t *testing.T) {
	a, b := pipePair(t)
	go a.SendHandshake("fsreader")
	err := b.RecvHandshake("filter")
	require.Error(t, err)
}

func TestHandshakeMatch(t *testing.T) {
	a, b := pipePair(t)
	go a.SendHandshake("fsreader")
	require.NoError(t, b.RecvHandshake("fsreader"))
}

func TestSendAfterEndRejected(t *testing.T) {
	a, _ := pipePair(t)
	a.MarkEnded()
	err := a.Send([]byte("x"))
	require.Error(t, err)
}
