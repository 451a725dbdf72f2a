package usbsaserr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	e := New(BadRequest, "ReadDir before OpenPartition")
	assert.Equal(t, "bad_request: ReadDir before OpenPartition", e.Error())
	assert.False(t, e.Fatal())
}

func TestErrorWrapAndUnwrap(t *testing.T) {
	cause := errors.New("no such file")
	e := Wrap(IO, cause, "read(/a.txt)")
	require.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "no such file")
}

func TestFatalKinds(t *testing.T) {
	assert.True(t, New(Protocol, "x").Fatal())
	assert.True(t, New(Privilege, "x").Fatal())
	assert.False(t, New(State, "x").Fatal())
	assert.False(t, New(Foreign, "x").Fatal())
}
