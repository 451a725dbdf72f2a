package worker

import (
	"errors"
	"io"

	"github.com/cea-sec/usbsas-go/internal/channel"
	"github.com/cea-sec/usbsas-go/internal/usbsaserr"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
	"github.com/cea-sec/usbsas-go/internal/wkind"
)

// State is the per-worker lifecycle of spec.md §4.4: Init → Running →
// End | Fatal, with no transition back to Init.
type State int

const (
	stateInit State = iota
	stateRunning
	stateEnded
	stateFatal
)

// Decode turns one received frame into a typed request.
type Decode[Req any] func([]byte) (Req, error)

// Encode turns a typed response into one frame to send.
type Encode[Resp any] func(Resp) []byte

// Handle processes one request and returns the response to send back,
// plus whether this was the terminal exchange (the handler itself
// decides when End has been reached, since that is a protocol-specific
// variant, not something Runtime can recognise generically).
type Handle[Req, Resp any] func(req Req) (resp Resp, isEnd bool, err error)

// Runtime drives one worker's Run phase: receive, decode, dispatch,
// encode, send, repeat until the handler signals End or a fatal error
// occurs. It is generic over a channel's concrete request/response
// types so each worker kind's proto package supplies its own Decode/
// Encode/Handle without Runtime knowing their shapes.
type Runtime[Req, Resp any] struct {
	Kind   wkind.Kind
	Ch     *channel.Channel
	Decode Decode[Req]
	Encode Encode[Resp]
	Handle Handle[Req, Resp]
}

// Run executes the main loop of spec.md §4.4's Run phase. It returns
// nil after a clean End exchange, and a non-nil error — always an
// *usbsaserr.Error — on any fatal condition, matching spec.md §7's "on
// fatal error: reply Error, exit non-zero".
func (r *Runtime[Req, Resp]) Run() error {
	state := stateRunning
	for state == stateRunning {
		raw, err := r.Ch.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				usbsaslog.Logf(r.Kind, "peer closed channel without End")
			}
			return usbsaserr.Wrap(usbsaserr.Protocol, err, "recv")
		}

		req, err := r.Decode(raw)
		if err != nil {
			return usbsaserr.Wrap(usbsaserr.Protocol, err, "decode request")
		}

		resp, isEnd, err := r.Handle(req)
		if err != nil {
			return usbsaserr.Wrap(usbsaserr.Foreign, err, "handle request")
		}

		if err := r.Ch.Send(r.Encode(resp)); err != nil {
			return usbsaserr.Wrap(usbsaserr.IO, err, "send response")
		}

		if isEnd {
			r.Ch.MarkEnded()
			state = stateEnded
		}
	}
	return nil
}
