package orchestrator

import (
	"fmt"
	"sync"

	"github.com/cea-sec/usbsas-go/internal/usbdev"
)

// State is one node of the end-to-end transfer state machine of
// spec.md §3/§4.5: Idle → DeviceSelected → SourceOpened → Filtered →
// Copying → {Success, PartialFailure, Aborted}. spec.md §4.5 additionally
// names Listed and a parameterised Copying(progress); those are folded
// into the Filtered/Copying states here with their payload carried
// alongside State rather than inside it, since Go enums don't carry
// per-variant fields as cleanly as the original's.
type State int

const (
	Idle State = iota
	DeviceSelected
	SourceOpened
	Filtered
	Copying
	Success
	PartialFailure
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case DeviceSelected:
		return "DeviceSelected"
	case SourceOpened:
		return "SourceOpened"
	case Filtered:
		return "Filtered"
	case Copying:
		return "Copying"
	case Success:
		return "Success"
	case PartialFailure:
		return "PartialFailure"
	case Aborted:
		return "Aborted"
	}
	return "Unknown"
}

// terminal reports whether a state has no outgoing transitions except
// back to Idle via Reset.
func (s State) terminal() bool {
	return s == Success || s == PartialFailure || s == Aborted
}

// validTransitions is the transfer state machine's edge set, spec.md
// §3's arrow diagram made explicit so Transfer.transition can reject
// anything it does not name.
var validTransitions = map[State][]State{
	Idle:           {DeviceSelected},
	DeviceSelected: {SourceOpened, Aborted},
	SourceOpened:   {Filtered, Aborted},
	Filtered:       {Copying, Aborted},
	Copying:        {Success, PartialFailure, Aborted},
}

// Transfer is the orchestrator's single-threaded control surface,
// per spec.md invariant 3 — guarded by a mutex here because Go, unlike
// a single-threaded event loop, makes no actor-model guarantee for
// free; every exported method takes the lock for its whole body.
type Transfer struct {
	mu      sync.Mutex
	state   State
	device  usbdev.Device
	allowed []string
	rejects []string
}

// NewTransfer starts a fresh Transfer in Idle.
func NewTransfer() *Transfer { return &Transfer{state: Idle} }

// State returns the current state.
func (t *Transfer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transfer) transition(to State) error {
	for _, allowed := range validTransitions[t.state] {
		if allowed == to {
			t.state = to
			return nil
		}
	}
	return fmt.Errorf("orchestrator: illegal transition %s -> %s", t.state, to)
}

// SelectDevice moves Idle -> DeviceSelected.
func (t *Transfer) SelectDevice(dev usbdev.Device) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.transition(DeviceSelected); err != nil {
		return err
	}
	t.device = dev
	return nil
}

// OpenSource moves DeviceSelected -> SourceOpened, after the
// filesystem-reader worker has successfully listed partitions.
func (t *Transfer) OpenSource() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transition(SourceOpened)
}

// ApplyFilter moves SourceOpened -> Filtered, recording the path-filter
// worker's verdict.
func (t *Transfer) ApplyFilter(allowed, rejected []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.transition(Filtered); err != nil {
		return err
	}
	t.allowed = allowed
	t.rejects = rejected
	return nil
}

// StartCopy moves Filtered -> Copying.
func (t *Transfer) StartCopy() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transition(Copying)
}

// Finish moves Copying -> one of the three terminal states, per
// spec.md §4.5 "Partial-failure policy": any worker exit non-zero
// mid-transfer should have already been translated by the caller into
// PartialFailure or Aborted before calling Finish.
func (t *Transfer) Finish(final State) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if final != Success && final != PartialFailure && final != Aborted {
		return fmt.Errorf("orchestrator: %s is not a terminal state", final)
	}
	return t.transition(final)
}

// Abort force-transitions to Aborted from any non-terminal state,
// modelling the orchestrator-initiated cancellation path (closing the
// worker's inbound pipe, per spec.md §5 "Cancellation").
func (t *Transfer) Abort() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.terminal() {
		return fmt.Errorf("orchestrator: cannot abort terminal state %s", t.state)
	}
	t.state = Aborted
	return nil
}

// Reset is invariant 5 of spec.md §8: from any non-Copying state it
// reaches Idle. Copying must go through Finish/Abort first — the
// orchestrator never resets out from under workers that still hold an
// auxiliary file open.
func (t *Transfer) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Copying {
		return fmt.Errorf("orchestrator: cannot reset while Copying")
	}
	t.state = Idle
	t.device = usbdev.Device{}
	t.allowed = nil
	t.rejects = nil
	return nil
}
