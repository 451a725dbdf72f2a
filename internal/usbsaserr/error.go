// Package usbsaserr defines the closed error taxonomy shared by every
// worker and by the orchestrator's transfer state machine.
package usbsaserr

import "fmt"

// Kind is a taxonomic error category. The set is closed: new values are
// never added outside this file.
type Kind string

const (
	// Protocol covers invalid framing, an unexpected message variant, or
	// any message received after End.
	Protocol Kind = "protocol"
	// BadRequest covers a well-formed message issued in the wrong state.
	BadRequest Kind = "bad_request"
	// State covers an illegal state transition attempted by a caller.
	State Kind = "state"
	// IO covers an underlying read/write/seek failure.
	IO Kind = "io"
	// Privilege covers a failed confinement installation. Never
	// recoverable and never reported over a channel.
	Privilege Kind = "privilege"
	// Foreign covers an error bubbled up from an external collaborator
	// (a filesystem library, the archive writer, the uploader).
	Foreign Kind = "foreign"
)

// Error is the concrete error type carried by every channel Error
// response and by internal call sites that need a taxonomic kind.
type Error struct {
	Kind   Kind
	Detail string
	Cause  error
}

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Wrap(kind Kind, cause error, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Cause }

// Fatal reports whether an error of this kind always terminates the
// worker process, per spec.md §7's propagation policy. Protocol and
// Privilege errors are always fatal; the others may be request-scoped.
func (e *Error) Fatal() bool {
	return e.Kind == Protocol || e.Kind == Privilege
}
