package confine

import (
	"errors"

	"github.com/cea-sec/usbsas-go/internal/wkind"
)

// ErrUnsupported is returned by Apply on platforms without a
// confinement backend (anything but linux), per spec.md §4.3's
// "best-effort, compile-time opt-in".
var ErrUnsupported = errors.New("confine: confinement not supported on this platform")

// PathGrant is one Landlock rule: a filesystem path a confined worker
// may access, and in which modes.
type PathGrant struct {
	Path  string
	Read  bool
	Write bool
	Exec  bool
}

// Profile is the full confinement policy for one worker kind: the
// seccomp-bpf syscall allow-list plus the Landlock path grants.
type Profile struct {
	Kind     wkind.Kind
	Syscalls []SyscallRule
	Paths    []PathGrant
}

// Apply installs profile in the calling process: Landlock path
// restriction first, then the seccomp-bpf syscall filter, matching the
// kernel's own ordering requirement (Landlock rules must be in place
// before the final restrict-self call, and seccomp is installed last
// since after it the process can no longer issue the Landlock setup
// syscalls). Declared per-platform: see confine_linux.go and
// confine_other.go.
func Apply(profile Profile) error {
	return apply(profile)
}
