// Package confine builds and installs the per-worker confinement
// profiles of spec.md §4.3: a seccomp-bpf syscall allow-list plus a
// Landlock path-capability ruleset. Grounded on the teacher's habit of
// hand-assembling low-level kernel structures directly against
// golang.org/x/sys/unix, one concern per file and build-tagged by
// platform (backend/local/preallocate_unix.go, lchmod_unix.go,
// metadata_linux.go).
package confine

// Op is the comparator a syscall argument guard applies.
type Op int

const (
	// OpEq requires the argument to equal Value exactly.
	OpEq Op = iota
	// OpMaskedEq requires (argument & Mask) to equal Value — used for
	// flag-word arguments like mmap's prot, where only some bits matter.
	OpMaskedEq
)

// ArgGuard restricts one argument register of a syscall. It only
// applies to arguments that are plain integers or flag words in
// registers (fd numbers, ioctl request codes, mmap prot/flags);
// pointer arguments (e.g. connect's sockaddr) cannot be inspected by
// classic BPF, which only sees seccomp_data, never dereferences
// syscall arguments — see DESIGN.md.
type ArgGuard struct {
	Index int // 0-based syscall argument index, 0..5
	Op    Op
	Value uint64
	Mask  uint64 // only meaningful for OpMaskedEq
}

// Eq guards argument index against an exact value.
func Eq(index int, value uint64) ArgGuard {
	return ArgGuard{Index: index, Op: OpEq, Value: value}
}

// MaskedEq guards argument index against value after masking.
func MaskedEq(index int, mask, value uint64) ArgGuard {
	return ArgGuard{Index: index, Op: OpMaskedEq, Mask: mask, Value: value}
}

// SyscallRule allows one syscall number, optionally gated by a
// conjunction of ArgGuards (all must hold). A rule with no guards
// allows the syscall unconditionally.
type SyscallRule struct {
	Nr   int
	Args []ArgGuard
}

// Allow builds an unconditional SyscallRule.
func Allow(nr int) SyscallRule { return SyscallRule{Nr: nr} }

// AllowIf builds a SyscallRule gated by the given guards.
func AllowIf(nr int, guards ...ArgGuard) SyscallRule {
	return SyscallRule{Nr: nr, Args: guards}
}
