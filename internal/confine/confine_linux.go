//go:build linux

package confine

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

func apply(profile Profile) error {
	if err := applyLandlock(profile.Paths); err != nil {
		return fmt.Errorf("confine: landlock: %w", err)
	}
	if err := applySeccomp(profile.Syscalls); err != nil {
		return fmt.Errorf("confine: seccomp: %w", err)
	}
	return nil
}

// applySeccomp assembles profile.Syscalls into a BPF program and
// installs it via the seccomp(2) syscall directly (SECCOMP_SET_MODE_FILTER),
// rather than the older prctl(PR_SET_SECCOMP) path, so NO_NEW_PRIVS can
// be requested atomically with SECCOMP_FILTER_FLAG_TSYNC.
func applySeccomp(rules []SyscallRule) error {
	prog, err := buildFilter(rules)
	if err != nil {
		return err
	}

	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("prctl(PR_SET_NO_NEW_PRIVS): %w", err)
	}

	sockFprog := unix.SockFprog{
		Len:    uint16(len(prog)),
		Filter: &prog[0],
	}
	_, _, errno := unix.Syscall(unix.SYS_SECCOMP,
		uintptr(unix.SECCOMP_SET_MODE_FILTER),
		uintptr(unix.SECCOMP_FILTER_FLAG_TSYNC),
		uintptr(unsafe.Pointer(&sockFprog)),
	)
	if errno != 0 {
		return fmt.Errorf("seccomp(SECCOMP_SET_MODE_FILTER): %w", errno)
	}
	return nil
}
