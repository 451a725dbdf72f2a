//go:build linux

package confine

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// TestBuildFilterEndsInReturn is invariant 1 of spec.md §8 at the
// BPF-assembly layer: every generated program's last instruction is an
// unconditional return, and assembly itself never fails to resolve a
// jump target.
func TestBuildFilterEndsInReturn(t *testing.T) {
	rules := []SyscallRule{
		AllowIf(sysRead, Eq(0, 3)),
		AllowIf(sysWrite, Eq(0, 4)),
		Allow(sysExit),
		AllowIf(sysMmap, MaskedEq(3, protExec, 0)),
	}
	prog, err := buildFilter(rules)
	require.NoError(t, err)
	require.NotEmpty(t, prog)

	last := prog[len(prog)-1]
	require.Equal(t, uint16(unix.BPF_RET|unix.BPF_K), last.Code)
}

func TestBuildFilterEmptyRulesStillKills(t *testing.T) {
	prog, err := buildFilter(nil)
	require.NoError(t, err)
	require.NotEmpty(t, prog)
}

// seccompData builds a synthetic seccomp_data buffer (nr at offset 0,
// arch at 4, instruction_pointer at 8, six 8-byte args from 16) for
// the interpreter below.
func seccompData(nr int, args [6]uint64) []byte {
	buf := make([]byte, 16+6*8)
	binary.LittleEndian.PutUint32(buf[offNr:], uint32(nr))
	binary.LittleEndian.PutUint32(buf[offArch:], auditArchX86_64)
	for i, a := range args {
		binary.LittleEndian.PutUint64(buf[offArgs+i*8:], a)
	}
	return buf
}

// runFilter is a minimal classic-BPF interpreter covering exactly the
// instruction set buildFilter emits (ABS word loads, AND-immediate,
// JEQ-immediate, unconditional return), enough to check the program's
// actual branch behaviour rather than just its shape.
func runFilter(t *testing.T, prog []unix.SockFilter, data []byte) uint32 {
	t.Helper()
	var acc uint32
	pc := 0
	for step := 0; ; step++ {
		require.Less(t, step, 10_000, "runFilter: program did not terminate")
		require.GreaterOrEqual(t, pc, 0)
		require.Less(t, pc, len(prog), "runFilter: pc ran off the end of the program")
		ins := prog[pc]
		switch ins.Code {
		case unix.BPF_LD | unix.BPF_W | unix.BPF_ABS:
			acc = binary.LittleEndian.Uint32(data[ins.K : ins.K+4])
			pc++
		case unix.BPF_ALU | unix.BPF_AND | unix.BPF_K:
			acc &= ins.K
			pc++
		case unix.BPF_JMP | unix.BPF_JEQ | unix.BPF_K:
			if acc == ins.K {
				pc += 1 + int(ins.Jt)
			} else {
				pc += 1 + int(ins.Jf)
			}
		case unix.BPF_RET | unix.BPF_K:
			return ins.K
		default:
			t.Fatalf("runFilter: unhandled instruction code %#x", ins.Code)
		}
	}
}

// TestBuildFilterAllowsSingleMaskedGuardOnMatch is a regression test:
// a rule whose only argument guard is MaskedEq (the shape baseSyscalls
// uses for mmap/mprotect's non-executable check) must actually resolve
// to SECCOMP_RET_ALLOW when the guard matches, not fall through into
// the next rule's syscall-number check and eventually hit the kill
// label.
func TestBuildFilterAllowsSingleMaskedGuardOnMatch(t *testing.T) {
	rules := []SyscallRule{
		AllowIf(sysMmap, MaskedEq(2, protExec, 0)),
		AllowIf(sysMprotect, MaskedEq(2, protExec, 0)),
	}
	prog, err := buildFilter(rules)
	require.NoError(t, err)

	// A non-executable mmap (prot without PROT_EXEC) must be allowed.
	data := seccompData(sysMmap, [6]uint64{0, 0, 0x3 /* PROT_READ|PROT_WRITE */, 0x22 /* MAP_PRIVATE|MAP_ANON */, 0, 0})
	require.Equal(t, uint32(unix.SECCOMP_RET_ALLOW), runFilter(t, prog, data))

	// An executable mmap must still be killed.
	data = seccompData(sysMmap, [6]uint64{0, 0, uint64(protExec), 0x22, 0, 0})
	require.Equal(t, uint32(unix.SECCOMP_RET_KILL_PROCESS), runFilter(t, prog, data))

	// A non-executable mprotect (second rule) must also be allowed.
	data = seccompData(sysMprotect, [6]uint64{0, 0, 0, 0, 0, 0})
	require.Equal(t, uint32(unix.SECCOMP_RET_ALLOW), runFilter(t, prog, data))
}
