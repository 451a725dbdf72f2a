//go:build linux

package confine

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// seccomp_data layout (linux/seccomp.h): nr at offset 0, arch at
// offset 4, instruction_pointer at 8, args[6] (8 bytes each) from 16.
// cBPF only loads 32-bit words, so each 64-bit arg is split into a low
// word (used by the guards here, which only ever compare small
// integers) and a high word. Eq guards also verify the high word is
// zero; MaskedEq guards test the low word only.
const (
	offNr   = 0
	offArch = 4
	offArgs = 16
)

func argLowOffset(i int) uint32  { return uint32(offArgs + i*8) }
func argHighOffset(i int) uint32 { return argLowOffset(i) + 4 }

// auditArchX86_64 is AUDIT_ARCH_X86_64 from linux/audit.h.
const auditArchX86_64 = 0xC000003E

// instruction is a BPF instruction whose jump targets are symbolic
// labels, resolved to relative offsets by asm.assemble.
type instruction struct {
	code     uint16
	k        uint32
	jt, jf   string // for BPF_JMP codes other than BPF_JA
	jaTarget string // for BPF_JMP|BPF_JA, which encodes its target in k
}

type asm struct {
	instrs []instruction
	labels map[string]int
}

func newAsm() *asm { return &asm{labels: map[string]int{}} }

func (a *asm) label(name string) { a.labels[name] = len(a.instrs) }

func (a *asm) loadAbs(off uint32) {
	a.instrs = append(a.instrs, instruction{code: unix.BPF_LD | unix.BPF_W | unix.BPF_ABS, k: off})
}

func (a *asm) andK(mask uint32) {
	a.instrs = append(a.instrs, instruction{code: unix.BPF_ALU | unix.BPF_AND | unix.BPF_K, k: mask})
}

// jeq compares the accumulator to k: falls through (jt=="") on match
// when jt is empty, or jumps to jt on match / jf on mismatch.
func (a *asm) jeq(k uint32, jt, jf string) {
	a.instrs = append(a.instrs, instruction{code: unix.BPF_JMP | unix.BPF_JEQ | unix.BPF_K, k: k, jt: jt, jf: jf})
}

func (a *asm) ret(k uint32) {
	a.instrs = append(a.instrs, instruction{code: unix.BPF_RET | unix.BPF_K, k: k})
}

func (a *asm) assemble() ([]unix.SockFilter, error) {
	prog := make([]unix.SockFilter, len(a.instrs))
	for idx, ins := range a.instrs {
		sf := unix.SockFilter{Code: ins.code, K: ins.k}
		switch {
		case ins.jaTarget != "":
			target, ok := a.labels[ins.jaTarget]
			if !ok {
				return nil, fmt.Errorf("confine: undefined label %q", ins.jaTarget)
			}
			sf.K = uint32(target - idx - 1)
		case ins.jt != "" || ins.jf != "":
			if ins.jt != "" {
				target, ok := a.labels[ins.jt]
				if !ok {
					return nil, fmt.Errorf("confine: undefined label %q", ins.jt)
				}
				sf.Jt = uint8(target - idx - 1)
			}
			if ins.jf != "" {
				target, ok := a.labels[ins.jf]
				if !ok {
					return nil, fmt.Errorf("confine: undefined label %q", ins.jf)
				}
				sf.Jf = uint8(target - idx - 1)
			}
		}
		prog[idx] = sf
	}
	return prog, nil
}

// buildFilter assembles a seccomp-bpf program that allows exactly the
// syscalls named by rules (subject to their argument guards) on the
// x86_64 architecture, and kills the process for anything else —
// wrong architecture, unknown syscall, or a guarded syscall whose
// arguments don't match.
func buildFilter(rules []SyscallRule) ([]unix.SockFilter, error) {
	a := newAsm()

	a.loadAbs(offArch)
	a.jeq(auditArchX86_64, "", "kill")

	for i, rule := range rules {
		nextLabel := fmt.Sprintf("rule%d_next", i)
		a.loadAbs(offNr)
		if len(rule.Args) == 0 {
			a.jeq(uint32(rule.Nr), "allow", nextLabel)
			a.label(nextLabel)
			continue
		}

		matchLabel := fmt.Sprintf("rule%d_match", i)
		a.jeq(uint32(rule.Nr), matchLabel, nextLabel)
		a.label(matchLabel)

		for j, g := range rule.Args {
			failLabel := nextLabel
			last := j == len(rule.Args)-1
			if g.Op == OpMaskedEq {
				a.loadAbs(argLowOffset(g.Index))
				a.andK(uint32(g.Mask))
				if last {
					a.jeq(uint32(g.Value), "allow", failLabel)
				} else {
					a.jeq(uint32(g.Value), "", failLabel)
				}
				continue
			}
			a.loadAbs(argHighOffset(g.Index))
			a.jeq(0, "", failLabel)
			a.loadAbs(argLowOffset(g.Index))
			if last {
				a.jeq(uint32(g.Value), "allow", failLabel)
			} else {
				a.jeq(uint32(g.Value), "", failLabel)
			}
		}
		a.label(nextLabel)
	}

	a.label("kill")
	a.ret(uint32(unix.SECCOMP_RET_KILL_PROCESS))
	a.label("allow")
	a.ret(uint32(unix.SECCOMP_RET_ALLOW))

	return a.assemble()
}
