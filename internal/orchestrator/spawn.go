// spawn.go implements spec.md §4.5 "Pipeline construction" steps 2-4:
// one pipe pair per worker, fork+exec with fds wired over canonical
// numbers, environment variables naming them, and parent-side retention
// of the child's pid and control channel. Grounded on the teacher's
// fstest/test_all/run.go subprocess-supervision style (start external
// processes, capture exit status) combined with Go's os/exec.Cmd
// ExtraFiles convention, which gives the "close all other fds across
// the fork boundary" invariant of spec.md §3 for free: exec.Cmd never
// inherits a file beyond os.Stdin/Stdout/Stderr and ExtraFiles.
package orchestrator

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/cea-sec/usbsas-go/internal/channel"
	"github.com/cea-sec/usbsas-go/internal/wkind"
	"github.com/cea-sec/usbsas-go/internal/worker"
)

// Child is one spawned worker process together with the orchestrator's
// end of its control channel, per spec.md §4.5 step 4: "In the parent,
// close the child's ends and retain its pid and its control channel".
type Child struct {
	Kind wkind.Kind
	Cmd  *exec.Cmd
	Ch   *channel.Channel
}

// SpawnConfig names everything a worker invocation needs beyond its
// kind: where to find worker binaries, and the session-scoped
// auxiliary paths a kind's wkind.Catalogue entry says it expects.
// Per spec.md §6, auxiliary fds are resolved by each worker itself
// ("opening the path early and recording the resulting fd") rather
// than inherited pre-opened, so SpawnConfig carries plain paths.
type SpawnConfig struct {
	BinaryDir  string
	ConfigPath string
	TarPath    string
	FSPath     string
	DevicePath string
}

func binaryName(kind wkind.Kind) string { return "usbsas-" + string(kind) }

// Spawn forks and execs one worker of the given kind. The two pipe
// pairs created here are the worker's entire fd table beyond
// stdin/stdout/stderr, per spec.md §3's invariant: fd 3 is always the
// input pipe read end, fd 4 the output pipe write end (Go's ExtraFiles
// convention assigns slot i to fd 3+i), and INPUT_PIPE_FD/OUTPUT_PIPE_FD
// tell the child those numbers so it never has to hardcode them.
func Spawn(kind wkind.Kind, cfg SpawnConfig) (*Child, error) {
	spec, ok := wkind.Catalogue[kind]
	if !ok {
		return nil, fmt.Errorf("orchestrator: unknown worker kind %q", kind)
	}

	reqR, reqW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: create request pipe for %s: %w", kind, err)
	}
	respR, respW, err := os.Pipe()
	if err != nil {
		reqR.Close()
		reqW.Close()
		return nil, fmt.Errorf("orchestrator: create response pipe for %s: %w", kind, err)
	}

	path := filepath.Join(cfg.BinaryDir, binaryName(kind))
	args := []string{}
	if cfg.ConfigPath != "" {
		args = append(args, "--config", cfg.ConfigPath)
	}
	for _, aux := range spec.AuxFDs {
		switch aux {
		case wkind.AuxFDTar:
			args = append(args, "--tar-path", cfg.TarPath)
		case wkind.AuxFDImage:
			args = append(args, "--fs-path", cfg.FSPath)
		case wkind.AuxFDDevice:
			args = append(args, "--device-path", cfg.DevicePath)
		}
	}

	cmd := exec.Command(path, args...)
	cmd.ExtraFiles = []*os.File{reqR, respW}
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("%s=3", worker.EnvInputFD),
		fmt.Sprintf("%s=4", worker.EnvOutputFD),
	)
	cmd.Stderr = os.Stderr
	cmd.Stdout = os.Stderr

	if err := cmd.Start(); err != nil {
		reqR.Close()
		reqW.Close()
		respR.Close()
		respW.Close()
		return nil, fmt.Errorf("orchestrator: start %s: %w", kind, err)
	}

	// The child has its own duplicated copies of reqR/respW now; the
	// parent's job is to hold the opposite ends only.
	reqR.Close()
	respW.Close()

	return &Child{Kind: kind, Cmd: cmd, Ch: channel.New(respR, reqW)}, nil
}
