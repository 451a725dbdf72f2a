// Package worker is the shared per-process scaffolding every worker
// binary runs, per spec.md §4.4: decode inherited fds, confine, run a
// blocking request/response loop, terminate. Grounded on the teacher's
// self-registering backend pattern (fs.Register/fs.RegInfo, every
// backend/*/local.go calling fs.Register(&fs.RegInfo{...}) from its own
// init) adapted into a kind-keyed handler-factory table, and on
// backend/torrent/cmd/backend.go's cobra.Command + flags bootstrapping
// shape reused per cmd/*/main.go.
package worker

import (
	"fmt"
	"os"
	"strconv"

	"github.com/cea-sec/usbsas-go/internal/channel"
)

const (
	// EnvInputFD and EnvOutputFD are the environment variables
	// spec.md §6 names for inherited pipe fds.
	EnvInputFD  = "INPUT_PIPE_FD"
	EnvOutputFD = "OUTPUT_PIPE_FD"
)

// InitChannel decodes the inherited input/output pipe fds from the
// environment and wraps them in a channel.Channel. It is the first
// thing every worker's Init phase does.
func InitChannel() (*channel.Channel, error) {
	inFD, err := envFD(EnvInputFD)
	if err != nil {
		return nil, err
	}
	outFD, err := envFD(EnvOutputFD)
	if err != nil {
		return nil, err
	}
	in := os.NewFile(uintptr(inFD), "input-pipe")
	out := os.NewFile(uintptr(outFD), "output-pipe")
	return channel.New(in, out), nil
}

func envFD(name string) (int, error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return 0, fmt.Errorf("worker: %s not set", name)
	}
	fd, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("worker: %s=%q is not a decimal fd: %w", name, v, err)
	}
	return fd, nil
}

// AuxFile opens a positional auxiliary path argument (--tar-path,
// --fs-path) early, during Init, before confinement forecloses
// arbitrary opens. flag selects read-only vs read-write/create.
func AuxFile(path string, writable bool) (*os.File, error) {
	if writable {
		return os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	}
	return os.Open(path)
}
