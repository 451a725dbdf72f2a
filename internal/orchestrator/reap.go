// reap.go implements spec.md §4.5 "Reaping and reset": send End to
// every live worker, wait with a bounded timeout, then kill stragglers.
// Grounded on the teacher's fstest/test_all/run.go subprocess-
// supervision style, with golang.org/x/sync/errgroup fanning the wait
// out across every child concurrently rather than reaping them one at a
// time (the DOMAIN STACK ledger's "parallel spawn/reap" entry).
package orchestrator

import (
	"errors"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cea-sec/usbsas-go/internal/proto"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
)

// ReapTimeout bounds how long Reap waits for a child to exit after End
// before escalating to SIGKILL, per spec.md §4.5 "bounded timeout".
const ReapTimeout = 5 * time.Second

// sendEnd best-effort-sends an End request on a child's control
// channel. A failure here just means the child is already gone or its
// channel already errored; Reap proceeds to wait/kill regardless.
func sendEnd(c *Child) {
	if c.Ch == nil {
		return
	}
	// Every request enum's End tag is 0 regardless of which proto.Encode*
	// function built it (see proto/common.go); devices' is used as the
	// representative encoding since it carries no fields.
	_ = c.Ch.Send(proto.EncodeDevicesRequest(proto.ReqDevicesEnd{}))
}

// Reap tears down every child in children: it asks each to exit
// cleanly, waits up to ReapTimeout per process (concurrently), and
// kills anything still alive afterwards. It always returns nil — a
// child that must be killed is logged, not treated as a Reap failure,
// matching spec.md §4.5 "the orchestrator itself survives child
// failure".
func Reap(children []*Child) error {
	var g errgroup.Group
	for _, c := range children {
		c := c
		g.Go(func() error {
			sendEnd(c)
			if c.Ch != nil {
				c.Ch.Close()
			}
			done := make(chan error, 1)
			go func() { done <- c.Cmd.Wait() }()
			select {
			case err := <-done:
				if err != nil && !isExpectedExit(err) {
					usbsaslog.Logf(c.Kind, "exited with error: %v", err)
				}
			case <-time.After(ReapTimeout):
				usbsaslog.Logf(c.Kind, "did not exit within %s, killing", ReapTimeout)
				if c.Cmd.Process != nil {
					_ = c.Cmd.Process.Kill()
				}
				<-done
			}
			return nil
		})
	}
	return g.Wait()
}

func isExpectedExit(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
