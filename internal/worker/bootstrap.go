package worker

import (
	"errors"
	"os"

	"github.com/cea-sec/usbsas-go/internal/confine"
	"github.com/cea-sec/usbsas-go/internal/usbsaserr"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
	"github.com/cea-sec/usbsas-go/internal/wkind"
)

// Bootstrap drives the full Init → Confine → Run → Terminate lifecycle
// spec.md §4.4 describes for a single worker binary. build receives the
// channel already opened over the inherited fds and returns the
// runnable closure plus the confinement profile to install; everything
// kind-specific (opening --tar-path/--fs-path, constructing the
// proto Decode/Encode/Handle trio) lives in build, supplied by
// cmd/<kind>/main.go.
func Bootstrap(kind wkind.Kind, build func() (run func() error, profile confine.Profile, err error)) {
	run, profile, err := build()
	if err != nil {
		usbsaslog.Errorf(kind, "init failed: %v", err)
		os.Exit(1)
	}

	if err := confine.Apply(profile); err != nil {
		if errors.Is(err, confine.ErrUnsupported) {
			usbsaslog.Logf(kind, "confinement unsupported on this platform, running unconfined (best-effort opt-in)")
		} else {
			usbsaslog.Fatalf(kind, "confinement failed: %v", err)
		}
	} else {
		usbsaslog.Logf(kind, "confinement installed")
	}

	if err := run(); err != nil {
		var te *usbsaserr.Error
		if errors.As(err, &te) {
			usbsaslog.Errorf(kind, "fatal %s error: %s", te.Kind, te.Detail)
		} else {
			usbsaslog.Errorf(kind, "fatal error: %v", err)
		}
		os.Exit(1)
	}
	os.Exit(0)
}
