// Command usbsas-orchestrator drives one end-to-end transfer through
// the internal/orchestrator API, per spec.md §4.5. An HTTP/JSON control
// server is explicitly out of scope (spec.md §4.5's note that the
// orchestrator is driven "through its own control channel", not a REST
// API), so this binary is a one-shot CLI: it resolves a device by
// serial number, opens the chosen source, filters every path under the
// root, copies what's allowed, and reports the terminal state plus any
// files the retention rule kept.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cea-sec/usbsas-go/internal/config"
	"github.com/cea-sec/usbsas-go/internal/orchestrator"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
	"github.com/cea-sec/usbsas-go/internal/wkind"
)

func main() {
	var (
		configPath string
		modeFlag   string
		serial     string
		outDir     string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "usbsas-orchestrator",
		Short: "Run one usbsas transfer end-to-end",
		RunE: func(*cobra.Command, []string) error {
			usbsaslog.SetLevel(verbose)
			return runTransfer(configPath, orchestrator.Mode(modeFlag), serial, outDir)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "path to usbsas TOML configuration")
	cmd.Flags().StringVar(&modeFlag, "mode", "", "transfer mode: usb_to_usb, usb_to_net, usb_to_img, local_to_usb, local_to_img, local_to_net")
	cmd.Flags().StringVar(&serial, "serial", "", "serial number of the source device to select (ignored for local_to_* modes)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory to move retained output files into")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runTransfer(configPath string, mode orchestrator.Mode, serial, outDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	o, err := orchestrator.New(cfg)
	if err != nil {
		return err
	}

	isLocal := mode == orchestrator.LocalToUSB || mode == orchestrator.LocalToImg || mode == orchestrator.LocalToNet
	if !isLocal {
		devices, err := o.ListDevices()
		if err != nil {
			return err
		}
		found := false
		for _, d := range devices {
			if d.Serial == serial {
				if err := o.Select(d); err != nil {
					return err
				}
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("usbsas-orchestrator: no device with serial %q found among %d candidates", serial, len(devices))
		}
	}

	if err := o.Open(mode); err != nil {
		if abortErr := o.Abort(); abortErr != nil {
			usbsaslog.Errorf(wkind.Orchestrator, "abort after open failure: %v", abortErr)
		}
		return err
	}

	paths, err := o.Walk("/")
	if err != nil {
		if abortErr := o.Abort(); abortErr != nil {
			usbsaslog.Errorf(wkind.Orchestrator, "abort after walk failure: %v", abortErr)
		}
		return err
	}

	allowed, rejected, err := o.Filter(paths)
	if err != nil {
		if abortErr := o.Abort(); abortErr != nil {
			usbsaslog.Errorf(wkind.Orchestrator, "abort after filter failure: %v", abortErr)
		}
		return err
	}
	usbsaslog.Logf(wkind.Orchestrator, "filter: %d allowed, %d rejected", len(allowed), len(rejected))

	final, err := o.Copy(allowed)
	if err != nil {
		return err
	}
	usbsaslog.Logf(wkind.Orchestrator, "transfer finished: %s", final)

	kept, err := o.Finish(final, outDir)
	if err != nil {
		return err
	}
	for _, path := range kept {
		fmt.Println(path)
	}

	return o.Reset()
}
