// Command usbsas-devices is the device-enumerator worker of spec.md
// §4.6: it lists attached USB mass-storage devices over /sys/bus/usb,
// per internal/usbdev (libusb is out of the retrieved pack; see
// SPEC_FULL.md).
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cea-sec/usbsas-go/internal/confine"
	"github.com/cea-sec/usbsas-go/internal/proto"
	"github.com/cea-sec/usbsas-go/internal/usbdev"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
	"github.com/cea-sec/usbsas-go/internal/wkind"
	"github.com/cea-sec/usbsas-go/internal/worker"
)

func main() {
	cmd := &cobra.Command{
		Use:   "usbsas-devices",
		Short: "Enumerate attached USB mass-storage devices",
	}
	flags := worker.BindCommonFlags(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		usbsaslog.SetLevel(flags.Verbose)
		worker.Bootstrap(wkind.Devices, func() (func() error, confine.Profile, error) {
			return build(flags)
		})
		return nil
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func build(f *worker.CommonFlags) (func() error, confine.Profile, error) {
	ch, err := worker.InitChannel()
	if err != nil {
		return nil, confine.Profile{}, err
	}

	enum := usbdev.NewDefaultSysfsEnumerator()

	rt := &worker.Runtime[proto.DevicesRequest, proto.DevicesResponse]{
		Kind:   wkind.Devices,
		Ch:     ch,
		Decode: proto.DecodeDevicesRequest,
		Encode: proto.EncodeDevicesResponse,
		Handle: func(req proto.DevicesRequest) (proto.DevicesResponse, bool, error) {
			switch req.(type) {
			case proto.ReqDevicesList:
				devs, err := enum.List()
				if err != nil {
					return proto.RespDevicesError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrForeign, Detail: err.Error()}}, false, nil
				}
				out := make([]proto.Device, 0, len(devs))
				for _, d := range devs {
					out = append(out, proto.Device{
						BusNum: d.BusNum, DevNum: d.DevNum,
						Vendor: d.Vendor, Model: d.Model, Serial: d.Serial,
						SizeBytes: d.SizeBytes, NodePath: d.NodePath,
					})
				}
				return proto.RespDevicesList{Devices: out}, false, nil
			case proto.ReqDevicesEnd:
				return proto.RespDevicesEnd{}, true, nil
			default:
				return proto.RespDevicesEnd{}, true, nil
			}
		},
	}

	profile := confine.ForKind(wkind.Devices, ch.InputFD(), ch.OutputFD(), nil)
	return rt.Run, profile, nil
}
