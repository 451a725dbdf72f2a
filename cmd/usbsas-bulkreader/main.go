// Command usbsas-bulkreader is the block-device-wrapper worker of
// spec.md §4.6 reading raw sectors off a USB device node, per
// --device-path.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/cea-sec/usbsas-go/internal/blockdev"
	"github.com/cea-sec/usbsas-go/internal/confine"
	"github.com/cea-sec/usbsas-go/internal/proto"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
	"github.com/cea-sec/usbsas-go/internal/wkind"
	"github.com/cea-sec/usbsas-go/internal/worker"
)

func main() {
	cmd := &cobra.Command{
		Use:   "usbsas-bulkreader",
		Short: "Read raw sectors from a USB device node",
	}
	flags := worker.BindCommonFlags(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		usbsaslog.SetLevel(flags.Verbose)
		worker.Bootstrap(wkind.BulkReader, func() (func() error, confine.Profile, error) {
			return build(flags)
		})
		return nil
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// sectorSize asks the device node for its logical sector size via
// BLKSSZGET, falling back to blockdev.DefaultSectorSize on platforms or
// device types that don't support the ioctl (e.g. a plain file standing
// in for a device node in tests).
func sectorSize(f *os.File) uint32 {
	v, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKSSZGET)
	if err != nil || v <= 0 {
		return blockdev.DefaultSectorSize
	}
	return uint32(v)
}

func build(f *worker.CommonFlags) (func() error, confine.Profile, error) {
	ch, err := worker.InitChannel()
	if err != nil {
		return nil, confine.Profile{}, err
	}
	if f.DevicePath == "" {
		return nil, confine.Profile{}, fmt.Errorf("usbsas-bulkreader: --device-path is required")
	}
	dev, err := worker.AuxFile(f.DevicePath, false)
	if err != nil {
		return nil, confine.Profile{}, fmt.Errorf("usbsas-bulkreader: open %s: %w", f.DevicePath, err)
	}

	bd := blockdev.NewDevice(dev, nil, sectorSize(dev))

	rt := &worker.Runtime[proto.BulkReaderRequest, proto.BulkReaderResponse]{
		Kind:   wkind.BulkReader,
		Ch:     ch,
		Decode: proto.DecodeBulkReaderRequest,
		Encode: proto.EncodeBulkReaderResponse,
		Handle: func(req proto.BulkReaderRequest) (proto.BulkReaderResponse, bool, error) {
			switch v := req.(type) {
			case proto.ReqSectorSize:
				return proto.RespSectorSize{Size: bd.SectorSize()}, false, nil
			case proto.ReqReadSectors:
				data, err := bd.ReadSectors(v.Offset, v.Count)
				if err != nil {
					return proto.RespBulkReaderError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				return proto.RespSectors{Data: data}, false, nil
			case proto.ReqBulkReaderEnd:
				dev.Close()
				return proto.RespBulkReaderEnd{}, true, nil
			default:
				return proto.RespBulkReaderEnd{}, true, nil
			}
		},
	}

	profile := confine.ForKind(wkind.BulkReader, ch.InputFD(), ch.OutputFD(), nil)
	return rt.Run, profile, nil
}
