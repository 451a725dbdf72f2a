// Command usbsas-bulkwriter is the block-device-wrapper worker of
// spec.md §4.6 writing raw sectors to a USB device node, per
// --device-path, used as the final stage of the USBToUSB/LocalToUSB
// destinations once the session's archive has been finalized (see
// internal/orchestrator/copy.go streamArchiveToBulkWriter).
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
		Use:   "usbsas-bulkwriter",
		Short: "Write raw sectors to a USB device node",
	}
	flags := worker.BindCommonFlags(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		usbsaslog.SetLevel(flags.Verbose)
		worker.Bootstrap(wkind.BulkWriter, func() (func() error, confine.Profile, error) {
			return build(flags)
		})
		return nil
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

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
		return nil, confine.Profile{}, fmt.Errorf("usbsas-bulkwriter: --device-path is required")
	}
	dev, err := worker.AuxFile(f.DevicePath, true)
	if err != nil {
		return nil, confine.Profile{}, fmt.Errorf("usbsas-bulkwriter: open %s: %w", f.DevicePath, err)
	}

	bd := blockdev.NewDevice(dev, dev, sectorSize(dev))

	rt := &worker.Runtime[proto.BulkWriterRequest, proto.BulkWriterResponse]{
		Kind:   wkind.BulkWriter,
		Ch:     ch,
		Decode: proto.DecodeBulkWriterRequest,
		Encode: proto.EncodeBulkWriterResponse,
		Handle: func(req proto.BulkWriterRequest) (proto.BulkWriterResponse, bool, error) {
			switch v := req.(type) {
			case proto.ReqWriteSectors:
				if err := bd.WriteSectors(v.Offset, v.Data); err != nil {
					return proto.RespBulkWriterError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				return proto.RespBWWritten{}, false, nil
			case proto.ReqBulkWriterEnd:
				dev.Close()
				return proto.RespBulkWriterEnd{}, true, nil
			default:
				return proto.RespBulkWriterEnd{}, true, nil
			}
		},
	}

	profile := confine.ForKind(wkind.BulkWriter, ch.InputFD(), ch.OutputFD(), nil)
	return rt.Run, profile, nil
}
