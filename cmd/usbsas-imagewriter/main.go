// Command usbsas-imagewriter is the image-writer worker of spec.md §4.6
// for the USBToImg/LocalToImg destinations: it appends bytes at
// orchestrator-chosen offsets into the session's intermediate image
// file at --fs-path, tracking the sparse sector bitmap (supplemented,
// see SPEC_FULL.md).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cea-sec/usbsas-go/internal/blockdev"
	"github.com/cea-sec/usbsas-go/internal/confine"
	"github.com/cea-sec/usbsas-go/internal/proto"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
	"github.com/cea-sec/usbsas-go/internal/wkind"
	"github.com/cea-sec/usbsas-go/internal/worker"
)

func main() {
	cmd := &cobra.Command{
		Use:   "usbsas-imagewriter",
		Short: "Write copied file bytes into an intermediate disk image",
	}
	flags := worker.BindCommonFlags(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		usbsaslog.SetLevel(flags.Verbose)
		worker.Bootstrap(wkind.ImageWriter, func() (func() error, confine.Profile, error) {
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
	if f.FSPath == "" {
		return nil, confine.Profile{}, fmt.Errorf("usbsas-imagewriter: --fs-path is required")
	}
	out, err := worker.AuxFile(f.FSPath, true)
	if err != nil {
		return nil, confine.Profile{}, fmt.Errorf("usbsas-imagewriter: open %s: %w", f.FSPath, err)
	}
	img := blockdev.NewSparseImage(out, blockdev.DefaultSectorSize)

	rt := &worker.Runtime[proto.ImageWriterRequest, proto.ImageWriterResponse]{
		Kind:   wkind.ImageWriter,
		Ch:     ch,
		Decode: proto.DecodeImageWriterRequest,
		Encode: proto.EncodeImageWriterResponse,
		Handle: func(req proto.ImageWriterRequest) (proto.ImageWriterResponse, bool, error) {
			switch v := req.(type) {
			case proto.ReqWriteImage:
				if _, err := img.WriteAt(v.Data, int64(v.Offset)); err != nil {
					return proto.RespImageWriterError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				return proto.RespIWWritten{}, false, nil
			case proto.ReqFinalize:
				size, err := img.Size()
				if err != nil {
					return proto.RespImageWriterError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				return proto.RespImage{SizeBytes: size}, false, nil
			case proto.ReqImageWriterEnd:
				img.Close()
				return proto.RespImageWriterEnd{}, true, nil
			default:
				return proto.RespImageWriterEnd{}, true, nil
			}
		},
	}

	profile := confine.ForKind(wkind.ImageWriter, ch.InputFD(), ch.OutputFD(), nil)
	return rt.Run, profile, nil
}
