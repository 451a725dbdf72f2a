// Command usbsas-archivewriter is the archive-writer worker of spec.md
// §4.6: it assembles every file the pipeline copies into the session's
// intermediate USTAR archive at --tar-path.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cea-sec/usbsas-go/internal/archive"
	"github.com/cea-sec/usbsas-go/internal/confine"
	"github.com/cea-sec/usbsas-go/internal/proto"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
	"github.com/cea-sec/usbsas-go/internal/wkind"
	"github.com/cea-sec/usbsas-go/internal/worker"
)

func main() {
	cmd := &cobra.Command{
		Use:   "usbsas-archivewriter",
		Short: "Assemble copied files into the session's intermediate archive",
	}
	flags := worker.BindCommonFlags(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		usbsaslog.SetLevel(flags.Verbose)
		worker.Bootstrap(wkind.ArchiveWriter, func() (func() error, confine.Profile, error) {
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
	if f.TarPath == "" {
		return nil, confine.Profile{}, fmt.Errorf("usbsas-archivewriter: --tar-path is required")
	}
	out, err := worker.AuxFile(f.TarPath, true)
	if err != nil {
		return nil, confine.Profile{}, fmt.Errorf("usbsas-archivewriter: open %s: %w", f.TarPath, err)
	}
	aw, err := archive.NewTarWriter(out)
	if err != nil {
		return nil, confine.Profile{}, err
	}

	rt := &worker.Runtime[proto.ArchiveWriterRequest, proto.ArchiveWriterResponse]{
		Kind:   wkind.ArchiveWriter,
		Ch:     ch,
		Decode: proto.DecodeArchiveWriterRequest,
		Encode: proto.EncodeArchiveWriterResponse,
		Handle: func(req proto.ArchiveWriterRequest) (proto.ArchiveWriterResponse, bool, error) {
			switch v := req.(type) {
			case proto.ReqNewFile:
				if err := aw.NewFile(v.Path, v.Type == proto.FileDir, v.Size, time.Unix(v.Mtime, 0)); err != nil {
					return proto.RespArchiveWriterError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				return proto.RespReady{}, false, nil
			case proto.ReqWriteData:
				n, err := aw.WriteData(v.Data)
				if err != nil {
					return proto.RespArchiveWriterError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				return proto.RespWritten{N: int64(n)}, false, nil
			case proto.ReqEndFile:
				if err := aw.EndFile(); err != nil {
					return proto.RespArchiveWriterError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				return proto.RespAck{}, false, nil
			case proto.ReqClose:
				size, err := aw.Finish(v.Metadata)
				if err != nil {
					return proto.RespArchiveWriterError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				return proto.RespClosed{FinalSize: size}, false, nil
			case proto.ReqArchiveWriterEnd:
				return proto.RespArchiveWriterEnd{}, true, nil
			default:
				return proto.RespArchiveWriterEnd{}, true, nil
			}
		},
	}

	profile := confine.ForKind(wkind.ArchiveWriter, ch.InputFD(), ch.OutputFD(), nil)
	return rt.Run, profile, nil
}
