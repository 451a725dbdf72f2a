// Command usbsas-fswriter is the filesystem-writer worker of spec.md
// §4.6 for the USBToUSB/LocalToUSB destinations: it formats (stands in
// for formatting, see internal/fsrw/localfs) and populates a local
// directory tree rooted at --fs-path, file by file, as the archive's
// contents are re-delivered by the orchestrator.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cea-sec/usbsas-go/internal/confine"
	"github.com/cea-sec/usbsas-go/internal/fsrw"
	"github.com/cea-sec/usbsas-go/internal/fsrw/localfs"
	"github.com/cea-sec/usbsas-go/internal/proto"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
	"github.com/cea-sec/usbsas-go/internal/wkind"
	"github.com/cea-sec/usbsas-go/internal/worker"
)

func main() {
	cmd := &cobra.Command{
		Use:   "usbsas-fswriter",
		Short: "Write copied files into a destination filesystem tree",
	}
	flags := worker.BindCommonFlags(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		usbsaslog.SetLevel(flags.Verbose)
		worker.Bootstrap(wkind.FSWriter, func() (func() error, confine.Profile, error) {
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
		return nil, confine.Profile{}, fmt.Errorf("usbsas-fswriter: --fs-path is required")
	}
	fw := localfs.NewWriter(f.FSPath)
	var current fsrw.Sink

	rt := &worker.Runtime[proto.FSWriterRequest, proto.FSWriterResponse]{
		Kind:   wkind.FSWriter,
		Ch:     ch,
		Decode: proto.DecodeFSWriterRequest,
		Encode: proto.EncodeFSWriterResponse,
		Handle: func(req proto.FSWriterRequest) (proto.FSWriterResponse, bool, error) {
			switch v := req.(type) {
			case proto.ReqMkFs:
				if err := fw.MkFs(v.SectorSize, v.Count, v.FSType); err != nil {
					return proto.RespFSWriterError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				return proto.RespFormatted{}, false, nil
			case proto.ReqFWNewFile:
				s, err := fw.NewFile(v.Path, time.Unix(v.Mtime, 0))
				if err != nil {
					return proto.RespFSWriterError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				current = s
				return proto.RespFWReady{}, false, nil
			case proto.ReqFWWriteData:
				if current == nil {
					return proto.RespFSWriterError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrState, Detail: "no file open"}}, false, nil
				}
				n, err := current.Write(v.Data)
				if err != nil {
					return proto.RespFSWriterError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				return proto.RespFWWritten{N: int64(n)}, false, nil
			case proto.ReqFWEndFile:
				if current != nil {
					if err := current.Close(); err != nil {
						return proto.RespFSWriterError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
					}
					current = nil
				}
				return proto.RespFWAck{}, false, nil
			case proto.ReqNewDir:
				if err := fw.NewDir(v.Path, time.Unix(v.Mtime, 0)); err != nil {
					return proto.RespFSWriterError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				return proto.RespFWReady{}, false, nil
			case proto.ReqSetTimestamp:
				if err := fw.SetTimestamp(v.Path, time.Unix(v.Mtime, 0)); err != nil {
					return proto.RespFSWriterError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				return proto.RespFWAck{}, false, nil
			case proto.ReqUnmount:
				if err := fw.Unmount(); err != nil {
					return proto.RespFSWriterError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				return proto.RespUnmounted{}, false, nil
			case proto.ReqFSWriterEnd:
				return proto.RespFSWriterEnd{}, true, nil
			default:
				return proto.RespFSWriterEnd{}, true, nil
			}
		},
	}

	profile := confine.ForKind(wkind.FSWriter, ch.InputFD(), ch.OutputFD(), nil)
	return rt.Run, profile, nil
}
