// Command usbsas-localsource substitutes, for LocalToX transfer modes,
// the entire device-enumerator + bulk-reader + filesystem-reader chain
// of spec.md §4.5 with a single worker reading directly out of a local
// directory tree named by --fs-path (the spec's supplemented
// "LocalToUSB/LocalToImg/LocalToNet" source, distilled from
// original_source's local-source handling). It speaks the exact same
// proto.FSReaderRequest/Response schema as usbsas-fsreader so the
// orchestrator's source-side logic (internal/orchestrator/control.go
// sourceWorker) never has to distinguish the two.
package main

import (
	"os"

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
		Use:   "usbsas-localsource",
		Short: "Serve a local directory tree as a transfer source",
	}
	flags := worker.BindCommonFlags(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		usbsaslog.SetLevel(flags.Verbose)
		worker.Bootstrap(wkind.LocalSource, func() (func() error, confine.Profile, error) {
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
	reader := localfs.NewReader(f.FSPath)
	var mounted fsrw.Handle

	rt := &worker.Runtime[proto.FSReaderRequest, proto.FSReaderResponse]{
		Kind:   wkind.LocalSource,
		Ch:     ch,
		Decode: proto.DecodeFSReaderRequest,
		Encode: proto.EncodeFSReaderResponse,
		Handle: func(req proto.FSReaderRequest) (proto.FSReaderResponse, bool, error) {
			switch v := req.(type) {
			case proto.ReqPartitions:
				parts, _ := reader.ListPartitions()
				out := make([]proto.Partition, 0, len(parts))
				for _, p := range parts {
					out = append(out, proto.Partition{Index: p.Index, Type: p.Type, StartLBA: p.StartLBA, SizeLBA: p.SizeLBA})
				}
				return proto.RespPartitionList{Partitions: out}, false, nil
			case proto.ReqOpenPartition:
				h, err := reader.Mount(v.Index)
				if err != nil {
					return proto.RespFSReaderError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrBadRequest, Detail: err.Error()}}, false, nil
				}
				mounted = h
				return proto.RespOpened{}, false, nil
			case proto.ReqReadDir:
				if mounted == nil {
					return proto.RespFSReaderError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrState, Detail: "no partition opened"}}, false, nil
				}
				entries, err := mounted.ReadDir(v.Path)
				if err != nil {
					return proto.RespFSReaderError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				out := make([]proto.DirEntry, 0, len(entries))
				for _, e := range entries {
					out = append(out, proto.DirEntry{Name: e.Name, IsDir: e.IsDir, Size: e.Size, Mtime: e.Mtime.Unix()})
				}
				return proto.RespEntries{Entries: out}, false, nil
			case proto.ReqGetAttr:
				if mounted == nil {
					return proto.RespFSReaderError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrState, Detail: "no partition opened"}}, false, nil
				}
				a, err := mounted.GetAttr(v.Path)
				if err != nil {
					return proto.RespFSReaderError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				return proto.RespAttr{Attr: proto.FileAttr{Size: a.Size, Mtime: a.Mtime.Unix(), IsDir: a.IsDir}}, false, nil
			case proto.ReqReadFile:
				if mounted == nil {
					return proto.RespFSReaderError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrState, Detail: "no partition opened"}}, false, nil
				}
				data, err := mounted.ReadFile(v.Path, v.Offset, v.Len)
				if err != nil {
					return proto.RespFSReaderError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				return proto.RespData{Data: data}, false, nil
			case proto.ReqFSReaderEnd:
				if mounted != nil {
					mounted.Close()
				}
				return proto.RespFSReaderEnd{}, true, nil
			default:
				return proto.RespFSReaderEnd{}, true, nil
			}
		},
	}

	profile := confine.ForKind(wkind.LocalSource, ch.InputFD(), ch.OutputFD(), nil)
	return rt.Run, profile, nil
}
