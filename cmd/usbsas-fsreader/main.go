// Command usbsas-fsreader is the filesystem-reader worker of spec.md
// §4.6: it parses the MBR off the source USB device and answers
// directory/attribute/content queries on the partition the orchestrator
// opens. Native FAT/exFAT/NTFS/ext4 drivers are out of scope (spec.md
// §1), so once a partition is opened, this worker serves its contents
// from the local directory tree at --fs-path — standing in for the
// native driver's mount point, matching how internal/fsrw/localfs
// substitutes for real formatting on the write side (fswriter).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cea-sec/usbsas-go/internal/blockdev"
	"github.com/cea-sec/usbsas-go/internal/confine"
	"github.com/cea-sec/usbsas-go/internal/fsrw"
	"github.com/cea-sec/usbsas-go/internal/fsrw/localfs"
	"github.com/cea-sec/usbsas-go/internal/mbr"
	"github.com/cea-sec/usbsas-go/internal/proto"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
	"github.com/cea-sec/usbsas-go/internal/wkind"
	"github.com/cea-sec/usbsas-go/internal/worker"
)

func main() {
	cmd := &cobra.Command{
		Use:   "usbsas-fsreader",
		Short: "Parse a device's partition table and serve file contents",
	}
	flags := worker.BindCommonFlags(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		usbsaslog.SetLevel(flags.Verbose)
		worker.Bootstrap(wkind.FSReader, func() (func() error, confine.Profile, error) {
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
	if f.DevicePath == "" {
		return nil, confine.Profile{}, fmt.Errorf("usbsas-fsreader: --device-path is required")
	}
	dev, err := worker.AuxFile(f.DevicePath, false)
	if err != nil {
		return nil, confine.Profile{}, fmt.Errorf("usbsas-fsreader: open %s: %w", f.DevicePath, err)
	}
	bd := blockdev.NewDevice(dev, nil, blockdev.DefaultSectorSize)
	reader := localfs.NewReader(f.FSPath)

	var mounted fsrw.Handle

	rt := &worker.Runtime[proto.FSReaderRequest, proto.FSReaderResponse]{
		Kind:   wkind.FSReader,
		Ch:     ch,
		Decode: proto.DecodeFSReaderRequest,
		Encode: proto.EncodeFSReaderResponse,
		Handle: func(req proto.FSReaderRequest) (proto.FSReaderResponse, bool, error) {
			switch v := req.(type) {
			case proto.ReqPartitions:
				raw, err := bd.ReadSectors(0, 1)
				if err != nil {
					return proto.RespFSReaderError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				var sector [512]byte
				copy(sector[:], raw)
				entries, err := mbr.Parse(sector)
				if err != nil {
					return proto.RespFSReaderError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrForeign, Detail: err.Error()}}, false, nil
				}
				parts := make([]proto.Partition, 0, len(entries))
				for _, e := range entries {
					parts = append(parts, proto.Partition{
						Index: e.Index, Type: e.Type,
						StartLBA: uint64(e.StartLBA), SizeLBA: uint64(e.SizeLBA),
					})
				}
				return proto.RespPartitionList{Partitions: parts}, false, nil
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
				dev.Close()
				return proto.RespFSReaderEnd{}, true, nil
			default:
				return proto.RespFSReaderEnd{}, true, nil
			}
		},
	}

	profile := confine.ForKind(wkind.FSReader, ch.InputFD(), ch.OutputFD(), nil)
	return rt.Run, profile, nil
}
