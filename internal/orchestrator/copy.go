// copy.go drives spec.md §4.5's Copying state: reading the filtered
// file set from the source worker (fsreader or localsource) and
// fanning each file out to the archive writer (always, producing the
// session's intermediate TAR) and, depending on transfer Mode, to a
// destination worker (fswriter+bulkwriter+device, imagewriter, or
// uploader) concurrently — the two downstream writes of one chunk
// never depend on each other, so they run on separate goroutines via
// golang.org/x/sync/errgroup, matching the DOMAIN STACK ledger's
// "orchestrator (parallel spawn/reap)" wiring extended here to the
// copy fan-out.
package orchestrator

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/cea-sec/usbsas-go/internal/proto"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
	"github.com/cea-sec/usbsas-go/internal/wkind"
)

// chunkSize bounds a single ReadFile/WriteData round trip so large
// files are streamed rather than buffered whole in the orchestrator.
const chunkSize = 1 << 20

// Walk enumerates every path under root on the source worker,
// depth-first, returning directories before the files and
// subdirectories they contain — the order Filter and Copy both expect,
// and the order archivewriter/fswriter need (a directory's NewDir/NewFile
// must precede entries nested under it).
func (o *Orchestrator) Walk(root string) ([]string, error) {
	source := o.sourceWorker()
	if source == nil {
		return nil, fmt.Errorf("orchestrator: no source worker spawned")
	}
	var out []string
	var recurse func(path string) error
	recurse = func(path string) error {
		if err := source.Ch.Send(proto.EncodeFSReaderRequest(proto.ReqReadDir{Path: path})); err != nil {
			return err
		}
		raw, err := source.Ch.Recv()
		if err != nil {
			return err
		}
		resp, err := decodeFSReaderOK(raw)
		if err != nil {
			return err
		}
		entries, ok := resp.(proto.RespEntries)
		if !ok {
			return fmt.Errorf("orchestrator: expected RespEntries, got %T", resp)
		}
		for _, e := range entries.Entries {
			child := joinPath(path, e.Name)
			out = append(out, child)
			if e.IsDir {
				if err := recurse(child); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := recurse(root); err != nil {
		return nil, err
	}
	return out, nil
}

func joinPath(dir, name string) string {
	if dir == "" || dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

// Copy drives Filtered -> Copying, streaming every allowed path from the
// source worker into the archive writer and (for a non-nil destination)
// the destination worker, then finalising both. It returns the terminal
// state reached, which the caller must then pass to Finish to actually
// transition out of Copying and apply the retention rule; a
// request-scoped error on any single file downgrades the outcome to
// PartialFailure rather than aborting the whole transfer, per spec.md
// §7's propagation policy.
func (o *Orchestrator) Copy(allowed []string) (State, error) {
	if err := o.transfer.StartCopy(); err != nil {
		return 0, err
	}

	aw, ok := o.children[wkind.ArchiveWriter]
	if !ok {
		return 0, fmt.Errorf("orchestrator: archivewriter worker not spawned")
	}
	source := o.sourceWorker()
	o.imgOffset = 0

	partial := false
	for _, path := range allowed {
		if err := o.copyOne(source, aw, path); err != nil {
			usbsaslog.Errorf(wkind.Orchestrator, "copy %s: %v", path, err)
			partial = true
		}
	}

	finalSize, err := o.closeDestination(aw)
	if err != nil {
		return 0, err
	}
	usbsaslog.Logf(wkind.Orchestrator, "archive closed, %d bytes", finalSize)

	final := Success
	if partial {
		final = PartialFailure
	}
	// The Copying -> final transition itself, and the retention pass
	// over the session's intermediate files, are Finish's job (see
	// control.go): Copy only decides which terminal state was reached.
	return final, nil
}

func (o *Orchestrator) copyOne(source, aw *Child, path string) error {
	if err := source.Ch.Send(proto.EncodeFSReaderRequest(proto.ReqGetAttr{Path: path})); err != nil {
		return err
	}
	raw, err := source.Ch.Recv()
	if err != nil {
		return err
	}
	resp, err := decodeFSReaderOK(raw)
	if err != nil {
		return err
	}
	attr, ok := resp.(proto.RespAttr)
	if !ok {
		return fmt.Errorf("expected RespAttr, got %T", resp)
	}

	dest := o.destWorker()
	ftype := proto.FileRegular
	if attr.Attr.IsDir {
		ftype = proto.FileDir
	}

	var g errgroup.Group
	g.Go(func() error { return sendNewFile(aw, path, ftype, attr.Attr.Size, attr.Attr.Mtime) })
	if dest != nil {
		g.Go(func() error { return o.sendDestNewFile(dest, path, attr.Attr) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if attr.Attr.IsDir {
		var g2 errgroup.Group
		g2.Go(func() error { return endArchiveFile(aw) })
		if dest != nil {
			g2.Go(func() error { return o.endDestFile(dest) })
		}
		return g2.Wait()
	}

	var offset int64
	for offset < attr.Attr.Size {
		n := int64(chunkSize)
		if remain := attr.Attr.Size - offset; remain < n {
			n = remain
		}
		if err := source.Ch.Send(proto.EncodeFSReaderRequest(proto.ReqReadFile{Path: path, Offset: offset, Len: n})); err != nil {
			return err
		}
		raw, err := source.Ch.Recv()
		if err != nil {
			return err
		}
		dresp, err := decodeFSReaderOK(raw)
		if err != nil {
			return err
		}
		data, ok := dresp.(proto.RespData)
		if !ok {
			return fmt.Errorf("expected RespData, got %T", dresp)
		}
		if len(data.Data) == 0 {
			break
		}

		var gw errgroup.Group
		gw.Go(func() error { return sendWriteData(aw, data.Data) })
		if dest != nil {
			gw.Go(func() error { return o.sendDestWriteData(dest, data.Data) })
		}
		if err := gw.Wait(); err != nil {
			return err
		}
		offset += int64(len(data.Data))
	}

	var g3 errgroup.Group
	g3.Go(func() error { return endArchiveFile(aw) })
	if dest != nil {
		g3.Go(func() error { return o.endDestFile(dest) })
	}
	return g3.Wait()
}

func sendNewFile(aw *Child, path string, ftype proto.FileType, size, mtime int64) error {
	if err := aw.Ch.Send(proto.EncodeArchiveWriterRequest(proto.ReqNewFile{Path: path, Type: ftype, Size: size, Mtime: mtime})); err != nil {
		return err
	}
	raw, err := aw.Ch.Recv()
	if err != nil {
		return err
	}
	resp, err := proto.DecodeArchiveWriterResponse(raw)
	if err != nil {
		return err
	}
	if e, ok := resp.(proto.RespArchiveWriterError); ok {
		return fmt.Errorf("archivewriter: %s: %s", e.Kind, e.Detail)
	}
	return nil
}

func sendWriteData(aw *Child, data []byte) error {
	if err := aw.Ch.Send(proto.EncodeArchiveWriterRequest(proto.ReqWriteData{Data: data})); err != nil {
		return err
	}
	raw, err := aw.Ch.Recv()
	if err != nil {
		return err
	}
	resp, err := proto.DecodeArchiveWriterResponse(raw)
	if err != nil {
		return err
	}
	if e, ok := resp.(proto.RespArchiveWriterError); ok {
		return fmt.Errorf("archivewriter: %s: %s", e.Kind, e.Detail)
	}
	return nil
}

func endArchiveFile(aw *Child) error {
	if err := aw.Ch.Send(proto.EncodeArchiveWriterRequest(proto.ReqEndFile{})); err != nil {
		return err
	}
	raw, err := aw.Ch.Recv()
	if err != nil {
		return err
	}
	_, err = proto.DecodeArchiveWriterResponse(raw)
	return err
}

// destWorker returns the spawned child that represents this transfer's
// destination, or nil when the mode writes only to the archive (there
// is none for any mode this orchestrator supports today, but Copy stays
// correct if a future mode adds one).
func (o *Orchestrator) destWorker() *Child {
	switch o.mode {
	case USBToUSB, LocalToUSB:
		return o.children[wkind.FSWriter]
	case USBToImg, LocalToImg:
		return o.children[wkind.ImageWriter]
	case USBToNet, LocalToNet:
		return o.children[wkind.Uploader]
	}
	return nil
}

// sendDestNewFile opens a new entry on the destination worker, per
// mode. imagewriter has no per-file framing of its own (see
// proto/imagewriter.go): a directory contributes nothing to the image,
// and a regular file's bytes are appended at o.imgOffset by
// sendDestWriteData below, so there is nothing to send here for either.
func (o *Orchestrator) sendDestNewFile(dest *Child, path string, attr proto.FileAttr) error {
	switch o.mode {
	case USBToUSB, LocalToUSB:
		var req proto.FSWriterRequest
		if attr.IsDir {
			req = proto.ReqNewDir{Path: path, Mtime: attr.Mtime}
		} else {
			req = proto.ReqFWNewFile{Path: path, Mtime: attr.Mtime}
		}
		if err := dest.Ch.Send(proto.EncodeFSWriterRequest(req)); err != nil {
			return err
		}
		raw, err := dest.Ch.Recv()
		if err != nil {
			return err
		}
		resp, err := proto.DecodeFSWriterResponse(raw)
		if err != nil {
			return err
		}
		if e, ok := resp.(proto.RespFSWriterError); ok {
			return fmt.Errorf("fswriter: %s: %s", e.Kind, e.Detail)
		}
		return nil
	case USBToImg, LocalToImg:
		return nil
	case USBToNet, LocalToNet:
		if attr.IsDir {
			return nil
		}
		if err := dest.Ch.Send(proto.EncodeUploaderRequest(proto.ReqUploadFile{Path: path, Size: attr.Size})); err != nil {
			return err
		}
		raw, err := dest.Ch.Recv()
		if err != nil {
			return err
		}
		_, err = proto.DecodeUploaderResponse(raw)
		return err
	}
	return nil
}

func (o *Orchestrator) sendDestWriteData(dest *Child, data []byte) error {
	switch o.mode {
	case USBToUSB, LocalToUSB:
		if err := dest.Ch.Send(proto.EncodeFSWriterRequest(proto.ReqFWWriteData{Data: data})); err != nil {
			return err
		}
		raw, err := dest.Ch.Recv()
		if err != nil {
			return err
		}
		_, err = proto.DecodeFSWriterResponse(raw)
		return err
	case USBToImg, LocalToImg:
		if err := dest.Ch.Send(proto.EncodeImageWriterRequest(proto.ReqWriteImage{Offset: o.imgOffset, Data: data})); err != nil {
			return err
		}
		raw, err := dest.Ch.Recv()
		if err != nil {
			return err
		}
		resp, err := proto.DecodeImageWriterResponse(raw)
		if err != nil {
			return err
		}
		if e, ok := resp.(proto.RespImageWriterError); ok {
			return fmt.Errorf("imagewriter: %s: %s", e.Kind, e.Detail)
		}
		o.imgOffset += uint64(len(data))
		return nil
	case USBToNet, LocalToNet:
		if err := dest.Ch.Send(proto.EncodeUploaderRequest(proto.ReqUploadData{Data: data})); err != nil {
			return err
		}
		raw, err := dest.Ch.Recv()
		if err != nil {
			return err
		}
		_, err = proto.DecodeUploaderResponse(raw)
		return err
	}
	return nil
}

func (o *Orchestrator) endDestFile(dest *Child) error {
	switch o.mode {
	case USBToUSB, LocalToUSB:
		if err := dest.Ch.Send(proto.EncodeFSWriterRequest(proto.ReqFWEndFile{})); err != nil {
			return err
		}
		raw, err := dest.Ch.Recv()
		if err != nil {
			return err
		}
		_, err = proto.DecodeFSWriterResponse(raw)
		return err
	case USBToNet, LocalToNet:
		if err := dest.Ch.Send(proto.EncodeUploaderRequest(proto.ReqEndUpload{})); err != nil {
			return err
		}
		raw, err := dest.Ch.Recv()
		if err != nil {
			return err
		}
		_, err = proto.DecodeUploaderResponse(raw)
		return err
	}
	return nil
}

// closeDestination finalises the archive writer (always) and the
// destination worker (when present), returning the archive's final
// size for the retention rule.
func (o *Orchestrator) closeDestination(aw *Child) (int64, error) {
	var metadata []byte
	if o.mode == USBToNet || o.mode == LocalToNet {
		metadata = []byte(`{}`)
	}
	if err := aw.Ch.Send(proto.EncodeArchiveWriterRequest(proto.ReqClose{Metadata: metadata})); err != nil {
		return 0, err
	}
	raw, err := aw.Ch.Recv()
	if err != nil {
		return 0, err
	}
	resp, err := proto.DecodeArchiveWriterResponse(raw)
	if err != nil {
		return 0, err
	}
	closed, ok := resp.(proto.RespClosed)
	if !ok {
		return 0, fmt.Errorf("archivewriter: expected RespClosed, got %T", resp)
	}

	dest := o.destWorker()
	if dest == nil {
		return closed.FinalSize, nil
	}

	switch o.mode {
	case USBToUSB, LocalToUSB:
		if err := dest.Ch.Send(proto.EncodeFSWriterRequest(proto.ReqUnmount{})); err != nil {
			return closed.FinalSize, err
		}
		raw, err := dest.Ch.Recv()
		if err != nil {
			return closed.FinalSize, err
		}
		if _, err := proto.DecodeFSWriterResponse(raw); err != nil {
			return closed.FinalSize, err
		}
		// USBToUSB/LocalToUSB only reaches an actual USB device node
		// through bulkwriter's sector-addressed writes (fswriter's
		// destination tree above stands in for native FAT/exFAT/NTFS
		// formatting, which spec.md §1 puts out of scope). The finished
		// archive is what bulkwriter materialises onto the device.
		if err := o.streamArchiveToBulkWriter(); err != nil {
			return closed.FinalSize, err
		}
	case USBToImg, LocalToImg:
		if err := dest.Ch.Send(proto.EncodeImageWriterRequest(proto.ReqFinalize{})); err != nil {
			return closed.FinalSize, err
		}
		raw, err := dest.Ch.Recv()
		if err != nil {
			return closed.FinalSize, err
		}
		if _, err := proto.DecodeImageWriterResponse(raw); err != nil {
			return closed.FinalSize, err
		}
	}
	return closed.FinalSize, nil
}

// streamArchiveToBulkWriter rereads the session's now-finalised TAR and
// writes it to the bulkwriter worker sector by sector, the final step
// of spec.md §4.6's "block device wrapper" for a USB destination.
func (o *Orchestrator) streamArchiveToBulkWriter() error {
	bw, ok := o.children[wkind.BulkWriter]
	if !ok {
		return fmt.Errorf("orchestrator: bulkwriter worker not spawned")
	}
	f, err := os.Open(o.sess.TarPath)
	if err != nil {
		return fmt.Errorf("orchestrator: reopen archive for device write: %w", err)
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	var offset uint64
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if sendErr := bw.Ch.Send(proto.EncodeBulkWriterRequest(proto.ReqWriteSectors{Offset: offset, Data: buf[:n]})); sendErr != nil {
				return sendErr
			}
			raw, recvErr := bw.Ch.Recv()
			if recvErr != nil {
				return recvErr
			}
			resp, decErr := proto.DecodeBulkWriterResponse(raw)
			if decErr != nil {
				return decErr
			}
			if e, ok := resp.(proto.RespBulkWriterError); ok {
				return fmt.Errorf("bulkwriter: %s: %s", e.Kind, e.Detail)
			}
			offset += uint64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("orchestrator: read archive for device write: %w", err)
		}
	}
	return nil
}
