package proto

// FSReader channel (orchestrator/path-filter <-> filesystem-reader
// worker), per spec.md §4.2 and §4.6. localsource reuses this exact
// schema per SPEC_FULL.md (it substitutes for device-enumerator +
// bulk-reader + filesystem-reader when the source is already local).

import "fmt"

const chanFSReader = "fsreader"

const (
	tagFSPartitions    byte = 1
	tagFSOpenPartition byte = 2
	tagFSReadDir       byte = 3
	tagFSGetAttr       byte = 4
	tagFSReadFile      byte = 5
	tagFSEndFile       byte = 6 // response-only sentinel closing a ReadFile stream
)

type Partition struct {
	Index    int
	Type     byte
	StartLBA uint64
	SizeLBA  uint64
}

type DirEntry struct {
	Name  string
	IsDir bool
	Size  int64
	Mtime int64 // unix seconds
}

type FileAttr struct {
	Size  int64
	Mtime int64
	IsDir bool
}

type FSReaderRequest interface{ isFSReaderRequest() }

type ReqPartitions struct{}
type ReqOpenPartition struct{ Index int }
type ReqReadDir struct{ Path string }
type ReqGetAttr struct{ Path string }
type ReqReadFile struct {
	Path   string
	Offset int64
	Len    int64
}
type ReqFSReaderEnd struct{}

func (ReqPartitions) isFSReaderRequest()    {}
func (ReqOpenPartition) isFSReaderRequest() {}
func (ReqReadDir) isFSReaderRequest()       {}
func (ReqGetAttr) isFSReaderRequest()       {}
func (ReqReadFile) isFSReaderRequest()      {}
func (ReqFSReaderEnd) isFSReaderRequest()   {}

func EncodeFSReaderRequest(r FSReaderRequest) []byte {
	switch v := r.(type) {
	case ReqPartitions:
		return []byte{tagFSPartitions}
	case ReqOpenPartition:
		e := &encoder{buf: []byte{tagFSOpenPartition}}
		e.i64(int64(v.Index))
		return e.buf
	case ReqReadDir:
		e := &encoder{buf: []byte{tagFSReadDir}}
		e.str(v.Path)
		return e.buf
	case ReqGetAttr:
		e := &encoder{buf: []byte{tagFSGetAttr}}
		e.str(v.Path)
		return e.buf
	case ReqReadFile:
		e := &encoder{buf: []byte{tagFSReadFile}}
		e.str(v.Path)
		e.i64(v.Offset)
		e.i64(v.Len)
		return e.buf
	case ReqFSReaderEnd:
		return encodeEnd()
	default:
		panic("proto: unreachable fsreader request variant")
	}
}

func DecodeFSReaderRequest(b []byte) (FSReaderRequest, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanFSReader, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return ReqFSReaderEnd{}, nil
	case tagFSPartitions:
		return ReqPartitions{}, nil
	case tagFSOpenPartition:
		idx, err := d.i64()
		if err != nil {
			return nil, err
		}
		return ReqOpenPartition{Index: int(idx)}, nil
	case tagFSReadDir:
		p, err := d.str()
		if err != nil {
			return nil, err
		}
		return ReqReadDir{Path: p}, nil
	case tagFSGetAttr:
		p, err := d.str()
		if err != nil {
			return nil, err
		}
		return ReqGetAttr{Path: p}, nil
	case tagFSReadFile:
		p, err := d.str()
		if err != nil {
			return nil, err
		}
		off, err := d.i64()
		if err != nil {
			return nil, err
		}
		ln, err := d.i64()
		if err != nil {
			return nil, err
		}
		return ReqReadFile{Path: p, Offset: off, Len: ln}, nil
	default:
		return nil, errUnknownTag(chanFSReader, b[0])
	}
}

type FSReaderResponse interface{ isFSReaderResponse() }

type RespPartitionList struct{ Partitions []Partition }
type RespOpened struct{}
type RespEntries struct{ Entries []DirEntry }
type RespAttr struct{ Attr FileAttr }
type RespData struct{ Data []byte }
type RespEndFile struct{}
type RespFSReaderEnd struct{}
type RespFSReaderError struct{ ErrorMsg }

func (RespPartitionList) isFSReaderResponse() {}
func (RespOpened) isFSReaderResponse()        {}
func (RespEntries) isFSReaderResponse()       {}
func (RespAttr) isFSReaderResponse()          {}
func (RespData) isFSReaderResponse()          {}
func (RespEndFile) isFSReaderResponse()       {}
func (RespFSReaderEnd) isFSReaderResponse()   {}
func (RespFSReaderError) isFSReaderResponse() {}

func encodePartition(e *encoder, p Partition) {
	e.i64(int64(p.Index))
	e.byte(p.Type)
	e.uvarint(p.StartLBA)
	e.uvarint(p.SizeLBA)
}

func decodePartition(d *decoder) (Partition, error) {
	idx, err := d.i64()
	if err != nil {
		return Partition{}, err
	}
	typ, err := d.byte()
	if err != nil {
		return Partition{}, err
	}
	start, err := d.uvarint()
	if err != nil {
		return Partition{}, err
	}
	size, err := d.uvarint()
	if err != nil {
		return Partition{}, err
	}
	return Partition{Index: int(idx), Type: typ, StartLBA: start, SizeLBA: size}, nil
}

func encodeDirEntry(e *encoder, de DirEntry) {
	e.str(de.Name)
	if de.IsDir {
		e.byte(1)
	} else {
		e.byte(0)
	}
	e.i64(de.Size)
	e.i64(de.Mtime)
}

func decodeDirEntry(d *decoder) (DirEntry, error) {
	name, err := d.str()
	if err != nil {
		return DirEntry{}, err
	}
	isDirB, err := d.byte()
	if err != nil {
		return DirEntry{}, err
	}
	size, err := d.i64()
	if err != nil {
		return DirEntry{}, err
	}
	mtime, err := d.i64()
	if err != nil {
		return DirEntry{}, err
	}
	return DirEntry{Name: name, IsDir: isDirB != 0, Size: size, Mtime: mtime}, nil
}

func EncodeFSReaderResponse(r FSReaderResponse) []byte {
	switch v := r.(type) {
	case RespPartitionList:
		e := &encoder{buf: []byte{tagFSPartitions}}
		e.uvarint(uint64(len(v.Partitions)))
		for _, p := range v.Partitions {
			encodePartition(e, p)
		}
		return e.buf
	case RespOpened:
		return []byte{tagFSOpenPartition}
	case RespEntries:
		e := &encoder{buf: []byte{tagFSReadDir}}
		e.uvarint(uint64(len(v.Entries)))
		for _, de := range v.Entries {
			encodeDirEntry(e, de)
		}
		return e.buf
	case RespAttr:
		e := &encoder{buf: []byte{tagFSGetAttr}}
		e.i64(v.Attr.Size)
		e.i64(v.Attr.Mtime)
		if v.Attr.IsDir {
			e.byte(1)
		} else {
			e.byte(0)
		}
		return e.buf
	case RespData:
		e := &encoder{buf: []byte{tagFSReadFile}}
		e.bytes(v.Data)
		return e.buf
	case RespEndFile:
		return []byte{tagFSEndFile}
	case RespFSReaderEnd:
		return encodeEnd()
	case RespFSReaderError:
		return encodeError(v.ErrorMsg)
	default:
		panic("proto: unreachable fsreader response variant")
	}
}

func DecodeFSReaderResponse(b []byte) (FSReaderResponse, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanFSReader, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return RespFSReaderEnd{}, nil
	case tagError:
		m, err := decodeErrorBody(d)
		if err != nil {
			return nil, err
		}
		return RespFSReaderError{m}, nil
	case tagFSPartitions:
		n, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		if n > uint64(len(d.buf)-d.off) {
			return nil, fmt.Errorf("proto: truncated message (partition count %d exceeds remaining bytes)", n)
		}
		parts := make([]Partition, 0, n)
		for i := uint64(0); i < n; i++ {
			p, err := decodePartition(d)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
		return RespPartitionList{Partitions: parts}, nil
	case tagFSOpenPartition:
		return RespOpened{}, nil
	case tagFSReadDir:
		n, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		if n > uint64(len(d.buf)-d.off) {
			return nil, fmt.Errorf("proto: truncated message (entry count %d exceeds remaining bytes)", n)
		}
		entries := make([]DirEntry, 0, n)
		for i := uint64(0); i < n; i++ {
			de, err := decodeDirEntry(d)
			if err != nil {
				return nil, err
			}
			entries = append(entries, de)
		}
		return RespEntries{Entries: entries}, nil
	case tagFSGetAttr:
		size, err := d.i64()
		if err != nil {
			return nil, err
		}
		mtime, err := d.i64()
		if err != nil {
			return nil, err
		}
		isDirB, err := d.byte()
		if err != nil {
			return nil, err
		}
		return RespAttr{Attr: FileAttr{Size: size, Mtime: mtime, IsDir: isDirB != 0}}, nil
	case tagFSReadFile:
		data, err := d.bytes()
		if err != nil {
			return nil, err
		}
		return RespData{Data: data}, nil
	case tagFSEndFile:
		return RespEndFile{}, nil
	default:
		return nil, errUnknownTag(chanFSReader, b[0])
	}
}
