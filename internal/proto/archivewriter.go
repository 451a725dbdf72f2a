package proto

// ArchiveWriter channel (filesystem-reader/path-filter <-> archive-writer
// worker), per spec.md §4.2, §4.6, §6.

const chanArchiveWriter = "archivewriter"

type FileType byte

const (
	FileRegular FileType = 0
	FileDir     FileType = 1
	FileSymlink FileType = 2
)

const (
	tagAWNewFile byte = 1
	tagAWWrite   byte = 2
	tagAWEndFile byte = 3
	tagAWClose   byte = 4
)

type ArchiveWriterRequest interface{ isArchiveWriterRequest() }

type ReqNewFile struct {
	Path  string
	Type  FileType
	Size  int64
	Mtime int64
}
type ReqWriteData struct{ Data []byte }
type ReqEndFile struct{}
type ReqClose struct{ Metadata []byte } // opaque config.json payload
type ReqArchiveWriterEnd struct{}

func (ReqNewFile) isArchiveWriterRequest()        {}
func (ReqWriteData) isArchiveWriterRequest()      {}
func (ReqEndFile) isArchiveWriterRequest()        {}
func (ReqClose) isArchiveWriterRequest()          {}
func (ReqArchiveWriterEnd) isArchiveWriterRequest() {}

func EncodeArchiveWriterRequest(r ArchiveWriterRequest) []byte {
	switch v := r.(type) {
	case ReqNewFile:
		e := &encoder{buf: []byte{tagAWNewFile}}
		e.str(v.Path)
		e.byte(byte(v.Type))
		e.i64(v.Size)
		e.i64(v.Mtime)
		return e.buf
	case ReqWriteData:
		e := &encoder{buf: []byte{tagAWWrite}}
		e.bytes(v.Data)
		return e.buf
	case ReqEndFile:
		return []byte{tagAWEndFile}
	case ReqClose:
		e := &encoder{buf: []byte{tagAWClose}}
		e.bytes(v.Metadata)
		return e.buf
	case ReqArchiveWriterEnd:
		return encodeEnd()
	default:
		panic("proto: unreachable archivewriter request variant")
	}
}

func DecodeArchiveWriterRequest(b []byte) (ArchiveWriterRequest, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanArchiveWriter, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return ReqArchiveWriterEnd{}, nil
	case tagAWNewFile:
		p, err := d.str()
		if err != nil {
			return nil, err
		}
		t, err := d.byte()
		if err != nil {
			return nil, err
		}
		size, err := d.i64()
		if err != nil {
			return nil, err
		}
		mtime, err := d.i64()
		if err != nil {
			return nil, err
		}
		return ReqNewFile{Path: p, Type: FileType(t), Size: size, Mtime: mtime}, nil
	case tagAWWrite:
		data, err := d.bytes()
		if err != nil {
			return nil, err
		}
		return ReqWriteData{Data: data}, nil
	case tagAWEndFile:
		return ReqEndFile{}, nil
	case tagAWClose:
		meta, err := d.bytes()
		if err != nil {
			return nil, err
		}
		return ReqClose{Metadata: meta}, nil
	default:
		return nil, errUnknownTag(chanArchiveWriter, b[0])
	}
}

type ArchiveWriterResponse interface{ isArchiveWriterResponse() }

type RespReady struct{}
type RespWritten struct{ N int64 }
type RespAck struct{}
type RespClosed struct{ FinalSize int64 }
type RespArchiveWriterEnd struct{}
type RespArchiveWriterError struct{ ErrorMsg }

func (RespReady) isArchiveWriterResponse()         {}
func (RespWritten) isArchiveWriterResponse()       {}
func (RespAck) isArchiveWriterResponse()           {}
func (RespClosed) isArchiveWriterResponse()        {}
func (RespArchiveWriterEnd) isArchiveWriterResponse() {}
func (RespArchiveWriterError) isArchiveWriterResponse() {}

func EncodeArchiveWriterResponse(r ArchiveWriterResponse) []byte {
	switch v := r.(type) {
	case RespReady:
		return []byte{tagAWNewFile}
	case RespWritten:
		e := &encoder{buf: []byte{tagAWWrite}}
		e.i64(v.N)
		return e.buf
	case RespAck:
		return []byte{tagAWEndFile}
	case RespClosed:
		e := &encoder{buf: []byte{tagAWClose}}
		e.i64(v.FinalSize)
		return e.buf
	case RespArchiveWriterEnd:
		return encodeEnd()
	case RespArchiveWriterError:
		return encodeError(v.ErrorMsg)
	default:
		panic("proto: unreachable archivewriter response variant")
	}
}

func DecodeArchiveWriterResponse(b []byte) (ArchiveWriterResponse, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanArchiveWriter, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return RespArchiveWriterEnd{}, nil
	case tagError:
		m, err := decodeErrorBody(d)
		if err != nil {
			return nil, err
		}
		return RespArchiveWriterError{m}, nil
	case tagAWNewFile:
		return RespReady{}, nil
	case tagAWWrite:
		n, err := d.i64()
		if err != nil {
			return nil, err
		}
		return RespWritten{N: n}, nil
	case tagAWEndFile:
		return RespAck{}, nil
	case tagAWClose:
		size, err := d.i64()
		if err != nil {
			return nil, err
		}
		return RespClosed{FinalSize: size}, nil
	default:
		return nil, errUnknownTag(chanArchiveWriter, b[0])
	}
}
