package proto

// FSWriter channel (archive-writer/fs2dev-source <-> filesystem-writer
// worker), per spec.md §4.6 "Filesystem writer".

const chanFSWriter = "fswriter"

const (
	tagFWMkFs         byte = 1
	tagFWNewFile      byte = 2
	tagFWWrite        byte = 3
	tagFWEndFile      byte = 4
	tagFWNewDir       byte = 5
	tagFWSetTimestamp byte = 6
	tagFWUnmount      byte = 7
)

type FSWriterRequest interface{ isFSWriterRequest() }

type ReqMkFs struct {
	SectorSize uint32
	Count      uint64
	FSType     string
}
type ReqFWNewFile struct {
	Path  string
	Mtime int64
}
type ReqFWWriteData struct{ Data []byte }
type ReqFWEndFile struct{}
type ReqNewDir struct {
	Path  string
	Mtime int64
}
type ReqSetTimestamp struct {
	Path  string
	Mtime int64
}
type ReqUnmount struct{}
type ReqFSWriterEnd struct{}

func (ReqMkFs) isFSWriterRequest()         {}
func (ReqFWNewFile) isFSWriterRequest()    {}
func (ReqFWWriteData) isFSWriterRequest()  {}
func (ReqFWEndFile) isFSWriterRequest()    {}
func (ReqNewDir) isFSWriterRequest()       {}
func (ReqSetTimestamp) isFSWriterRequest() {}
func (ReqUnmount) isFSWriterRequest()      {}
func (ReqFSWriterEnd) isFSWriterRequest()  {}

func EncodeFSWriterRequest(r FSWriterRequest) []byte {
	switch v := r.(type) {
	case ReqMkFs:
		e := &encoder{buf: []byte{tagFWMkFs}}
		e.uvarint(uint64(v.SectorSize))
		e.uvarint(v.Count)
		e.str(v.FSType)
		return e.buf
	case ReqFWNewFile:
		e := &encoder{buf: []byte{tagFWNewFile}}
		e.str(v.Path)
		e.i64(v.Mtime)
		return e.buf
	case ReqFWWriteData:
		e := &encoder{buf: []byte{tagFWWrite}}
		e.bytes(v.Data)
		return e.buf
	case ReqFWEndFile:
		return []byte{tagFWEndFile}
	case ReqNewDir:
		e := &encoder{buf: []byte{tagFWNewDir}}
		e.str(v.Path)
		e.i64(v.Mtime)
		return e.buf
	case ReqSetTimestamp:
		e := &encoder{buf: []byte{tagFWSetTimestamp}}
		e.str(v.Path)
		e.i64(v.Mtime)
		return e.buf
	case ReqUnmount:
		return []byte{tagFWUnmount}
	case ReqFSWriterEnd:
		return encodeEnd()
	default:
		panic("proto: unreachable fswriter request variant")
	}
}

func DecodeFSWriterRequest(b []byte) (FSWriterRequest, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanFSWriter, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return ReqFSWriterEnd{}, nil
	case tagFWMkFs:
		ss, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		cnt, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		fstype, err := d.str()
		if err != nil {
			return nil, err
		}
		return ReqMkFs{SectorSize: uint32(ss), Count: cnt, FSType: fstype}, nil
	case tagFWNewFile:
		p, err := d.str()
		if err != nil {
			return nil, err
		}
		mt, err := d.i64()
		if err != nil {
			return nil, err
		}
		return ReqFWNewFile{Path: p, Mtime: mt}, nil
	case tagFWWrite:
		data, err := d.bytes()
		if err != nil {
			return nil, err
		}
		return ReqFWWriteData{Data: data}, nil
	case tagFWEndFile:
		return ReqFWEndFile{}, nil
	case tagFWNewDir:
		p, err := d.str()
		if err != nil {
			return nil, err
		}
		mt, err := d.i64()
		if err != nil {
			return nil, err
		}
		return ReqNewDir{Path: p, Mtime: mt}, nil
	case tagFWSetTimestamp:
		p, err := d.str()
		if err != nil {
			return nil, err
		}
		mt, err := d.i64()
		if err != nil {
			return nil, err
		}
		return ReqSetTimestamp{Path: p, Mtime: mt}, nil
	case tagFWUnmount:
		return ReqUnmount{}, nil
	default:
		return nil, errUnknownTag(chanFSWriter, b[0])
	}
}

type FSWriterResponse interface{ isFSWriterResponse() }

type RespFormatted struct{}
type RespFWReady struct{}
type RespFWWritten struct{ N int64 }
type RespFWAck struct{}
type RespUnmounted struct{}
type RespFSWriterEnd struct{}
type RespFSWriterError struct{ ErrorMsg }

func (RespFormatted) isFSWriterResponse()      {}
func (RespFWReady) isFSWriterResponse()        {}
func (RespFWWritten) isFSWriterResponse()      {}
func (RespFWAck) isFSWriterResponse()          {}
func (RespUnmounted) isFSWriterResponse()      {}
func (RespFSWriterEnd) isFSWriterResponse()    {}
func (RespFSWriterError) isFSWriterResponse()  {}

func EncodeFSWriterResponse(r FSWriterResponse) []byte {
	switch v := r.(type) {
	case RespFormatted:
		return []byte{tagFWMkFs}
	case RespFWReady:
		return []byte{tagFWNewFile}
	case RespFWWritten:
		e := &encoder{buf: []byte{tagFWWrite}}
		e.i64(v.N)
		return e.buf
	case RespFWAck:
		return []byte{tagFWEndFile}
	case RespUnmounted:
		return []byte{tagFWUnmount}
	case RespFSWriterEnd:
		return encodeEnd()
	case RespFSWriterError:
		return encodeError(v.ErrorMsg)
	default:
		panic("proto: unreachable fswriter response variant")
	}
}

func DecodeFSWriterResponse(b []byte) (FSWriterResponse, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanFSWriter, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return RespFSWriterEnd{}, nil
	case tagError:
		m, err := decodeErrorBody(d)
		if err != nil {
			return nil, err
		}
		return RespFSWriterError{m}, nil
	case tagFWMkFs:
		return RespFormatted{}, nil
	case tagFWNewFile:
		return RespFWReady{}, nil
	case tagFWWrite:
		n, err := d.i64()
		if err != nil {
			return nil, err
		}
		return RespFWWritten{N: n}, nil
	case tagFWEndFile:
		return RespFWAck{}, nil
	case tagFWUnmount:
		return RespUnmounted{}, nil
	default:
		return nil, errUnknownTag(chanFSWriter, b[0])
	}
}
