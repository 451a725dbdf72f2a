package proto

// BulkReader channel (filesystem-reader <-> bulk-reader / dev2scsi
// worker) and BulkWriter channel (bulk-writer / fs2dev <-> device),
// per spec.md §4.6 "Block device wrapper".

const (
	chanBulkReader = "bulkreader"
	chanBulkWriter = "bulkwriter"
)

const (
	tagBRReadSectors byte = 1
	tagBRSectorSize  byte = 2
)

type BulkReaderRequest interface{ isBulkReaderRequest() }

type ReqReadSectors struct {
	Offset uint64
	Count  uint32
}
type ReqSectorSize struct{}
type ReqBulkReaderEnd struct{}

func (ReqReadSectors) isBulkReaderRequest()   {}
func (ReqSectorSize) isBulkReaderRequest()    {}
func (ReqBulkReaderEnd) isBulkReaderRequest() {}

func EncodeBulkReaderRequest(r BulkReaderRequest) []byte {
	switch v := r.(type) {
	case ReqReadSectors:
		e := &encoder{buf: []byte{tagBRReadSectors}}
		e.uvarint(v.Offset)
		e.uvarint(uint64(v.Count))
		return e.buf
	case ReqSectorSize:
		return []byte{tagBRSectorSize}
	case ReqBulkReaderEnd:
		return encodeEnd()
	default:
		panic("proto: unreachable bulkreader request variant")
	}
}

func DecodeBulkReaderRequest(b []byte) (BulkReaderRequest, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanBulkReader, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return ReqBulkReaderEnd{}, nil
	case tagBRReadSectors:
		off, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		cnt, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		return ReqReadSectors{Offset: off, Count: uint32(cnt)}, nil
	case tagBRSectorSize:
		return ReqSectorSize{}, nil
	default:
		return nil, errUnknownTag(chanBulkReader, b[0])
	}
}

type BulkReaderResponse interface{ isBulkReaderResponse() }

type RespSectors struct{ Data []byte }
type RespSectorSize struct{ Size uint32 }
type RespBulkReaderEnd struct{}
type RespBulkReaderError struct{ ErrorMsg }

func (RespSectors) isBulkReaderResponse()        {}
func (RespSectorSize) isBulkReaderResponse()      {}
func (RespBulkReaderEnd) isBulkReaderResponse()   {}
func (RespBulkReaderError) isBulkReaderResponse() {}

func EncodeBulkReaderResponse(r BulkReaderResponse) []byte {
	switch v := r.(type) {
	case RespSectors:
		e := &encoder{buf: []byte{tagBRReadSectors}}
		e.bytes(v.Data)
		return e.buf
	case RespSectorSize:
		e := &encoder{buf: []byte{tagBRSectorSize}}
		e.uvarint(uint64(v.Size))
		return e.buf
	case RespBulkReaderEnd:
		return encodeEnd()
	case RespBulkReaderError:
		return encodeError(v.ErrorMsg)
	default:
		panic("proto: unreachable bulkreader response variant")
	}
}

func DecodeBulkReaderResponse(b []byte) (BulkReaderResponse, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanBulkReader, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return RespBulkReaderEnd{}, nil
	case tagError:
		m, err := decodeErrorBody(d)
		if err != nil {
			return nil, err
		}
		return RespBulkReaderError{m}, nil
	case tagBRReadSectors:
		data, err := d.bytes()
		if err != nil {
			return nil, err
		}
		return RespSectors{Data: data}, nil
	case tagBRSectorSize:
		sz, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		return RespSectorSize{Size: uint32(sz)}, nil
	default:
		return nil, errUnknownTag(chanBulkReader, b[0])
	}
}

const tagBWWriteSectors byte = 1

type BulkWriterRequest interface{ isBulkWriterRequest() }

type ReqWriteSectors struct {
	Offset uint64
	Data   []byte
}
type ReqBulkWriterEnd struct{}

func (ReqWriteSectors) isBulkWriterRequest()  {}
func (ReqBulkWriterEnd) isBulkWriterRequest() {}

func EncodeBulkWriterRequest(r BulkWriterRequest) []byte {
	switch v := r.(type) {
	case ReqWriteSectors:
		e := &encoder{buf: []byte{tagBWWriteSectors}}
		e.uvarint(v.Offset)
		e.bytes(v.Data)
		return e.buf
	case ReqBulkWriterEnd:
		return encodeEnd()
	default:
		panic("proto: unreachable bulkwriter request variant")
	}
}

func DecodeBulkWriterRequest(b []byte) (BulkWriterRequest, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanBulkWriter, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return ReqBulkWriterEnd{}, nil
	case tagBWWriteSectors:
		off, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		data, err := d.bytes()
		if err != nil {
			return nil, err
		}
		return ReqWriteSectors{Offset: off, Data: data}, nil
	default:
		return nil, errUnknownTag(chanBulkWriter, b[0])
	}
}

type BulkWriterResponse interface{ isBulkWriterResponse() }

type RespBWWritten struct{}
type RespBulkWriterEnd struct{}
type RespBulkWriterError struct{ ErrorMsg }

func (RespBWWritten) isBulkWriterResponse()      {}
func (RespBulkWriterEnd) isBulkWriterResponse()   {}
func (RespBulkWriterError) isBulkWriterResponse() {}

func EncodeBulkWriterResponse(r BulkWriterResponse) []byte {
	switch v := r.(type) {
	case RespBWWritten:
		return []byte{tagBWWriteSectors}
	case RespBulkWriterEnd:
		return encodeEnd()
	case RespBulkWriterError:
		return encodeError(v.ErrorMsg)
	default:
		panic("proto: unreachable bulkwriter response variant")
	}
}

func DecodeBulkWriterResponse(b []byte) (BulkWriterResponse, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanBulkWriter, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return RespBulkWriterEnd{}, nil
	case tagError:
		m, err := decodeErrorBody(d)
		if err != nil {
			return nil, err
		}
		return RespBulkWriterError{m}, nil
	case tagBWWriteSectors:
		return RespBWWritten{}, nil
	default:
		return nil, errUnknownTag(chanBulkWriter, b[0])
	}
}
