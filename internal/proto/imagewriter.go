package proto

// ImageWriter channel (archive-writer/fswriter <-> image-writer worker):
// the USB-to-IMG destination, writing raw sectors into the session's
// intermediate image file and tracking the sparse bitmap (supplemented,
// see SPEC_FULL.md point 2).

const chanImageWriter = "imagewriter"

const (
	tagIWWriteImage byte = 1
	tagIWFinalize   byte = 2
)

type ImageWriterRequest interface{ isImageWriterRequest() }

type ReqWriteImage struct {
	Offset uint64
	Data   []byte
}
type ReqFinalize struct{}
type ReqImageWriterEnd struct{}

func (ReqWriteImage) isImageWriterRequest()    {}
func (ReqFinalize) isImageWriterRequest()      {}
func (ReqImageWriterEnd) isImageWriterRequest() {}

func EncodeImageWriterRequest(r ImageWriterRequest) []byte {
	switch v := r.(type) {
	case ReqWriteImage:
		e := &encoder{buf: []byte{tagIWWriteImage}}
		e.uvarint(v.Offset)
		e.bytes(v.Data)
		return e.buf
	case ReqFinalize:
		return []byte{tagIWFinalize}
	case ReqImageWriterEnd:
		return encodeEnd()
	default:
		panic("proto: unreachable imagewriter request variant")
	}
}

func DecodeImageWriterRequest(b []byte) (ImageWriterRequest, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanImageWriter, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return ReqImageWriterEnd{}, nil
	case tagIWWriteImage:
		off, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		data, err := d.bytes()
		if err != nil {
			return nil, err
		}
		return ReqWriteImage{Offset: off, Data: data}, nil
	case tagIWFinalize:
		return ReqFinalize{}, nil
	default:
		return nil, errUnknownTag(chanImageWriter, b[0])
	}
}

type ImageWriterResponse interface{ isImageWriterResponse() }

type RespIWWritten struct{}
type RespImage struct{ SizeBytes int64 }
type RespImageWriterEnd struct{}
type RespImageWriterError struct{ ErrorMsg }

func (RespIWWritten) isImageWriterResponse()       {}
func (RespImage) isImageWriterResponse()           {}
func (RespImageWriterEnd) isImageWriterResponse()  {}
func (RespImageWriterError) isImageWriterResponse() {}

func EncodeImageWriterResponse(r ImageWriterResponse) []byte {
	switch v := r.(type) {
	case RespIWWritten:
		return []byte{tagIWWriteImage}
	case RespImage:
		e := &encoder{buf: []byte{tagIWFinalize}}
		e.i64(v.SizeBytes)
		return e.buf
	case RespImageWriterEnd:
		return encodeEnd()
	case RespImageWriterError:
		return encodeError(v.ErrorMsg)
	default:
		panic("proto: unreachable imagewriter response variant")
	}
}

func DecodeImageWriterResponse(b []byte) (ImageWriterResponse, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanImageWriter, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return RespImageWriterEnd{}, nil
	case tagError:
		m, err := decodeErrorBody(d)
		if err != nil {
			return nil, err
		}
		return RespImageWriterError{m}, nil
	case tagIWWriteImage:
		return RespIWWritten{}, nil
	case tagIWFinalize:
		size, err := d.i64()
		if err != nil {
			return nil, err
		}
		return RespImage{SizeBytes: size}, nil
	default:
		return nil, errUnknownTag(chanImageWriter, b[0])
	}
}
