package proto

// Identifier channel (orchestrator <-> identifier worker), per spec.md
// §4.6 "User identifier" and §8 scenario 1 "Sandbox smoke".

const chanIdentifier = "identifier"

const (
	tagIdentifierUserID byte = 1
)

// IdentifierRequest is the closed request enum: {UserID, End}.
type IdentifierRequest interface{ isIdentifierRequest() }

type ReqUserID struct{}
type ReqIdentifierEnd struct{}

func (ReqUserID) isIdentifierRequest()         {}
func (ReqIdentifierEnd) isIdentifierRequest()  {}

func EncodeIdentifierRequest(r IdentifierRequest) []byte {
	switch r.(type) {
	case ReqUserID:
		return []byte{tagIdentifierUserID}
	case ReqIdentifierEnd:
		return encodeEnd()
	default:
		panic("proto: unreachable identifier request variant")
	}
}

func DecodeIdentifierRequest(b []byte) (IdentifierRequest, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanIdentifier, 0)
	}
	switch b[0] {
	case tagEnd:
		return ReqIdentifierEnd{}, nil
	case tagIdentifierUserID:
		return ReqUserID{}, nil
	default:
		return nil, errUnknownTag(chanIdentifier, b[0])
	}
}

// IdentifierResponse is the closed response enum: {UserID(string), End,
// Error}.
type IdentifierResponse interface{ isIdentifierResponse() }

type RespUserID struct{ ID string }
type RespIdentifierEnd struct{}
type RespIdentifierError struct{ ErrorMsg }

func (RespUserID) isIdentifierResponse()         {}
func (RespIdentifierEnd) isIdentifierResponse()  {}
func (RespIdentifierError) isIdentifierResponse() {}

func EncodeIdentifierResponse(r IdentifierResponse) []byte {
	switch v := r.(type) {
	case RespUserID:
		e := &encoder{buf: []byte{tagIdentifierUserID}}
		e.str(v.ID)
		return e.buf
	case RespIdentifierEnd:
		return encodeEnd()
	case RespIdentifierError:
		return encodeError(v.ErrorMsg)
	default:
		panic("proto: unreachable identifier response variant")
	}
}

func DecodeIdentifierResponse(b []byte) (IdentifierResponse, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanIdentifier, 0)
	}
	switch b[0] {
	case tagEnd:
		return RespIdentifierEnd{}, nil
	case tagError:
		m, err := decodeErrorBody(newDecoder(b[1:]))
		if err != nil {
			return nil, err
		}
		return RespIdentifierError{m}, nil
	case tagIdentifierUserID:
		d := newDecoder(b[1:])
		id, err := d.str()
		if err != nil {
			return nil, err
		}
		return RespUserID{ID: id}, nil
	default:
		return nil, errUnknownTag(chanIdentifier, b[0])
	}
}
