package proto

// Filter channel (orchestrator <-> path-filter worker), per spec.md §4.2
// and §8 scenario 5.

const chanFilter = "filter"

const tagFilterPaths byte = 1

type FilterRequest interface{ isFilterRequest() }

type ReqFilter struct{ Paths []string }
type ReqFilterEnd struct{}

func (ReqFilter) isFilterRequest()    {}
func (ReqFilterEnd) isFilterRequest() {}

func EncodeFilterRequest(r FilterRequest) []byte {
	switch v := r.(type) {
	case ReqFilter:
		e := &encoder{buf: []byte{tagFilterPaths}}
		e.strSlice(v.Paths)
		return e.buf
	case ReqFilterEnd:
		return encodeEnd()
	default:
		panic("proto: unreachable filter request variant")
	}
}

func DecodeFilterRequest(b []byte) (FilterRequest, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanFilter, 0)
	}
	switch b[0] {
	case tagEnd:
		return ReqFilterEnd{}, nil
	case tagFilterPaths:
		d := newDecoder(b[1:])
		paths, err := d.strSlice()
		if err != nil {
			return nil, err
		}
		return ReqFilter{Paths: paths}, nil
	default:
		return nil, errUnknownTag(chanFilter, b[0])
	}
}

type FilterResponse interface{ isFilterResponse() }

type RespFiltered struct{ Allowed, Rejected []string }
type RespFilterEnd struct{}
type RespFilterError struct{ ErrorMsg }

func (RespFiltered) isFilterResponse()   {}
func (RespFilterEnd) isFilterResponse()  {}
func (RespFilterError) isFilterResponse() {}

func EncodeFilterResponse(r FilterResponse) []byte {
	switch v := r.(type) {
	case RespFiltered:
		e := &encoder{buf: []byte{tagFilterPaths}}
		e.strSlice(v.Allowed)
		e.strSlice(v.Rejected)
		return e.buf
	case RespFilterEnd:
		return encodeEnd()
	case RespFilterError:
		return encodeError(v.ErrorMsg)
	default:
		panic("proto: unreachable filter response variant")
	}
}

func DecodeFilterResponse(b []byte) (FilterResponse, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanFilter, 0)
	}
	switch b[0] {
	case tagEnd:
		return RespFilterEnd{}, nil
	case tagError:
		m, err := decodeErrorBody(newDecoder(b[1:]))
		if err != nil {
			return nil, err
		}
		return RespFilterError{m}, nil
	case tagFilterPaths:
		d := newDecoder(b[1:])
		allowed, err := d.strSlice()
		if err != nil {
			return nil, err
		}
		rejected, err := d.strSlice()
		if err != nil {
			return nil, err
		}
		return RespFiltered{Allowed: allowed, Rejected: rejected}, nil
	default:
		return nil, errUnknownTag(chanFilter, b[0])
	}
}
