package proto

// Net channels: uploader, downloader (supplemented, see SPEC_FULL.md
// "usbsas-net's three split binaries"), and jsonparser, per spec.md
// §4.6 and the original's usbsas-net/src/bin/{uploader,downloader,
// jsonparser}.rs.

const (
	chanUploader   = "uploader"
	chanDownloader = "downloader"
	chanJSONParser = "jsonparser"
)

// -- uploader --

const (
	tagUPUploadFile byte = 1
	tagUPUploadData byte = 2
	tagUPEndUpload  byte = 3
)

type UploaderRequest interface{ isUploaderRequest() }

type ReqUploadFile struct {
	Path string
	Size int64
}
type ReqUploadData struct{ Data []byte }
type ReqEndUpload struct{}
type ReqUploaderEnd struct{}

func (ReqUploadFile) isUploaderRequest()  {}
func (ReqUploadData) isUploaderRequest()  {}
func (ReqEndUpload) isUploaderRequest()   {}
func (ReqUploaderEnd) isUploaderRequest() {}

func EncodeUploaderRequest(r UploaderRequest) []byte {
	switch v := r.(type) {
	case ReqUploadFile:
		e := &encoder{buf: []byte{tagUPUploadFile}}
		e.str(v.Path)
		e.i64(v.Size)
		return e.buf
	case ReqUploadData:
		e := &encoder{buf: []byte{tagUPUploadData}}
		e.bytes(v.Data)
		return e.buf
	case ReqEndUpload:
		return []byte{tagUPEndUpload}
	case ReqUploaderEnd:
		return encodeEnd()
	default:
		panic("proto: unreachable uploader request variant")
	}
}

func DecodeUploaderRequest(b []byte) (UploaderRequest, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanUploader, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return ReqUploaderEnd{}, nil
	case tagUPUploadFile:
		p, err := d.str()
		if err != nil {
			return nil, err
		}
		sz, err := d.i64()
		if err != nil {
			return nil, err
		}
		return ReqUploadFile{Path: p, Size: sz}, nil
	case tagUPUploadData:
		data, err := d.bytes()
		if err != nil {
			return nil, err
		}
		return ReqUploadData{Data: data}, nil
	case tagUPEndUpload:
		return ReqEndUpload{}, nil
	default:
		return nil, errUnknownTag(chanUploader, b[0])
	}
}

type UploaderResponse interface{ isUploaderResponse() }

type RespUploaded struct{}
type RespUploaderEnd struct{}
type RespUploaderError struct{ ErrorMsg }

func (RespUploaded) isUploaderResponse()    {}
func (RespUploaderEnd) isUploaderResponse() {}
func (RespUploaderError) isUploaderResponse() {}

func EncodeUploaderResponse(r UploaderResponse) []byte {
	switch v := r.(type) {
	case RespUploaded:
		return []byte{tagUPEndUpload}
	case RespUploaderEnd:
		return encodeEnd()
	case RespUploaderError:
		return encodeError(v.ErrorMsg)
	default:
		panic("proto: unreachable uploader response variant")
	}
}

func DecodeUploaderResponse(b []byte) (UploaderResponse, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanUploader, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return RespUploaderEnd{}, nil
	case tagError:
		m, err := decodeErrorBody(d)
		if err != nil {
			return nil, err
		}
		return RespUploaderError{m}, nil
	case tagUPEndUpload:
		return RespUploaded{}, nil
	default:
		return nil, errUnknownTag(chanUploader, b[0])
	}
}

// -- downloader (supplemented) --

const tagDLFetchFilter byte = 1

type DownloaderRequest interface{ isDownloaderRequest() }

type ReqFetchFilter struct{}
type ReqDownloaderEnd struct{}

func (ReqFetchFilter) isDownloaderRequest()   {}
func (ReqDownloaderEnd) isDownloaderRequest() {}

func EncodeDownloaderRequest(r DownloaderRequest) []byte {
	switch r.(type) {
	case ReqFetchFilter:
		return []byte{tagDLFetchFilter}
	case ReqDownloaderEnd:
		return encodeEnd()
	default:
		panic("proto: unreachable downloader request variant")
	}
}

func DecodeDownloaderRequest(b []byte) (DownloaderRequest, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanDownloader, 0)
	}
	switch b[0] {
	case tagEnd:
		return ReqDownloaderEnd{}, nil
	case tagDLFetchFilter:
		return ReqFetchFilter{}, nil
	default:
		return nil, errUnknownTag(chanDownloader, b[0])
	}
}

type DownloaderResponse interface{ isDownloaderResponse() }

type RespFilterRules struct{ Rules []string }
type RespDownloaderEnd struct{}
type RespDownloaderError struct{ ErrorMsg }

func (RespFilterRules) isDownloaderResponse()   {}
func (RespDownloaderEnd) isDownloaderResponse() {}
func (RespDownloaderError) isDownloaderResponse() {}

func EncodeDownloaderResponse(r DownloaderResponse) []byte {
	switch v := r.(type) {
	case RespFilterRules:
		e := &encoder{buf: []byte{tagDLFetchFilter}}
		e.strSlice(v.Rules)
		return e.buf
	case RespDownloaderEnd:
		return encodeEnd()
	case RespDownloaderError:
		return encodeError(v.ErrorMsg)
	default:
		panic("proto: unreachable downloader response variant")
	}
}

func DecodeDownloaderResponse(b []byte) (DownloaderResponse, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanDownloader, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return RespDownloaderEnd{}, nil
	case tagError:
		m, err := decodeErrorBody(d)
		if err != nil {
			return nil, err
		}
		return RespDownloaderError{m}, nil
	case tagDLFetchFilter:
		rules, err := d.strSlice()
		if err != nil {
			return nil, err
		}
		return RespFilterRules{Rules: rules}, nil
	default:
		return nil, errUnknownTag(chanDownloader, b[0])
	}
}

// -- jsonparser --

const tagJPParseConfig byte = 1

type SourceConfig struct {
	Source string
	Dest   string
}

type JSONParserRequest interface{ isJSONParserRequest() }

type ReqParseConfig struct{ Data []byte }
type ReqJSONParserEnd struct{}

func (ReqParseConfig) isJSONParserRequest()   {}
func (ReqJSONParserEnd) isJSONParserRequest() {}

func EncodeJSONParserRequest(r JSONParserRequest) []byte {
	switch v := r.(type) {
	case ReqParseConfig:
		e := &encoder{buf: []byte{tagJPParseConfig}}
		e.bytes(v.Data)
		return e.buf
	case ReqJSONParserEnd:
		return encodeEnd()
	default:
		panic("proto: unreachable jsonparser request variant")
	}
}

func DecodeJSONParserRequest(b []byte) (JSONParserRequest, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanJSONParser, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return ReqJSONParserEnd{}, nil
	case tagJPParseConfig:
		data, err := d.bytes()
		if err != nil {
			return nil, err
		}
		return ReqParseConfig{Data: data}, nil
	default:
		return nil, errUnknownTag(chanJSONParser, b[0])
	}
}

type JSONParserResponse interface{ isJSONParserResponse() }

type RespConfig struct{ Config SourceConfig }
type RespJSONParserEnd struct{}
type RespJSONParserError struct{ ErrorMsg }

func (RespConfig) isJSONParserResponse()        {}
func (RespJSONParserEnd) isJSONParserResponse() {}
func (RespJSONParserError) isJSONParserResponse() {}

func EncodeJSONParserResponse(r JSONParserResponse) []byte {
	switch v := r.(type) {
	case RespConfig:
		e := &encoder{buf: []byte{tagJPParseConfig}}
		e.str(v.Config.Source)
		e.str(v.Config.Dest)
		return e.buf
	case RespJSONParserEnd:
		return encodeEnd()
	case RespJSONParserError:
		return encodeError(v.ErrorMsg)
	default:
		panic("proto: unreachable jsonparser response variant")
	}
}

func DecodeJSONParserResponse(b []byte) (JSONParserResponse, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanJSONParser, 0)
	}
	d := newDecoder(b[1:])
	switch b[0] {
	case tagEnd:
		return RespJSONParserEnd{}, nil
	case tagError:
		m, err := decodeErrorBody(d)
		if err != nil {
			return nil, err
		}
		return RespJSONParserError{m}, nil
	case tagJPParseConfig:
		src, err := d.str()
		if err != nil {
			return nil, err
		}
		dst, err := d.str()
		if err != nil {
			return nil, err
		}
		return RespConfig{Config: SourceConfig{Source: src, Dest: dst}}, nil
	default:
		return nil, errUnknownTag(chanJSONParser, b[0])
	}
}
