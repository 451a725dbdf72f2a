package proto

// Devices channel (orchestrator <-> device-enumerator worker).

import "fmt"

const chanDevices = "devices"

const tagDevicesList byte = 1

type Device struct {
	BusNum    int
	DevNum    int
	Vendor    string
	Model     string
	Serial    string
	SizeBytes int64
	NodePath  string
}

type DevicesRequest interface{ isDevicesRequest() }

type ReqDevicesList struct{}
type ReqDevicesEnd struct{}

func (ReqDevicesList) isDevicesRequest() {}
func (ReqDevicesEnd) isDevicesRequest()  {}

func EncodeDevicesRequest(r DevicesRequest) []byte {
	switch r.(type) {
	case ReqDevicesList:
		return []byte{tagDevicesList}
	case ReqDevicesEnd:
		return encodeEnd()
	default:
		panic("proto: unreachable devices request variant")
	}
}

func DecodeDevicesRequest(b []byte) (DevicesRequest, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanDevices, 0)
	}
	switch b[0] {
	case tagEnd:
		return ReqDevicesEnd{}, nil
	case tagDevicesList:
		return ReqDevicesList{}, nil
	default:
		return nil, errUnknownTag(chanDevices, b[0])
	}
}

type DevicesResponse interface{ isDevicesResponse() }

type RespDevicesList struct{ Devices []Device }
type RespDevicesEnd struct{}
type RespDevicesError struct{ ErrorMsg }

func (RespDevicesList) isDevicesResponse()  {}
func (RespDevicesEnd) isDevicesResponse()   {}
func (RespDevicesError) isDevicesResponse() {}

func encodeDevice(e *encoder, d Device) {
	e.i64(int64(d.BusNum))
	e.i64(int64(d.DevNum))
	e.str(d.Vendor)
	e.str(d.Model)
	e.str(d.Serial)
	e.i64(d.SizeBytes)
	e.str(d.NodePath)
}

func decodeDevice(d *decoder) (Device, error) {
	var dev Device
	bus, err := d.i64()
	if err != nil {
		return dev, err
	}
	num, err := d.i64()
	if err != nil {
		return dev, err
	}
	vendor, err := d.str()
	if err != nil {
		return dev, err
	}
	model, err := d.str()
	if err != nil {
		return dev, err
	}
	serial, err := d.str()
	if err != nil {
		return dev, err
	}
	size, err := d.i64()
	if err != nil {
		return dev, err
	}
	node, err := d.str()
	if err != nil {
		return dev, err
	}
	return Device{BusNum: int(bus), DevNum: int(num), Vendor: vendor, Model: model, Serial: serial, SizeBytes: size, NodePath: node}, nil
}

func EncodeDevicesResponse(r DevicesResponse) []byte {
	switch v := r.(type) {
	case RespDevicesList:
		e := &encoder{buf: []byte{tagDevicesList}}
		e.uvarint(uint64(len(v.Devices)))
		for _, dev := range v.Devices {
			encodeDevice(e, dev)
		}
		return e.buf
	case RespDevicesEnd:
		return encodeEnd()
	case RespDevicesError:
		return encodeError(v.ErrorMsg)
	default:
		panic("proto: unreachable devices response variant")
	}
}

func DecodeDevicesResponse(b []byte) (DevicesResponse, error) {
	if len(b) == 0 {
		return nil, errUnknownTag(chanDevices, 0)
	}
	switch b[0] {
	case tagEnd:
		return RespDevicesEnd{}, nil
	case tagError:
		m, err := decodeErrorBody(newDecoder(b[1:]))
		if err != nil {
			return nil, err
		}
		return RespDevicesError{m}, nil
	case tagDevicesList:
		d := newDecoder(b[1:])
		n, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		if n > uint64(len(d.buf)-d.off) {
			return nil, fmt.Errorf("proto: truncated message (device count %d exceeds remaining bytes)", n)
		}
		devices := make([]Device, 0, n)
		for i := uint64(0); i < n; i++ {
			dev, err := decodeDevice(d)
			if err != nil {
				return nil, err
			}
			devices = append(devices, dev)
		}
		return RespDevicesList{Devices: devices}, nil
	default:
		return nil, errUnknownTag(chanDevices, b[0])
	}
}
