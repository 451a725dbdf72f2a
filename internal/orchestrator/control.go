// control.go is the orchestrator's external control surface of spec.md
// §4.5: Select/Open/Filter/Copy/Reset, each driving the transfer state
// machine and forwarding sub-requests to the workers it has spawned.
// An HTTP/JSON front end is explicitly out of scope (spec.md §1, §4.5
// "external and interact with the orchestrator through its own control
// channel") so this is the in-process Go API a future server would
// wrap; SPEC_FULL.md's [MODULE] orchestrator notes that decision.
package orchestrator

import (
	"fmt"

	"github.com/cea-sec/usbsas-go/internal/config"
	"github.com/cea-sec/usbsas-go/internal/proto"
	"github.com/cea-sec/usbsas-go/internal/usbdev"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
	"github.com/cea-sec/usbsas-go/internal/wkind"
)

// Orchestrator owns one transfer's spawned children, session, and
// state machine. A fresh Orchestrator is built per session; Reset
// tears down the current one and the caller constructs a new one for
// the next transfer, matching spec.md §3 "the session is reset by
// killing every worker and constructing a new pipeline".
type Orchestrator struct {
	cfg      config.Config
	transfer *Transfer
	sess     *Session
	mode     Mode
	children map[wkind.Kind]*Child
	device   usbdev.Device

	// imgOffset tracks the next write offset into the intermediate
	// image file for USBToImg/LocalToImg transfers: imagewriter has no
	// per-file framing of its own (see proto/imagewriter.go), so Copy
	// appends each file's bytes sequentially and resets this to 0 at
	// the start of every Copy.
	imgOffset uint64
}

// New starts a fresh Orchestrator in Idle with a newly allocated
// Session.
func New(cfg config.Config) (*Orchestrator, error) {
	sess, err := NewSession()
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:      cfg,
		transfer: NewTransfer(),
		sess:     sess,
		children: make(map[wkind.Kind]*Child),
	}, nil
}

// State reports the current transfer state.
func (o *Orchestrator) State() State { return o.transfer.State() }

func (o *Orchestrator) spawnConfig() SpawnConfig {
	return SpawnConfig{
		BinaryDir:  o.cfg.Worker.BinaryDir,
		ConfigPath: "",
		TarPath:    o.sess.TarPath,
		FSPath:     o.sess.ImgPath,
		DevicePath: o.device.NodePath,
	}
}

func (o *Orchestrator) spawn(kind wkind.Kind) (*Child, error) {
	if c, ok := o.children[kind]; ok {
		return c, nil
	}
	c, err := Spawn(kind, o.spawnConfig())
	if err != nil {
		return nil, err
	}
	o.children[kind] = c
	return c, nil
}

// ListDevices spawns a throwaway device-enumerator worker, queries it
// once, and reaps it immediately: device enumeration is not part of
// the ongoing pipeline, only a one-shot lookup that precedes
// SelectDevice.
func (o *Orchestrator) ListDevices() ([]proto.Device, error) {
	c, err := Spawn(wkind.Devices, o.spawnConfig())
	if err != nil {
		return nil, err
	}
	defer Reap([]*Child{c})

	if err := c.Ch.Send(proto.EncodeDevicesRequest(proto.ReqDevicesList{})); err != nil {
		return nil, fmt.Errorf("orchestrator: request device list: %w", err)
	}
	raw, err := c.Ch.Recv()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: receive device list: %w", err)
	}
	resp, err := proto.DecodeDevicesResponse(raw)
	if err != nil {
		return nil, err
	}
	switch v := resp.(type) {
	case proto.RespDevicesList:
		return v.Devices, nil
	case proto.RespDevicesError:
		return nil, fmt.Errorf("orchestrator: devices: %s: %s", v.Kind, v.Detail)
	default:
		return nil, fmt.Errorf("orchestrator: unexpected devices response")
	}
}

// Select moves Idle -> DeviceSelected, recording the chosen device for
// later use by BulkReader/BulkWriter's --device-path.
func (o *Orchestrator) Select(dev proto.Device) error {
	d := usbdev.Device{
		BusNum: dev.BusNum, DevNum: dev.DevNum,
		Vendor: dev.Vendor, Model: dev.Model, Serial: dev.Serial,
		SizeBytes: dev.SizeBytes, NodePath: dev.NodePath,
	}
	if err := o.transfer.SelectDevice(d); err != nil {
		return err
	}
	o.device = d
	usbsaslog.Logf(wkind.Orchestrator, "device selected: %s %s (%s)", d.Vendor, d.Model, d.Serial)
	return nil
}

// Open spawns the source-side chain for mode and lists+opens partition
// 0, moving DeviceSelected -> SourceOpened. USB-sourced modes spawn
// devices/bulkreader/fsreader; local-sourced modes spawn only
// localsource, which speaks the same protocol as fsreader. A
// local-sourced mode opened from Idle first passes through
// DeviceSelected with an empty device record.
func (o *Orchestrator) Open(mode Mode) error {
	o.mode = mode
	if (mode == LocalToUSB || mode == LocalToImg || mode == LocalToNet) && o.transfer.State() == Idle {
		if err := o.transfer.SelectDevice(usbdev.Device{}); err != nil {
			return err
		}
	}
	kinds, _, err := Topology(mode)
	if err != nil {
		return err
	}
	for _, k := range kinds {
		if _, err := o.spawn(k); err != nil {
			return err
		}
	}

	source := o.sourceWorker()
	if err := source.Ch.Send(proto.EncodeFSReaderRequest(proto.ReqPartitions{})); err != nil {
		return fmt.Errorf("orchestrator: request partitions: %w", err)
	}
	raw, err := source.Ch.Recv()
	if err != nil {
		return err
	}
	if _, err := decodeFSReaderOK(raw); err != nil {
		return err
	}

	if err := source.Ch.Send(proto.EncodeFSReaderRequest(proto.ReqOpenPartition{Index: 0})); err != nil {
		return err
	}
	raw, err = source.Ch.Recv()
	if err != nil {
		return err
	}
	if _, err := decodeFSReaderOK(raw); err != nil {
		return err
	}

	return o.transfer.OpenSource()
}

func decodeFSReaderOK(raw []byte) (proto.FSReaderResponse, error) {
	resp, err := proto.DecodeFSReaderResponse(raw)
	if err != nil {
		return nil, err
	}
	if e, ok := resp.(proto.RespFSReaderError); ok {
		return nil, fmt.Errorf("orchestrator: fsreader: %s: %s", e.Kind, e.Detail)
	}
	return resp, nil
}

// sourceWorker returns whichever spawned child speaks the
// fsreader-shaped protocol for the current mode.
func (o *Orchestrator) sourceWorker() *Child {
	if c, ok := o.children[wkind.LocalSource]; ok {
		return c
	}
	return o.children[wkind.FSReader]
}

// Filter sends paths to the path-filter worker and records its
// verdict, moving SourceOpened -> Filtered.
func (o *Orchestrator) Filter(paths []string) (allowed, rejected []string, err error) {
	c, ok := o.children[wkind.Filter]
	if !ok {
		return nil, nil, fmt.Errorf("orchestrator: filter worker not spawned")
	}
	if err := c.Ch.Send(proto.EncodeFilterRequest(proto.ReqFilter{Paths: paths})); err != nil {
		return nil, nil, err
	}
	raw, err := c.Ch.Recv()
	if err != nil {
		return nil, nil, err
	}
	resp, err := proto.DecodeFilterResponse(raw)
	if err != nil {
		return nil, nil, err
	}
	switch v := resp.(type) {
	case proto.RespFiltered:
		if err := o.transfer.ApplyFilter(v.Allowed, v.Rejected); err != nil {
			return nil, nil, err
		}
		return v.Allowed, v.Rejected, nil
	case proto.RespFilterError:
		return nil, nil, fmt.Errorf("orchestrator: filter: %s: %s", v.Kind, v.Detail)
	default:
		return nil, nil, fmt.Errorf("orchestrator: unexpected filter response")
	}
}

// Finish moves Copying to a terminal state and applies the retention
// rule to the session's intermediate files, per spec.md §4.5 and §6.
func (o *Orchestrator) Finish(final State, outDir string) ([]string, error) {
	if err := o.transfer.Finish(final); err != nil {
		return nil, err
	}
	return Finalize(o.sess, outDir, final == Success || final == PartialFailure)
}

// Reset reaps every spawned worker, deletes all session-scoped files
// unconditionally (spec.md §8 property 5: "leaves no session-scoped
// files on disk"), and returns the Orchestrator to Idle with a fresh
// Session.
func (o *Orchestrator) Reset() error {
	children := make([]*Child, 0, len(o.children))
	for _, c := range o.children {
		children = append(children, c)
	}
	if err := Reap(children); err != nil {
		return err
	}
	o.children = make(map[wkind.Kind]*Child)

	if err := o.sess.Destroy(); err != nil {
		return fmt.Errorf("orchestrator: destroy session: %w", err)
	}
	if err := o.transfer.Reset(); err != nil {
		return err
	}
	sess, err := NewSession()
	if err != nil {
		return err
	}
	o.sess = sess
	return nil
}

// Abort force-transitions the transfer to Aborted and reaps every
// worker, leaving session files for Finish/Reset to dispose of per the
// partial-failure retention policy.
func (o *Orchestrator) Abort() error {
	if err := o.transfer.Abort(); err != nil {
		return err
	}
	children := make([]*Child, 0, len(o.children))
	for _, c := range o.children {
		children = append(children, c)
	}
	return Reap(children)
}
