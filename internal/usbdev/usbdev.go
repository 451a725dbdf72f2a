// Package usbdev enumerates USB mass-storage devices for the
// devices worker of spec.md §4.6. Real enumeration is libusb-backed in
// the original system (see SPEC_FULL.md); libusb is not part of the
// retrieved pack, so sysfsEnumerator reads the same descriptor fields
// (vendor, product, serial, backing block node) from Linux's
// /sys/bus/usb/devices tree instead.
package usbdev

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Device mirrors proto.Device at the collaborator-interface layer.
type Device struct {
	BusNum    int
	DevNum    int
	Vendor    string
	Model     string
	Serial    string
	SizeBytes int64
	// NodePath is the backing block device node (e.g. /dev/sda) bulkreader/
	// bulkwriter open via --device-path. Empty when no block child was
	// found under the USB device's sysfs entry.
	NodePath string
}

// Enumerator lists USB mass-storage devices currently attached.
type Enumerator interface {
	List() ([]Device, error)
}

// SysfsEnumerator walks a sysfs USB device tree (normally
// /sys/bus/usb/devices) looking for nodes that carry a block child —
// the mass-storage devices usbsas cares about.
type SysfsEnumerator struct {
	Root string
}

func NewSysfsEnumerator(root string) SysfsEnumerator {
	return SysfsEnumerator{Root: root}
}

func NewDefaultSysfsEnumerator() SysfsEnumerator {
	return SysfsEnumerator{Root: "/sys/bus/usb/devices"}
}

func (e SysfsEnumerator) List() ([]Device, error) {
	entries, err := os.ReadDir(e.Root)
	if err != nil {
		return nil, fmt.Errorf("usbdev: read %s: %w", e.Root, err)
	}

	var devices []Device
	for _, ent := range entries {
		devPath := filepath.Join(e.Root, ent.Name())
		blockNode, ok := findBlockNode(devPath)
		if !ok {
			continue
		}

		busNum, err := readInt(filepath.Join(devPath, "busnum"))
		if err != nil {
			continue
		}
		devNum, err := readInt(filepath.Join(devPath, "devnum"))
		if err != nil {
			continue
		}

		dev := Device{
			BusNum: busNum,
			DevNum: devNum,
			Vendor: readString(filepath.Join(devPath, "manufacturer")),
			Model:  readString(filepath.Join(devPath, "product")),
			Serial: readString(filepath.Join(devPath, "serial")),
		}
		dev.SizeBytes = blockSize(blockNode)
		dev.NodePath = "/dev/" + filepath.Base(blockNode)
		devices = append(devices, dev)
	}
	return devices, nil
}

// findBlockNode looks for devPath/*/block/<name> or devPath/block/<name>,
// the sysfs layout exposing a USB device's backing block device.
func findBlockNode(devPath string) (string, bool) {
	candidates := []string{filepath.Join(devPath, "block")}
	children, err := os.ReadDir(devPath)
	if err == nil {
		for _, c := range children {
			candidates = append(candidates, filepath.Join(devPath, c.Name(), "block"))
		}
	}
	for _, blockDir := range candidates {
		names, err := os.ReadDir(blockDir)
		if err != nil || len(names) == 0 {
			continue
		}
		return filepath.Join(blockDir, names[0].Name()), true
	}
	return "", false
}

func blockSize(blockNode string) int64 {
	sectors, err := readInt64(filepath.Join(blockNode, "size"))
	if err != nil {
		return 0
	}
	return sectors * 512
}

func readInt(path string) (int, error) {
	v, err := readInt64(path)
	return int(v), err
}

func readInt64(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return 0, fmt.Errorf("usbdev: %s is empty", path)
	}
	return strconv.ParseInt(strings.TrimSpace(sc.Text()), 10, 64)
}

func readString(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
