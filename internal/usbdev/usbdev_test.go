package usbdev

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSysfsEnumeratorFindsMassStorageDevice(t *testing.T) {
	root := t.TempDir()
	dev := filepath.Join(root, "1-1")
	writeFile(t, filepath.Join(dev, "busnum"), "1\n")
	writeFile(t, filepath.Join(dev, "devnum"), "4\n")
	writeFile(t, filepath.Join(dev, "manufacturer"), "Kingston\n")
	writeFile(t, filepath.Join(dev, "product"), "DataTraveler\n")
	writeFile(t, filepath.Join(dev, "serial"), "ABCD1234\n")
	writeFile(t, filepath.Join(dev, "1-1:1.0", "block", "sda", "size"), "2048\n")

	e := NewSysfsEnumerator(root)
	devices, err := e.List()
	require.NoError(t, err)
	require.Len(t, devices, 1)
	require.Equal(t, 1, devices[0].BusNum)
	require.Equal(t, 4, devices[0].DevNum)
	require.Equal(t, "Kingston", devices[0].Vendor)
	require.Equal(t, "DataTraveler", devices[0].Model)
	require.Equal(t, "ABCD1234", devices[0].Serial)
	require.Equal(t, int64(2048*512), devices[0].SizeBytes)
}

func TestSysfsEnumeratorSkipsNonBlockDevices(t *testing.T) {
	root := t.TempDir()
	dev := filepath.Join(root, "1-2")
	writeFile(t, filepath.Join(dev, "busnum"), "1\n")
	writeFile(t, filepath.Join(dev, "devnum"), "5\n")

	e := NewSysfsEnumerator(root)
	devices, err := e.List()
	require.NoError(t, err)
	require.Empty(t, devices)
}
