package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[worker]
binary_dir = "/usr/libexec/usbsas"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/usr/libexec/usbsas", cfg.Worker.BinaryDir)
	require.EqualValues(t, DefaultSectorSize, cfg.FSWriter.SectorSize)
	require.Equal(t, "fat32", cfg.FSWriter.FSType)
	require.Equal(t, "static", cfg.Identity.Backend)
	require.Equal(t, "Tartempion", cfg.Identity.Static)
}

func TestLoadRespectsExplicitValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[fswriter]
sector_size = 4096
fs_type = "exfat"

[identity]
backend = "env"
env_var = "USBSAS_USER_ID"

[network]
upload_url = "https://example.invalid/upload"
allowed_ports = [443, 8443]

[filter]
reject_contains = ["/forbidden/"]
reject_prefixes = ["/System/"]
reject_suffixes = [".exe"]
reject_exact = ["/etc/passwd"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.EqualValues(t, 4096, cfg.FSWriter.SectorSize)
	require.Equal(t, "exfat", cfg.FSWriter.FSType)
	require.Equal(t, "env", cfg.Identity.Backend)
	require.Equal(t, "USBSAS_USER_ID", cfg.Identity.EnvVar)
	require.Equal(t, "https://example.invalid/upload", cfg.Network.UploadURL)
	require.Equal(t, []int{443, 8443}, cfg.Network.AllowedPorts)
	require.Equal(t, []string{"/forbidden/"}, cfg.Filter.RejectContains)
	require.Equal(t, []string{"/System/"}, cfg.Filter.RejectPrefixes)
	require.Equal(t, []string{".exe"}, cfg.Filter.RejectSuffixes)
	require.Equal(t, []string{"/etc/passwd"}, cfg.Filter.RejectExact)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
