// Package config loads the TOML configuration spec.md §6 names
// (`--config /etc/usbsas/config.toml`), grounded on the teacher's
// single parse-once-at-init shape and BurntSushi/toml dependency. Each
// worker loads its own immutable Config at Init; there is no
// hot-reload or shared mutable config state, matching spec.md §5's "no
// shared resources between workers beyond the pipes themselves".
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// DefaultPath is the path spec.md §6 names as the default --config
// value.
const DefaultPath = "/etc/usbsas/config.toml"

// DefaultSectorSize is used when the [fswriter] section omits
// sector_size, per spec.md §6.
const DefaultSectorSize = 512

// Config is the immutable, fully-parsed configuration handed to a
// worker after Init. Zero-value fields fall back to the constants
// above rather than erroring, so a minimal config.toml is valid.
type Config struct {
	Worker   WorkerConfig   `toml:"worker"`
	Network  NetworkConfig  `toml:"network"`
	Filter   FilterConfig   `toml:"filter"`
	FSWriter FSWriterConfig `toml:"fswriter"`
	Identity IdentityConfig `toml:"identity"`
}

// WorkerConfig locates worker binaries for the orchestrator to spawn.
type WorkerConfig struct {
	BinaryDir string `toml:"binary_dir"`
}

// NetworkConfig configures the uploader's network destination.
type NetworkConfig struct {
	UploadURL    string `toml:"upload_url"`
	AllowedPorts []int  `toml:"allowed_ports"`
}

// FilterConfig lists the path-filter rule sets the filter worker
// applies, per spec.md §4.6 and §8 scenario 5. The four rule kinds
// mirror original_source/usbsas-config/src/lib.rs's Filter{contain,
// start, end, exact}: a path is rejected if it matches any one of them.
type FilterConfig struct {
	RejectContains []string `toml:"reject_contains"`
	RejectPrefixes []string `toml:"reject_prefixes"`
	RejectSuffixes []string `toml:"reject_suffixes"`
	RejectExact    []string `toml:"reject_exact"`
}

// FSWriterConfig parameterizes the filesystem-writer worker's MkFs
// call.
type FSWriterConfig struct {
	SectorSize uint32 `toml:"sector_size"`
	FSType     string `toml:"fs_type"`
}

// IdentityConfig selects which internal/identifier backend a session
// uses, resolving the "usbsas-identificator vs usbsas-identifier"
// duplication noted in SPEC_FULL.md's supplemented features.
type IdentityConfig struct {
	Backend string `toml:"backend"` // "static" or "env"
	Static  string `toml:"static_id"`
	EnvVar  string `toml:"env_var"`
}

// Load parses a TOML file at path into a Config, applying the
// documented defaults for any field left unset.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.FSWriter.SectorSize == 0 {
		c.FSWriter.SectorSize = DefaultSectorSize
	}
	if c.FSWriter.FSType == "" {
		c.FSWriter.FSType = "fat32"
	}
	if c.Identity.Backend == "" {
		c.Identity.Backend = "static"
	}
	if c.Identity.Backend == "static" && c.Identity.Static == "" {
		c.Identity.Static = "Tartempion"
	}
}
