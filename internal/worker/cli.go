package worker

import (
	"github.com/spf13/cobra"

	"github.com/cea-sec/usbsas-go/internal/config"
)

// CommonFlags are the CLI flags spec.md §6 names as common to every
// worker binary: --config, --tar-path, --fs-path, plus --device-path
// and --verbose supplementing the ones spec.md enumerates (a device
// node path for bulkreader/bulkwriter, and a debug switch every
// teacher-adjacent CLI in the pack exposes).
type CommonFlags struct {
	ConfigPath string
	TarPath    string
	FSPath     string
	DevicePath string
	Verbose    bool
}

// BindCommonFlags registers spec.md §6's common flag set on cmd and
// returns the struct cobra will have filled in by the time RunE runs,
// grounded on the teacher's cobra.Command + pflag CLI shape
// (backend/torrent/cmd/backend.go).
func BindCommonFlags(cmd *cobra.Command) *CommonFlags {
	f := &CommonFlags{}
	cmd.Flags().StringVar(&f.ConfigPath, "config", config.DefaultPath, "path to usbsas TOML configuration")
	cmd.Flags().StringVar(&f.TarPath, "tar-path", "", "path to the session's intermediate TAR file")
	cmd.Flags().StringVar(&f.FSPath, "fs-path", "", "path to the session's intermediate filesystem image")
	cmd.Flags().StringVar(&f.DevicePath, "device-path", "", "path to the USB device node this worker touches")
	cmd.Flags().BoolVar(&f.Verbose, "verbose", false, "enable debug logging")
	return f
}
