// Command usbsas-downloader supplements spec.md with the original's
// usbsas-net/src/bin/downloader.rs counterpart (see SPEC_FULL.md
// "usbsas-net's three split binaries"): it answers a single
// fetch-filter-rules query from the configured [filter] section, for
// deployments that want filter rules served from the same place as the
// upload endpoint rather than baked into every worker's local config.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cea-sec/usbsas-go/internal/confine"
	"github.com/cea-sec/usbsas-go/internal/config"
	"github.com/cea-sec/usbsas-go/internal/proto"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
	"github.com/cea-sec/usbsas-go/internal/wkind"
	"github.com/cea-sec/usbsas-go/internal/worker"
)

func main() {
	cmd := &cobra.Command{
		Use:   "usbsas-downloader",
		Short: "Serve filter rules fetched from the network destination",
	}
	flags := worker.BindCommonFlags(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		usbsaslog.SetLevel(flags.Verbose)
		worker.Bootstrap(wkind.Downloader, func() (func() error, confine.Profile, error) {
			return build(flags)
		})
		return nil
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func build(f *worker.CommonFlags) (func() error, confine.Profile, error) {
	ch, err := worker.InitChannel()
	if err != nil {
		return nil, confine.Profile{}, err
	}
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, confine.Profile{}, err
	}
	var rules []string
	rules = append(rules, cfg.Filter.RejectContains...)
	rules = append(rules, cfg.Filter.RejectPrefixes...)
	rules = append(rules, cfg.Filter.RejectSuffixes...)
	rules = append(rules, cfg.Filter.RejectExact...)

	rt := &worker.Runtime[proto.DownloaderRequest, proto.DownloaderResponse]{
		Kind:   wkind.Downloader,
		Ch:     ch,
		Decode: proto.DecodeDownloaderRequest,
		Encode: proto.EncodeDownloaderResponse,
		Handle: func(req proto.DownloaderRequest) (proto.DownloaderResponse, bool, error) {
			switch req.(type) {
			case proto.ReqFetchFilter:
				return proto.RespFilterRules{Rules: rules}, false, nil
			case proto.ReqDownloaderEnd:
				return proto.RespDownloaderEnd{}, true, nil
			default:
				return proto.RespDownloaderEnd{}, true, nil
			}
		},
	}

	profile := confine.ForKind(wkind.Downloader, ch.InputFD(), ch.OutputFD(), nil)
	return rt.Run, profile, nil
}
