// Command usbsas-filter is the path-filter worker of spec.md §4.6 and
// §8 scenario 5: it partitions a candidate path list into allowed and
// rejected sets using the contain/prefix/suffix/exact rules from
// config.toml's [filter] section, grounded on
// original_source/usbsas-config/src/lib.rs's Filter{contain, start,
// end, exact} struct.
package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cea-sec/usbsas-go/internal/config"
	"github.com/cea-sec/usbsas-go/internal/confine"
	"github.com/cea-sec/usbsas-go/internal/proto"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
	"github.com/cea-sec/usbsas-go/internal/wkind"
	"github.com/cea-sec/usbsas-go/internal/worker"
)

func main() {
	cmd := &cobra.Command{
		Use:   "usbsas-filter",
		Short: "Partition candidate paths into allowed/rejected sets",
	}
	flags := worker.BindCommonFlags(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		usbsaslog.SetLevel(flags.Verbose)
		worker.Bootstrap(wkind.Filter, func() (func() error, confine.Profile, error) {
			return build(flags)
		})
		return nil
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func rejected(path string, cfg config.FilterConfig) bool {
	for _, c := range cfg.RejectContains {
		if strings.Contains(path, c) {
			return true
		}
	}
	for _, p := range cfg.RejectPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, s := range cfg.RejectSuffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	for _, e := range cfg.RejectExact {
		if path == e {
			return true
		}
	}
	return false
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

	rt := &worker.Runtime[proto.FilterRequest, proto.FilterResponse]{
		Kind:   wkind.Filter,
		Ch:     ch,
		Decode: proto.DecodeFilterRequest,
		Encode: proto.EncodeFilterResponse,
		Handle: func(req proto.FilterRequest) (proto.FilterResponse, bool, error) {
			switch v := req.(type) {
			case proto.ReqFilter:
				var allowed, reject []string
				for _, p := range v.Paths {
					if rejected(p, cfg.Filter) {
						reject = append(reject, p)
					} else {
						allowed = append(allowed, p)
					}
				}
				return proto.RespFiltered{Allowed: allowed, Rejected: reject}, false, nil
			case proto.ReqFilterEnd:
				return proto.RespFilterEnd{}, true, nil
			default:
				return proto.RespFilterEnd{}, true, nil
			}
		},
	}

	profile := confine.ForKind(wkind.Filter, ch.InputFD(), ch.OutputFD(), nil)
	return rt.Run, profile, nil
}
