// Command usbsas-identifier is the identifier worker of spec.md §4.6:
// it answers a single UserID query over its channel, then waits for End.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cea-sec/usbsas-go/internal/confine"
	"github.com/cea-sec/usbsas-go/internal/config"
	"github.com/cea-sec/usbsas-go/internal/identifier"
	"github.com/cea-sec/usbsas-go/internal/proto"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
	"github.com/cea-sec/usbsas-go/internal/wkind"
	"github.com/cea-sec/usbsas-go/internal/worker"
)

func main() {
	cmd := &cobra.Command{
		Use:   "usbsas-identifier",
		Short: "Resolve the identity of the user running a transfer",
	}
	flags := worker.BindCommonFlags(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		usbsaslog.SetLevel(flags.Verbose)
		worker.Bootstrap(wkind.Identifier, func() (func() error, confine.Profile, error) {
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

	var id identifier.Identifier
	if cfg.Identity.Backend == "env" {
		id = identifier.NewEnvVar(cfg.Identity.EnvVar)
	} else {
		id = identifier.NewStatic(cfg.Identity.Static)
	}

	rt := &worker.Runtime[proto.IdentifierRequest, proto.IdentifierResponse]{
		Kind:   wkind.Identifier,
		Ch:     ch,
		Decode: proto.DecodeIdentifierRequest,
		Encode: proto.EncodeIdentifierResponse,
		Handle: func(req proto.IdentifierRequest) (proto.IdentifierResponse, bool, error) {
			switch req.(type) {
			case proto.ReqUserID:
				uid, err := id.UserID()
				if err != nil {
					return proto.RespIdentifierError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrForeign, Detail: err.Error()}}, false, nil
				}
				return proto.RespUserID{ID: uid}, false, nil
			case proto.ReqIdentifierEnd:
				return proto.RespIdentifierEnd{}, true, nil
			default:
				return proto.RespIdentifierEnd{}, true, nil
			}
		},
	}

	profile := confine.ForKind(wkind.Identifier, ch.InputFD(), ch.OutputFD(), nil)
	return rt.Run, profile, nil
}
