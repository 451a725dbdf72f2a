// Command usbsas-jsonparser is the config-parsing worker of spec.md
// §4.6, grounded on original_source/usbsas-net/src/bin/jsonparser.rs:
// it decodes the small JSON document a network-destination transfer's
// caller supplies (naming the transfer's source and destination labels)
// into a proto.SourceConfig.
package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/cea-sec/usbsas-go/internal/confine"
	"github.com/cea-sec/usbsas-go/internal/proto"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
	"github.com/cea-sec/usbsas-go/internal/wkind"
	"github.com/cea-sec/usbsas-go/internal/worker"
)

func main() {
	cmd := &cobra.Command{
		Use:   "usbsas-jsonparser",
		Short: "Parse a transfer's source/destination JSON descriptor",
	}
	flags := worker.BindCommonFlags(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		usbsaslog.SetLevel(flags.Verbose)
		worker.Bootstrap(wkind.JSONParser, func() (func() error, confine.Profile, error) {
			return build(flags)
		})
		return nil
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type wireConfig struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`
}

func build(f *worker.CommonFlags) (func() error, confine.Profile, error) {
	ch, err := worker.InitChannel()
	if err != nil {
		return nil, confine.Profile{}, err
	}

	rt := &worker.Runtime[proto.JSONParserRequest, proto.JSONParserResponse]{
		Kind:   wkind.JSONParser,
		Ch:     ch,
		Decode: proto.DecodeJSONParserRequest,
		Encode: proto.EncodeJSONParserResponse,
		Handle: func(req proto.JSONParserRequest) (proto.JSONParserResponse, bool, error) {
			switch v := req.(type) {
			case proto.ReqParseConfig:
				var wc wireConfig
				if err := json.Unmarshal(v.Data, &wc); err != nil {
					return proto.RespJSONParserError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrBadRequest, Detail: err.Error()}}, false, nil
				}
				return proto.RespConfig{Config: proto.SourceConfig{Source: wc.Source, Dest: wc.Dest}}, false, nil
			case proto.ReqJSONParserEnd:
				return proto.RespJSONParserEnd{}, true, nil
			default:
				return proto.RespJSONParserEnd{}, true, nil
			}
		},
	}

	profile := confine.ForKind(wkind.JSONParser, ch.InputFD(), ch.OutputFD(), nil)
	return rt.Run, profile, nil
}
