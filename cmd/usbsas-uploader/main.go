// Command usbsas-uploader is the network-destination worker of spec.md
// §4.6 for the USBToNet/LocalToNet destinations: it streams one file's
// data onward to internal/netupload as it arrives, bridged by an
// io.Pipe so the upload's HTTP request body is filled incrementally
// rather than buffered whole in memory.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/cea-sec/usbsas-go/internal/confine"
	"github.com/cea-sec/usbsas-go/internal/config"
	"github.com/cea-sec/usbsas-go/internal/netupload"
	"github.com/cea-sec/usbsas-go/internal/proto"
	"github.com/cea-sec/usbsas-go/internal/usbsaslog"
	"github.com/cea-sec/usbsas-go/internal/wkind"
	"github.com/cea-sec/usbsas-go/internal/worker"
)

func main() {
	cmd := &cobra.Command{
		Use:   "usbsas-uploader",
		Short: "Upload the session's archive to a network destination",
	}
	flags := worker.BindCommonFlags(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		usbsaslog.SetLevel(flags.Verbose)
		worker.Bootstrap(wkind.Uploader, func() (func() error, confine.Profile, error) {
			return build(flags)
		})
		return nil
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// upload tracks the in-flight pipe bridging ReqUploadData frames to the
// HTTP request body netupload is streaming out.
type upload struct {
	pw   *io.PipeWriter
	done chan error
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
	u, err := url.Parse(cfg.Network.UploadURL)
	if err != nil {
		return nil, confine.Profile{}, fmt.Errorf("usbsas-uploader: parse upload_url: %w", err)
	}
	hostPort := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		hostPort = net.JoinHostPort(u.Hostname(), port)
	}
	if err := confine.CheckPort(hostPort, cfg.Network.AllowedPorts); err != nil {
		return nil, confine.Profile{}, err
	}
	uploader := netupload.NewHTTPUploader(cfg.Network.UploadURL)

	var cur *upload

	rt := &worker.Runtime[proto.UploaderRequest, proto.UploaderResponse]{
		Kind:   wkind.Uploader,
		Ch:     ch,
		Decode: proto.DecodeUploaderRequest,
		Encode: proto.EncodeUploaderResponse,
		Handle: func(req proto.UploaderRequest) (proto.UploaderResponse, bool, error) {
			switch v := req.(type) {
			case proto.ReqUploadFile:
				pr, pw := io.Pipe()
				done := make(chan error, 1)
				cur = &upload{pw: pw, done: done}
				go func() {
					done <- uploader.Upload(context.Background(), v.Path, v.Size, pr)
				}()
				return proto.RespUploaded{}, false, nil
			case proto.ReqUploadData:
				if cur == nil {
					return proto.RespUploaderError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrState, Detail: "no upload in progress"}}, false, nil
				}
				if _, err := cur.pw.Write(v.Data); err != nil {
					return proto.RespUploaderError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrIO, Detail: err.Error()}}, false, nil
				}
				return proto.RespUploaded{}, false, nil
			case proto.ReqEndUpload:
				if cur == nil {
					return proto.RespUploaderError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrState, Detail: "no upload in progress"}}, false, nil
				}
				cur.pw.Close()
				err := <-cur.done
				cur = nil
				if err != nil {
					return proto.RespUploaderError{ErrorMsg: proto.ErrorMsg{Kind: proto.ErrForeign, Detail: err.Error()}}, false, nil
				}
				return proto.RespUploaded{}, false, nil
			case proto.ReqUploaderEnd:
				return proto.RespUploaderEnd{}, true, nil
			default:
				return proto.RespUploaderEnd{}, true, nil
			}
		},
	}

	profile := confine.ForKind(wkind.Uploader, ch.InputFD(), ch.OutputFD(), nil)
	return rt.Run, profile, nil
}
