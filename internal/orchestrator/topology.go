// Package orchestrator owns the pipeline topology, process lifecycle,
// and transfer state machine of spec.md §4.5. Grounded on the
// teacher's subprocess-supervision style (fstest/test_all/run.go:
// start external processes, capture exit status, bound wait time) and
// its raid3 backend's errgroup-based parallel fan-out
// (backend/raid3/raid3.go).
package orchestrator

import (
	"fmt"

	"github.com/cea-sec/usbsas-go/internal/wkind"
)

// Mode names a source/destination combination. spec.md §2's prose names
// three (USB→USB, USB→NET, USB→IMG); SPEC_FULL.md supplements the
// other three from original_source/usbsas-config and usbsas-utils's
// worker-name list, which shows local-source and image-writer
// combinations too.
type Mode string

const (
	USBToUSB   Mode = "usb_to_usb"
	USBToNet   Mode = "usb_to_net"
	USBToImg   Mode = "usb_to_img"
	LocalToUSB Mode = "local_to_usb"
	LocalToImg Mode = "local_to_img"
	LocalToNet Mode = "local_to_net"
)

// Edge is one directed pipe in the topology: a worker of kind From
// writes to a worker of kind To.
type Edge struct {
	From wkind.Kind
	To   wkind.Kind
}

// Topology computes the worker kinds and pipe edges a transfer of the
// given mode needs, per spec.md §4.5 "Pipeline construction" step 1.
// The identifier worker is deliberately absent: it is queried once,
// outside the data-flow graph, over its own pipe pair (spec.md §8
// scenario 1 treats it as a standalone request/response exchange, not
// a pipeline stage).
func Topology(mode Mode) ([]wkind.Kind, []Edge, error) {
	var source []wkind.Kind
	var sourceEdges []Edge
	switch mode {
	case USBToUSB, USBToNet, USBToImg:
		source = []wkind.Kind{wkind.Devices, wkind.BulkReader, wkind.FSReader}
		sourceEdges = []Edge{
			{wkind.Devices, wkind.BulkReader},
			{wkind.BulkReader, wkind.FSReader},
		}
	case LocalToUSB, LocalToImg, LocalToNet:
		source = []wkind.Kind{wkind.LocalSource}
	default:
		return nil, nil, fmt.Errorf("orchestrator: unknown transfer mode %q", mode)
	}

	kinds := append([]wkind.Kind{}, source...)
	kinds = append(kinds, wkind.Filter, wkind.ArchiveWriter)
	edges := append([]Edge{}, sourceEdges...)
	edges = append(edges,
		Edge{lastOf(source), wkind.Filter},
		Edge{wkind.Filter, wkind.ArchiveWriter},
	)

	switch mode {
	case USBToUSB, LocalToUSB:
		kinds = append(kinds, wkind.FSWriter, wkind.BulkWriter, wkind.Devices)
		edges = append(edges,
			Edge{wkind.ArchiveWriter, wkind.FSWriter},
			Edge{wkind.FSWriter, wkind.BulkWriter},
			Edge{wkind.BulkWriter, wkind.Devices},
		)
	case USBToImg, LocalToImg:
		kinds = append(kinds, wkind.ImageWriter)
		edges = append(edges, Edge{wkind.ArchiveWriter, wkind.ImageWriter})
	case USBToNet, LocalToNet:
		kinds = append(kinds, wkind.Uploader)
		edges = append(edges, Edge{wkind.ArchiveWriter, wkind.Uploader})
	}

	return kinds, edges, nil
}

func lastOf(kinds []wkind.Kind) wkind.Kind { return kinds[len(kinds)-1] }
