// Package wkind is the closed enumeration of worker kinds, naming every
// role in the pipeline per spec.md §3 "Worker kind". Each kind pins its
// protocol pair, the additional fds it expects to inherit, and the name
// of its confinement profile.
package wkind

// Kind identifies a worker role. The set is closed; proto and confine
// dispatch on it.
type Kind string

const (
	Identifier    Kind = "identifier"
	Devices       Kind = "devices"       // device-enumerator
	BulkReader    Kind = "bulkreader"    // dev2scsi equivalent
	FSReader      Kind = "fsreader"      // filesystem-reader
	Filter        Kind = "filter"        // path-filter
	ArchiveWriter Kind = "archivewriter" // files2tar equivalent
	FSWriter      Kind = "fswriter"      // files2fs equivalent
	BulkWriter    Kind = "bulkwriter"    // fs2dev equivalent
	Uploader      Kind = "uploader"
	Downloader    Kind = "downloader" // supplemented, see SPEC_FULL.md
	JSONParser    Kind = "jsonparser"
	ImageWriter   Kind = "imagewriter"
	LocalSource   Kind = "localsource"
	Orchestrator  Kind = "orchestrator"
)

// AuxFD names one additional file descriptor, beyond the two channel
// pipes, that a worker of a given kind expects to inherit.
type AuxFD string

const (
	AuxFDTar    AuxFD = "tar"    // --tar-path
	AuxFDImage  AuxFD = "fs"     // --fs-path
	AuxFDDevice AuxFD = "device" // USB device node
)

// Spec describes the static shape of a worker kind: which auxiliary fds
// it inherits and which confinement profile applies to it. The inbound
// and outbound protocol types are pinned in package proto by the kind
// value itself, not stored here, since Go has no dependent typing.
type Spec struct {
	Kind   Kind
	AuxFDs []AuxFD
}

// Catalogue is the closed table of every worker kind's static shape.
var Catalogue = map[Kind]Spec{
	Identifier:    {Kind: Identifier},
	Devices:       {Kind: Devices},
	BulkReader:    {Kind: BulkReader, AuxFDs: []AuxFD{AuxFDDevice}},
	FSReader:      {Kind: FSReader, AuxFDs: []AuxFD{AuxFDDevice}},
	Filter:        {Kind: Filter},
	ArchiveWriter: {Kind: ArchiveWriter, AuxFDs: []AuxFD{AuxFDTar}},
	FSWriter:      {Kind: FSWriter, AuxFDs: []AuxFD{AuxFDImage}},
	BulkWriter:    {Kind: BulkWriter, AuxFDs: []AuxFD{AuxFDDevice}},
	Uploader:      {Kind: Uploader},
	Downloader:    {Kind: Downloader},
	JSONParser:    {Kind: JSONParser},
	ImageWriter:   {Kind: ImageWriter, AuxFDs: []AuxFD{AuxFDImage}},
	LocalSource:   {Kind: LocalSource},
	Orchestrator:  {Kind: Orchestrator},
}

// Valid reports whether k is a recognised worker kind.
func Valid(k Kind) bool {
	_, ok := Catalogue[k]
	return ok
}
