package confine

import "github.com/cea-sec/usbsas-go/internal/wkind"

// baseSyscalls is granted to every worker kind, per spec.md §4.3 and
// the per-kind table in SPEC_FULL.md: the bare minimum to run a Go
// binary's blocking main loop and talk on its two channel pipes. read,
// write and close are pinned by Eq guards to the concrete inbound and
// outbound fd numbers ForKind passes in from the worker's opened pipes.
func baseSyscalls(inFD, outFD int) []SyscallRule {
	return []SyscallRule{
		AllowIf(sysRead, Eq(0, uint64(inFD))),
		AllowIf(sysWrite, Eq(0, uint64(outFD))),
		Allow(sysExit),
		Allow(sysExitGroup),
		Allow(sysRtSigreturn),
		Allow(sysBrk),
		AllowIf(sysMmap, MaskedEq(2, protExec, 0)),
		Allow(sysMunmap),
		Allow(sysMremap),
		AllowIf(sysMprotect, MaskedEq(2, protExec, 0)),
		Allow(sysFutex),
		Allow(sysClockGettime),
		Allow(sysRtSigprocmask),
		Allow(sysSigaltstack),
		Allow(sysGetpid),
		Allow(sysGettid),
		Allow(sysNanosleep),
		AllowIf(sysClose, Eq(0, uint64(inFD))),
		AllowIf(sysClose, Eq(0, uint64(outFD))),
		Allow(sysFstat),
		Allow(sysNewfstatat),
	}
}

// ForKind builds the confinement Profile for a worker kind, given the
// concrete fds it was handed at startup and the filesystem paths it
// needs (the auxiliary TAR/image path, when the kind has one).
func ForKind(kind wkind.Kind, inFD, outFD int, auxPaths []PathGrant) Profile {
	rules := baseSyscalls(inFD, outFD)

	switch kind {
	case wkind.FSReader, wkind.LocalSource:
		rules = append(rules,
			Allow(sysOpenat),
			Allow(sysRead),
			Allow(sysPread64),
			Allow(sysLseek),
			Allow(sysGetdents64),
			Allow(sysNewfstatat),
		)
	case wkind.FSWriter:
		rules = append(rules,
			Allow(sysOpenat),
			Allow(sysWrite),
			Allow(sysPwrite64),
			Allow(sysLseek),
			Allow(sysGetdents64),
			Allow(sysNewfstatat),
		)
	case wkind.BulkReader, wkind.BulkWriter:
		rules = append(rules,
			AllowIf(sysIoctl, Eq(1, blkGetSize64)),
			AllowIf(sysIoctl, Eq(1, blkSSZGet)),
			Allow(sysPread64),
			Allow(sysPwrite64),
			Allow(sysLseek),
		)
	case wkind.ArchiveWriter, wkind.ImageWriter:
		rules = append(rules,
			Allow(sysPwrite64),
			Allow(sysFtruncate),
			Allow(sysFsync),
		)
	case wkind.Uploader, wkind.Downloader:
		// connect's port is inside a sockaddr pointer seccomp-bpf
		// cannot dereference; port enforcement happens in Go before
		// dialing, against the allow-list in config.Network, see
		// network.go.
		rules = append(rules,
			Allow(sysConnect),
			Allow(sysSendto),
			Allow(sysRecvfrom),
			Allow(sysSetsockopt),
			Allow(sysGetsockopt),
		)
	case wkind.Identifier:
		// pure compute, no additions.
	case wkind.Devices:
		rules = append(rules, Allow(sysOpenat), Allow(sysRead), Allow(sysGetdents64))
	case wkind.Filter, wkind.JSONParser, wkind.Orchestrator:
		// pure compute over already-received messages, no additions.
	}

	return Profile{Kind: kind, Syscalls: rules, Paths: auxPaths}
}

// blkGetSize64 and blkSSZGet are the two block-device ioctl request
// codes the bulkreader/bulkwriter profile allows, from
// linux/fs.h/linux/hdreg.h via _IO/_IOR macros: BLKGETSIZE64 = 0x80081272,
// BLKSSZGET = 0x1268.
const (
	blkGetSize64 = 0x80081272
	blkSSZGet    = 0x1268
)
