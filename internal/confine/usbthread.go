package confine

// USB ioctl request codes from linux/usbdevice_fs.h (_IOR/_IOWR
// encodings), named by spec.md §5 as the exact set a libusb-backed
// auxiliary I/O thread is allowed to issue.
const (
	usbdevfsSubmitURB        = 0x8038550a
	usbdevfsReapURBNDelay    = 0x4008550d
	usbdevfsReleaseInterface = 0x80045510
	usbdevfsDiscardURB       = 0x0000550b
	usbdevfsGetCapabilities  = 0x8004551a
	usbdevfsDisconnectClaim  = 0x8108551b
	usbdevfsReset            = 0x00005514
)

// USBThreadProfile builds the stricter sub-profile spec.md §5 requires
// for the auxiliary thread a bulkreader/bulkwriter worker spawns when
// its transport is a user-space USB library rather than the
// sparse-image block-device path: only the URB-lifecycle ioctls, plus
// read/write/close/recvmsg on the device fd, no channel pipe access at
// all (the auxiliary thread never touches the worker's protocol
// channel directly).
func USBThreadProfile(deviceFD int) Profile {
	urb := func(req int) SyscallRule {
		return AllowIf(sysIoctl, Eq(0, uint64(deviceFD)), Eq(1, uint64(req)))
	}
	return Profile{
		Syscalls: []SyscallRule{
			urb(usbdevfsSubmitURB),
			urb(usbdevfsReapURBNDelay),
			urb(usbdevfsReleaseInterface),
			urb(usbdevfsDiscardURB),
			urb(usbdevfsGetCapabilities),
			urb(usbdevfsDisconnectClaim),
			urb(usbdevfsReset),
			AllowIf(sysRead, Eq(0, uint64(deviceFD))),
			AllowIf(sysWrite, Eq(0, uint64(deviceFD))),
			AllowIf(sysClose, Eq(0, uint64(deviceFD))),
			Allow(sysRecvmsg),
			Allow(sysExit),
			Allow(sysExitGroup),
		},
	}
}
