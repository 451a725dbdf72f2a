package confine

// Syscall numbers for linux/amd64, from the kernel's
// arch/x86/entry/syscalls/syscall_64.tbl. Hardcoded rather than taken
// from golang.org/x/sys/unix's SYS_* constants so that the profile
// tables in profiles.go build on every platform; only bpf_linux.go's
// assembler and confine_linux.go's installer are platform-gated.
const (
	sysRead          = 0
	sysWrite         = 1
	sysClose         = 3
	sysFstat         = 5
	sysMmap          = 9
	sysMprotect      = 10
	sysMunmap        = 11
	sysBrk           = 12
	sysRtSigprocmask = 14
	sysRtSigreturn   = 15
	sysIoctl         = 16
	sysPread64       = 17
	sysPwrite64      = 18
	sysLseek         = 8
	sysConnect       = 42
	sysSendto        = 44
	sysRecvfrom      = 45
	sysRecvmsg       = 47
	sysSetsockopt    = 54
	sysGetsockopt    = 55
	sysExitGroup     = 231
	sysFtruncate     = 77
	sysFsync         = 74
	sysGetdents64    = 217
	sysOpenat        = 257
	sysNewfstatat    = 262
	sysMremap        = 25
	sysFutex         = 202
	sysSigaltstack   = 131
	sysGetpid        = 39
	sysGettid        = 186
	sysNanosleep     = 35
	sysClockGettime  = 228
	sysExit          = 60
)

// PROT_EXEC from linux/mman-common.h, used to reject executable mmap
// and mprotect requests regardless of other flag bits.
const protExec = 0x4
