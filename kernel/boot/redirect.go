package boot

import (
	"unsafe"

	"github.com/TegranGrigorian/Woodix/kernel/kfmt"
)

const (
	// maxRedirects is the capacity of the redirect table.
	maxRedirects = 16

	// redirectTableMagic tags the table so that tools/redirects can verify
	// that it found the right symbol. A non-zero initializer also keeps the
	// table in a file-backed data section.
	redirectTableMagic = 0x454c4241545244ab

	// jumpStubLen is the size of the code written at each redirect source:
	// MOVQ $dst, R12; JMP R12. R12 is neither an argument register nor
	// reserved by the Go internal ABI.
	jumpStubLen = 13
)

type redirect struct {
	src uintptr
	dst uintptr
}

// redirectTable is populated after linking by tools/redirects with the
// addresses of runtime functions (src) and the kernel functions that replace
// them (dst).
type redirectTable struct {
	magic   uint64
	count   uint64
	entries [maxRedirects]redirect
}

var (
	redirects = redirectTable{magic: redirectTableMagic}

	// Mocked by tests.
	writeJumpFn = writeJump

	// boundsFailFn is a redirect target that no Go code calls. Reading it
	// in installRedirects keeps it linked.
	boundsFailFn = kfmt.PanicBounds
)

// installRedirects overwrites the entry point of each redirected runtime
// function with a jump to its replacement. It runs before any Go code that
// may fault.
func installRedirects() {
	count := redirects.count
	if boundsFailFn == nil {
		return
	}
	if count > maxRedirects {
		count = maxRedirects
	}

	for i := uint64(0); i < count; i++ {
		if entry := redirects.entries[i]; entry.src != 0 && entry.dst != 0 {
			writeJumpFn(entry.src, entry.dst)
		}
	}
}

// writeJump assembles an absolute jump to dst at the code address src.
func writeJump(src, dst uintptr) {
	code := (*[jumpStubLen]byte)(unsafe.Pointer(src))

	// MOVQ $dst, R12
	code[0], code[1] = 0x49, 0xbc
	for i := 0; i < 8; i++ {
		code[2+i] = byte(dst >> (8 * uint(i)))
	}

	// JMP R12
	code[10], code[11], code[12] = 0x41, 0xff, 0xe4
}
