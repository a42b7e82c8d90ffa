// Package mem defines the units used to describe statically allocated memory
// regions such as the boot stack and the text-mode framebuffer.
package mem

// Size represents a memory block size in bytes.
type Size uint64

// Common memory block sizes.
const (
	Byte Size = 1
	Kb        = 1024 * Byte
)

// AlignUp rounds addr up to the next multiple of align. The align argument
// must be a power of 2.
func AlignUp(addr uintptr, align Size) uintptr {
	return (addr + uintptr(align) - 1) &^ (uintptr(align) - 1)
}

// AlignDown rounds addr down to a multiple of align. The align argument must
// be a power of 2.
func AlignDown(addr uintptr, align Size) uintptr {
	return addr &^ (uintptr(align) - 1)
}
