package multiboot

import (
	"unsafe"

	"github.com/TegranGrigorian/Woodix/kernel/mem"
)

// BootloaderMagic is the value that a Multiboot2-compliant loader stores in
// EAX before jumping to the kernel entry point.
const BootloaderMagic = uint32(0x36d76289)

// infoTag identifies an entry of the boot information block.
type infoTag uint32

const (
	infoTagEnd         infoTag = 0
	infoTagCmdLine     infoTag = 1
	infoTagLoaderName  infoTag = 2
	infoTagModule      infoTag = 3
	infoTagBasicMemory infoTag = 4
	infoTagBootDevice  infoTag = 5
	infoTagMemoryMap   infoTag = 6
	infoTagVBE         infoTag = 7
	infoTagFramebuffer infoTag = 8
)

const (
	// infoFixedLen covers the total_size and reserved words that open the
	// boot information block.
	infoFixedLen = 8

	// infoTagHeaderLen covers the type and size words of each tag.
	infoTagHeaderLen = 8

	// infoTagAlign is the alignment of each tag inside the block.
	infoTagAlign mem.Size = 8

	// memMapHeaderLen covers the entry_size and entry_version words of the
	// memory map tag.
	memMapHeaderLen = 8

	// memMapEntryLen is the smallest memory map entry that holds an
	// address, a length and a type.
	memMapEntryLen = 24
)

// FramebufferType defines the type of the initialized framebuffer.
type FramebufferType uint8

const (
	// FramebufferTypeIndexed specifies a 256-color palette.
	FramebufferTypeIndexed FramebufferType = iota

	// FramebufferTypeRGB specifies direct RGB mode.
	FramebufferTypeRGB

	// FramebufferTypeEGA specifies EGA text mode.
	FramebufferTypeEGA
)

// FramebufferInfo mirrors the fixed part of the framebuffer tag. Width and
// Height count characters when Type is FramebufferTypeEGA.
type FramebufferInfo struct {
	PhysAddr      uint64
	Pitch         uint32
	Width, Height uint32
	Bpp           uint8
	Type          FramebufferType

	reserved uint16
}

// MemoryEntryType defines the type of a MemoryMapEntry.
type MemoryEntryType uint32

const (
	// MemAvailable marks RAM that the kernel may use.
	MemAvailable MemoryEntryType = iota + 1

	// MemReserved marks a region that must be left alone.
	MemReserved

	// MemAcpiReclaimable marks ACPI tables that can be reused once parsed.
	MemAcpiReclaimable

	// MemNvs marks memory that must be preserved across hibernation.
	MemNvs

	// Types from memUnknown upwards are reported as MemReserved.
	memUnknown
)

// MemoryMapEntry describes a physical memory region.
type MemoryMapEntry struct {
	PhysAddress uint64
	Length      uint64
	Type        MemoryEntryType
}

// String returns a short description of the memory entry type.
func (t MemoryEntryType) String() string {
	switch t {
	case MemAvailable:
		return "available"
	case MemReserved:
		return "reserved"
	case MemAcpiReclaimable:
		return "ACPI (reclaimable)"
	case MemNvs:
		return "NVS"
	default:
		return "unknown"
	}
}

// MemRegionVisitor is invoked by VisitMemRegions for each memory region
// reported by the loader. It returns false to stop the scan. The entry is
// only valid until the visitor returns.
type MemRegionVisitor func(entry *MemoryMapEntry) bool

var (
	infoData uintptr

	// visitEntry holds a copy of the memory map entry handed to a
	// MemRegionVisitor so that the loader data is never modified.
	visitEntry MemoryMapEntry
)

// SetInfoPtr records the address of the boot information block received from
// the loader. A zero address marks the information as unavailable; all
// lookups then report missing tags.
func SetInfoPtr(ptr uintptr) {
	infoData = ptr
}

// VisitMemRegions invokes visitor for each memory region listed in the boot
// information. Entries with an unknown type are reported as MemReserved. A
// memory map whose entry size cannot hold an entry is ignored.
func VisitMemRegions(visitor MemRegionVisitor) {
	payload, size := findTag(infoTagMemoryMap)
	if size < memMapHeaderLen {
		return
	}

	entrySize := uintptr(readUint32(payload))
	if entrySize < memMapEntryLen {
		return
	}

	for off := uintptr(memMapHeaderLen); off+memMapEntryLen <= uintptr(size); off += entrySize {
		entry := payload + off
		visitEntry.PhysAddress = readUint64(entry)
		visitEntry.Length = readUint64(entry + 8)
		visitEntry.Type = MemoryEntryType(readUint32(entry + 16))

		if visitEntry.Type == 0 || visitEntry.Type >= memUnknown {
			visitEntry.Type = MemReserved
		}

		if !visitor(&visitEntry) {
			return
		}
	}
}

// GetFramebufferInfo returns the framebuffer description provided by the
// loader or nil if the boot information does not contain a complete one.
func GetFramebufferInfo() *FramebufferInfo {
	payload, size := findTag(infoTagFramebuffer)
	if uintptr(size) < unsafe.Sizeof(FramebufferInfo{}) {
		return nil
	}

	return (*FramebufferInfo)(unsafe.Pointer(payload))
}

// findTag walks the boot information block looking for the first tag of the
// wanted type and returns the address and length of its payload. The walk
// never leaves the first total_size bytes of the block and stops at the end
// tag or at the first tag whose size is out of range. A missing tag yields
// (0, 0).
func findTag(want infoTag) (uintptr, uint32) {
	if infoData == 0 {
		return 0, 0
	}

	total := uintptr(readUint32(infoData))
	for off := uintptr(infoFixedLen); off+infoTagHeaderLen <= total; {
		tag := infoTag(readUint32(infoData + off))
		size := uintptr(readUint32(infoData + off + 4))

		if tag == infoTagEnd || size < infoTagHeaderLen || size > total-off {
			break
		}

		if tag == want {
			return infoData + off + infoTagHeaderLen, uint32(size - infoTagHeaderLen)
		}

		off = mem.AlignUp(off+size, infoTagAlign)
	}

	return 0, 0
}

func readUint32(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr))
}

func readUint64(addr uintptr) uint64 {
	return *(*uint64)(unsafe.Pointer(addr))
}
