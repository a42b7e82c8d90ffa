// Package multiboot describes the kernel image to a Multiboot2-compliant
// loader and decodes the boot information that the loader hands back.
package multiboot

import (
	"encoding/binary"
	"unsafe"

	"github.com/TegranGrigorian/Woodix/kernel"
)

const (
	// HeaderMagic identifies the boot header inside the kernel image.
	HeaderMagic = 0xe85250d6

	// HeaderArch selects the i386 protected mode entry.
	HeaderArch = 0

	// HeaderLength is the size of Header in bytes, tags included.
	HeaderLength = 80

	// HeaderChecksum makes magic + arch + length + checksum wrap to zero.
	HeaderChecksum = 1<<32 - (HeaderMagic + HeaderArch + HeaderLength)

	// HeaderSearchLimit is the number of leading image bytes that a loader
	// scans for the boot header.
	HeaderSearchLimit = 32768

	// HeaderAlign is the required alignment of the header and of each of
	// its tags.
	HeaderAlign = 8

	headerFixedLen = 16
	tagHeaderLen   = 8
)

// HeaderTagType identifies a boot header tag.
type HeaderTagType uint16

// The header tags that the kernel emits.
const (
	HeaderTagEnd         HeaderTagType = 0
	HeaderTagInfoRequest HeaderTagType = 1
	HeaderTagFramebuffer HeaderTagType = 5
	HeaderTagModuleAlign HeaderTagType = 6
)

// String returns the name of the header tag type.
func (t HeaderTagType) String() string {
	switch t {
	case HeaderTagEnd:
		return "end"
	case HeaderTagInfoRequest:
		return "information request"
	case 2:
		return "address"
	case 3:
		return "entry address"
	case 4:
		return "console flags"
	case HeaderTagFramebuffer:
		return "framebuffer"
	case HeaderTagModuleAlign:
		return "module alignment"
	case 7:
		return "EFI boot services"
	case 8:
		return "EFI i386 entry address"
	case 9:
		return "EFI amd64 entry address"
	case 10:
		return "relocatable"
	default:
		return "unknown"
	}
}

// Header is the boot header embedded in the kernel image. Each tag header is
// encoded as a u16 type and u16 flags packed into one little-endian word,
// followed by a u32 size.
var Header = [HeaderLength / 4]uint32{
	HeaderMagic,
	HeaderArch,
	HeaderLength,
	HeaderChecksum,

	// framebuffer: 80x25 text, depth 0; padded to 24 bytes
	uint32(HeaderTagFramebuffer), 20,
	80, 25, 0,
	0,

	// module alignment
	uint32(HeaderTagModuleAlign), 8,

	// information request: cmdline, modules, memory map, APM table
	uint32(HeaderTagInfoRequest), 24,
	1, 3, 6, 10,

	// end
	uint32(HeaderTagEnd), 8,
}

var (
	errHeaderNotFound = &kernel.Error{Module: "multiboot", Message: "boot header not found"}
	errHeaderTooShort = &kernel.Error{Module: "multiboot", Message: "boot header is truncated"}
	errBadMagic       = &kernel.Error{Module: "multiboot", Message: "bad boot header magic"}
	errBadChecksum    = &kernel.Error{Module: "multiboot", Message: "bad boot header checksum"}
	errBadArch        = &kernel.Error{Module: "multiboot", Message: "unsupported boot header architecture"}
	errBadLength      = &kernel.Error{Module: "multiboot", Message: "boot header length out of range"}
	errBadTagSize     = &kernel.Error{Module: "multiboot", Message: "boot header tag size out of range"}
	errMissingEndTag  = &kernel.Error{Module: "multiboot", Message: "boot header tag list is not terminated"}
)

// HeaderInfo holds the fixed fields of a boot header.
type HeaderInfo struct {
	Magic    uint32
	Arch     uint32
	Length   uint32
	Checksum uint32
}

// HeaderTag describes a single boot header tag. Payload excludes the tag
// header and any trailing padding.
type HeaderTag struct {
	Type    HeaderTagType
	Flags   uint16
	Size    uint32
	Payload []byte
}

// Optional reports whether a loader may ignore the tag if unsupported.
func (t *HeaderTag) Optional() bool {
	return t.Flags&1 != 0
}

// HeaderTagVisitor is invoked by VisitHeaderTags for each tag other than the
// end tag. It returns false to stop the scan.
type HeaderTagVisitor func(tag *HeaderTag) bool

// Checksum returns the value that makes magic, arch, length and the checksum
// sum to zero modulo 2^32.
func Checksum(magic, arch, length uint32) uint32 {
	return -(magic + arch + length)
}

// ChecksumValid reports whether the four fixed header fields sum to zero
// modulo 2^32.
func ChecksumValid(magic, arch, length, checksum uint32) bool {
	return magic+arch+length+checksum == 0
}

// HeaderBytes returns the in-memory encoding of Header.
func HeaderBytes() []byte {
	return (*[HeaderLength]byte)(unsafe.Pointer(&Header))[:]
}

// FindHeader scans the leading HeaderSearchLimit bytes of image on
// HeaderAlign boundaries and returns the offset of the first well-formed boot
// header. If a candidate with a matching magic is found but fails validation,
// the validation error of the first such candidate is returned.
func FindHeader(image []byte) (int, *kernel.Error) {
	limit := len(image)
	if limit > HeaderSearchLimit {
		limit = HeaderSearchLimit
	}

	var firstErr *kernel.Error
	for off := 0; off+headerFixedLen <= limit; off += HeaderAlign {
		if binary.LittleEndian.Uint32(image[off:]) != HeaderMagic {
			continue
		}

		if _, err := ParseHeader(image[off:]); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		return off, nil
	}

	if firstErr != nil {
		return -1, firstErr
	}
	return -1, errHeaderNotFound
}

// ParseHeader decodes and validates the boot header at the start of data: the
// magic, the checksum, the architecture and the tag list that must end with
// an 8-byte end tag within the declared length.
func ParseHeader(data []byte) (HeaderInfo, *kernel.Error) {
	var info HeaderInfo
	if len(data) < headerFixedLen {
		return info, errHeaderTooShort
	}

	info.Magic = binary.LittleEndian.Uint32(data[0:])
	info.Arch = binary.LittleEndian.Uint32(data[4:])
	info.Length = binary.LittleEndian.Uint32(data[8:])
	info.Checksum = binary.LittleEndian.Uint32(data[12:])

	switch {
	case info.Magic != HeaderMagic:
		return info, errBadMagic
	case !ChecksumValid(info.Magic, info.Arch, info.Length, info.Checksum):
		return info, errBadChecksum
	case info.Arch != 0 && info.Arch != 4:
		return info, errBadArch
	}

	if err := VisitHeaderTags(data, nil); err != nil {
		return info, err
	}

	return info, nil
}

// VisitHeaderTags walks the tags of the boot header at the start of data and
// invokes visitor (if not nil) for each tag before the end tag.
func VisitHeaderTags(data []byte, visitor HeaderTagVisitor) *kernel.Error {
	if len(data) < headerFixedLen {
		return errHeaderTooShort
	}

	length := binary.LittleEndian.Uint32(data[8:])
	if length < headerFixedLen+tagHeaderLen || uint64(length) > uint64(len(data)) {
		return errBadLength
	}

	var tag HeaderTag
	for off := uint32(headerFixedLen); ; off += alignTag(tag.Size) {
		if off+tagHeaderLen > length {
			return errMissingEndTag
		}

		tag.Type = HeaderTagType(binary.LittleEndian.Uint16(data[off:]))
		tag.Flags = binary.LittleEndian.Uint16(data[off+2:])
		tag.Size = binary.LittleEndian.Uint32(data[off+4:])

		if tag.Size < tagHeaderLen || uint64(off)+uint64(tag.Size) > uint64(length) {
			return errBadTagSize
		}

		if tag.Type == HeaderTagEnd {
			if tag.Flags != 0 || tag.Size != tagHeaderLen {
				return errBadTagSize
			}
			return nil
		}

		tag.Payload = data[off+tagHeaderLen : off+tag.Size]
		if visitor != nil && !visitor(&tag) {
			return nil
		}
	}
}

// alignTag rounds a tag size up to the next HeaderAlign boundary.
func alignTag(size uint32) uint32 {
	return (size + HeaderAlign - 1) &^ (HeaderAlign - 1)
}
