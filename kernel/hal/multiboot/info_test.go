package multiboot

import (
	"encoding/binary"
	"testing"
	"unsafe"
)

// infoBlob assembles a boot information block the way a loader lays it out:
// a fixed 8-byte header followed by 8-byte aligned tags and an end tag.
type infoBlob struct {
	buf []byte
}

func newInfoBlob() *infoBlob {
	return &infoBlob{buf: make([]byte, 8)}
}

func (b *infoBlob) tag(typ infoTag, payload []byte) *infoBlob {
	return b.rawTag(typ, uint32(8+len(payload)), payload)
}

// rawTag appends a tag whose size field is set to size regardless of the
// actual payload length.
func (b *infoBlob) rawTag(typ infoTag, size uint32, payload []byte) *infoBlob {
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(typ))
	binary.LittleEndian.PutUint32(hdr[4:], size)
	b.buf = append(b.buf, hdr[:]...)
	b.buf = append(b.buf, payload...)
	for len(b.buf)%8 != 0 {
		b.buf = append(b.buf, 0)
	}
	return b
}

func (b *infoBlob) bytes() []byte {
	b.tag(infoTagEnd, nil)
	return b.withTotalSize(uint32(len(b.buf)))
}

// withTotalSize returns the block with its total_size word set to total. No
// end tag is appended.
func (b *infoBlob) withTotalSize(total uint32) []byte {
	binary.LittleEndian.PutUint32(b.buf[0:], total)
	return b.buf
}

func memMapPayload(entries ...MemoryMapEntry) []byte {
	return memMapPayloadWithEntrySize(24, entries...)
}

func memMapPayloadWithEntrySize(entrySize uint32, entries ...MemoryMapEntry) []byte {
	out := make([]byte, 8, 8+24*len(entries))
	binary.LittleEndian.PutUint32(out[0:], entrySize)
	for _, e := range entries {
		var rec [24]byte
		binary.LittleEndian.PutUint64(rec[0:], e.PhysAddress)
		binary.LittleEndian.PutUint64(rec[8:], e.Length)
		binary.LittleEndian.PutUint32(rec[16:], uint32(e.Type))
		out = append(out, rec[:]...)
	}
	return out
}

func framebufferPayload(addr uint64, pitch, width, height uint32, bpp uint8, fbType FramebufferType) []byte {
	out := make([]byte, 24)
	binary.LittleEndian.PutUint64(out[0:], addr)
	binary.LittleEndian.PutUint32(out[8:], pitch)
	binary.LittleEndian.PutUint32(out[12:], width)
	binary.LittleEndian.PutUint32(out[16:], height)
	out[20] = bpp
	out[21] = uint8(fbType)
	return out
}

func testInfoData() []byte {
	return newInfoBlob().
		tag(infoTagCmdLine, []byte("\x00")).
		tag(infoTagLoaderName, []byte("GRUB 2.06\x00")).
		tag(infoTagBasicMemory, make([]byte, 8)).
		tag(infoTagMemoryMap, memMapPayload(
			MemoryMapEntry{0, 654336, MemoryEntryType(0xff)},
			MemoryMapEntry{654336, 1024, MemReserved},
			MemoryMapEntry{1048576, 133038080, MemAvailable},
			MemoryMapEntry{134086656, 131072, MemAcpiReclaimable},
			MemoryMapEntry{4294705152, 262144, 0},
		)).
		tag(infoTagFramebuffer, framebufferPayload(0xb8000, 160, 80, 25, 16, FramebufferTypeEGA)).
		bytes()
}

func TestFindTag(t *testing.T) {
	defer SetInfoPtr(0)

	data := testInfoData()
	SetInfoPtr(uintptr(unsafe.Pointer(&data[0])))

	specs := []struct {
		tagType infoTag
		expSize uint32
	}{
		{infoTagCmdLine, 1},
		{infoTagLoaderName, 10},
		{infoTagBasicMemory, 8},
		{infoTagMemoryMap, 8 + 5*24},
		{infoTagFramebuffer, 24},
		{infoTagModule, 0},
		{infoTagVBE, 0},
	}

	for specIndex, spec := range specs {
		if _, size := findTag(spec.tagType); size != spec.expSize {
			t.Errorf("[spec %d] expected tag size for tag type %d to be %d; got %d", specIndex, spec.tagType, spec.expSize, size)
		}
	}
}

func TestFindTagWithoutInfo(t *testing.T) {
	SetInfoPtr(0)

	if ptr, size := findTag(infoTagMemoryMap); ptr != 0 || size != 0 {
		t.Fatalf("expected findTag to return (0, 0) without boot info; got (%d, %d)", ptr, size)
	}
}

func TestFindTagMalformed(t *testing.T) {
	defer SetInfoPtr(0)

	memMap := memMapPayload(MemoryMapEntry{0x100000, 0x1000, MemAvailable})

	withoutEndTag := func(b *infoBlob) []byte {
		return b.withTotalSize(uint32(len(b.buf)))
	}

	specs := []struct {
		desc     string
		data     []byte
		expFound bool
	}{
		{
			"zero sized tag",
			newInfoBlob().rawTag(infoTagCmdLine, 0, nil).tag(infoTagMemoryMap, memMap).bytes(),
			false,
		},
		{
			"tag smaller than its header",
			newInfoBlob().rawTag(infoTagCmdLine, 4, nil).tag(infoTagMemoryMap, memMap).bytes(),
			false,
		},
		{
			"wanted tag smaller than its header",
			newInfoBlob().rawTag(infoTagMemoryMap, 7, nil).bytes(),
			false,
		},
		{
			"tag larger than the block",
			newInfoBlob().rawTag(infoTagMemoryMap, 4096, memMap).bytes(),
			false,
		},
		{
			"tags beyond total_size",
			newInfoBlob().tag(infoTagCmdLine, []byte("\x00")).tag(infoTagMemoryMap, memMap).withTotalSize(16),
			false,
		},
		{
			"zero total_size",
			newInfoBlob().tag(infoTagMemoryMap, memMap).withTotalSize(0),
			false,
		},
		{
			"missing end tag",
			withoutEndTag(newInfoBlob().tag(infoTagCmdLine, []byte("\x00"))),
			false,
		},
		{
			"missing end tag after the wanted tag",
			withoutEndTag(newInfoBlob().tag(infoTagMemoryMap, memMap)),
			true,
		},
	}

	for specIndex, spec := range specs {
		SetInfoPtr(uintptr(unsafe.Pointer(&spec.data[0])))

		ptr, size := findTag(infoTagMemoryMap)
		if found := ptr != 0; found != spec.expFound {
			t.Errorf("[spec %d] %s: expected found to be %t; got %t", specIndex, spec.desc, spec.expFound, found)
			continue
		}

		if spec.expFound && size != uint32(len(memMap)) {
			t.Errorf("[spec %d] %s: expected payload size %d; got %d", specIndex, spec.desc, len(memMap), size)
		}
		if !spec.expFound && size != 0 {
			t.Errorf("[spec %d] %s: expected payload size 0; got %d", specIndex, spec.desc, size)
		}
	}
}

func TestVisitMemRegions(t *testing.T) {
	defer SetInfoPtr(0)

	specs := []struct {
		expPhys uint64
		expLen  uint64
		expType MemoryEntryType
	}{
		// unknown and zero types are reported as reserved
		{0, 654336, MemReserved},
		{654336, 1024, MemReserved},
		{1048576, 133038080, MemAvailable},
		{134086656, 131072, MemAcpiReclaimable},
		{4294705152, 262144, MemReserved},
	}

	var visitCount int

	empty := newInfoBlob().bytes()
	SetInfoPtr(uintptr(unsafe.Pointer(&empty[0])))
	VisitMemRegions(func(_ *MemoryMapEntry) bool {
		visitCount++
		return true
	})

	if visitCount != 0 {
		t.Fatal("expected visitor not to be invoked when no memory map tag is present")
	}

	data := testInfoData()
	SetInfoPtr(uintptr(unsafe.Pointer(&data[0])))
	VisitMemRegions(func(entry *MemoryMapEntry) bool {
		if visitCount >= len(specs) {
			t.Fatalf("unexpected visit %d", visitCount)
		}
		spec := specs[visitCount]
		if entry.PhysAddress != spec.expPhys {
			t.Errorf("[visit %d] expected physical address to be %x; got %x", visitCount, spec.expPhys, entry.PhysAddress)
		}
		if entry.Length != spec.expLen {
			t.Errorf("[visit %d] expected region len to be %x; got %x", visitCount, spec.expLen, entry.Length)
		}
		if entry.Type != spec.expType {
			t.Errorf("[visit %d] expected region type to be %s; got %s", visitCount, spec.expType, entry.Type)
		}
		visitCount++
		return true
	})

	if visitCount != len(specs) {
		t.Errorf("expected the visitor func to be invoked %d times; got %d", len(specs), visitCount)
	}

	// Returning false stops the scan.
	visitCount = 0
	VisitMemRegions(func(_ *MemoryMapEntry) bool {
		visitCount++
		return visitCount < 2
	})
	if visitCount != 2 {
		t.Errorf("expected the scan to stop after 2 visits; got %d", visitCount)
	}
}

func TestVisitMemRegionsMalformed(t *testing.T) {
	defer SetInfoPtr(0)

	entries := []MemoryMapEntry{
		{0, 0x9fc00, MemAvailable},
		{0x100000, 0x7ee0000, MemAvailable},
	}

	specs := []struct {
		desc      string
		payload   []byte
		expVisits int
	}{
		{"zero entry size", memMapPayloadWithEntrySize(0, entries...), 0},
		{"entry size below an entry", memMapPayloadWithEntrySize(8, entries...), 0},
		{"truncated map header", []byte{24, 0, 0, 0}, 0},
		{"trailing partial entry", append(memMapPayload(entries...), make([]byte, 16)...), 2},
	}

	for specIndex, spec := range specs {
		data := newInfoBlob().tag(infoTagMemoryMap, spec.payload).bytes()
		SetInfoPtr(uintptr(unsafe.Pointer(&data[0])))

		var visits int
		VisitMemRegions(func(_ *MemoryMapEntry) bool {
			visits++
			return visits <= len(entries)
		})

		if visits != spec.expVisits {
			t.Errorf("[spec %d] %s: expected %d visits; got %d", specIndex, spec.desc, spec.expVisits, visits)
		}
	}
}

func TestVisitMemRegionsKeepsLoaderData(t *testing.T) {
	defer SetInfoPtr(0)

	data := testInfoData()
	SetInfoPtr(uintptr(unsafe.Pointer(&data[0])))

	VisitMemRegions(func(entry *MemoryMapEntry) bool {
		entry.Length = 0
		return true
	})

	payload, _ := findTag(infoTagMemoryMap)
	if got := readUint32(payload + memMapHeaderLen + 16); got != 0xff {
		t.Errorf("expected the first entry type to stay 0xff; got 0x%x", got)
	}
	if got := readUint64(payload + memMapHeaderLen + 8); got != 654336 {
		t.Errorf("expected the first entry length to stay 654336; got %d", got)
	}
}

func TestGetFramebufferInfo(t *testing.T) {
	defer SetInfoPtr(0)

	empty := newInfoBlob().bytes()
	SetInfoPtr(uintptr(unsafe.Pointer(&empty[0])))
	if GetFramebufferInfo() != nil {
		t.Fatal("expected GetFramebufferInfo() to return nil when no framebuffer tag is present")
	}

	truncated := newInfoBlob().tag(infoTagFramebuffer, make([]byte, 16)).bytes()
	SetInfoPtr(uintptr(unsafe.Pointer(&truncated[0])))
	if GetFramebufferInfo() != nil {
		t.Fatal("expected GetFramebufferInfo() to return nil for a truncated framebuffer tag")
	}

	data := testInfoData()
	SetInfoPtr(uintptr(unsafe.Pointer(&data[0])))
	fbInfo := GetFramebufferInfo()
	if fbInfo == nil {
		t.Fatal("expected GetFramebufferInfo() to return the framebuffer tag")
	}

	if fbInfo.Type != FramebufferTypeEGA {
		t.Errorf("expected framebuffer type to be %d; got %d", FramebufferTypeEGA, fbInfo.Type)
	}

	if fbInfo.PhysAddr != 0xb8000 {
		t.Errorf("expected physical address for EGA text mode to be 0xb8000; got %x", fbInfo.PhysAddr)
	}

	if fbInfo.Width != 80 || fbInfo.Height != 25 {
		t.Errorf("expected framebuffer dimensions to be 80x25; got %dx%d", fbInfo.Width, fbInfo.Height)
	}

	if fbInfo.Pitch != 160 || fbInfo.Bpp != 16 {
		t.Errorf("expected pitch 160 and bpp 16; got %d and %d", fbInfo.Pitch, fbInfo.Bpp)
	}
}

func TestMemoryEntryTypeString(t *testing.T) {
	specs := []struct {
		entryType MemoryEntryType
		exp       string
	}{
		{MemAvailable, "available"},
		{MemReserved, "reserved"},
		{MemAcpiReclaimable, "ACPI (reclaimable)"},
		{MemNvs, "NVS"},
		{memUnknown, "unknown"},
	}

	for specIndex, spec := range specs {
		if got := spec.entryType.String(); got != spec.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}
