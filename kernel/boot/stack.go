package boot

import (
	"unsafe"

	"github.com/TegranGrigorian/Woodix/kernel/mem"
)

const (
	// StackSize is the size of the boot stack.
	StackSize = 16 * mem.Kb

	// StackAlign is the alignment of the boot stack top as required by the
	// amd64 calling convention.
	StackAlign = 16

	// stackGuard is the distance from the stack bottom at which Go function
	// prologues start reporting a stack overflow.
	stackGuard = 1024
)

var (
	// stack backs the boot stack. It carries StackAlign extra bytes so that
	// an aligned StackSize region always fits. rt0 computes the same top as
	// StackRegion.
	stack [StackSize + StackAlign]byte

	// g0 is the goroutine descriptor installed by rt0. Only the stack bounds
	// and the stack guards are populated; the rest stays zeroed.
	g0 [64]uintptr

	// tls[0] holds &g0. The FS base points right past it so that -8(FS)
	// yields the current g as the compiler expects.
	tls [2]uintptr

	// values passed by the loader in EAX and EBX.
	loaderMagic uint32
	loaderInfo  uintptr
)

// StackRegion returns the bounds of the boot stack. The stack grows down from
// top; base is the lowest usable address. top is computed exactly like rt0
// does it.
func StackRegion() (base, top uintptr) {
	top = mem.AlignDown(uintptr(unsafe.Pointer(&stack[0]))+uintptr(StackSize)+StackAlign-1, StackAlign)
	return top - uintptr(StackSize), top
}

// HandoffInfo holds the values that the loader passed to Entry.
type HandoffInfo struct {
	// Magic is the loader's boot magic (EAX).
	Magic uint32

	// InfoPtr is the physical address of the boot information (EBX).
	InfoPtr uintptr
}

// Handoff returns the values that the loader passed to Entry.
func Handoff() HandoffInfo {
	return HandoffInfo{Magic: loaderMagic, InfoPtr: loaderInfo}
}
