// Package boot contains the kernel entry point that a Multiboot2 loader
// transfers control to.
package boot

import (
	"github.com/TegranGrigorian/Woodix/device/debugcon"
	"github.com/TegranGrigorian/Woodix/kernel/kmain"
)

var (
	// Mocked by tests.
	kmainFn     = kmain.Kmain
	markStageFn = debugcon.MarkStage
)

// Entry is the kernel entry point. The loader jumps to it in 64-bit mode
// with the boot magic in EAX and the boot information address in EBX.
//
// Entry installs a boot stack and a minimal g0 and then calls the kernel
// main path. It never returns: if the main path does, the CPU is halted.
func Entry()

// enterMain is called by Entry once Go code can run. rt0 can only afford a
// marker for the liveness stage; the stages that followed it are reported
// here.
//
//go:noinline
func enterMain() {
	installRedirects()

	for _, step := range Sequence {
		if step.Stage == StageLiveness {
			continue
		}
		if step.Stage >= StageMain || step.Stage > CurrentStage() {
			break
		}
		markStageFn(uint8(step.Stage), step.Post)
	}

	handoff := Handoff()
	kmainFn(handoff.Magic, handoff.InfoPtr)

	markStageFn(uint8(StageHalted), Sequence[len(Sequence)-1].Post)
}
