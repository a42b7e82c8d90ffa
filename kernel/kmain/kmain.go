// Package kmain contains the kernel's main execution path.
package kmain

import (
	"io"

	"github.com/TegranGrigorian/Woodix/device/debugcon"
	"github.com/TegranGrigorian/Woodix/device/video/console"
	"github.com/TegranGrigorian/Woodix/kernel/cpu"
	"github.com/TegranGrigorian/Woodix/kernel/hal"
	"github.com/TegranGrigorian/Woodix/kernel/hal/multiboot"
	"github.com/TegranGrigorian/Woodix/kernel/kfmt"
)

// debug console stage numbers; 0-6 belong to the boot trampoline.
const (
	stageMain         = 5
	stageConsoleReady = 7
	stageIdle         = 8
)

const (
	splashMsg = "[WOODIX OS BOOTING]"
	splashRow = 12
	mainMsg   = "KERNEL MAIN"
	mainRow   = 5

	selfTestRows = 10
)

var (
	// Mocked by tests.
	idleFn      = cpu.Idle
	spinWaitFn  = cpu.SpinWait
	markStageFn = debugcon.MarkStage
	panicFn     = kfmt.Panic

	debugSink io.Writer = debugcon.Writer{}

	logWriter = kfmt.PrefixWriter{Sink: logTee{}, Prefix: []byte("[kmain] ")}
)

// logTee copies kmain log output to the kfmt output sink, when one is
// attached, and to debugSink.
type logTee struct{}

func (logTee) Write(p []byte) (int, error) {
	if sink := kfmt.GetOutputSink(); sink != nil {
		sink.Write(p)
	}
	return debugSink.Write(p)
}

// Kmain is the kernel's main execution path. It is invoked by the boot
// trampoline with the values that the loader passed in EAX and EBX once a
// stack and a g0 are in place.
//
// Kmain is not expected to return. If it does, the trampoline halts the CPU.
//
//go:noinline
func Kmain(magic uint32, infoPtr uintptr) {
	cfg := &DefaultConfig

	if cfg.StageMarkers {
		markStageFn(stageMain, "kernel main reached")
	}

	if cfg.Splash {
		drawSplash(console.Screen, cfg.SpinIterations)
	}

	if magic == multiboot.BootloaderMagic {
		multiboot.SetInfoPtr(infoPtr)
	} else {
		multiboot.SetInfoPtr(0)
	}

	hal.InitConsole(cfg.Colors)
	if cfg.StageMarkers {
		markStageFn(stageConsoleReady, "console ready")
	}

	// The loader never checks the copy of the header that ended up in
	// memory; a mismatch means the image is corrupt.
	if _, err := multiboot.ParseHeader(multiboot.HeaderBytes()); err != nil {
		panicFn(err)
		return
	}

	logBootInfo(magic, infoPtr)

	if cfg.SelfTest {
		printTestRows()
	}

	if cfg.StageMarkers {
		markStageFn(stageIdle, "idle")
	}
	idleFn()
}

// drawSplash paints the boot splash screens straight onto grid, keeping each
// one visible for spin PAUSE iterations.
func drawSplash(grid console.Grid, spin uint64) {
	grid.Fill(console.Blank(console.NewColorCode(console.LightGray, console.Black)))

	border := console.MakeCell('*', console.NewColorCode(console.White, console.Red))
	for col := uint32(0); col < console.Width; col++ {
		grid.Write(0, col, border)
		grid.Write(console.Height-1, col, border)
	}
	for row := uint32(0); row < console.Height; row++ {
		grid.Write(row, 0, border)
		grid.Write(row, console.Width-1, border)
	}

	grid.WriteString(splashRow, centerCol(splashMsg), splashMsg, console.NewColorCode(console.White, console.Green))
	spinWaitFn(spin)

	grid.WriteString(mainRow, centerCol(mainMsg), mainMsg, console.NewColorCode(console.White, console.Magenta))
	spinWaitFn(spin)
}

func centerCol(s string) uint32 {
	return console.Width/2 - uint32(len(s))/2
}

// logBootInfo describes the embedded boot header and whatever the loader
// reported about the framebuffer and the memory layout.
func logBootInfo(magic uint32, infoPtr uintptr) {
	kfmt.Fprintf(&logWriter, "boot header: magic 0x%x, arch %d, length %d, checksum 0x%x\n",
		multiboot.Header[0], multiboot.Header[1], multiboot.Header[2], multiboot.Header[3],
	)

	if magic != multiboot.BootloaderMagic {
		kfmt.Fprintf(&logWriter, "unknown loader magic 0x%x; no boot info\n", magic)
		return
	}

	kfmt.Fprintf(&logWriter, "boot info at 0x%x\n", infoPtr)

	fbInfo := multiboot.GetFramebufferInfo()
	switch {
	case fbInfo == nil:
		kfmt.Fprintf(&logWriter, "warning: loader reported no framebuffer\n")
	case fbInfo.Type != multiboot.FramebufferTypeEGA || fbInfo.Width != console.Width || fbInfo.Height != console.Height:
		kfmt.Fprintf(&logWriter, "warning: framebuffer is %dx%d (type %d); expected %dx%d text\n",
			fbInfo.Width, fbInfo.Height, uint8(fbInfo.Type), console.Width, console.Height,
		)
	default:
		kfmt.Fprintf(&logWriter, "framebuffer: text %dx%d at 0x%x\n", fbInfo.Width, fbInfo.Height, fbInfo.PhysAddr)
	}

	multiboot.VisitMemRegions(logMemRegion)
}

func logMemRegion(entry *multiboot.MemoryMapEntry) bool {
	kfmt.Fprintf(&logWriter, "memory: 0x%10x - 0x%10x (%s)\n",
		entry.PhysAddress, entry.PhysAddress+entry.Length, entry.Type.String(),
	)
	return true
}

// printTestRows writes a block of rows to the active console, each indented
// by its own index.
func printTestRows() {
	w := hal.ActiveConsole()
	for row := 0; row < selfTestRows; row++ {
		for i := 0; i < row; i++ {
			w.WriteByte(' ')
		}
		kfmt.Printf("Row %d: WOODIX OS TEST LINE\n", row)
	}
}
