package kfmt

import (
	"github.com/TegranGrigorian/Woodix/device/debugcon"
	"github.com/TegranGrigorian/Woodix/device/tty"
	"github.com/TegranGrigorian/Woodix/device/video/console"
	"github.com/TegranGrigorian/Woodix/kernel"
	"github.com/TegranGrigorian/Woodix/kernel/cpu"
)

// PanicColors is the color code used for the panic screen.
const PanicColors = console.ColorCode(console.Red<<4 | console.White)

var (
	// idleFn is mocked by tests; the real implementation never returns.
	idleFn = cpu.Idle

	debugWriteFn = debugcon.WriteString

	// panicConsole is set up from scratch by Panic; the state of whichever
	// console was active before cannot be trusted.
	panicConsole tty.Writer

	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// Panic replaces the screen contents with a panic banner followed by the
// supplied cause (if not nil), reports the cause on the debug console and
// parks the CPU in an idle loop. Calls to Panic never return.
//
// The cause may be a *kernel.Error, an error or a string. Panic also replaces
// runtime.gopanic so calls to panic() end up here.
//
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {
	var err *kernel.Error

	switch t := e.(type) {
	case *kernel.Error:
		err = t
	case string:
		panicString(t)
		return
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	panicConsole.Init(console.Screen, PanicColors)
	panicConsole.WriteString("================================\n")
	panicConsole.WriteString("        KERNEL PANIC!\n")
	panicConsole.WriteString("================================\n\n")
	panicConsole.WriteString("The system has encountered a fatal error and cannot continue.\n")
	if err != nil {
		Fprintf(&panicConsole, "\n[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}

	debugWriteFn("KERNEL PANIC! System halted.\n")
	if err != nil {
		debugWriteFn("[")
		debugWriteFn(err.Module)
		debugWriteFn("] ")
		debugWriteFn(err.Message)
		debugWriteFn("\n")
	}

	idleFn()
}

// panicString replaces runtime.throw.
//
//go:redirect-from runtime.throw
func panicString(msg string) {
	errRuntimePanic.Message = msg
	Panic(errRuntimePanic)
}

// PanicBounds replaces the runtime's index and slice bounds failure paths.
// Those build a boxed error value before calling panic() which cannot work
// without an allocator. The offending index and length are not reported.
//
//go:redirect-from runtime.goPanicIndex
//go:redirect-from runtime.goPanicSliceAlen
//go:redirect-from runtime.goPanicSliceAcap
//go:redirect-from runtime.goPanicSliceB
func PanicBounds(x int, y int) {
	errRuntimePanic.Message = "index out of range"
	Panic(errRuntimePanic)
}
