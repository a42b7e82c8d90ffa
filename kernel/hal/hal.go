// Package hal owns the kernel's active text console.
package hal

import (
	"github.com/TegranGrigorian/Woodix/device/tty"
	"github.com/TegranGrigorian/Woodix/device/video/console"
	"github.com/TegranGrigorian/Woodix/kernel/kfmt"
)

var (
	// activeConsole is the single console writer of the kernel.
	activeConsole tty.Writer
)

// InitConsole attaches the active console writer to console.Screen, clears it
// using color and links it to kfmt so that buffered and subsequent Printf
// output becomes visible.
//
// The console always lives at console.Screen, the same grid that the panic
// screen draws on. The framebuffer address reported by the loader is only
// logged.
func InitConsole(color console.ColorCode) {
	activeConsole.Init(console.Screen, color)
	kfmt.SetOutputSink(&activeConsole)
}

// ActiveConsole returns the console writer set up by InitConsole.
func ActiveConsole() *tty.Writer {
	return &activeConsole
}
