package kmain

import "github.com/TegranGrigorian/Woodix/device/video/console"

// Config controls the behavior of Kmain.
type Config struct {
	// Colors is the color code of the kernel console.
	Colors console.ColorCode

	// Splash enables the boot splash screens that precede the console.
	Splash bool

	// SelfTest prints a block of indented test rows once the console is up.
	SelfTest bool

	// SpinIterations is the number of PAUSE iterations each splash screen
	// stays visible for.
	SpinIterations uint64

	// StageMarkers enables progress markers on the debug console.
	StageMarkers bool
}

// DefaultConfig is the configuration used by Kmain. It is a plain static
// value since nothing can be read from the outside world this early.
var DefaultConfig = Config{
	Colors:         console.ColorCode(console.Blue<<4 | console.Yellow),
	Splash:         true,
	SelfTest:       true,
	SpinIterations: 10000000,
	StageMarkers:   true,
}
