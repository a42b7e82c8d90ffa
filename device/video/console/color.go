package console

// Color is an index into the fixed 16-entry EGA text-mode palette.
type Color uint8

// The 16 colors supported by the text console.
const (
	Black Color = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGray
	DarkGray
	LightBlue
	LightGreen
	LightCyan
	LightRed
	Pink
	Yellow
	White
)

// PaletteSize is the number of colors in the text-mode palette.
const PaletteSize = 16

// ColorCode is a cell attribute byte: the background color in the high nibble
// and the foreground color in the low nibble.
type ColorCode uint8

// NewColorCode encodes the (fg, bg) pair into an attribute byte. Only the low
// 4 bits of each color are used.
func NewColorCode(fg, bg Color) ColorCode {
	return ColorCode((uint8(bg)&0xf)<<4 | uint8(fg)&0xf)
}

// Foreground returns the foreground color encoded in c.
func (c ColorCode) Foreground() Color {
	return Color(c & 0xf)
}

// Background returns the background color encoded in c.
func (c ColorCode) Background() Color {
	return Color(c >> 4)
}
