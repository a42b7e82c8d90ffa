package console

// Cell is the 16-bit unit stored in the text framebuffer: the attribute byte
// in the high half and the character byte in the low half.
type Cell uint16

// MakeCell combines a character and a color code into a Cell.
func MakeCell(ch byte, color ColorCode) Cell {
	return Cell(uint16(color)<<8 | uint16(ch))
}

// Char returns the character byte of the cell.
func (c Cell) Char() byte {
	return byte(c)
}

// ColorCode returns the attribute byte of the cell.
func (c Cell) ColorCode() ColorCode {
	return ColorCode(c >> 8)
}

// Blank returns a space cell using the supplied color code.
func Blank(color ColorCode) Cell {
	return MakeCell(' ', color)
}
