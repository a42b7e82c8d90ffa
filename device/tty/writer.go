// Package tty implements the text console writer that sits on top of the
// text-mode framebuffer.
package tty

import "github.com/TegranGrigorian/Woodix/device/video/console"

const (
	// TabWidth is the number of spaces that a tab expands to.
	TabWidth = 4

	// Placeholder is the glyph that replaces bytes which cannot be displayed.
	Placeholder = byte(0xfe)
)

// Writer is a cursor-tracking console writer. It interprets the following
// special characters:
//   - \r (carriage-return)
//   - \n (line-feed; also resets the column)
//   - \b (backspace; erases the previous cell, or the last cell of a
//     row that has just been filled)
//   - \t (tab; expanded to TabWidth spaces)
//
// A Writer owns the grid it is attached to; there must be at most one live
// Writer per grid. No locking takes place. Writers are meant to be declared as
// package-level variables and set up with Init since no allocator is
// available during boot.
type Writer struct {
	grid  console.Grid
	color console.ColorCode

	row uint32
	col uint32

	// wrapPending is set once the last column of a row has been written.
	// The cursor stays on that column until the next printable byte
	// arrives.
	wrapPending bool
}

// Init attaches the writer to grid, sets its active color code and clears the
// whole grid. The cursor is reset to (0, 0).
func (w *Writer) Init(grid console.Grid, color console.ColorCode) {
	w.grid = grid
	w.color = color
	w.ClearScreen()
}

// ClearScreen fills every cell with a blank using the active color code and
// resets the cursor to (0, 0).
func (w *Writer) ClearScreen() {
	w.grid.Fill(console.Blank(w.color))
	w.row, w.col, w.wrapPending = 0, 0, false
}

// Position returns the current cursor row and column (both 0-based).
func (w *Writer) Position() (row, col uint32) {
	return w.row, w.col
}

// ColorCode returns the active color code.
func (w *Writer) ColorCode() console.ColorCode {
	return w.color
}

// SetColorCode changes the color code used by subsequent writes. Cells that
// are already on screen keep their colors.
func (w *Writer) SetColorCode(color console.ColorCode) {
	w.color = color
}

// WriteByte implements io.ByteWriter. The byte is written as-is, without
// placeholder substitution. It never returns an error.
func (w *Writer) WriteByte(b byte) error {
	switch b {
	case '\n':
		w.newLine()
	case '\r':
		w.col, w.wrapPending = 0, false
	case '\t':
		for i := 0; i < TabWidth; i++ {
			w.put(' ')
		}
	case '\b':
		switch {
		case w.wrapPending:
			w.wrapPending = false
			w.grid.Write(w.row, w.col, console.Blank(w.color))
		case w.col > 0:
			w.col--
			w.grid.Write(w.row, w.col, console.Blank(w.color))
		}
	default:
		w.put(b)
	}

	return nil
}

// WriteString implements io.StringWriter. Bytes outside the printable ASCII
// range that are not one of the supported control characters are replaced by
// Placeholder. It never returns an error.
func (w *Writer) WriteString(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		w.WriteByte(displayable(s[i]))
	}

	return len(s), nil
}

// Write implements io.Writer using the same substitution rules as
// WriteString. It never returns an error.
func (w *Writer) Write(p []byte) (int, error) {
	for _, b := range p {
		w.WriteByte(displayable(b))
	}

	return len(p), nil
}

// put writes b at the cursor and advances it. Writing to the last column
// leaves the cursor there with a wrap pending; the line break happens when
// the next byte is put.
func (w *Writer) put(b byte) {
	if w.wrapPending {
		w.newLine()
	}

	w.grid.Write(w.row, w.col, console.MakeCell(b, w.color))

	if w.col < console.Width-1 {
		w.col++
	} else {
		w.wrapPending = true
	}
}

// newLine moves the cursor to the start of the next row, scrolling the grid
// contents up if the cursor is on the last row.
func (w *Writer) newLine() {
	if w.row < console.Height-1 {
		w.row++
	} else {
		w.grid.ScrollUp(console.Blank(w.color))
	}

	w.col, w.wrapPending = 0, false
}

// displayable maps b to Placeholder unless it is printable ASCII or one of
// the control characters interpreted by WriteByte.
func displayable(b byte) byte {
	switch {
	case b >= 0x20 && b <= 0x7e:
		return b
	case b == '\n' || b == '\r' || b == '\t' || b == '\b':
		return b
	default:
		return Placeholder
	}
}
