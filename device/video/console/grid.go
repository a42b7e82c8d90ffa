// Package console models the 80x25 VGA text-mode framebuffer.
package console

import "github.com/TegranGrigorian/Woodix/kernel/cpu"

const (
	// Width is the number of character columns.
	Width = 80

	// Height is the number of character rows.
	Height = 25

	// CellCount is the number of cells in the framebuffer.
	CellCount = Width * Height

	// PhysAddr is the physical address of the text-mode framebuffer.
	PhysAddr = uintptr(0xb8000)
)

var (
	// Screen is the handle to the physical text-mode framebuffer.
	Screen = Grid{base: PhysAddr}

	storeFenceFn = cpu.StoreFence
)

// Grid is a handle to a Width x Height row-major array of cells. All accesses
// go through cpu.MMIOWrite16 and cpu.MMIORead16 so that each one is issued
// exactly once and in program order. Row and column arguments are 0-based and
// are not range-checked; callers own the bounds.
type Grid struct {
	base uintptr
}

// NewGrid returns a handle to a framebuffer located at base.
func NewGrid(base uintptr) Grid {
	return Grid{base: base}
}

// Base returns the address of the first cell.
func (g Grid) Base() uintptr {
	return g.base
}

func (g Grid) addr(row, col uint32) uintptr {
	return g.base + uintptr(row*Width+col)<<1
}

// Write stores cell at (row, col).
func (g Grid) Write(row, col uint32, cell Cell) {
	cpu.MMIOWrite16(g.addr(row, col), uint16(cell))
}

// Read loads the cell at (row, col).
func (g Grid) Read(row, col uint32) Cell {
	return Cell(cpu.MMIORead16(g.addr(row, col)))
}

// FillRow sets every cell of row to cell.
func (g Grid) FillRow(row uint32, cell Cell) {
	for col := uint32(0); col < Width; col++ {
		cpu.MMIOWrite16(g.addr(row, col), uint16(cell))
	}
}

// Fill sets every cell of the grid to cell.
func (g Grid) Fill(cell Cell) {
	for row := uint32(0); row < Height; row++ {
		g.FillRow(row, cell)
	}
}

// ScrollUp moves rows [1, Height) one row up in a single top-down pass and
// then fills the last row with blank. A store fence separates the copy pass
// from the writes to the new last row.
func (g Grid) ScrollUp(blank Cell) {
	for row := uint32(1); row < Height; row++ {
		for col := uint32(0); col < Width; col++ {
			cpu.MMIOWrite16(g.addr(row-1, col), cpu.MMIORead16(g.addr(row, col)))
		}
	}

	storeFenceFn()
	g.FillRow(Height-1, blank)
}

// WriteString writes s starting at (row, col) without interpreting control
// characters. Characters that fall past the end of the row are dropped.
func (g Grid) WriteString(row, col uint32, s string, color ColorCode) {
	for i := 0; i < len(s) && col < Width; i, col = i+1, col+1 {
		g.Write(row, col, MakeCell(s[i], color))
	}
}
