// Package cpu exposes the x86-64 instructions that Go cannot express directly.
// Every function without a body is implemented in cpu_amd64.s.
package cpu

// Idle disables interrupts and spins forever executing PAUSE. Calls to Idle
// never return.
func Idle()

// Pause executes the PAUSE spin-loop hint. It is advisory only and does not
// order memory accesses.
func Pause()

// SpinWait executes PAUSE iterations times. The iteration count has no
// wall-clock meaning.
func SpinWait(iterations uint64) {
	for ; iterations > 0; iterations-- {
		Pause()
	}
}

// StoreFence executes SFENCE; all stores issued before the call are globally
// visible before any store issued after it.
func StoreFence()

// MMIOWrite16 stores val at the physical address addr. The store is issued by
// assembly code so the compiler can neither elide nor coalesce it nor move
// other memory accesses across it.
func MMIOWrite16(addr uintptr, val uint16)

// MMIORead16 loads the 16-bit value stored at the physical address addr with
// the same ordering guarantees as MMIOWrite16.
func MMIORead16(addr uintptr) uint16

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)
