// Package debugcon drives the emulator debug console: a write-only 8-bit I/O
// port that accepts one byte per OUT instruction. Writes are synchronous and
// unbuffered; when nothing listens on the port they are simply lost.
package debugcon

import "github.com/TegranGrigorian/Woodix/kernel/cpu"

// Port is the I/O port address of the debug console (QEMU -debugcon).
const Port = uint16(0xe9)

var (
	portWriteByteFn = cpu.PortWriteByte

	hexDigits = "0123456789ABCDEF"
)

// WriteByte emits b to the debug port.
func WriteByte(b byte) {
	portWriteByteFn(Port, b)
}

// WriteString emits every byte of s in order. No encoding or newline
// translation takes place.
func WriteString(s string) {
	for i := 0; i < len(s); i++ {
		portWriteByteFn(Port, s[i])
	}
}

// WriteHex emits v as "0x" followed by 16 upper-case hex digits.
func WriteHex(v uint64) {
	WriteString("0x")
	for shift := 60; shift >= 0; shift -= 4 {
		portWriteByteFn(Port, hexDigits[(v>>uint(shift))&0xf])
	}
}

// MarkStage emits a "[KERNEL-STAGE-n] msg" marker on its own line. Only the
// last decimal digit of stage is printed.
func MarkStage(stage uint8, msg string) {
	WriteString("\n[KERNEL-STAGE-")
	WriteByte('0' + stage%10)
	WriteString("] ")
	WriteString(msg)
	WriteByte('\n')
}

// Writer adapts the debug port to io.Writer and io.ByteWriter so it can be
// used as a kfmt output sink. The zero value is ready to use.
type Writer struct{}

// Write implements io.Writer. It never fails.
func (Writer) Write(p []byte) (int, error) {
	for _, b := range p {
		portWriteByteFn(Port, b)
	}

	return len(p), nil
}

// WriteByte implements io.ByteWriter. It never fails.
func (Writer) WriteByte(b byte) error {
	portWriteByteFn(Port, b)
	return nil
}
