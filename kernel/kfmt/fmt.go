// Package kfmt provides allocation-free formatted output for code that runs
// before (or without) the Go runtime, together with the kernel's fatal error
// handler.
package kfmt

import (
	"io"
	"unsafe"
)

// numBufSize defines the buffer size for formatting numbers. It also caps the
// width that can be requested for numeric verbs.
const numBufSize = 32

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	digits = "0123456789abcdef"

	numBuf  [numBufSize]byte
	byteBuf [1]byte

	// earlyBuf captures output produced while no sink is attached.
	earlyBuf ringBuffer

	// outputSink receives the output of Printf. While nil, output goes to
	// earlyBuf.
	outputSink io.Writer
)

// SetOutputSink makes w the target for Printf and replays any output that was
// buffered while no sink was attached.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		earlyBuf.WriteTo(w)
	}
}

// GetOutputSink returns the current target for Printf; nil means that output
// is buffered until a sink gets attached.
func GetOutputSink() io.Writer {
	return outputSink
}

// Printf formats according to format and writes to the output sink set via
// SetOutputSink. It never allocates memory so it is safe to call before any
// allocator exists.
//
// The supported verbs are a subset of the fmt package ones:
//
//	%s  string or []byte
//	%d  base 10 integer
//	%x  base 16 integer, lower-case
//	%o  base 8 integer
//	%t  "true" or "false"
//	%c  a single byte
//	%%  a literal percent sign
//
// An optional decimal width may precede the verb. Strings and base 10 integers
// are left-padded with spaces; base 8 and base 16 integers are left-padded with
// zeroes. All built-in integer types are supported. Since the runtime type
// tables may not be usable, arguments implementing fmt.Stringer or error are
// not inspected.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves like Printf but writes its output to w. A nil w is treated
// like a missing output sink.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex int
		width    int
		verb     byte
	)

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			writeByte(w, format[i])
			continue
		}

		width = 0
		for i++; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}

		if i == len(format) {
			write(w, errNoVerb)
			break
		}

		switch verb = format[i]; verb {
		case '%':
			writeByte(w, '%')
			continue
		case 's', 'd', 'x', 'o', 't', 'c':
		default:
			write(w, errNoVerb)
			continue
		}

		if argIndex >= len(args) {
			write(w, errMissingArg)
			continue
		}

		switch verb {
		case 's':
			fmtString(w, args[argIndex], width)
		case 'd':
			fmtInt(w, args[argIndex], 10, width)
		case 'x':
			fmtInt(w, args[argIndex], 16, width)
		case 'o':
			fmtInt(w, args[argIndex], 8, width)
		case 't':
			fmtBool(w, args[argIndex])
		case 'c':
			fmtChar(w, args[argIndex])
		}
		argIndex++
	}

	for ; argIndex < len(args); argIndex++ {
		write(w, errExtraArg)
	}
}

func fmtBool(w io.Writer, v interface{}) {
	b, ok := v.(bool)
	switch {
	case !ok:
		write(w, errWrongArgType)
	case b:
		write(w, trueValue)
	default:
		write(w, falseValue)
	}
}

func fmtChar(w io.Writer, v interface{}) {
	switch ch := v.(type) {
	case byte:
		writeByte(w, ch)
	case rune:
		writeByte(w, byte(ch))
	default:
		write(w, errWrongArgType)
	}
}

// fmtString writes a string or byte slice left-padded with spaces to width.
// Strings are emitted one byte at a time as converting them to a byte slice
// would allocate.
func fmtString(w io.Writer, v interface{}, width int) {
	switch s := v.(type) {
	case string:
		pad(w, ' ', width-len(s))
		for i := 0; i < len(s); i++ {
			writeByte(w, s[i])
		}
	case []byte:
		pad(w, ' ', width-len(s))
		write(w, s)
	default:
		write(w, errWrongArgType)
	}
}

func pad(w io.Writer, ch byte, count int) {
	for ; count > 0; count-- {
		writeByte(w, ch)
	}
}

// fmtInt writes v in the requested base. Digits are generated right-to-left
// into numBuf. For space padding the sign is placed next to the digits and
// counts towards width; for zero padding the sign precedes the zeroes.
func fmtInt(w io.Writer, v interface{}, base uint64, width int) {
	var (
		uval uint64
		sval int64
		neg  bool
	)

	switch t := v.(type) {
	case uint8:
		uval = uint64(t)
	case uint16:
		uval = uint64(t)
	case uint32:
		uval = uint64(t)
	case uint64:
		uval = t
	case uint:
		uval = uint64(t)
	case uintptr:
		uval = uint64(t)
	case int8:
		sval = int64(t)
	case int16:
		sval = int64(t)
	case int32:
		sval = int64(t)
	case int64:
		sval = t
	case int:
		sval = int64(t)
	default:
		write(w, errWrongArgType)
		return
	}

	if sval < 0 {
		uval, neg = uint64(-sval), true
	} else if sval > 0 {
		uval = uint64(sval)
	}

	if width > numBufSize-1 {
		width = numBufSize - 1
	}

	padCh := byte('0')
	if base == 10 {
		padCh = ' '
	}

	pos := numBufSize
	for {
		pos--
		numBuf[pos] = digits[uval%base]
		if uval /= base; uval == 0 {
			break
		}
	}

	if neg && padCh == ' ' {
		pos--
		numBuf[pos] = '-'
	}

	for numBufSize-pos < width {
		pos--
		numBuf[pos] = padCh
	}

	if neg && padCh == '0' {
		pos--
		numBuf[pos] = '-'
	}

	write(w, numBuf[pos:])
}

func writeByte(w io.Writer, b byte) {
	byteBuf[0] = b
	write(w, byteBuf[:])
}

// write hides p from escape analysis before handing it to w. Passing p to an
// unknown io.Writer would otherwise make the compiler move the contents of
// Printf's argument slice to the heap, which cannot work before an allocator
// is available.
func write(w io.Writer, p []byte) {
	doWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
		return
	}

	earlyBuf.Write(p)
}

// noEscape hides a pointer from escape analysis. It mirrors the helper in
// runtime/stubs.go.
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
