package kfmt

import "io"

// ringBufferSize is large enough to hold a full 80x25 screen of text. It must
// be a power of 2.
const ringBufferSize = 2048

// ringBuffer keeps the most recent ringBufferSize bytes written to it. Once
// full, each new byte overwrites the oldest one.
type ringBuffer struct {
	buffer [ringBufferSize]byte

	// head is the index of the oldest unread byte and count the number of
	// unread bytes.
	head, count int
}

// Write implements io.Writer. It never fails.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[(rb.head+rb.count)&(ringBufferSize-1)] = b
		if rb.count == ringBufferSize {
			rb.head = (rb.head + 1) & (ringBufferSize - 1)
			continue
		}
		rb.count++
	}

	return len(p), nil
}

// Read implements io.Reader. It returns io.EOF once the buffer is empty.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.count == 0 {
		return 0, io.EOF
	}

	n := rb.contiguous()
	if n > len(p) {
		n = len(p)
	}

	copy(p, rb.buffer[rb.head:rb.head+n])
	rb.consume(n)
	return n, nil
}

// WriteTo drains the buffer into w without an intermediate copy; io.Copy
// would allocate one.
func (rb *ringBuffer) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for rb.count > 0 {
		n, err := w.Write(rb.buffer[rb.head : rb.head+rb.contiguous()])
		rb.consume(n)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// contiguous returns the number of unread bytes that can be accessed without
// wrapping around the end of the buffer.
func (rb *ringBuffer) contiguous() int {
	if n := ringBufferSize - rb.head; n < rb.count {
		return n
	}
	return rb.count
}

func (rb *ringBuffer) consume(n int) {
	rb.head = (rb.head + n) & (ringBufferSize - 1)
	rb.count -= n
}
