package rs232

import (
	"errors"
	"fmt"
)

// FrameBits is the number of bits in a frame: one start bit, eight data bits
// and one stop bit.
const FrameBits = 10

// ErrFraming is returned when a frame does not start with a low start bit or
// does not end with a high stop bit.
var ErrFraming = errors.New("framing error")

// EncodeFrame returns the line levels of a frame that carries b, in the
// order they appear on the line. Data bits are sent LSB first.
func EncodeFrame(b byte) []bool {
	bits := make([]bool, 0, FrameBits)
	bits = append(bits, false)

	for i := 0; i < 8; i++ {
		bits = append(bits, b&(1<<i) != 0)
	}

	return append(bits, true)
}

// DecodeFrame recovers the data byte from the line levels of a frame.
func DecodeFrame(bits []bool) (byte, error) {
	if len(bits) != FrameBits {
		return 0, fmt.Errorf("frame has %d bits, want %d",
			len(bits), FrameBits)
	}

	if bits[0] {
		return 0, fmt.Errorf("%w: start bit is high", ErrFraming)
	}

	var b byte
	for i := 0; i < 8; i++ {
		if bits[i+1] {
			b |= 1 << i
		}
	}

	if !bits[FrameBits-1] {
		return b, fmt.Errorf("%w: stop bit is low", ErrFraming)
	}

	return b, nil
}
