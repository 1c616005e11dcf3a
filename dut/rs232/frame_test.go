package rs232

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Frame", func() {
	It("should encode a byte LSB first between start and stop bits", func() {
		Expect(EncodeFrame(0xA5)).To(Equal([]bool{
			false,
			true, false, true, false, false, true, false, true,
			true,
		}))
	})

	It("should decode an encoded byte", func() {
		for _, b := range []byte{0x00, 0x3C, 0xA5, 0xFF} {
			decoded, err := DecodeFrame(EncodeFrame(b))
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(Equal(b))
		}
	})

	It("should report a low stop bit as a framing error", func() {
		bits := EncodeFrame(0x3C)
		bits[FrameBits-1] = false

		b, err := DecodeFrame(bits)

		Expect(err).To(MatchError(ErrFraming))
		Expect(b).To(Equal(byte(0x3C)))
	})

	It("should report a high start bit as a framing error", func() {
		bits := EncodeFrame(0x3C)
		bits[0] = true

		_, err := DecodeFrame(bits)

		Expect(err).To(MatchError(ErrFraming))
	})

	It("should reject frames of the wrong length", func() {
		_, err := DecodeFrame([]bool{false, true})
		Expect(err).To(HaveOccurred())
	})
})
