package rs232

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rs232sim/sim"
	"github.com/sarchlab/rs232sim/sim/signal"
)

var _ = Describe("Builder", func() {
	It("should derive the divisor from the clock and the baud rate", func() {
		Expect(MakeBuilder().Divisor()).To(Equal(83))
		Expect(MakeBuilder().
			WithClockFreq(1 * sim.MHz).
			WithBaudRate(9600).
			Divisor()).To(Equal(104))
	})

	It("should let an explicit divisor win", func() {
		Expect(MakeBuilder().WithBaudDivisor(16).Divisor()).To(Equal(16))
	})

	It("should reject divisors below 2", func() {
		Expect(func() {
			MakeBuilder().WithBaudDivisor(1).Build("Dev")
		}).To(Panic())
		Expect(func() {
			MakeBuilder().WithBaudRate(0).Build("Dev")
		}).To(Panic())
	})

	It("should name the pins after the device", func() {
		c := MakeBuilder().Build("tt_um_rs232")

		Expect(c.Pins().Names()).To(Equal([]string{
			"clk", "rst_n", "ena", "ui_in",
			"uo_out", "uio_in", "uio_out", "uio_oe",
		}))
		Expect(c.Pins().MustSignal(PinUIOOut).Name()).
			To(Equal("tt_um_rs232.uio_out"))
	})
})

var _ = Describe("Comp", func() {
	var (
		c                           *Comp
		clk, rstN, ena, uiIn, uioIn *signal.Signal
		uoOut, uioOut, uioOE        *signal.Signal
		divisor                     int
	)

	cycle := func() {
		clk.Set(0)
		clk.Set(1)
	}

	cycles := func(n int) {
		for i := 0; i < n; i++ {
			cycle()
		}
	}

	resetDevice := func() {
		rstN.Set(0)
		ena.Set(0)
		uiIn.Set(0)
		uioIn.Set(0)
		cycles(10)
		rstN.Set(1)
		ena.Set(1)
	}

	setRxD := func(level bool) {
		uioIn.SetBit(RxDBit, level)
	}

	sendFrame := func(bits []bool) {
		for _, bit := range bits {
			setRxD(bit)
			cycles(divisor)
		}
	}

	BeforeEach(func() {
		c = MakeBuilder().Build("tt_um_rs232")
		divisor = c.Divisor()

		pins := c.Pins()
		clk = pins.MustSignal(PinClk)
		rstN = pins.MustSignal(PinRstN)
		ena = pins.MustSignal(PinEna)
		uiIn = pins.MustSignal(PinUIIn)
		uoOut = pins.MustSignal(PinUOOut)
		uioIn = pins.MustSignal(PinUIOIn)
		uioOut = pins.MustSignal(PinUIOOut)
		uioOE = pins.MustSignal(PinUIOOE)
	})

	It("should reject events", func() {
		Expect(c.Handle(sim.MakeTickEvent(c, 0))).NotTo(Succeed())
	})

	It("should be idle after reset", func() {
		resetDevice()

		Expect(uioOut.Value()).To(Equal(uint64(1)))
		Expect(uioOE.Value()).To(Equal(uint64(1)))
		Expect(uoOut.Value()).To(Equal(uint64(0)))
		Expect(c.TxBusy()).To(BeFalse())
		Expect(c.RxBusy()).To(BeFalse())
		Expect(c.Edges()).To(Equal(uint64(10)))
	})

	It("should only react to rising edges", func() {
		resetDevice()
		uiIn.Set(0xA5)

		clk.Set(0)
		Expect(c.TxBusy()).To(BeFalse())

		clk.Set(1)
		Expect(c.TxBusy()).To(BeTrue())
		Expect(uioOut.Value()).To(Equal(uint64(0)))
	})

	It("should hold its state while not enabled", func() {
		resetDevice()
		ena.Set(0)
		uiIn.Set(0xA5)

		cycles(5)

		Expect(c.TxBusy()).To(BeFalse())
		Expect(uioOut.Value()).To(Equal(uint64(1)))
	})

	It("should not transmit the byte that was latched last", func() {
		resetDevice()

		cycles(5)

		Expect(c.TxBusy()).To(BeFalse())
	})

	It("should transmit a frame on TxD", func() {
		hookPositions := []*sim.HookPos{}
		c.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			hookPositions = append(hookPositions, ctx.Pos)
			Expect(ctx.Detail.(FrameInfo).Data).To(Equal(byte(0xA5)))
		}))

		resetDevice()
		uiIn.Set(0xA5)

		bits := []bool{}
		cycle()
		for i := 0; i < FrameBits; i++ {
			cycles(divisor / 2)
			bits = append(bits, uioOut.Value() == 1)
			cycles(divisor - divisor/2)
		}

		b, err := DecodeFrame(bits)
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(byte(0xA5)))

		cycles(divisor)
		Expect(c.TxBusy()).To(BeFalse())
		Expect(c.FramesSent()).To(Equal(uint64(1)))
		Expect(hookPositions).To(Equal(
			[]*sim.HookPos{HookPosTxStart, HookPosTxDone}))
	})

	It("should show bit 0 of the byte on TxD 101 cycles after loading", func() {
		resetDevice()
		uiIn.Set(0xA5)

		cycle()
		cycles(100)

		Expect(uioOut.Value()).To(Equal(uint64(0xA5 & 0x01)))
	})

	It("should keep the other uio_out bits low", func() {
		resetDevice()
		uiIn.Set(0xFF)

		for i := 0; i < FrameBits*divisor; i++ {
			cycle()
			Expect(uioOut.Value() &^ 1).To(Equal(uint64(0)))
		}
	})

	It("should receive a frame from RxD", func() {
		var received FrameInfo
		c.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == HookPosRxDone {
				received = ctx.Detail.(FrameInfo)
			}
		}))

		resetDevice()
		setRxD(true)
		cycles(4)

		sendFrame(EncodeFrame(0x3C))
		cycles(divisor)

		Expect(uoOut.Value()).To(Equal(uint64(0x3C)))
		Expect(c.FramesReceived()).To(Equal(uint64(1)))
		Expect(c.FramingErrors()).To(Equal(uint64(0)))
		Expect(received.Data).To(Equal(byte(0x3C)))
		Expect(c.RxBusy()).To(BeFalse())
	})

	It("should receive back-to-back frames", func() {
		resetDevice()
		setRxD(true)
		cycles(4)

		sendFrame(EncodeFrame(0x12))
		sendFrame(EncodeFrame(0x34))
		cycles(divisor)

		Expect(uoOut.Value()).To(Equal(uint64(0x34)))
		Expect(c.FramesReceived()).To(Equal(uint64(2)))
	})

	It("should report a framing error and keep uo_out", func() {
		resetDevice()
		setRxD(true)
		cycles(4)

		bits := EncodeFrame(0x3C)
		bits[FrameBits-1] = false
		sendFrame(bits)
		cycles(divisor)

		Expect(uoOut.Value()).To(Equal(uint64(0)))
		Expect(c.FramingErrors()).To(Equal(uint64(1)))
		Expect(c.FramesReceived()).To(Equal(uint64(0)))
	})

	It("should ignore a glitch shorter than half a bit", func() {
		resetDevice()
		setRxD(true)
		cycles(4)

		setRxD(false)
		cycles(2)
		setRxD(true)
		cycles(divisor)

		Expect(c.RxBusy()).To(BeFalse())
		Expect(c.FramingErrors()).To(Equal(uint64(0)))
	})

	It("should not start receiving while the line is low since reset", func() {
		resetDevice()
		uioIn.Set(0x3C)

		cycles(100)

		Expect(c.RxBusy()).To(BeFalse())
		Expect(uoOut.Value()).To(Equal(uint64(0)))
	})
})
