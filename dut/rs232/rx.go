package rs232

type rxState int

const (
	rxIdle rxState = iota
	rxStart
	rxData
	rxStop
)

// rxMiddleware receives frames from RxD. The line passes a two-stage
// synchronizer first. The receiver only arms after it has seen the line
// idle (high), so a line held low since reset does not start a frame.
type rxMiddleware struct {
	*Comp

	sync1, sync2 bool
	prev         bool
	armed        bool

	state    rxState
	shiftReg byte
	bitIndex int
	cycles   int
}

func (m *rxMiddleware) reset() {
	m.sync1 = false
	m.sync2 = false
	m.prev = false
	m.armed = false

	m.state = rxIdle
	m.shiftReg = 0
	m.bitIndex = 0
	m.cycles = 0
}

func (m *rxMiddleware) Tick() bool {
	m.sync2 = m.sync1
	m.sync1 = m.sampled.uioIn&(1<<RxDBit) != 0
	line := m.sync2

	defer func() { m.prev = line }()

	switch m.state {
	case rxIdle:
		return m.idle(line)
	case rxStart:
		return m.checkStartBit(line)
	case rxData:
		return m.sampleDataBit(line)
	case rxStop:
		return m.sampleStopBit(line)
	}

	return false
}

func (m *rxMiddleware) idle(line bool) bool {
	if line {
		m.armed = true
		return false
	}

	if !m.armed || !m.prev {
		return false
	}

	m.state = rxStart
	m.cycles = 0

	return true
}

func (m *rxMiddleware) checkStartBit(line bool) bool {
	m.cycles++
	if m.cycles < m.divisor/2 {
		return false
	}

	if line {
		m.state = rxIdle
		return true
	}

	m.state = rxData
	m.cycles = 0
	m.bitIndex = 0
	m.shiftReg = 0

	return true
}

func (m *rxMiddleware) sampleDataBit(line bool) bool {
	m.cycles++
	if m.cycles < m.divisor {
		return false
	}
	m.cycles = 0

	if line {
		m.shiftReg |= 1 << m.bitIndex
	}

	m.bitIndex++
	if m.bitIndex == 8 {
		m.state = rxStop
	}

	return true
}

func (m *rxMiddleware) sampleStopBit(line bool) bool {
	m.cycles++
	if m.cycles < m.divisor {
		return false
	}
	m.cycles = 0
	m.state = rxIdle

	if !line {
		m.framingErrors++
		m.frameEvent(HookPosRxFrameError, m.shiftReg)

		return true
	}

	m.framesRecvd++
	m.uoOut.Set(uint64(m.shiftReg))
	m.frameEvent(HookPosRxDone, m.shiftReg)

	return true
}
