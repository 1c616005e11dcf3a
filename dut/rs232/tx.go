package rs232

type txState int

const (
	txIdle txState = iota
	txStart
	txData
	txStop
)

// txMiddleware sends a frame whenever the byte on ui_in differs from the
// byte it latched last.
type txMiddleware struct {
	*Comp

	state    txState
	latched  byte
	shiftReg byte
	bitIndex int
	cycles   int
}

func (m *txMiddleware) reset() {
	m.state = txIdle
	m.latched = 0
	m.shiftReg = 0
	m.bitIndex = 0
	m.cycles = 0

	m.setTxD(true)
}

func (m *txMiddleware) Tick() bool {
	if m.state == txIdle {
		return m.startFrame()
	}

	m.cycles++
	if m.cycles < m.divisor {
		return false
	}
	m.cycles = 0

	switch m.state {
	case txStart:
		m.state = txData
		m.bitIndex = 0
		m.setTxD(m.shiftReg&1 != 0)
	case txData:
		m.bitIndex++
		if m.bitIndex == 8 {
			m.state = txStop
			m.setTxD(true)
		} else {
			m.setTxD(m.shiftReg&(1<<m.bitIndex) != 0)
		}
	case txStop:
		m.state = txIdle
		m.framesSent++
		m.frameEvent(HookPosTxDone, m.shiftReg)
	}

	return true
}

func (m *txMiddleware) startFrame() bool {
	data := m.sampled.uiIn
	if data == m.latched {
		return false
	}

	m.latched = data
	m.shiftReg = data
	m.state = txStart
	m.cycles = 0
	m.setTxD(false)
	m.frameEvent(HookPosTxStart, data)

	return true
}

// setTxD drives TxD. The other bits of uio_out are always low.
func (m *txMiddleware) setTxD(level bool) {
	if level {
		m.uioOut.Set(1 << TxDBit)
	} else {
		m.uioOut.Set(0)
	}
}
