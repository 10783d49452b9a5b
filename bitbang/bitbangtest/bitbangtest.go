// Package bitbangtest provides a fake pair of open-drain lines that decodes
// two-wire traffic back into transactions.
//
// Wire watches every level change on its SDA and SCL lines, recognizes start
// and stop conditions, samples data on rising clock edges and forwards each
// completed write to a regular i2c.Bus such as i2ctest.Record or an emulated
// device.
package bitbangtest

import (
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c"
)

// Line is one fake open-drain line. It is released (high) until driven low.
type Line struct {
	gpiotest.Pin
	w *Wire
}

// In releases the line.
func (l *Line) In(pull gpio.Pull, edge gpio.Edge) error {
	l.w.set(l, gpio.High)
	return nil
}

// Out drives the line. Driving high is treated as a release.
func (l *Line) Out(level gpio.Level) error {
	l.w.set(l, level)
	return nil
}

// Read returns the current level of the line.
func (l *Line) Read() gpio.Level {
	l.w.mu.Lock()
	defer l.w.mu.Unlock()
	if l == l.w.SDA {
		return l.w.sda
	}
	return l.w.scl
}

// Wire decodes the traffic of SDA and SCL into transactions on Bus.
type Wire struct {
	SDA *Line
	SCL *Line

	// Bus receives one Tx per start/stop pair. The address is taken from the
	// first byte, the rest is the write payload.
	Bus i2c.Bus

	mu       sync.Mutex
	sda, scl gpio.Level
	active   bool
	bit      int
	cur      byte
	buf      []byte

	// Starts, Stops and Acks count decoded conditions and ACK clock pulses.
	Starts int
	Stops  int
	Acks   int
	// Err is the first error returned by Bus.
	Err error
}

// New returns a wire with both lines released, forwarding to bus.
func New(bus i2c.Bus) *Wire {
	w := &Wire{Bus: bus, sda: gpio.High, scl: gpio.High}
	w.SDA = &Line{Pin: gpiotest.Pin{N: "SDA", Num: 2, L: gpio.High}, w: w}
	w.SCL = &Line{Pin: gpiotest.Pin{N: "SCL", Num: 3, L: gpio.High}, w: w}
	return w
}

// Active reports whether a transaction is open.
func (w *Wire) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

func (w *Wire) set(l *Line, level gpio.Level) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if l == w.SDA {
		w.setSDA(level)
	} else {
		w.setSCL(level)
	}
}

func (w *Wire) setSDA(level gpio.Level) {
	old := w.sda
	w.sda = level
	if w.scl != gpio.High || old == level {
		return
	}
	if level == gpio.Low {
		// A repeated start drops whatever was pending.
		w.Starts++
		w.active = true
		w.bit = 0
		w.cur = 0
		w.buf = w.buf[:0]
		return
	}
	w.Stops++
	if w.active {
		w.flush()
	}
	w.active = false
}

func (w *Wire) setSCL(level gpio.Level) {
	old := w.scl
	w.scl = level
	if !w.active || old != gpio.Low || level != gpio.High {
		return
	}
	if w.bit == 8 {
		w.Acks++
		w.bit = 0
		w.cur = 0
		return
	}
	w.cur <<= 1
	if w.sda == gpio.High {
		w.cur |= 1
	}
	w.bit++
	if w.bit == 8 {
		w.buf = append(w.buf, w.cur)
	}
}

func (w *Wire) flush() {
	if len(w.buf) == 0 || w.Bus == nil {
		return
	}
	addr := uint16(w.buf[0] >> 1)
	payload := make([]byte, len(w.buf)-1)
	copy(payload, w.buf[1:])
	if err := w.Bus.Tx(addr, payload, nil); err != nil && w.Err == nil {
		w.Err = err
	}
}
