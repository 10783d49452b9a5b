// Package bitbang implements a write-only two-wire (I²C style) bus by
// toggling two open-drain GPIO lines in software.
//
// A line is either driven low or released; pull-up resistors on the board
// bring released lines high. The driver never reads the bus back: the
// acknowledge bit is clocked and discarded, and there is no clock stretching
// or arbitration. A slave that is slow or absent goes unnoticed.
package bitbang

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultFreq is the bus clock used when Opts.Freq is zero.
const DefaultFreq = 400 * physic.KiloHertz

// Opts is the configuration for the bus.
type Opts struct {
	// Freq is the target clock frequency. Each bit takes two steps of half
	// a period; the real rate depends on how accurate Delay is on the host.
	Freq physic.Frequency

	// Delay blocks for one step. It must not hand control to other work
	// that touches the bus. Defaults to Spin.
	Delay func(time.Duration)
}

// Bus is a software-timed two-wire bus master.
type Bus struct {
	mu sync.Mutex

	sda gpio.PinIO
	scl gpio.PinIO

	delay func(time.Duration)
	step  time.Duration

	// First GPIO failure since the last Tx.
	err error
}

// New returns a bus on the given data and clock lines and releases both.
//
// opts can be nil to use defaults.
func New(sda, scl gpio.PinIO, opts *Opts) (*Bus, error) {
	if sda == nil || scl == nil {
		return nil, errors.New("bitbang: both SDA and SCL are required")
	}
	if opts == nil {
		opts = &Opts{}
	}
	b := &Bus{
		sda:   sda,
		scl:   scl,
		delay: opts.Delay,
	}
	if b.delay == nil {
		b.delay = Spin
	}
	f := opts.Freq
	if f == 0 {
		f = DefaultFreq
	}
	if err := b.SetSpeed(f); err != nil {
		return nil, err
	}
	b.Init()
	if err := b.takeErr(); err != nil {
		return nil, err
	}
	return b, nil
}

// Init releases both lines to their pulled-up idle state.
func (b *Bus) Init() {
	b.release(b.sda)
	b.release(b.scl)
}

// Start emits a start condition followed by the address byte.
//
// The address byte is sent verbatim, so it already carries the R/W bit.
// Every Start must be followed by exactly one Stop before the next Start.
func (b *Bus) Start(address byte) {
	b.low(b.sda)
	b.delay(b.step)
	b.low(b.scl)
	b.delay(b.step)
	b.SendByte(address)
}

// SendByte clocks out value MSB first, then clocks the acknowledge bit and
// ignores it.
func (b *Bus) SendByte(value byte) {
	for mask := byte(0x80); mask != 0; mask >>= 1 {
		if value&mask != 0 {
			b.release(b.sda)
		} else {
			b.low(b.sda)
		}
		b.delay(b.step)
		b.release(b.scl)
		b.delay(b.step)
		b.low(b.scl)
	}

	// ACK slot.
	b.release(b.sda)
	b.delay(b.step)
	b.release(b.scl)
	b.delay(b.step)
	b.low(b.scl)
}

// Stop emits a stop condition: SDA rises while SCL is high.
func (b *Bus) Stop() {
	b.low(b.sda)
	b.delay(b.step)
	b.release(b.scl)
	b.delay(b.step)
	b.release(b.sda)
	b.delay(b.step)
}

// Tx implements i2c.Bus.
//
// The whole of w is sent in one session. Reads are not supported. The only
// error reported is a GPIO failure on the host; bus faults are not detected.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if len(r) != 0 {
		return errors.New("bitbang: reads are not supported")
	}
	if addr > 0x7F {
		return fmt.Errorf("bitbang: invalid 7-bit address 0x%X", addr)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.Start(byte(addr) << 1)
	for _, v := range w {
		b.SendByte(v)
	}
	b.Stop()
	return b.takeErr()
}

// SetSpeed implements i2c.Bus.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	if f <= 0 {
		return errors.New("bitbang: invalid frequency")
	}
	step := f.Period() / 2
	if step <= 0 {
		return fmt.Errorf("bitbang: %s is too fast", f)
	}
	b.mu.Lock()
	b.step = step
	b.mu.Unlock()
	return nil
}

// Close releases both lines.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Init()
	return b.takeErr()
}

// String returns a description of the bus.
func (b *Bus) String() string {
	return fmt.Sprintf("bitbang(%s, %s)", b.sda, b.scl)
}

// WriteRegister sends r followed by buf in one session. Together with Tx and
// ReadRegister it lets the bus stand in for a TinyGo drivers.I2C.
func (b *Bus) WriteRegister(addr uint8, r uint8, buf []byte) error {
	w := make([]byte, 0, len(buf)+1)
	w = append(w, r)
	w = append(w, buf...)
	return b.Tx(uint16(addr), w, nil)
}

// ReadRegister always fails: the bus cannot read.
func (b *Bus) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return errors.New("bitbang: reads are not supported")
}

func (b *Bus) low(p gpio.PinIO) {
	if err := p.Out(gpio.Low); err != nil && b.err == nil {
		b.err = fmt.Errorf("bitbang: failed to drive %s low: %w", p, err)
	}
}

func (b *Bus) release(p gpio.PinIO) {
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil && b.err == nil {
		b.err = fmt.Errorf("bitbang: failed to release %s: %w", p, err)
	}
}

func (b *Bus) takeErr() error {
	err := b.err
	b.err = nil
	return err
}

var _ i2c.BusCloser = &Bus{}
