// Package buzzer produces the terminal's audible signal: a short,
// fixed-frequency square-wave burst.
//
// Pin toggles a GPIO wired to a piezo buzzer. Package sound plays the same
// burst on the host's sound card.
package buzzer

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

const (
	// DefaultTone is the burst frequency.
	DefaultTone = physic.KiloHertz
	// DefaultDuration is the burst length.
	DefaultDuration = 125 * time.Millisecond
)

// Opts is the configuration of the burst, shared with sound.Speaker.
type Opts struct {
	Tone     physic.Frequency
	Duration time.Duration
}

// Resolve returns o with zero fields set to the defaults. o can be nil.
func (o *Opts) Resolve() Opts {
	out := Opts{Tone: DefaultTone, Duration: DefaultDuration}
	if o == nil {
		return out
	}
	if o.Tone != 0 {
		out.Tone = o.Tone
	}
	if o.Duration != 0 {
		out.Duration = o.Duration
	}
	return out
}

// Pin drives a buzzer from a GPIO output.
type Pin struct {
	p      gpio.PinOut
	half   time.Duration
	cycles int
	sleep  func(time.Duration)
}

// NewPin returns a buzzer on p and drives it low. opts can be nil.
func NewPin(p gpio.PinOut, opts *Opts) (*Pin, error) {
	if p == nil {
		return nil, errors.New("buzzer: pin is required")
	}
	o := opts.Resolve()
	if o.Tone <= 0 || o.Duration <= 0 {
		return nil, errors.New("buzzer: tone and duration must be positive")
	}
	period := o.Tone.Period()
	if period <= 0 {
		return nil, fmt.Errorf("buzzer: tone %s is too high", o.Tone)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("buzzer: failed to drive %s low: %w", p, err)
	}
	cycles := int(o.Duration / period)
	if cycles < 1 {
		cycles = 1
	}
	return &Pin{p: p, half: period / 2, cycles: cycles, sleep: time.Sleep}, nil
}

// Beep toggles the pin for the configured number of cycles and returns
// once the burst is over. GPIO errors are ignored.
func (b *Pin) Beep() {
	for i := 0; i < b.cycles; i++ {
		_ = b.p.Out(gpio.High)
		b.sleep(b.half)
		_ = b.p.Out(gpio.Low)
		b.sleep(b.half)
	}
}

// Func adapts a plain function to the Beep method.
type Func func()

// Beep calls f.
func (f Func) Beep() {
	f()
}
