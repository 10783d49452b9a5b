// Package sound plays the terminal's beep on the host's audio output.
//
// The audio backend needs cgo and the platform sound headers, so hardware
// builds that only drive a piezo import buzzer alone.
package sound

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/flavioheleno/tinyterm/buzzer"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"periph.io/x/conn/v3/physic"
)

const sampleRate = beep.SampleRate(44100)

// Level is the peak amplitude of the burst.
const Level = 0.3

var (
	initOnce sync.Once
	initErr  error
)

// Speaker plays the burst on the default audio output.
type Speaker struct {
	opts buzzer.Opts
}

// NewSpeaker opens the audio output on first use. opts can be nil.
func NewSpeaker(opts *buzzer.Opts) (*Speaker, error) {
	o := opts.Resolve()
	if _, err := tone(o); err != nil {
		return nil, err
	}
	initOnce.Do(func() {
		initErr = speaker.Init(sampleRate, sampleRate.N(buzzer.DefaultDuration/5))
	})
	if initErr != nil {
		return nil, fmt.Errorf("sound: failed to open audio output: %w", initErr)
	}
	return &Speaker{opts: o}, nil
}

// Beep plays one burst and waits for it to finish.
func (s *Speaker) Beep() {
	st, err := tone(s.opts)
	if err != nil {
		return
	}
	done := make(chan struct{})
	speaker.Play(beep.Seq(st, beep.Callback(func() { close(done) })))
	<-done
}

// tone returns the burst described by o at Level.
func tone(o buzzer.Opts) (beep.Streamer, error) {
	if o.Tone <= 0 || o.Duration <= 0 {
		return nil, errors.New("sound: tone and duration must be positive")
	}
	sq, err := generators.SquareTone(sampleRate, float64(o.Tone)/float64(physic.Hertz))
	if err != nil {
		return nil, fmt.Errorf("sound: %w", err)
	}
	vol := &effects.Volume{Streamer: sq, Base: 2, Volume: math.Log2(Level)}
	return beep.Take(sampleRate.N(o.Duration), vol), nil
}
