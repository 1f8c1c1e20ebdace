package audio

import (
	"errors"
	"math"

	"github.com/gopxl/beep/v2"
)

// ErrFrequencyTooHigh is returned when the frequency is at or above Nyquist.
var ErrFrequencyTooHigh = errors.New("audio: sample rate must be at least twice the frequency")

// Oscillator is an infinite periodic tone. It is the only signal source in the graph.
//
// Oscillator is NOT internally synchronized. SetWaveform and Stop race with
// Stream, so callers go through Graph.Do, which holds the output lock.
type Oscillator struct {
	kind    Waveform
	freq    float64
	dt      float64 // phase increment per sample
	t       float64 // phase in [0, 1)
	stopped bool
}

// NewOscillator creates an oscillator producing kind at freq Hz.
func NewOscillator(sr beep.SampleRate, freq float64, kind Waveform) (*Oscillator, error) {
	if sr <= 0 || freq <= 0 {
		return nil, errors.New("audio: sample rate and frequency must be positive")
	}
	dt := freq / float64(sr)
	if dt >= 0.5 {
		return nil, ErrFrequencyTooHigh
	}
	if !kind.Valid() {
		return nil, ErrUnknownWaveform
	}
	return &Oscillator{kind: kind, freq: freq, dt: dt}, nil
}

// Stream fills both channels with the waveform. Once stopped it reports
// (0, false), which makes the mixer drop it.
func (o *Oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	if o.stopped {
		return 0, false
	}
	for i := range samples {
		v := o.kind.at(o.t)
		samples[i][0] = v
		samples[i][1] = v
		_, o.t = math.Modf(o.t + o.dt)
	}
	return len(samples), true
}

func (o *Oscillator) Err() error { return nil }

// SetWaveform changes the shape in place. Phase is kept, so the switch has no jump in time.
func (o *Oscillator) SetWaveform(kind Waveform) {
	if kind.Valid() {
		o.kind = kind
	}
}

// Waveform returns the current shape.
func (o *Oscillator) Waveform() Waveform { return o.kind }

// Frequency returns the frequency in Hz.
func (o *Oscillator) Frequency() float64 { return o.freq }

// Stop ends emission permanently. A stopped oscillator is never restarted.
func (o *Oscillator) Stop() { o.stopped = true }

// Stopped reports whether Stop was called.
func (o *Oscillator) Stopped() bool { return o.stopped }

// at evaluates one period of the waveform at phase t in [0, 1).
func (w Waveform) at(t float64) float64 {
	switch w {
	case Square:
		if t < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2*t - 1
	case Triangle:
		return 1 - 4*math.Abs(t-0.5)
	default:
		return math.Sin(2 * math.Pi * t)
	}
}
