package audio

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownWaveform is returned when a waveform name is not one of the supported kinds.
var ErrUnknownWaveform = errors.New("unknown waveform")

// Waveform is the shape an Oscillator produces.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
)

var waveformNames = [...]string{
	Sine:     "sine",
	Square:   "square",
	Sawtooth: "sawtooth",
	Triangle: "triangle",
}

// Waveforms lists every supported kind in selector order.
func Waveforms() []Waveform {
	return []Waveform{Sine, Square, Sawtooth, Triangle}
}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// Valid reports whether w is one of the supported kinds.
func (w Waveform) Valid() bool {
	return w >= 0 && int(w) < len(waveformNames)
}

// ParseWaveform maps a selector value to a Waveform.
func ParseWaveform(s string) (Waveform, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range waveformNames {
		if n == name {
			return Waveform(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWaveform, s)
}

// MarshalText implements encoding.TextMarshaler.
func (w Waveform) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownWaveform, int(w))
	}
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Waveform) UnmarshalText(text []byte) error {
	parsed, err := ParseWaveform(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
