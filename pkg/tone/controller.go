// Package tone implements the play/stop, volume and waveform controls of the tone generator.
package tone

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"tonegen/pkg/audio"
	"tonegen/pkg/metrics"
)

// Frequency is the pitch of every tone source (A4).
const Frequency = 440.0

// DefaultRamp is how long a volume change takes to reach its target.
const DefaultRamp = 50 * time.Millisecond

// Slider range in decibels.
const (
	MinDb = -60.0
	MaxDb = 0.0
)

// State is the playback state.
type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

// Label is the text the toggle button shows in this state.
func (s State) Label() string {
	if s == Playing {
		return "Stop"
	}
	return "Play"
}

// Graph is the part of audio.Graph the controller drives.
type Graph interface {
	Ensure() error
	SampleRate() beep.SampleRate
	Do(fn func())
	Connect(s beep.Streamer)
	RampGain(target float64, d time.Duration) time.Duration
	Gain() float64
	TargetGain() float64
}

// Options configures a Controller.
type Options struct {
	Waveform audio.Waveform
	Ramp     time.Duration
}

// Status is a snapshot of the controls, as the UI renders them.
type Status struct {
	Playing        bool           `json:"playing"`
	Label          string         `json:"label"`
	Waveform       audio.Waveform `json:"waveform"`
	GainDb         float64        `json:"gain_db"`
	Gain           float64        `json:"gain"`
	TargetGain     float64        `json:"target_gain"`
	Frequency      float64        `json:"frequency"`
	AudioAvailable bool           `json:"audio_available"`
}

// Controller owns the playback flag, the selected waveform and the tone
// source that exists while playing. All operations are serialized.
type Controller struct {
	mu sync.Mutex

	graph    Graph
	ramp     time.Duration
	state    State
	selected audio.Waveform
	source   *audio.Oscillator
	gainDb   float64

	// audioOK is the outcome of the last attempt to open the output.
	audioOK bool
}

// New creates a stopped controller on g.
func New(g Graph, opts Options) *Controller {
	if !opts.Waveform.Valid() {
		opts.Waveform = audio.Sine
	}
	if opts.Ramp <= 0 {
		opts.Ramp = DefaultRamp
	}
	c := &Controller{
		graph:    g,
		ramp:     opts.Ramp,
		selected: opts.Waveform,
		gainDb:   roundDb(audio.AmpToDb(g.TargetGain())),
		audioOK:  true,
	}
	metrics.Playing.Set(0)
	metrics.TargetGain.Set(g.TargetGain())
	return c
}

// TogglePlayback starts a new tone source when stopped and discards the
// current one when playing. If the output cannot be opened yet, the
// controller stays stopped and the next toggle tries again.
func (c *Controller) TogglePlayback() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Playing {
		c.stopLocked()
		return c.state
	}

	if err := c.graph.Ensure(); err != nil {
		c.audioOK = false
		metrics.DeviceErrorsTotal.Inc()
		slog.Warn("Tone: audio output unavailable, staying stopped", "error", err)
		return c.state
	}
	c.audioOK = true

	osc, err := audio.NewOscillator(c.graph.SampleRate(), Frequency, c.selected)
	if err != nil {
		slog.Error("Tone: failed to create tone source", "error", err)
		return c.state
	}
	c.graph.Connect(osc)
	c.source = osc
	c.state = Playing

	metrics.Playing.Set(1)
	metrics.TogglesTotal.WithLabelValues(c.state.String()).Inc()
	slog.Info("Tone: playing", "waveform", c.selected.String(), "frequency", Frequency)
	return c.state
}

func (c *Controller) stopLocked() {
	if c.source != nil {
		c.graph.Do(c.source.Stop)
		c.source = nil
	}
	c.state = Stopped

	metrics.Playing.Set(0)
	metrics.TogglesTotal.WithLabelValues(c.state.String()).Inc()
	slog.Info("Tone: stopped")
}

// UpdateVolume ramps the gain stage to the amplitude of db decibels.
// Playback state is not affected.
func (c *Controller) UpdateVolume(db float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	amp := audio.DbToAmp(db)
	end := c.graph.RampGain(amp, c.ramp)
	c.gainDb = db

	metrics.VolumeChangesTotal.Inc()
	metrics.TargetGain.Set(c.graph.TargetGain())
	slog.Debug("Tone: volume ramp", "db", db, "amplitude", amp, "until", end)
}

// UpdateWaveform selects the shape for the next start and, while playing,
// changes the live source in place.
func (c *Controller) UpdateWaveform(kind audio.Waveform) {
	if !kind.Valid() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.selected = kind
	if c.state == Playing && c.source != nil {
		src := c.source
		c.graph.Do(func() { src.SetWaveform(kind) })
	}

	metrics.WaveformChangesTotal.WithLabelValues(kind.String()).Inc()
	slog.Debug("Tone: waveform selected", "waveform", kind.String(), "live", c.state == Playing)
}

// Shutdown stops any playing source.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Playing {
		c.stopLocked()
	}
}

// State returns the playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Label returns the toggle button text.
func (c *Controller) Label() string {
	return c.State().Label()
}

// Waveform returns the selected waveform.
func (c *Controller) Waveform() audio.Waveform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Status returns a snapshot for the UI.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Playing:        c.state == Playing,
		Label:          c.state.Label(),
		Waveform:       c.selected,
		GainDb:         c.gainDb,
		Gain:           c.graph.Gain(),
		TargetGain:     c.graph.TargetGain(),
		Frequency:      Frequency,
		AudioAvailable: c.audioOK,
	}
}

// roundDb keeps the reported initial level readable; -Inf becomes the slider floor.
func roundDb(db float64) float64 {
	if math.IsInf(db, -1) {
		return MinDb
	}
	return math.Round(db*100) / 100
}
