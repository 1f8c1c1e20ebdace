// Package audio provides the tone graph: oscillators feeding a gain stage feeding an output.
package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

// GraphOptions configures a Graph.
type GraphOptions struct {
	SampleRate  beep.SampleRate
	Buffer      time.Duration
	InitialGain float64
}

// Graph owns the persistent part of the signal chain: one gain stage played
// into one output. The output is opened lazily by Ensure, so a missing or
// locked device does not stop the process from starting.
type Graph struct {
	out  Output
	opts GraphOptions
	gain *GainStage

	mu      sync.Mutex
	started bool
}

// NewGraph creates a graph on out. The device is not touched until Ensure.
func NewGraph(out Output, opts GraphOptions) *Graph {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 48000
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 100 * time.Millisecond
	}
	return &Graph{
		out:  out,
		opts: opts,
		gain: NewGainStage(opts.InitialGain),
	}
}

// Ensure opens the output and connects the gain stage to it, once. While the
// device is unavailable it returns an error and a later call tries again.
func (g *Graph) Ensure() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return nil
	}
	if err := g.out.Init(g.opts.SampleRate, g.opts.SampleRate.N(g.opts.Buffer)); err != nil {
		return fmt.Errorf("audio: failed to initialize output: %w", err)
	}
	g.out.Play(g.gain)
	g.started = true
	slog.Debug("Audio: output started", "sample_rate", int(g.opts.SampleRate), "buffer", g.opts.Buffer)
	return nil
}

// Started reports whether the output has been opened.
func (g *Graph) Started() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started
}

// SampleRate returns the rate the graph renders at.
func (g *Graph) SampleRate() beep.SampleRate { return g.opts.SampleRate }

// Do runs fn while the render path is held off. Use it to mutate sources
// that are connected to the graph.
func (g *Graph) Do(fn func()) {
	g.out.Lock()
	defer g.out.Unlock()
	fn()
}

// Connect adds a source to the gain stage.
func (g *Graph) Connect(s beep.Streamer) {
	g.Do(func() { g.gain.Connect(s) })
}

// Sources returns how many sources the gain stage is still mixing.
func (g *Graph) Sources() int {
	var n int
	g.Do(func() { n = g.gain.Sources() })
	return n
}

// RampGain glides the gain linearly to target over d, starting at the current
// audio clock. It returns the clock time at which the target is reached.
func (g *Graph) RampGain(target float64, d time.Duration) time.Duration {
	var end time.Duration
	g.Do(func() {
		n := g.opts.SampleRate.N(d)
		g.gain.RampTo(target, n)
		end = g.opts.SampleRate.D(g.gain.Rendered() + n)
	})
	return end
}

// Gain returns the gain currently applied.
func (g *Graph) Gain() float64 {
	var v float64
	g.Do(func() { v = g.gain.Gain() })
	return v
}

// TargetGain returns the gain the stage is ramping to.
func (g *Graph) TargetGain() float64 {
	var v float64
	g.Do(func() { v = g.gain.Target() })
	return v
}

// Now returns the audio clock: the duration of audio rendered so far.
func (g *Graph) Now() time.Duration {
	var n int
	g.Do(func() { n = g.gain.Rendered() })
	return g.opts.SampleRate.D(n)
}

// Close releases the output. The graph cannot be restarted afterwards.
func (g *Graph) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		g.out.Close()
	}
}
