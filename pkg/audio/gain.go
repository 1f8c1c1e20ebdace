package audio

import (
	"math"

	"github.com/gopxl/beep/v2"
)

// GainStage mixes its connected sources and scales them by a gain that
// moves linearly towards a target, so volume changes never click.
//
// Thread Safety:
// GainStage is NOT internally synchronized. The speaker calls Stream from its
// own goroutine while holding speaker.Lock(), so every other method must be
// called while holding the same lock. Graph takes care of this.
type GainStage struct {
	mixer beep.Mixer

	// gain is the multiplier applied to the current sample.
	gain float64
	// target is where gain is heading.
	target float64
	// step is the per-sample change that reaches target by the end of the ramp.
	step float64

	// rendered counts every sample handed to the output. It is the audio clock.
	rendered int
}

// NewGainStage creates a GainStage at a fixed initial gain.
func NewGainStage(initial float64) *GainStage {
	initial = clampGain(initial)
	return &GainStage{gain: initial, target: initial}
}

// Stream renders the mix and applies the gain. It never drains: with no
// sources connected it renders silence so the output stays open.
func (g *GainStage) Stream(samples [][2]float64) (n int, ok bool) {
	n, _ = g.mixer.Stream(samples)
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}

	for i := range samples {
		if g.gain != g.target {
			if g.step == 0 {
				g.gain = g.target
			} else if g.gain < g.target {
				g.gain = math.Min(g.gain+g.step, g.target)
			} else {
				g.gain = math.Max(g.gain-g.step, g.target)
			}
		}
		samples[i][0] *= g.gain
		samples[i][1] *= g.gain
	}

	g.rendered += len(samples)
	return len(samples), true
}

func (g *GainStage) Err() error { return nil }

// Connect adds a source to the mix.
func (g *GainStage) Connect(s beep.Streamer) {
	g.mixer.Add(s)
}

// Sources returns how many sources are still in the mix. A stopped source
// is dropped on the next render pass.
func (g *GainStage) Sources() int {
	return g.mixer.Len()
}

// RampTo glides from the current gain to target over the given number of samples,
// starting with the next rendered sample. A non-positive length jumps on the next sample.
func (g *GainStage) RampTo(target float64, samples int) {
	g.target = clampGain(target)
	diff := math.Abs(g.target - g.gain)
	if samples <= 0 || diff == 0 {
		g.step = 0
		return
	}
	g.step = diff / float64(samples)
}

// Gain returns the multiplier that was applied to the last rendered sample.
func (g *GainStage) Gain() float64 { return g.gain }

// Target returns the gain the ramp is heading to.
func (g *GainStage) Target() float64 { return g.target }

// Rendered returns the number of samples rendered so far.
func (g *GainStage) Rendered() int { return g.rendered }

func clampGain(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
