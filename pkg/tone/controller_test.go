package tone

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonegen/pkg/audio"
	"tonegen/pkg/metrics"
)

func newTestController(t *testing.T, kind audio.Waveform) (*Controller, *audio.Graph, *audio.ManualOutput) {
	t.Helper()
	out := audio.NewManualOutput()
	g := audio.NewGraph(out, audio.GraphOptions{SampleRate: 48000, InitialGain: 0.5})
	return New(g, Options{Waveform: kind, Ramp: 50 * time.Millisecond}), g, out
}

func TestController_InitialState(t *testing.T) {
	c, g, out := newTestController(t, audio.Square)

	assert.Equal(t, Stopped, c.State())
	assert.Equal(t, "Play", c.Label())
	assert.Equal(t, audio.Square, c.Waveform())
	assert.Nil(t, c.source)
	assert.False(t, g.Started(), "the output opens on first play, not at construction")
	assert.Equal(t, 0, out.InitCalls())

	st := c.Status()
	assert.InDelta(t, -6.02, st.GainDb, 1e-9)
	assert.Equal(t, 440.0, st.Frequency)
}

func TestController_ToggleStartsSourceWithSelectedWaveform(t *testing.T) {
	c, g, _ := newTestController(t, audio.Sine)
	c.UpdateWaveform(audio.Sawtooth)

	state := c.TogglePlayback()

	assert.Equal(t, Playing, state)
	assert.Equal(t, "Stop", c.Label())
	require.NotNil(t, c.source)
	assert.Equal(t, audio.Sawtooth, c.source.Waveform())
	assert.Equal(t, Frequency, c.source.Frequency())
	assert.Equal(t, 1, g.Sources())
}

func TestController_DoubleToggleLeavesNoSource(t *testing.T) {
	c, g, out := newTestController(t, audio.Triangle)

	c.TogglePlayback()
	first := c.source
	require.NotNil(t, first)

	state := c.TogglePlayback()
	assert.Equal(t, Stopped, state)
	assert.Equal(t, "Play", c.Label())
	assert.Nil(t, c.source)
	assert.True(t, first.Stopped())

	_, err := out.Pull(64)
	require.NoError(t, err)
	assert.Equal(t, 0, g.Sources(), "the stopped source is disconnected on the next render")

	c.TogglePlayback()
	require.NotNil(t, c.source)
	assert.NotSame(t, first, c.source, "sources are never reused")
}

func TestController_UpdateWaveformWhilePlaying(t *testing.T) {
	c, _, _ := newTestController(t, audio.Sine)
	c.TogglePlayback()
	live := c.source

	c.UpdateWaveform(audio.Square)

	assert.Equal(t, Playing, c.State())
	assert.Same(t, live, c.source, "the live source is changed in place")
	assert.Equal(t, audio.Square, live.Waveform())
}

func TestController_UpdateWaveformWhileStopped(t *testing.T) {
	c, g, out := newTestController(t, audio.Sine)

	c.UpdateWaveform(audio.Triangle)

	assert.Equal(t, Stopped, c.State())
	assert.Nil(t, c.source)
	assert.Equal(t, audio.Triangle, c.Waveform())
	assert.False(t, g.Started())
	assert.Equal(t, 0, out.InitCalls())

	c.UpdateWaveform(audio.Waveform(99))
	assert.Equal(t, audio.Triangle, c.Waveform(), "invalid kinds never reach the selection")
}

func TestController_UpdateVolumeRamps(t *testing.T) {
	c, g, out := newTestController(t, audio.Sine)
	c.TogglePlayback()

	c.UpdateVolume(-6)

	assert.Equal(t, Playing, c.State())
	assert.InDelta(t, 0.501187, g.TargetGain(), 1e-6)
	assert.Equal(t, 0.5, g.Gain(), "gain is not changed instantaneously")

	_, err := out.Pull(1200) // 25ms
	require.NoError(t, err)
	assert.NotEqual(t, g.TargetGain(), g.Gain())

	_, err = out.Pull(1200)
	require.NoError(t, err)
	assert.InDelta(t, 0.501187, g.Gain(), 1e-6)

	st := c.Status()
	assert.Equal(t, -6.0, st.GainDb)
}

func TestController_UpdateVolumeWhileStopped(t *testing.T) {
	c, g, _ := newTestController(t, audio.Sine)

	c.UpdateVolume(-20)

	assert.Equal(t, Stopped, c.State())
	assert.InDelta(t, 0.1, g.TargetGain(), 1e-9)
	assert.Nil(t, c.source)
}

func TestController_DeferredInitialization(t *testing.T) {
	out := audio.NewManualOutput()
	out.InitErr = errors.New("audio device locked")
	g := audio.NewGraph(out, audio.GraphOptions{SampleRate: 48000, InitialGain: 0.5})
	c := New(g, Options{})
	failures := testutil.ToFloat64(metrics.DeviceErrorsTotal)

	state := c.TogglePlayback()
	assert.Equal(t, Stopped, state)
	assert.Nil(t, c.source)
	assert.False(t, c.Status().AudioAvailable)
	assert.Equal(t, failures+1, testutil.ToFloat64(metrics.DeviceErrorsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Playing))

	out.InitErr = nil
	state = c.TogglePlayback()
	assert.Equal(t, Playing, state)
	assert.True(t, c.Status().AudioAvailable)
	assert.Equal(t, 2, out.InitCalls())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Playing))
}

func TestController_Shutdown(t *testing.T) {
	c, _, _ := newTestController(t, audio.Sine)
	c.TogglePlayback()
	src := c.source

	c.Shutdown()
	assert.Equal(t, Stopped, c.State())
	assert.True(t, src.Stopped())

	c.Shutdown()
	assert.Equal(t, Stopped, c.State())
}

func TestStatus_JSON(t *testing.T) {
	c, _, _ := newTestController(t, audio.Square)
	c.TogglePlayback()

	data, err := json.Marshal(c.Status())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, true, got["playing"])
	assert.Equal(t, "Stop", got["label"])
	assert.Equal(t, "square", got["waveform"])
	assert.Equal(t, 440.0, got["frequency"])
}
