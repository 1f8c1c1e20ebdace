package audio

import (
	"errors"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Output is the sink at the end of the graph. Lock must be held by the render
// path while it pulls samples, and by anyone mutating what it pulls from.
type Output interface {
	Init(sr beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Close()
}

// SpeakerOutput renders to the default device through gopxl/beep/speaker.
// The speaker is process-global, so only one SpeakerOutput may be used.
type SpeakerOutput struct{}

// NewSpeakerOutput returns the device-backed output.
func NewSpeakerOutput() *SpeakerOutput { return &SpeakerOutput{} }

func (SpeakerOutput) Init(sr beep.SampleRate, bufferSize int) error {
	return speaker.Init(sr, bufferSize)
}

func (SpeakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (SpeakerOutput) Lock()                { speaker.Lock() }
func (SpeakerOutput) Unlock()              { speaker.Unlock() }
func (SpeakerOutput) Close()               { speaker.Close() }

// ManualOutput is an Output that renders only when Pull is called. It serves
// headless runs (nothing pulls, the graph stays silent) and tests.
type ManualOutput struct {
	mu       sync.Mutex
	sr       beep.SampleRate
	streamer beep.Streamer
	inits    int

	// InitErr, when set, makes Init fail, like a device that is not yet available.
	InitErr error
}

// NewManualOutput returns an output with no device behind it.
func NewManualOutput() *ManualOutput { return &ManualOutput{} }

func (m *ManualOutput) Init(sr beep.SampleRate, bufferSize int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inits++
	if m.InitErr != nil {
		return m.InitErr
	}
	m.sr = sr
	return nil
}

// Play attaches the streamer Pull renders from. Unlike the speaker, the
// streamer is replaced, not mixed.
func (m *ManualOutput) Play(s beep.Streamer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamer = s
}

func (m *ManualOutput) Lock()   { m.mu.Lock() }
func (m *ManualOutput) Unlock() { m.mu.Unlock() }

func (m *ManualOutput) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamer = nil
}

// InitCalls returns how many times Init was attempted.
func (m *ManualOutput) InitCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inits
}

// Pull renders n samples the way the speaker's render loop would.
func (m *ManualOutput) Pull(n int) ([][2]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.streamer == nil {
		return nil, errors.New("audio: nothing is playing on this output")
	}
	buf := make([][2]float64, n)
	got, _ := m.streamer.Stream(buf)
	return buf[:got], nil
}
