package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvAddress overrides Server.Address when set.
const EnvAddress = "TONEGEN_ADDRESS"

// Config holds the application configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Audio  AudioConfig  `yaml:"audio"`
	Tone   ToneConfig   `yaml:"tone"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// AudioConfig holds output device and gain stage settings.
type AudioConfig struct {
	Device     string   `yaml:"device"` // "speaker", "none"
	SampleRate int      `yaml:"sample_rate"`
	Buffer     Duration `yaml:"buffer"` // speaker buffer length
	Ramp       Duration `yaml:"ramp"`   // gain ramp length for volume changes
}

// ToneConfig holds the initial state of the controls.
type ToneConfig struct {
	Waveform    string  `yaml:"waveform"`
	InitialGain float64 `yaml:"initial_gain"` // linear, 0.0 to 1.0
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "localhost:1940",
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		Audio: AudioConfig{
			Device:     "speaker",
			SampleRate: 48000,
			Buffer:     Duration(100 * time.Millisecond),
			Ramp:       Duration(50 * time.Millisecond),
		},
		Tone: ToneConfig{
			Waveform:    "sine",
			InitialGain: 0.5,
		},
	}
}

// Load reads the configuration at path. A missing file is created with the
// defaults. Environment overrides are applied after reading and are never
// written back.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if addr := os.Getenv(EnvAddress); addr != "" {
		cfg.Server.Address = addr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks device and numeric settings. Waveform names are checked by the audio package.
func (c *Config) Validate() error {
	switch c.Audio.Device {
	case "speaker", "none":
	default:
		return fmt.Errorf("invalid audio.device '%s': must be 'speaker' or 'none'", c.Audio.Device)
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return fmt.Errorf("invalid audio.sample_rate %d: must be between 8000 and 192000", c.Audio.SampleRate)
	}
	if c.Audio.Buffer <= 0 {
		return fmt.Errorf("invalid audio.buffer %s: must be positive", time.Duration(c.Audio.Buffer))
	}
	if c.Audio.Ramp <= 0 {
		return fmt.Errorf("invalid audio.ramp %s: must be positive", time.Duration(c.Audio.Ramp))
	}
	if c.Tone.InitialGain < 0 || c.Tone.InitialGain > 1 {
		return fmt.Errorf("invalid tone.initial_gain %.2f: must be between 0 and 1", c.Tone.InitialGain)
	}
	return nil
}

const configHeader = `# tonegen Configuration
# ---------------------
# Durations: Go syntax (50ms, 0.1s) or a bare number of milliseconds.
# tone.initial_gain is linear (0.5 is about -6 dB).

`

// fieldComments are written above the matching keys on save.
var fieldComments = []struct {
	key     *regexp.Regexp
	comment string
}{
	{regexp.MustCompile(`(?m)^(\s+)device:`), "Options: speaker, none (headless, nothing is rendered)"},
	{regexp.MustCompile(`(?m)^(\s+)ramp:`), "Volume changes glide over this interval to avoid clicks"},
	{regexp.MustCompile(`(?m)^(\s+)waveform:`), "Options: sine, square, sawtooth, triangle"},
}

// Save writes cfg to path with the header and field comments, creating the
// directory if needed.
func Save(path string, cfg *Config) error {
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	for _, fc := range fieldComments {
		body = fc.key.ReplaceAll(body, []byte("${1}# "+fc.comment+"\n$0"))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), body...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault writes the defaults to path unless a file is already there.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return Save(path, DefaultConfig())
}
