package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration read from YAML. Audio settings are short, so
// a bare number is taken as milliseconds: "buffer: 100" equals "buffer: 100ms".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML accepts "50ms", "0.1s" or 50.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	dur, err := ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML writes the Go duration form, e.g. "50ms".
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// ParseDuration parses a Go duration string or a plain millisecond count.
// Negative values are rejected.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	var dur time.Duration
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		dur = time.Duration(ms * float64(time.Millisecond))
	} else {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return 0, fmt.Errorf("invalid duration %q: want e.g. 50ms, 0.1s or a millisecond count", s)
		}
		dur = parsed
	}

	if dur < 0 {
		return 0, fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	return dur, nil
}
