// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gauges
var (
	Playing = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tonegen_playing",
		Help: "1 while a tone source exists, 0 when stopped",
	})
	TargetGain = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tonegen_target_gain",
		Help: "Linear gain the gain stage is ramping to",
	})
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tonegen_websocket_clients",
		Help: "Number of connected control page WebSocket clients",
	})
)

// Counters
var (
	TogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tonegen_toggles_total",
		Help: "Playback toggles by resulting state",
	}, []string{"state"})
	VolumeChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tonegen_volume_changes_total",
		Help: "Total volume updates",
	})
	WaveformChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tonegen_waveform_changes_total",
		Help: "Waveform updates by selected kind",
	}, []string{"waveform"})
	DeviceErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tonegen_device_errors_total",
		Help: "Failed attempts to open the audio output",
	})
)
