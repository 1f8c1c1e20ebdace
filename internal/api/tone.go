package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"tonegen/pkg/audio"
	"tonegen/pkg/tone"
)

// Controls is the subset of tone.Controller the API drives.
type Controls interface {
	TogglePlayback() tone.State
	UpdateVolume(db float64)
	UpdateWaveform(kind audio.Waveform)
	Status() tone.Status
}

// ToneHandler handles the REST control endpoints.
type ToneHandler struct {
	ctrl      Controls
	broadcast func(tone.Status)
}

// NewToneHandler creates a ToneHandler. broadcast is called with the new
// status after every change; it may be nil.
func NewToneHandler(ctrl Controls, broadcast func(tone.Status)) *ToneHandler {
	return &ToneHandler{ctrl: ctrl, broadcast: broadcast}
}

// VolumeRequest is the body of POST /api/tone/volume.
type VolumeRequest struct {
	Db *float64 `json:"db"`
}

// WaveformRequest is the body of POST /api/tone/waveform.
type WaveformRequest struct {
	Waveform string `json:"waveform"`
}

// HandleStatus handles GET /api/tone/status
func (h *ToneHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, h.ctrl.Status())
}

// HandleToggle handles POST /api/tone/toggle
func (h *ToneHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	state := h.ctrl.TogglePlayback()
	slog.Debug("Tone control", "action", "toggle", "state", state.String())
	h.respond(w)
}

// HandleVolume handles POST /api/tone/volume
func (h *ToneHandler) HandleVolume(w http.ResponseWriter, r *http.Request) {
	var req VolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Db == nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validateDb(*req.Db); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.ctrl.UpdateVolume(*req.Db)
	h.respond(w)
}

// HandleWaveform handles POST /api/tone/waveform
func (h *ToneHandler) HandleWaveform(w http.ResponseWriter, r *http.Request) {
	var req WaveformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	kind, err := audio.ParseWaveform(req.Waveform)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.ctrl.UpdateWaveform(kind)
	h.respond(w)
}

func (h *ToneHandler) respond(w http.ResponseWriter) {
	st := h.ctrl.Status()
	if h.broadcast != nil {
		h.broadcast(st)
	}
	writeStatus(w, st)
}

func writeStatus(w http.ResponseWriter, st tone.Status) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(st); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// validateDb rejects what the slider cannot produce.
func validateDb(db float64) error {
	if math.IsNaN(db) || math.IsInf(db, 0) {
		return fmt.Errorf("invalid volume: %v", db)
	}
	if db < tone.MinDb || db > tone.MaxDb {
		return fmt.Errorf("volume %.1f dB out of range [%.0f, %.0f]", db, tone.MinDb, tone.MaxDb)
	}
	return nil
}
