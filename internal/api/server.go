package api

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tonegen/internal/ui"
	"tonegen/pkg/version"
)

// NewServer creates and configures the HTTP server.
// shutdown is called, off the request goroutine, when POST /api/shutdown arrives.
func NewServer(addr string, toneH *ToneHandler, hub *Hub, shutdown func()) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewMux(toneH, hub, shutdown),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers every route. It is separate from NewServer so tests can
// mount it on httptest.
func NewMux(toneH *ToneHandler, hub *Hub, shutdown func()) *http.ServeMux {
	mux := http.NewServeMux()

	// 1. Health and version
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)

	// 2. Tone controls
	mux.HandleFunc("GET /api/tone/status", toneH.HandleStatus)
	mux.HandleFunc("POST /api/tone/toggle", toneH.HandleToggle)
	mux.HandleFunc("POST /api/tone/volume", toneH.HandleVolume)
	mux.HandleFunc("POST /api/tone/waveform", toneH.HandleWaveform)

	// 3. Control page channel
	if hub != nil {
		mux.HandleFunc("GET /api/ws", hub.HandleWS)
	}

	// 4. Logs and metrics
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)
	mux.Handle("GET /metrics", promhttp.Handler())

	// 5. Shutdown
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		if shutdown == nil {
			return
		}
		// Let the response flush first.
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	// 6. Control page
	distFS, err := fs.Sub(ui.DistFS, "dist")
	if err != nil {
		panic(fmt.Sprintf("Failed to subtree dist from embedded assets: %v", err))
	}
	mux.Handle("/", http.FileServer(&spaFileSystem{root: http.FS(distFS)}))

	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
