package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/joho/godotenv"

	"tonegen/internal/api"
	"tonegen/pkg/audio"
	"tonegen/pkg/config"
	"tonegen/pkg/logging"
	"tonegen/pkg/tone"
	"tonegen/pkg/version"
)

const defaultConfigPath = "configs/tonegen.yaml"

var (
	configPath = flag.String("config", defaultConfigPath, "Path to the config file")
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Tonegen Started", "version", version.Version)

	kind, err := audio.ParseWaveform(appCfg.Tone.Waveform)
	if err != nil {
		return fmt.Errorf("invalid tone.waveform: %w", err)
	}

	graph := audio.NewGraph(newOutput(appCfg.Audio.Device), audio.GraphOptions{
		SampleRate:  beep.SampleRate(appCfg.Audio.SampleRate),
		Buffer:      appCfg.Audio.Buffer.Std(),
		InitialGain: appCfg.Tone.InitialGain,
	})
	defer graph.Close()

	ctrl := tone.New(graph, tone.Options{
		Waveform: kind,
		Ramp:     appCfg.Audio.Ramp.Std(),
	})
	defer ctrl.Shutdown()

	hub := api.NewHub(ctrl)
	defer hub.Close()

	return runServer(ctx, appCfg, ctrl, hub)
}

// newOutput picks the device backend. "none" renders nowhere, which keeps the
// control surface usable on machines without sound hardware.
func newOutput(device string) audio.Output {
	if device == "none" {
		slog.Info("Audio device disabled, tone will not be audible")
		return audio.NewManualOutput()
	}
	return audio.NewSpeakerOutput()
}

func runServer(ctx context.Context, cfg *config.Config, ctrl *tone.Controller, hub *api.Hub) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address,
		api.NewToneHandler(ctrl, hub.Broadcast),
		hub,
		shutdownFunc,
	)

	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
