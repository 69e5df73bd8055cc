package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloakshare/safemirror/internal/capture"
	"github.com/cloakshare/safemirror/internal/config"
	"github.com/cloakshare/safemirror/internal/emitter"
	"github.com/cloakshare/safemirror/internal/extract"
	"github.com/cloakshare/safemirror/internal/mirror"
	"github.com/cloakshare/safemirror/internal/render"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the safe mirror",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMirror()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runMirror() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("starting safe mirror",
		"instance_id", cfg.InstanceID,
		"capture_source", cfg.Capture.Source,
		"fps", cfg.Mirror.FPS,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Capture comes up first so the window can match the display. A
	// capture failure degrades to synthetic frames, never aborts startup.
	src := buildCapture(cfg)
	if err := src.StartCapture(ctx); err != nil {
		slog.Error("capture unavailable, mirroring synthetic frames", "error", err)
	}
	width, height := detectResolution(src, cfg)

	renderer, err := buildRenderer(cfg, width, height)
	if err != nil {
		return fmt.Errorf("failed to open presentation surface: %w", err)
	}

	m, err := mirror.New(cfg, mirror.Options{
		Capture:   src,
		Renderer:  renderer,
		Extractor: buildExtractor(cfg),
		Publisher: buildPublisher(cfg),
	})
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- m.Run(ctx)
	}()

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		cancel()
	case runErr = <-errChan:
		if runErr != nil {
			slog.Error("mirror failed", "error", runErr)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), m.ShutdownTimeout())
	defer shutdownCancel()
	if err := m.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}

	if runErr != nil {
		return runErr
	}
	slog.Info("safe mirror stopped")
	return nil
}

func loadConfig() (*config.Config, error) {
	if flagConfig == "" {
		slog.Info("no config file supplied, using defaults")
		return config.Default(), nil
	}
	return config.Load(flagConfig)
}

func buildCapture(cfg *config.Config) mirror.Capture {
	if cfg.Capture.Source == "mock" {
		return capture.NewMock(cfg.Mirror.DefaultWidth, cfg.Mirror.DefaultHeight, cfg.Mirror.FPS)
	}
	src, err := capture.NewX11(cfg.Capture.Display, cfg.Mirror.FPS)
	if err != nil {
		// Validation already bounds the inputs; treat this as a broken
		// display setup and fall back to synthetic frames
		slog.Error("x11 capture unavailable, using mock source", "error", err)
		return capture.NewMock(cfg.Mirror.DefaultWidth, cfg.Mirror.DefaultHeight, cfg.Mirror.FPS)
	}
	return src
}

// detectResolution waits briefly for capture to negotiate the display
// geometry, falling back to the configured default.
func detectResolution(src mirror.Capture, cfg *config.Config) (int, int) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if w, h, err := src.DisplayResolution(); err == nil && w > 0 && h > 0 {
			slog.Info("display resolution detected", "resolution", fmt.Sprintf("%dx%d", w, h))
			return w, h
		}
		time.Sleep(100 * time.Millisecond)
	}
	slog.Warn("failed to detect display resolution, using fallback",
		"fallback", fmt.Sprintf("%dx%d", cfg.Mirror.DefaultWidth, cfg.Mirror.DefaultHeight),
	)
	return cfg.Mirror.DefaultWidth, cfg.Mirror.DefaultHeight
}

func buildRenderer(cfg *config.Config, width, height int) (mirror.Renderer, error) {
	if cfg.Mirror.Headless {
		return render.NewHeadless(width, height), nil
	}
	return render.NewWindow(cfg.Mirror.WindowTitle, width, height, cfg.Mirror.FPS)
}

func buildExtractor(cfg *config.Config) mirror.Extractor {
	if cfg.Detect.Disabled {
		slog.Info("detection disabled by configuration")
		return nil
	}
	transcriber, err := extract.NewTesseractCLI(cfg.OCR.Binary, cfg.OCR.Lang)
	if err != nil {
		slog.Error("ocr engine unavailable, detection disabled", "error", err)
		return nil
	}
	transcriber.Timeout = time.Duration(cfg.OCR.TimeoutS) * time.Second

	worker, err := extract.NewWorker(transcriber, cfg.Detect.IntervalTicks)
	if err != nil {
		slog.Error("failed to create extraction worker, detection disabled", "error", err)
		return nil
	}
	return worker
}

func buildPublisher(cfg *config.Config) mirror.Publisher {
	if cfg.MQTT.Broker == "" {
		return nil
	}
	return emitter.NewMQTTEmitter(cfg)
}
