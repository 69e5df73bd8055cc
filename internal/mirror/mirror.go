// Package mirror sequences the per-tick pipeline: frame acquisition,
// duty-cycled detection, redaction-cache update, redaction, and hand-off
// to the presentation surface. It owns all failure-degradation policy.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cloakshare/safemirror/internal/config"
	"github.com/cloakshare/safemirror/internal/detect"
	"github.com/cloakshare/safemirror/internal/redact"
	"github.com/cloakshare/safemirror/internal/render"
	"github.com/cloakshare/safemirror/internal/types"
)

// Mirror is the frame orchestrator. One cycle runs per tick; cycles never
// overlap. All cross-tick state (the tick counter and the redaction
// cache) is owned by the goroutine driving Tick.
type Mirror struct {
	cfg *config.Config

	capture   Capture
	renderer  Renderer
	extractor Extractor // nil when detection is disabled
	publisher Publisher // nil when no broker is configured
	engine    *detect.Engine
	cache     *redact.Cache
	applier   *redact.Applier

	tick uint64

	mu        sync.Mutex
	isRunning bool
	started   time.Time

	stats        pipelineStats
	lastStatsLog time.Time
}

type pipelineStats struct {
	ticks             uint64
	framesReal        uint64
	framesSynthetic   uint64
	geometryFallbacks uint64
	cacheReplacements uint64
	presentErrors     uint64
}

// Options supplies the orchestrator's collaborators. Capture and Renderer
// are required; Extractor and Publisher are optional and their absence
// degrades the corresponding feature. A nil Engine gets the default.
type Options struct {
	Capture   Capture
	Renderer  Renderer
	Extractor Extractor
	Publisher Publisher
	Engine    *detect.Engine
}

// New assembles a mirror from validated configuration and collaborators.
func New(cfg *config.Config, opts Options) (*Mirror, error) {
	if opts.Capture == nil {
		return nil, fmt.Errorf("mirror: capture source is required")
	}
	if opts.Renderer == nil {
		return nil, fmt.Errorf("mirror: renderer is required")
	}
	engine := opts.Engine
	if engine == nil {
		engine = detect.NewEngine()
	}
	return &Mirror{
		cfg:       cfg,
		capture:   opts.Capture,
		renderer:  opts.Renderer,
		extractor: opts.Extractor,
		publisher: opts.Publisher,
		engine:    engine,
		cache:     redact.NewCache(),
		applier:   redact.NewApplier(cfg.BlockColorRGBA()),
	}, nil
}

// Run starts the collaborators and drives ticks at the configured cadence
// until the context is cancelled or a fatal presentation error occurs.
//
// Failure policy: surface lost reconfigures the surface and retries next
// tick; out-of-memory is fatal; any other tick error is logged and the
// tick is skipped.
func (m *Mirror) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		return fmt.Errorf("mirror: already running")
	}
	m.isRunning = true
	m.started = time.Now()
	m.mu.Unlock()

	m.startComponents(ctx)

	interval := time.Second / time.Duration(m.cfg.Mirror.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("safe mirror running",
		"fps", m.cfg.Mirror.FPS,
		"detect_interval_ticks", m.detectInterval(),
		"detection_enabled", m.extractor != nil,
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("mirror run loop exiting")
			return nil
		case <-ticker.C:
			if err := m.Tick(ctx); err != nil {
				if fatal := m.handleTickError(err); fatal != nil {
					return fatal
				}
			}
		}
	}
}

// Tick executes one full pipeline cycle. The returned error is classified
// by the run loop; a tick either completes normally or degrades to
// defaults and still completes, so nothing here needs mid-cycle
// cancellation.
func (m *Mirror) Tick(ctx context.Context) error {
	tick := m.tick
	m.tick++
	m.stats.ticks++

	// 1-2. Geometry with fixed fallback, then frame acquisition. The
	// render loop never stalls waiting on capture.
	width, height, err := m.capture.DisplayResolution()
	if err != nil || width <= 0 || height <= 0 {
		width = m.cfg.Mirror.DefaultWidth
		height = m.cfg.Mirror.DefaultHeight
		m.stats.geometryFallbacks++
	}

	frame, ok := m.capture.LatestFrame()
	if !ok {
		frame = m.syntheticFrame(tick, width, height)
		m.stats.framesSynthetic++
	} else {
		m.stats.framesReal++
	}

	// 3. Collect the prior extraction result, then feed the duty cycle.
	// Detection failures may only fail to add redactions, never remove
	// existing ones: an empty result leaves the cache untouched.
	if m.extractor != nil {
		if text, got := m.extractor.Poll(); got {
			matches := m.engine.Detect(text)
			if m.cache.Update(matches) {
				m.stats.cacheReplacements++
				slog.Info("redaction cache updated",
					"regions", len(matches),
					"tick", tick,
				)
				m.publishDetections(tick, matches)
			}
		}
		if m.extractor.ShouldExtract(tick) {
			m.extractor.Submit(frame)
		}
	}

	// 4. Redact unconditionally from cache contents.
	m.applier.Apply(frame, m.cache.Matches())

	// 5. Hand off to the presentation surface.
	m.renderer.UpdateTexture(frame.Data)
	if err := m.renderer.Present(); err != nil {
		m.stats.presentErrors++
		return fmt.Errorf("present: %w", err)
	}

	m.maybeLogStats()
	return nil
}

// Resize routes a window resize into the presentation surface.
func (m *Mirror) Resize(width, height int) {
	m.renderer.Resize(width, height)
}

// Shutdown performs ordered teardown of all collaborators.
func (m *Mirror) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return nil
	}
	m.isRunning = false
	uptime := time.Since(m.started)
	m.mu.Unlock()

	slog.Info("shutting down safe mirror")

	// Extraction first (depends on frames), then capture, then the
	// surface, then the broker.
	if m.extractor != nil {
		m.extractor.Stop()
	}
	if err := m.capture.Stop(); err != nil {
		slog.Error("failed to stop capture", "error", err)
	}
	if err := m.renderer.Close(); err != nil {
		slog.Error("failed to close presentation surface", "error", err)
	}
	if m.publisher != nil {
		if err := m.publisher.Disconnect(); err != nil {
			slog.Error("failed to disconnect publisher", "error", err)
		}
	}

	slog.Info("safe mirror shutdown complete",
		"uptime", uptime,
		"ticks", m.stats.ticks,
		"frames_synthetic", m.stats.framesSynthetic,
	)
	return nil
}

// ShutdownTimeout returns the configured graceful shutdown timeout.
func (m *Mirror) ShutdownTimeout() time.Duration {
	if m.cfg.ShutdownTimeoutS == 0 {
		return 5 * time.Second
	}
	return time.Duration(m.cfg.ShutdownTimeoutS) * time.Second
}

// CachedMatches exposes the current redaction set size for health
// reporting.
func (m *Mirror) CachedMatches() int {
	return m.cache.Len()
}

// startComponents starts the collaborators the orchestrator owns the
// lifecycle of, degrading on failure instead of aborting: extractor
// failure disables detection, publisher failure disables events. Capture
// is started by the caller before the surface is sized (and a capture
// start failure degrades to synthetic frames on every tick).
func (m *Mirror) startComponents(ctx context.Context) {
	if m.extractor != nil {
		if err := m.extractor.Start(ctx); err != nil {
			slog.Error("extraction unavailable, detection disabled", "error", err)
			m.extractor = nil
		}
	}
	if m.publisher != nil {
		if err := m.publisher.Connect(ctx); err != nil {
			slog.Error("broker unavailable, detection events disabled", "error", err)
			m.publisher = nil
		}
	}
}

func (m *Mirror) handleTickError(err error) error {
	switch {
	case errors.Is(err, render.ErrOutOfMemory):
		// Fatal: the process terminates
		return fmt.Errorf("mirror: fatal presentation failure: %w", err)
	case errors.Is(err, render.ErrSurfaceLost):
		// Transient: reconfigure the surface, retry on the next tick
		width, height := m.renderer.CurrentSize()
		slog.Warn("presentation surface lost, reconfiguring",
			"resolution", fmt.Sprintf("%dx%d", width, height),
		)
		m.renderer.Resize(width, height)
		return nil
	default:
		slog.Error("tick failed, skipping", "error", err)
		return nil
	}
}

// syntheticFrame builds the deterministic test-pattern frame substituted
// when capture has nothing to offer.
func (m *Mirror) syntheticFrame(tick uint64, width, height int) *types.Frame {
	return &types.Frame{
		Seq:       tick,
		Timestamp: time.Now(),
		Width:     width,
		Height:    height,
		Data:      render.TestPattern(width, height),
		Synthetic: true,
		TraceID:   uuid.New().String(),
	}
}

// publishDetections emits a content-free summary of a cache replacement.
func (m *Mirror) publishDetections(tick uint64, matches types.MatchSet) {
	if m.publisher == nil {
		return
	}
	ev := NewDetectionEvent(m.cfg.InstanceID, tick, matches)
	if err := m.publisher.Publish(ev); err != nil {
		slog.Error("failed to publish detection event", "error", err)
	}
}

// NewDetectionEvent summarizes a match set for outward publication.
// Matched text never crosses this boundary.
func NewDetectionEvent(instanceID string, tick uint64, matches types.MatchSet) types.DetectionEvent {
	regions := make([]types.PixelRect, 0, len(matches))
	for _, match := range matches {
		regions = append(regions, match.Rect)
	}
	return types.DetectionEvent{
		InstanceID: instanceID,
		Tick:       tick,
		Timestamp:  time.Now().UTC(),
		Counts:     matches.Categories(),
		Regions:    regions,
	}
}

func (m *Mirror) detectInterval() uint64 {
	return m.cfg.Detect.IntervalTicks
}

func (m *Mirror) maybeLogStats() {
	const logInterval = 10 * time.Second
	if time.Since(m.lastStatsLog) < logInterval {
		return
	}
	m.lastStatsLog = time.Now()

	slog.Debug("pipeline stats",
		"ticks", m.stats.ticks,
		"frames_real", m.stats.framesReal,
		"frames_synthetic", m.stats.framesSynthetic,
		"geometry_fallbacks", m.stats.geometryFallbacks,
		"cache_regions", m.cache.Len(),
		"cache_replacements", m.stats.cacheReplacements,
		"present_errors", m.stats.presentErrors,
	)
}
