package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloakshare/safemirror/internal/config"
	"github.com/cloakshare/safemirror/internal/render"
	"github.com/cloakshare/safemirror/internal/types"
)

type fakeCapture struct {
	width, height int
	resErr        error
	frame         *types.Frame
	started       bool
	stopped       bool
}

func (c *fakeCapture) StartCapture(ctx context.Context) error { c.started = true; return nil }

func (c *fakeCapture) DisplayResolution() (int, int, error) {
	if c.resErr != nil {
		return 0, 0, c.resErr
	}
	return c.width, c.height, nil
}

func (c *fakeCapture) LatestFrame() (*types.Frame, bool) {
	if c.frame == nil {
		return nil, false
	}
	return c.frame, true
}

func (c *fakeCapture) Stop() error { c.stopped = true; return nil }

type fakeRenderer struct {
	width, height int
	lastData      []byte
	presents      int
	resizes       []string
	presentErrs   []error // consumed one per Present, then nil
	closed        bool
}

func (r *fakeRenderer) Resize(width, height int) {
	r.width, r.height = width, height
	r.resizes = append(r.resizes, fmt.Sprintf("%dx%d", width, height))
}

func (r *fakeRenderer) UpdateTexture(data []byte) {
	r.lastData = append(r.lastData[:0], data...)
}

func (r *fakeRenderer) Present() error {
	r.presents++
	if len(r.presentErrs) > 0 {
		err := r.presentErrs[0]
		r.presentErrs = r.presentErrs[1:]
		return err
	}
	return nil
}

func (r *fakeRenderer) CurrentSize() (int, int) { return r.width, r.height }

func (r *fakeRenderer) Close() error { r.closed = true; return nil }

type fakeExtractor struct {
	interval  uint64
	pending   []string // transcripts returned by successive Polls
	submitted []*types.Frame
	startErr  error
	stopped   bool
}

func (e *fakeExtractor) Start(ctx context.Context) error { return e.startErr }

func (e *fakeExtractor) Stop() { e.stopped = true }

func (e *fakeExtractor) ShouldExtract(tick uint64) bool { return tick%e.interval == 0 }

func (e *fakeExtractor) Submit(f *types.Frame) bool {
	e.submitted = append(e.submitted, f)
	return true
}

func (e *fakeExtractor) Poll() (string, bool) {
	if len(e.pending) == 0 {
		return "", false
	}
	text := e.pending[0]
	e.pending = e.pending[1:]
	return text, true
}

type fakePublisher struct {
	connectErr error
	events     []types.DetectionEvent
}

func (p *fakePublisher) Connect(ctx context.Context) error { return p.connectErr }

func (p *fakePublisher) Publish(ev types.DetectionEvent) error {
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Disconnect() error { return nil }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Mirror.FPS = 200 // keep Run loop tests fast
	return cfg
}

func newTestMirror(t *testing.T, opts Options) *Mirror {
	t.Helper()
	if opts.Capture == nil {
		opts.Capture = &fakeCapture{width: 64, height: 64}
	}
	if opts.Renderer == nil {
		opts.Renderer = &fakeRenderer{width: 64, height: 64}
	}
	m, err := New(testConfig(), opts)
	require.NoError(t, err)
	return m
}

func TestNew_RequiresCaptureAndRenderer(t *testing.T) {
	cfg := testConfig()

	_, err := New(cfg, Options{Renderer: &fakeRenderer{}})
	assert.Error(t, err)

	_, err = New(cfg, Options{Capture: &fakeCapture{}})
	assert.Error(t, err)
}

func TestTick_SyntheticFrameWhenCaptureEmpty(t *testing.T) {
	capture := &fakeCapture{width: 64, height: 64}
	renderer := &fakeRenderer{width: 64, height: 64}
	m := newTestMirror(t, Options{Capture: capture, Renderer: renderer})

	require.NoError(t, m.Tick(context.Background()))

	assert.Equal(t, 1, renderer.presents)
	assert.Len(t, renderer.lastData, 64*64*4)
	assert.Equal(t, render.TestPattern(64, 64), renderer.lastData)
}

func TestTick_GeometryFallback(t *testing.T) {
	capture := &fakeCapture{resErr: fmt.Errorf("not negotiated")}
	renderer := &fakeRenderer{}
	m := newTestMirror(t, Options{Capture: capture, Renderer: renderer})

	require.NoError(t, m.Tick(context.Background()))

	// Fallback geometry sizes the synthetic frame
	assert.Len(t, renderer.lastData, 1280*720*4)
	assert.Equal(t, 1, renderer.presents)
}

func TestTick_DetectionFlowUpdatesCacheAndPublishes(t *testing.T) {
	extractor := &fakeExtractor{
		interval: 60,
		pending:  []string{"contact user@example.com or 192.168.1.1"},
	}
	publisher := &fakePublisher{}
	m := newTestMirror(t, Options{
		Capture:   &fakeCapture{width: 640, height: 480},
		Renderer:  &fakeRenderer{width: 640, height: 480},
		Extractor: extractor,
		Publisher: publisher,
	})

	require.NoError(t, m.Tick(context.Background()))

	assert.Equal(t, 2, m.CachedMatches())
	require.Len(t, publisher.events, 1)
	ev := publisher.events[0]
	assert.Equal(t, uint64(0), ev.Tick)
	assert.Equal(t, map[string]int{"email": 1, "ip_address": 1}, ev.Counts)
	assert.Len(t, ev.Regions, 2)

	// Tick 0 is a duty tick, so a job was submitted
	assert.Len(t, extractor.submitted, 1)
}

func TestTick_EmptyDetectionKeepsCache(t *testing.T) {
	extractor := &fakeExtractor{
		interval: 60,
		pending:  []string{"user@example.com", "", "nothing here", ""},
	}
	m := newTestMirror(t, Options{
		Capture:   &fakeCapture{width: 64, height: 64},
		Renderer:  &fakeRenderer{width: 64, height: 64},
		Extractor: extractor,
	})

	ctx := context.Background()
	require.NoError(t, m.Tick(ctx))
	assert.Equal(t, 1, m.CachedMatches())

	// Later empty transcripts never clear the cache
	for i := 0; i < 3; i++ {
		require.NoError(t, m.Tick(ctx))
		assert.Equal(t, 1, m.CachedMatches())
	}
}

func TestTick_DutyCycleGatesSubmission(t *testing.T) {
	extractor := &fakeExtractor{interval: 60}
	m := newTestMirror(t, Options{
		Capture:   &fakeCapture{width: 64, height: 64},
		Renderer:  &fakeRenderer{width: 64, height: 64},
		Extractor: extractor,
	})

	ctx := context.Background()
	for i := 0; i < 61; i++ {
		require.NoError(t, m.Tick(ctx))
	}

	// Ticks 0 and 60 fire the duty cycle
	assert.Len(t, extractor.submitted, 2)
}

func TestTick_RedactionAppliedToPresentedFrame(t *testing.T) {
	frame := &types.Frame{
		Width:  640,
		Height: 480,
		Data:   make([]byte, 640*480*4),
	}
	for i := range frame.Data {
		frame.Data[i] = 0xee
	}
	extractor := &fakeExtractor{interval: 60, pending: []string{"user@example.com"}}
	renderer := &fakeRenderer{width: 640, height: 480}
	m := newTestMirror(t, Options{
		Capture:   &fakeCapture{width: 640, height: 480, frame: frame},
		Renderer:  renderer,
		Extractor: extractor,
	})

	require.NoError(t, m.Tick(context.Background()))
	require.Equal(t, 1, m.CachedMatches())

	// Some presented pixels were overwritten with the opaque block color
	var blocked bool
	for i := 0; i+3 < len(renderer.lastData); i += 4 {
		if renderer.lastData[i] == 0 && renderer.lastData[i+3] == 255 {
			blocked = true
			break
		}
	}
	assert.True(t, blocked, "expected redaction blocks in presented frame")
}

func TestTick_PresentErrorIsWrapped(t *testing.T) {
	renderer := &fakeRenderer{width: 64, height: 64, presentErrs: []error{render.ErrSurfaceLost}}
	m := newTestMirror(t, Options{Renderer: renderer})

	err := m.Tick(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, render.ErrSurfaceLost)
}

func TestRun_SurfaceLostReconfiguresAndContinues(t *testing.T) {
	renderer := &fakeRenderer{width: 64, height: 64, presentErrs: []error{render.ErrSurfaceLost}}
	m := newTestMirror(t, Options{Renderer: renderer})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, m.Run(ctx))

	// The lost surface was reconfigured at its current size and presenting resumed
	assert.Contains(t, renderer.resizes, "64x64")
	assert.Greater(t, renderer.presents, 1)
}

func TestRun_OutOfMemoryIsFatal(t *testing.T) {
	renderer := &fakeRenderer{width: 64, height: 64, presentErrs: []error{render.ErrOutOfMemory}}
	m := newTestMirror(t, Options{Renderer: renderer})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := m.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, render.ErrOutOfMemory)
}

func TestRun_GenericTickErrorIsSkipped(t *testing.T) {
	renderer := &fakeRenderer{width: 64, height: 64, presentErrs: []error{fmt.Errorf("transient glitch")}}
	m := newTestMirror(t, Options{Renderer: renderer})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, m.Run(ctx))
	assert.Greater(t, renderer.presents, 1)
	assert.Empty(t, renderer.resizes)
}

func TestRun_SecondRunFails(t *testing.T) {
	m := newTestMirror(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool {
		return m.Run(context.Background()) != nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRun_ExtractorStartFailureDisablesDetection(t *testing.T) {
	extractor := &fakeExtractor{interval: 60, startErr: fmt.Errorf("tesseract missing")}
	m := newTestMirror(t, Options{
		Capture:   &fakeCapture{width: 64, height: 64},
		Renderer:  &fakeRenderer{width: 64, height: 64},
		Extractor: extractor,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, m.Run(ctx))
	assert.Empty(t, extractor.submitted)
}

func TestShutdown_StopsCollaboratorsInOrder(t *testing.T) {
	capture := &fakeCapture{width: 64, height: 64}
	renderer := &fakeRenderer{width: 64, height: 64}
	extractor := &fakeExtractor{interval: 60}
	m := newTestMirror(t, Options{Capture: capture, Renderer: renderer, Extractor: extractor})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return renderer.presents > 0 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.True(t, extractor.stopped)
	assert.True(t, capture.stopped)
	assert.True(t, renderer.closed)

	// Shutdown is a no-op when not running
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestResize_RoutesToRenderer(t *testing.T) {
	renderer := &fakeRenderer{width: 640, height: 480}
	m := newTestMirror(t, Options{Renderer: renderer})

	m.Resize(1920, 1080)
	w, h := renderer.CurrentSize()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
}

func TestNewDetectionEvent_CarriesNoMatchedText(t *testing.T) {
	matches := types.MatchSet{
		{Category: types.CategoryEmail, Text: "user@example.com", Confidence: 0.8,
			Rect: types.PixelRect{X: 10, Y: 20, Width: 160, Height: 20}},
		{Category: types.CategoryAPIKey, Text: "sk_test_abc123def456789012", Confidence: 0.8,
			Rect: types.PixelRect{X: 10, Y: 44, Width: 260, Height: 20}},
	}

	ev := NewDetectionEvent("mirror-01", 42, matches)
	assert.Equal(t, "mirror-01", ev.InstanceID)
	assert.Equal(t, uint64(42), ev.Tick)
	assert.Equal(t, map[string]int{"email": 1, "api_key": 1}, ev.Counts)
	assert.Len(t, ev.Regions, 2)

	payload, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "user@example.com")
	assert.NotContains(t, string(payload), "sk_test_abc123def456789012")
}
