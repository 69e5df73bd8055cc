package render

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// Window presents sanitized frames to a desktop window through a
// GStreamer pipeline:
//
//	appsrc → videoconvert → autovideosink
//
// Present pushes the staged RGBA buffer into the appsrc. A bus monitor
// goroutine watches for pipeline errors; once an error is seen, Present
// reports ErrSurfaceLost so the orchestrator reconfigures and retries.
type Window struct {
	mu       sync.Mutex
	pipeline *gst.Pipeline
	src      *app.Source
	width    int
	height   int
	fps      int
	pending  []byte
	lost     bool
	closed   bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWindow creates and starts a windowed presentation surface.
func NewWindow(title string, width, height, fps int) (*Window, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: invalid surface size %dx%d", width, height)
	}

	// Safe to call multiple times
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("render: failed to create pipeline: %w", err)
	}

	src, err := app.NewAppSrc()
	if err != nil {
		return nil, fmt.Errorf("render: failed to create appsrc: %w", err)
	}
	src.SetProperty("is-live", true)
	src.SetProperty("format", 3) // GST_FORMAT_TIME
	src.SetCaps(rgbaCaps(width, height, fps))

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("render: failed to create videoconvert: %w", err)
	}

	sink, err := gst.NewElement("autovideosink")
	if err != nil {
		return nil, fmt.Errorf("render: failed to create autovideosink: %w", err)
	}
	// The render loop drives cadence, not the sink clock
	sink.SetProperty("sync", false)

	if err := pipeline.AddMany(src.Element, converter, sink); err != nil {
		return nil, fmt.Errorf("render: failed to assemble pipeline: %w", err)
	}
	if err := gst.ElementLinkMany(src.Element, converter, sink); err != nil {
		return nil, fmt.Errorf("render: failed to link pipeline: %w", err)
	}

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, fmt.Errorf("render: failed to start pipeline: %w", err)
	}

	w := &Window{
		pipeline: pipeline,
		src:      src,
		width:    width,
		height:   height,
		fps:      fps,
		stopCh:   make(chan struct{}),
	}

	w.wg.Add(1)
	go w.watchBus()

	slog.Info("presentation surface opened",
		"title", title,
		"resolution", fmt.Sprintf("%dx%d", width, height),
		"fps", fps,
	)

	return w, nil
}

// Resize reconfigures the surface by hot-reloading the appsrc caps.
func (w *Window) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.width = width
	w.height = height
	w.src.SetCaps(rgbaCaps(width, height, w.fps))
	// A caps reload recovers a lost surface
	w.lost = false

	slog.Info("presentation surface resized", "resolution", fmt.Sprintf("%dx%d", width, height))
}

// UpdateTexture stages the next buffer to present.
func (w *Window) UpdateTexture(data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending[:0], data...)
}

// Present pushes the staged buffer into the pipeline.
func (w *Window) Present() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("present on closed surface: %w", ErrSurfaceLost)
	}
	if w.lost {
		return ErrSurfaceLost
	}
	if len(w.pending) == 0 {
		return nil
	}

	buf := gst.NewBufferFromBytes(w.pending)
	switch ret := w.src.PushBuffer(buf); ret {
	case gst.FlowOK:
		return nil
	case gst.FlowFlushing, gst.FlowEOS:
		w.lost = true
		return fmt.Errorf("pipeline flushing: %w", ErrSurfaceLost)
	default:
		return fmt.Errorf("render: push buffer failed: flow %v", ret)
	}
}

// CurrentSize returns the surface dimensions.
func (w *Window) CurrentSize() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// TestPattern returns the synthetic pattern at the current surface size.
func (w *Window) TestPattern() []byte {
	width, height := w.CurrentSize()
	return TestPattern(width, height)
}

// Close tears the pipeline down. Idempotent.
func (w *Window) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stopCh)
	w.wg.Wait()

	if err := w.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("render: failed to stop pipeline: %w", err)
	}
	slog.Info("presentation surface closed")
	return nil
}

// watchBus monitors the pipeline bus and marks the surface lost on error.
func (w *Window) watchBus() {
	defer w.wg.Done()

	bus := w.pipeline.GetPipelineBus()
	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		msg := bus.TimedPop(500 * time.Millisecond)
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageError:
			gerr := msg.ParseError()
			slog.Warn("presentation pipeline error, surface marked lost", "error", gerr.Error())
			w.mu.Lock()
			w.lost = true
			w.mu.Unlock()
		case gst.MessageEOS:
			w.mu.Lock()
			w.lost = true
			w.mu.Unlock()
		}
	}
}

func rgbaCaps(width, height, fps int) *gst.Caps {
	return gst.NewCapsFromString(fmt.Sprintf(
		"video/x-raw,format=RGBA,width=%d,height=%d,framerate=%d/1",
		width, height, fps,
	))
}
