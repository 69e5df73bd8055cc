package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/cloakshare/safemirror/internal/types"
)

// X11 captures the local display through a GStreamer pipeline:
//
//	ximagesrc → videoconvert → videorate → capsfilter(RGBA) → appsink
//
// The appsink keeps only the newest sample; the new-sample callback copies
// it into the latest-frame slot. Display geometry is read from the
// negotiated caps of the first sample, so DisplayResolution fails until
// capture has produced a frame.
type X11 struct {
	display string
	fps     int

	pipeline *gst.Pipeline
	appsink  *app.Sink

	mu       sync.RWMutex
	latest   *types.Frame
	displayW int
	displayH int
	running  bool

	// Statistics (atomic for thread-safety)
	frameCount uint64
	errors     uint64
	started    time.Time
}

// NewX11 creates an X11 display capture source with fail-fast validation.
func NewX11(display string, fps int) (*X11, error) {
	if display == "" {
		return nil, fmt.Errorf("capture: display name is required")
	}
	if fps < 1 || fps > 240 {
		return nil, fmt.Errorf("capture: invalid fps %d (must be 1-240)", fps)
	}
	return &X11{display: display, fps: fps}, nil
}

// DisplayResolution returns the captured display geometry, or an error
// until the first frame has negotiated it.
func (x *X11) DisplayResolution() (int, int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.displayW == 0 || x.displayH == 0 {
		return 0, 0, fmt.Errorf("capture: display geometry not negotiated yet")
	}
	return x.displayW, x.displayH, nil
}

// StartCapture builds and starts the capture pipeline.
func (x *X11) StartCapture(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.running {
		return fmt.Errorf("capture already running")
	}

	// Safe to call multiple times
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return fmt.Errorf("capture: failed to create pipeline: %w", err)
	}

	src, err := gst.NewElement("ximagesrc")
	if err != nil {
		return fmt.Errorf("capture: failed to create ximagesrc: %w", err)
	}
	src.SetProperty("display-name", x.display)
	// Full-frame polling; damage events produce partial updates
	src.SetProperty("use-damage", false)

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return fmt.Errorf("capture: failed to create videoconvert: %w", err)
	}

	videorate, err := gst.NewElement("videorate")
	if err != nil {
		return fmt.Errorf("capture: failed to create videorate: %w", err)
	}
	videorate.SetProperty("drop-only", true)

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return fmt.Errorf("capture: failed to create capsfilter: %w", err)
	}
	capsfilter.SetProperty("caps", gst.NewCapsFromString(
		fmt.Sprintf("video/x-raw,format=RGBA,framerate=%d/1", x.fps),
	))

	appsink, err := app.NewAppSink()
	if err != nil {
		return fmt.Errorf("capture: failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", false)
	appsink.SetProperty("max-buffers", 1) // keep only latest frame
	appsink.SetProperty("drop", true)

	if err := pipeline.AddMany(src, converter, videorate, capsfilter, appsink.Element); err != nil {
		return fmt.Errorf("capture: failed to assemble pipeline: %w", err)
	}
	if err := gst.ElementLinkMany(src, converter, videorate, capsfilter, appsink.Element); err != nil {
		return fmt.Errorf("capture: failed to link pipeline: %w", err)
	}

	appsink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: x.onNewSample,
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("capture: failed to start pipeline: %w", err)
	}

	x.pipeline = pipeline
	x.appsink = appsink
	x.running = true
	x.started = time.Now()

	slog.Info("x11 capture started", "display", x.display, "fps", x.fps)
	return nil
}

// LatestFrame returns a copy of the most recent captured frame, or false
// when none is available. Non-blocking.
func (x *X11) LatestFrame() (*types.Frame, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.latest == nil {
		return nil, false
	}
	f := *x.latest
	f.Data = make([]byte, len(x.latest.Data))
	copy(f.Data, x.latest.Data)
	return &f, true
}

// Stop tears the pipeline down. Idempotent.
func (x *X11) Stop() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.running {
		return nil
	}
	x.running = false

	if err := x.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("capture: failed to stop pipeline: %w", err)
	}
	slog.Info("x11 capture stopped",
		"frames", atomic.LoadUint64(&x.frameCount),
		"duration", time.Since(x.started),
	)
	return nil
}

// Stats returns capture statistics.
func (x *X11) Stats() types.CaptureStats {
	x.mu.RLock()
	defer x.mu.RUnlock()

	count := atomic.LoadUint64(&x.frameCount)
	var fpsReal float64
	if x.running && count > 0 {
		elapsed := time.Since(x.started).Seconds()
		if elapsed > 0 {
			fpsReal = float64(count) / elapsed
		}
	}
	return types.CaptureStats{
		FrameCount: count,
		FPSTarget:  x.fps,
		FPSReal:    fpsReal,
		Resolution: fmt.Sprintf("%dx%d", x.displayW, x.displayH),
		IsRunning:  x.running,
		Errors:     atomic.LoadUint64(&x.errors),
	}
}

// onNewSample copies the newest sample into the latest-frame slot.
// A corrupted sample is skipped rather than terminating the stream.
func (x *X11) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		atomic.AddUint64(&x.errors, 1)
		slog.Warn("capture: failed to pull sample, skipping frame")
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		atomic.AddUint64(&x.errors, 1)
		slog.Warn("capture: failed to get buffer from sample, skipping frame")
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		atomic.AddUint64(&x.errors, 1)
		slog.Warn("capture: empty buffer received")
		return gst.FlowOK
	}

	// Copy frame data; GStreamer reuses the buffer
	frameData := make([]byte, len(data))
	copy(frameData, data)
	buffer.Unmap()

	width, height := x.negotiatedSize(sample)
	if width == 0 || height == 0 {
		atomic.AddUint64(&x.errors, 1)
		return gst.FlowOK
	}

	seq := atomic.AddUint64(&x.frameCount, 1)
	frame := &types.Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     width,
		Height:    height,
		Data:      frameData,
		TraceID:   uuid.New().String(),
	}

	x.mu.Lock()
	x.latest = frame
	x.displayW = width
	x.displayH = height
	x.mu.Unlock()

	return gst.FlowOK
}

// negotiatedSize reads width/height from the sample caps, falling back to
// the previously negotiated geometry.
func (x *X11) negotiatedSize(sample *gst.Sample) (int, int) {
	caps := sample.GetCaps()
	if caps != nil && caps.GetSize() > 0 {
		st := caps.GetStructureAt(0)
		if st != nil {
			w, werr := st.GetValue("width")
			h, herr := st.GetValue("height")
			if werr == nil && herr == nil {
				wi, wok := w.(int)
				hi, hok := h.(int)
				if wok && hok && wi > 0 && hi > 0 {
					return wi, hi
				}
			}
		}
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.displayW, x.displayH
}
