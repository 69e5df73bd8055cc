package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cloakshare/safemirror/internal/types"
)

// Mock generates synthetic frames, standing in for a real display when
// none is available.
type Mock struct {
	width  int
	height int
	fps    int

	mu            sync.RWMutex
	latest        *types.Frame
	seq           uint64
	framesEmitted uint64
	isRunning     bool
	startTime     time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMock creates a mock capture source with the given display geometry.
func NewMock(width, height, fps int) *Mock {
	return &Mock{width: width, height: height, fps: fps}
}

// DisplayResolution returns the synthetic display geometry.
func (m *Mock) DisplayResolution() (int, int, error) {
	return m.width, m.height, nil
}

// StartCapture begins generating frames.
func (m *Mock) StartCapture(ctx context.Context) error {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		return fmt.Errorf("capture already running")
	}
	m.isRunning = true
	m.startTime = time.Now()
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	slog.Info("mock capture starting",
		"width", m.width,
		"height", m.height,
		"fps", m.fps,
	)

	m.wg.Add(1)
	go m.generateFrames(ctx)

	return nil
}

// LatestFrame returns a copy of the most recent frame, or false when none
// has been produced yet. Non-blocking.
func (m *Mock) LatestFrame() (*types.Frame, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latest == nil {
		return nil, false
	}
	f := *m.latest
	f.Data = make([]byte, len(m.latest.Data))
	copy(f.Data, m.latest.Data)
	return &f, true
}

// Stop stops the generator. Idempotent.
func (m *Mock) Stop() error {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return nil
	}
	m.isRunning = false
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	m.wg.Wait()

	slog.Info("mock capture stopped",
		"frames_emitted", m.framesEmitted,
		"duration", time.Since(m.startTime),
	)
	return nil
}

// Stats returns capture statistics.
func (m *Mock) Stats() types.CaptureStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var fpsReal float64
	if m.isRunning && m.framesEmitted > 0 {
		elapsed := time.Since(m.startTime).Seconds()
		if elapsed > 0 {
			fpsReal = float64(m.framesEmitted) / elapsed
		}
	}
	return types.CaptureStats{
		FrameCount: m.framesEmitted,
		FPSTarget:  m.fps,
		FPSReal:    fpsReal,
		Resolution: fmt.Sprintf("%dx%d", m.width, m.height),
		IsRunning:  m.isRunning,
	}
}

func (m *Mock) generateFrames(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(m.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame := m.createFrame()
			m.mu.Lock()
			m.latest = frame
			m.framesEmitted++
			m.mu.Unlock()
		}
	}
}

// createFrame synthesizes an RGBA frame with a moving band so successive
// frames differ.
func (m *Mock) createFrame() *types.Frame {
	m.mu.Lock()
	seq := m.seq
	m.seq++
	m.mu.Unlock()

	data := make([]byte, m.width*m.height*4)
	band := int(seq) % m.height
	for y := 0; y < m.height; y++ {
		shade := byte(32)
		if y >= band && y < band+8 {
			shade = 200
		}
		row := y * m.width * 4
		for x := 0; x < m.width; x++ {
			idx := row + x*4
			data[idx] = shade
			data[idx+1] = shade
			data[idx+2] = shade
			data[idx+3] = 255
		}
	}

	return &types.Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     m.width,
		Height:    m.height,
		Data:      data,
		TraceID:   uuid.New().String(),
	}
}
