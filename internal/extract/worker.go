// Package extract converts frames to luminance buffers and runs text
// extraction on a background worker so OCR latency never stalls the
// render cadence.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cloakshare/safemirror/internal/types"
)

type job struct {
	gray   []byte
	width  int
	height int
}

// Worker runs text extraction off the render path. The orchestrator
// submits a job when the duty cycle fires and collects the prior job's
// transcript on a later tick; both sides are non-blocking, single-slot
// channels, so a slow engine only lowers the effective duty cycle.
type Worker struct {
	transcriber Transcriber
	interval    uint64

	jobs    chan job
	results chan string

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex

	// Statistics (atomic for thread-safety)
	submitted   uint64
	dropped     uint64
	transcripts uint64
	failures    uint64
}

// NewWorker creates an extraction worker. interval is the duty cycle in
// ticks: extraction is requested on ticks where tick % interval == 0.
func NewWorker(t Transcriber, interval uint64) (*Worker, error) {
	if t == nil {
		return nil, fmt.Errorf("extract: transcriber is required")
	}
	if interval == 0 {
		return nil, fmt.Errorf("extract: interval must be > 0")
	}
	return &Worker{
		transcriber: t,
		interval:    interval,
		jobs:        make(chan job, 1),
		results:     make(chan string, 1),
	}, nil
}

// Start launches the background extraction goroutine.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return fmt.Errorf("extract: worker already started")
	}
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.run(ctx)

	slog.Info("extraction worker started", "interval_ticks", w.interval)
	return nil
}

// Stop shuts the worker down and waits for an in-flight transcription to
// finish or be cancelled. Idempotent.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	w.wg.Wait()

	slog.Info("extraction worker stopped",
		"submitted", atomic.LoadUint64(&w.submitted),
		"dropped", atomic.LoadUint64(&w.dropped),
		"transcripts", atomic.LoadUint64(&w.transcripts),
		"failures", atomic.LoadUint64(&w.failures),
	)
}

// ShouldExtract reports whether the duty cycle fires on the given tick.
func (w *Worker) ShouldExtract(tick uint64) bool {
	return tick%w.interval == 0
}

// Submit converts the frame to luminance and hands it to the worker.
// Non-blocking: if a job is already pending the request is dropped and
// Submit returns false. The luminance copy keeps the worker independent
// of the frame's one-tick lifetime.
func (w *Worker) Submit(f *types.Frame) bool {
	j := job{gray: Luma(f), width: f.Width, height: f.Height}
	select {
	case w.jobs <- j:
		atomic.AddUint64(&w.submitted, 1)
		return true
	default:
		atomic.AddUint64(&w.dropped, 1)
		slog.Debug("extraction busy, dropping duty tick", "seq", f.Seq)
		return false
	}
}

// Poll collects a finished transcript if one is waiting. Non-blocking.
func (w *Worker) Poll() (string, bool) {
	select {
	case text := <-w.results:
		return text, true
	default:
		return "", false
	}
}

// Stats returns a snapshot of worker counters.
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		Submitted:   atomic.LoadUint64(&w.submitted),
		Dropped:     atomic.LoadUint64(&w.dropped),
		Transcripts: atomic.LoadUint64(&w.transcripts),
		Failures:    atomic.LoadUint64(&w.failures),
	}
}

// WorkerStats contains extraction worker counters.
type WorkerStats struct {
	Submitted   uint64
	Dropped     uint64
	Transcripts uint64
	Failures    uint64
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-w.jobs:
			text, err := w.transcriber.Transcribe(ctx, j.gray, j.width, j.height)
			if err != nil {
				// No transcript this cycle; detection simply skips it
				atomic.AddUint64(&w.failures, 1)
				slog.Warn("transcription failed", "error", err)
				continue
			}
			atomic.AddUint64(&w.transcripts, 1)
			select {
			case w.results <- text:
			default:
				// Stale unconsumed result; replace it with the fresh one
				select {
				case <-w.results:
				default:
				}
				select {
				case w.results <- text:
				default:
				}
			}
		}
	}
}
