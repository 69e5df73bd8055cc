package types

import "time"

// Frame represents a single captured display snapshot in RGBA8 format.
// A frame is owned exclusively by the orchestrator for one tick and is
// never retained beyond it.
type Frame struct {
	// Seq is the monotonic sequence number assigned by the capture source
	Seq uint64
	// Timestamp is when the frame was captured
	Timestamp time.Time
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// Data contains the pixel data (RGBA8, 4 bytes per pixel)
	Data []byte
	// Synthetic is true when the frame is a generated test pattern
	// rather than real capture output
	Synthetic bool
	// TraceID is a unique identifier for tracing a frame across the pipeline
	TraceID string
}

// PixelRect represents a rectangle in frame pixel coordinates.
type PixelRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the pixel area of the rectangle.
func (r PixelRect) Area() int {
	return r.Width * r.Height
}

// Empty reports whether the rectangle covers no pixels.
func (r PixelRect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Clamp ensures the rectangle is within the given frame dimensions.
func (r *PixelRect) Clamp(frameWidth, frameHeight int) {
	if r.X < 0 {
		r.Width += r.X
		r.X = 0
	}
	if r.Y < 0 {
		r.Height += r.Y
		r.Y = 0
	}
	if r.X+r.Width > frameWidth {
		r.Width = frameWidth - r.X
	}
	if r.Y+r.Height > frameHeight {
		r.Height = frameHeight - r.Y
	}
}

// CaptureStats contains capture source statistics.
type CaptureStats struct {
	FrameCount    uint64
	FramesDropped uint64
	FPSTarget     int
	FPSReal       float64
	Resolution    string
	IsRunning     bool
	Errors        uint64
}
