// Package render provides presentation surfaces for sanitized frames: a
// GStreamer window presenter and a headless recorder, plus the synthetic
// test pattern used when capture yields no frame.
package render

import "errors"

// Presentation failure taxonomy. The orchestrator reconfigures and retries
// on ErrSurfaceLost and treats ErrOutOfMemory as fatal; anything else is
// logged and the tick is skipped.
var (
	ErrSurfaceLost = errors.New("render: surface lost")
	ErrOutOfMemory = errors.New("render: out of memory")
)

// TestPattern generates the deterministic synthetic frame substituted when
// no capture frame is available: an RGBA gradient with a grid overlay. The
// output depends only on the dimensions.
func TestPattern(width, height int) []byte {
	if width <= 0 || height <= 0 {
		return nil
	}
	data := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := (y*width + x) * 4
			if x%64 == 0 || y%64 == 0 {
				// Grid line
				data[idx] = 64
				data[idx+1] = 64
				data[idx+2] = 64
			} else {
				data[idx] = byte(x * 255 / width)
				data[idx+1] = byte(y * 255 / height)
				data[idx+2] = 128
			}
			data[idx+3] = 255
		}
	}
	return data
}
