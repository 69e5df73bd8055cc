package extract

import "github.com/cloakshare/safemirror/internal/types"

// Luma converts an RGBA8 frame to an 8-bit luminance buffer using the
// standard luma weighting (Y = 0.299R + 0.587G + 0.114B). The returned
// buffer is independent of the frame, which the orchestrator discards at
// tick end.
func Luma(f *types.Frame) []byte {
	n := f.Width * f.Height
	gray := make([]byte, 0, n)
	data := f.Data
	for i := 0; i+3 < len(data) && len(gray) < n; i += 4 {
		r := float64(data[i])
		g := float64(data[i+1])
		b := float64(data[i+2])
		gray = append(gray, byte(0.299*r+0.587*g+0.114*b))
	}
	// Short pixel buffers pad with black so dimensions stay truthful
	for len(gray) < n {
		gray = append(gray, 0)
	}
	return gray
}
