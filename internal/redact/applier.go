package redact

import "github.com/cloakshare/safemirror/internal/types"

// Applier paints opaque blocks over frame regions named by a match set.
// Painting is idempotent: covering the same region twice has no further
// visible effect.
type Applier struct {
	color [4]byte
}

// DefaultBlockColor is opaque black.
var DefaultBlockColor = [4]byte{0, 0, 0, 255}

// NewApplier creates an applier painting with the given RGBA block color.
func NewApplier(color [4]byte) *Applier {
	return &Applier{color: color}
}

// Apply clamps every match rectangle to the frame bounds and overwrites
// the covered pixels with the block color. Rectangles that clamp to zero
// area are skipped. Returns the number of rectangles painted.
func (a *Applier) Apply(f *types.Frame, ms types.MatchSet) int {
	if f == nil || len(ms) == 0 {
		return 0
	}

	painted := 0
	for _, m := range ms {
		// Clamp a copy; the match set is immutable after creation
		r := m.Rect
		r.Clamp(f.Width, f.Height)
		if r.Empty() {
			continue
		}
		a.fill(f, r)
		painted++
	}
	return painted
}

func (a *Applier) fill(f *types.Frame, r types.PixelRect) {
	stride := f.Width * 4
	for y := r.Y; y < r.Y+r.Height; y++ {
		row := y * stride
		for x := r.X; x < r.X+r.Width; x++ {
			idx := row + x*4
			if idx+3 >= len(f.Data) {
				return
			}
			f.Data[idx] = a.color[0]
			f.Data[idx+1] = a.color[1]
			f.Data[idx+2] = a.color[2]
			f.Data[idx+3] = a.color[3]
		}
	}
}
