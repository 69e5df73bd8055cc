package detect

import "github.com/cloakshare/safemirror/internal/types"

// Locator maps a matched byte span of the transcript to an approximate
// frame rectangle. Transcript-only extraction has no real glyph geometry,
// so the default implementation estimates from character cells; an
// extraction engine that reports per-word boxes can supply its own Locator.
type Locator interface {
	Locate(text string, start, end int) types.PixelRect
}

// CharCellLocator approximates glyph geometry with a fixed character cell:
// column and line are derived from the byte offset, then scaled by the
// cell dimensions. Rectangles are approximate by construction.
type CharCellLocator struct {
	// CellWidth is the assumed glyph advance in pixels
	CellWidth int
	// LineHeight is the assumed line advance in pixels
	LineHeight int
	// GlyphHeight is the painted height of one text line
	GlyphHeight int
	// MarginTop offsets the first line from the top of the frame
	MarginTop int
}

// DefaultLocator returns a CharCellLocator with the stock cell metrics.
func DefaultLocator() CharCellLocator {
	return CharCellLocator{
		CellWidth:   10,
		LineHeight:  24,
		GlyphHeight: 20,
		MarginTop:   100,
	}
}

// Locate computes the approximate rectangle for text[start:end].
func (l CharCellLocator) Locate(text string, start, end int) types.PixelRect {
	line, col := 0, 0
	for i := 0; i < start && i < len(text); i++ {
		if text[i] == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	n := end - start
	if n < 0 {
		n = 0
	}
	return types.PixelRect{
		X:      col * l.CellWidth,
		Y:      l.MarginTop + line*l.LineHeight,
		Width:  n * l.CellWidth,
		Height: l.GlyphHeight,
	}
}
