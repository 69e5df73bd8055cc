package redact

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloakshare/safemirror/internal/types"
)

func grayFrame(w, h int) *types.Frame {
	data := make([]byte, w*h*4)
	for i := range data {
		data[i] = 0x7f
	}
	return &types.Frame{Width: w, Height: h, Data: data}
}

func pixelAt(f *types.Frame, x, y int) [4]byte {
	idx := (y*f.Width + x) * 4
	return [4]byte{f.Data[idx], f.Data[idx+1], f.Data[idx+2], f.Data[idx+3]}
}

func TestApplier_PaintsBlockColor(t *testing.T) {
	f := grayFrame(16, 16)
	a := NewApplier([4]byte{255, 136, 0, 255})

	painted := a.Apply(f, types.MatchSet{
		{Rect: types.PixelRect{X: 4, Y: 4, Width: 8, Height: 8}},
	})
	require.Equal(t, 1, painted)

	assert.Equal(t, [4]byte{255, 136, 0, 255}, pixelAt(f, 4, 4))
	assert.Equal(t, [4]byte{255, 136, 0, 255}, pixelAt(f, 11, 11))
	// Outside the block stays untouched
	assert.Equal(t, [4]byte{0x7f, 0x7f, 0x7f, 0x7f}, pixelAt(f, 3, 4))
	assert.Equal(t, [4]byte{0x7f, 0x7f, 0x7f, 0x7f}, pixelAt(f, 12, 11))
}

func TestApplier_Idempotent(t *testing.T) {
	ms := types.MatchSet{
		{Rect: types.PixelRect{X: 2, Y: 2, Width: 6, Height: 6}},
		{Rect: types.PixelRect{X: 4, Y: 4, Width: 6, Height: 6}}, // overlaps
	}
	a := NewApplier(DefaultBlockColor)

	once := grayFrame(16, 16)
	a.Apply(once, ms)

	twice := grayFrame(16, 16)
	a.Apply(twice, ms)
	a.Apply(twice, ms)

	assert.True(t, bytes.Equal(once.Data, twice.Data))
}

func TestApplier_ClampsOverhangingRect(t *testing.T) {
	f := grayFrame(8, 8)
	a := NewApplier(DefaultBlockColor)

	painted := a.Apply(f, types.MatchSet{
		{Rect: types.PixelRect{X: 6, Y: 6, Width: 10, Height: 10}},
	})
	require.Equal(t, 1, painted)

	assert.Equal(t, [4]byte{0, 0, 0, 255}, pixelAt(f, 7, 7))
	assert.Equal(t, [4]byte{0x7f, 0x7f, 0x7f, 0x7f}, pixelAt(f, 5, 5))
}

func TestApplier_SkipsRectsOutsideFrame(t *testing.T) {
	f := grayFrame(8, 8)
	before := append([]byte(nil), f.Data...)

	painted := NewApplier(DefaultBlockColor).Apply(f, types.MatchSet{
		{Rect: types.PixelRect{X: 100, Y: 100, Width: 10, Height: 10}},
		{Rect: types.PixelRect{}}, // zero area
	})

	assert.Zero(t, painted)
	assert.True(t, bytes.Equal(before, f.Data))
}

func TestApplier_NilFrameAndEmptySet(t *testing.T) {
	a := NewApplier(DefaultBlockColor)
	assert.Zero(t, a.Apply(nil, types.MatchSet{{Rect: types.PixelRect{Width: 1, Height: 1}}}))
	assert.Zero(t, a.Apply(grayFrame(4, 4), nil))
}

func TestApplier_DoesNotMutateMatchSet(t *testing.T) {
	ms := types.MatchSet{
		{Rect: types.PixelRect{X: -5, Y: -5, Width: 10, Height: 10}},
	}
	NewApplier(DefaultBlockColor).Apply(grayFrame(8, 8), ms)
	assert.Equal(t, types.PixelRect{X: -5, Y: -5, Width: 10, Height: 10}, ms[0].Rect)
}
