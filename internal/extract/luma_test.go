package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloakshare/safemirror/internal/types"
)

func rgbaFrame(w, h int, pixels ...[4]byte) *types.Frame {
	data := make([]byte, 0, w*h*4)
	for _, p := range pixels {
		data = append(data, p[0], p[1], p[2], p[3])
	}
	return &types.Frame{Width: w, Height: h, Data: data}
}

func TestLuma_Weighting(t *testing.T) {
	f := rgbaFrame(4, 1,
		[4]byte{255, 0, 0, 255}, // red
		[4]byte{0, 255, 0, 255}, // green
		[4]byte{0, 0, 255, 255}, // blue
		[4]byte{0, 0, 0, 255},   // black
	)

	gray := Luma(f)
	require.Len(t, gray, 4)
	assert.Equal(t, byte(76), gray[0])
	assert.Equal(t, byte(149), gray[1])
	assert.Equal(t, byte(29), gray[2])
	assert.Equal(t, byte(0), gray[3])
}

func TestLuma_WhiteIsFullScale(t *testing.T) {
	f := rgbaFrame(1, 1, [4]byte{255, 255, 255, 255})
	gray := Luma(f)
	require.Len(t, gray, 1)
	assert.InDelta(t, 255, int(gray[0]), 1)
}

func TestLuma_AlphaIgnored(t *testing.T) {
	opaque := rgbaFrame(1, 1, [4]byte{10, 20, 30, 255})
	clear := rgbaFrame(1, 1, [4]byte{10, 20, 30, 0})
	assert.Equal(t, Luma(opaque), Luma(clear))
}

func TestLuma_ShortBufferPadsWithBlack(t *testing.T) {
	f := &types.Frame{Width: 2, Height: 2, Data: []byte{255, 255, 255, 255}}
	gray := Luma(f)
	require.Len(t, gray, 4)
	assert.Equal(t, byte(0), gray[1])
	assert.Equal(t, byte(0), gray[3])
}

func TestLuma_IndependentOfFrameBuffer(t *testing.T) {
	f := rgbaFrame(1, 1, [4]byte{255, 255, 255, 255})
	gray := Luma(f)
	before := gray[0]
	f.Data[0] = 0
	f.Data[1] = 0
	f.Data[2] = 0
	assert.Equal(t, before, gray[0])
}
