package render

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestPattern_Deterministic(t *testing.T) {
	a := TestPattern(320, 240)
	b := TestPattern(320, 240)
	require.Len(t, a, 320*240*4)
	assert.True(t, bytes.Equal(a, b))
}

func TestTestPattern_FullyOpaque(t *testing.T) {
	data := TestPattern(128, 64)
	for i := 3; i < len(data); i += 4 {
		require.Equal(t, byte(255), data[i], "alpha at %d", i)
	}
}

func TestTestPattern_GridLines(t *testing.T) {
	data := TestPattern(128, 128)
	// Pixel on a grid line
	assert.Equal(t, byte(64), data[0])
	// Pixel off the grid carries the gradient
	idx := (65*128 + 65) * 4
	assert.Equal(t, byte(65*255/128), data[idx])
	assert.Equal(t, byte(128), data[idx+2])
}

func TestTestPattern_InvalidDimensions(t *testing.T) {
	assert.Nil(t, TestPattern(0, 100))
	assert.Nil(t, TestPattern(100, -1))
}

func TestHeadless_PresentAfterResize(t *testing.T) {
	h := NewHeadless(1280, 720)

	h.Resize(1920, 1080)
	w, hh := h.CurrentSize()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, hh)

	buf := TestPattern(1920, 1080)
	h.UpdateTexture(buf)
	require.NoError(t, h.Present())

	last, presents := h.LastPresented()
	assert.True(t, bytes.Equal(buf, last))
	assert.Equal(t, uint64(1), presents)
}

func TestHeadless_ResizeIgnoresInvalidDimensions(t *testing.T) {
	h := NewHeadless(1280, 720)
	h.Resize(0, -1)
	w, hh := h.CurrentSize()
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, hh)
}

func TestHeadless_PresentAfterCloseIsSurfaceLost(t *testing.T) {
	h := NewHeadless(64, 64)
	require.NoError(t, h.Close())

	err := h.Present()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSurfaceLost))
}

func TestHeadless_UpdateTextureCopiesBuffer(t *testing.T) {
	h := NewHeadless(2, 2)
	buf := []byte{1, 2, 3, 4}
	h.UpdateTexture(buf)
	buf[0] = 99

	last, _ := h.LastPresented()
	assert.Equal(t, byte(1), last[0])
}
