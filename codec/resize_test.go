package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-raster/raster"
)

func uniform(w, h, channels int, value byte) *raster.Image {
	pix := make([]byte, w*h*channels)
	for i := range pix {
		pix[i] = value
	}
	return &raster.Image{Width: w, Height: h, Channels: channels, Pix: pix}
}

func TestResizeWidthHalves(t *testing.T) {
	src := uniform(4, 3, 4, 200)
	got, err := ResizeWidth(src, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, got.Width)
	assert.Equal(t, 3, got.Height, "height is never touched by the width resize")
	assert.Equal(t, 4, got.Channels)
	require.NoError(t, got.Validate())
	for i, p := range got.Pix {
		assert.Equal(t, byte(200), p, "byte %d: nearest-neighbor of a uniform image stays uniform", i)
	}
}

func TestResizeWidthIdentity(t *testing.T) {
	src := uniform(4, 2, 4, 7)
	got, err := ResizeWidth(src, 4)
	require.NoError(t, err)
	assert.Same(t, src, got, "matching width is a no-op")
}

func TestResizeWidthPreservesThreeChannels(t *testing.T) {
	src := uniform(6, 2, 3, 90)
	got, err := ResizeWidth(src, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, got.Channels, "the stdlib round trip must not leak an alpha channel")
	require.NoError(t, got.Validate())
	for _, p := range got.Pix {
		assert.Equal(t, byte(90), p)
	}
}

func TestResizeWidthGrayscale(t *testing.T) {
	src := uniform(8, 2, 1, 33)
	got, err := ResizeWidth(src, 4)
	require.NoError(t, err)

	assert.Equal(t, 1, got.Channels)
	assert.Equal(t, 4, got.Width)
	for _, p := range got.Pix {
		assert.Equal(t, byte(33), p)
	}
}

func TestResizeWidthInvalid(t *testing.T) {
	_, err := ResizeWidth(uniform(4, 2, 4, 0), 0)
	require.Error(t, err)

	bad := &raster.Image{Width: 2, Height: 2, Channels: 4, Pix: make([]byte, 3)}
	_, err = ResizeWidth(bad, 1)
	require.Error(t, err)
}
