// Package raster holds the flat pixel buffer type and the local,
// per-partition operations (row resampling, pixel filters) that every
// worker runs on its own row-block.
package raster

import (
	"github.com/pkg/errors"
)

// Image is a flat, row-major, channel-interleaved pixel buffer.
type Image struct {
	// The width of the image in pixels.
	Width int `json:"width" yaml:"width"`
	// The height of the image in pixels.
	Height int `json:"height" yaml:"height"`
	// The number of interleaved channels per pixel
	// (1 grayscale, 3 RGB, 4 RGBA).
	Channels int `json:"channels" yaml:"channels"`
	// The pixel bytes, exactly Width*Height*Channels of them.
	Pix []byte `json:"-" yaml:"-"`
}

// RowBytes returns the byte length of one pixel row.
func (m *Image) RowBytes() int {
	return m.Width * m.Channels
}

// Row returns the pixel bytes of row y. The slice aliases Pix.
func (m *Image) Row(y int) []byte {
	rb := m.RowBytes()
	return m.Pix[y*rb : (y+1)*rb]
}

// Validate checks the buffer-length invariant: the pixel slice must hold
// exactly Width*Height*Channels bytes for the current dimensions.
//
// Returns:
//   - error: An error describing the violated invariant, or nil.
func (m *Image) Validate() error {
	if m.Width < 0 || m.Height < 0 {
		return errors.Errorf("invalid image dimensions: %dx%d", m.Width, m.Height)
	}
	if m.Channels < 1 {
		return errors.Errorf("invalid channel count: %d", m.Channels)
	}
	if want := m.Width * m.Height * m.Channels; len(m.Pix) != want {
		return errors.Errorf("pixel buffer holds %d bytes, want %d (%dx%dx%d)",
			len(m.Pix), want, m.Width, m.Height, m.Channels)
	}
	return nil
}
