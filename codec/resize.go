package codec

import (
	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-raster/raster"
)

// ResizeWidth resamples an image horizontally to newWidth columns using
// nearest-neighbor selection, preserving height and channel count. The
// coordinator applies it before partitioning, so the distributed pass
// only ever redistributes rows.
//
// Arguments:
//   - m: The image to resample.
//   - newWidth: The target width in pixels. Must be >= 1.
//
// Returns:
//   - *raster.Image: The resampled image; m itself when the width
//     already matches.
//   - error: An error if the buffer is invalid or the width is not
//     positive.
func ResizeWidth(m *raster.Image, newWidth int) (*raster.Image, error) {
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "resize input")
	}
	if newWidth < 1 {
		return nil, errors.Errorf("invalid target width: %d", newWidth)
	}
	if newWidth == m.Width {
		return m, nil
	}

	img, err := ToImage(m)
	if err != nil {
		return nil, err
	}
	resized := resize.Resize(uint(newWidth), uint(m.Height), img, resize.NearestNeighbor)

	out := FromImage(resized)
	if out.Channels != m.Channels {
		out = convertChannels(out, m.Channels)
	}
	return out, nil
}

// convertChannels reconciles the channel count after a round trip
// through the stdlib image types, which have no native 3-channel
// representation. Only the 4-to-3 alpha strip ever occurs in practice.
func convertChannels(m *raster.Image, channels int) *raster.Image {
	if m.Channels == 4 && channels == 3 {
		pix := make([]byte, m.Width*m.Height*3)
		for i, j := 0, 0; j < len(pix); i, j = i+4, j+3 {
			pix[j+0] = m.Pix[i+0]
			pix[j+1] = m.Pix[i+1]
			pix[j+2] = m.Pix[i+2]
		}
		return &raster.Image{Width: m.Width, Height: m.Height, Channels: 3, Pix: pix}
	}
	return m
}
