// Package codec turns image files into flat pixel buffers and back.
// It is the external collaborator of the distributed pipeline: the
// cluster package never touches encoded bytes itself.
package codec

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-raster/raster"
)

// Files is the on-disk codec used by default. It satisfies the cluster
// package's Codec interface by delegating to the package functions.
type Files struct{}

// Decode implements the decode collaborator for Files.
func (Files) Decode(path string) (*raster.Image, error) {
	return Decode(path)
}

// Encode implements the encode collaborator for Files.
func (Files) Encode(path string, img *raster.Image, quality int) error {
	return Encode(path, img, quality)
}

// Decode reads and decodes an image file into a flat pixel buffer.
// The format is chosen by file extension (.jpg/.jpeg, .png, .webp), with
// stdlib content sniffing as the fallback for anything else. Grayscale
// sources decode to a single channel; everything else decodes to
// 4-channel non-premultiplied RGBA.
//
// Arguments:
//   - path: The image file to read.
//
// Returns:
//   - *raster.Image: The decoded pixel buffer.
//   - error: An error if the file is missing or cannot be decoded.
func Decode(path string) (*raster.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read input image")
	}

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	case ".png":
		img, err = png.Decode(bytes.NewReader(data))
	case ".webp":
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return FromImage(img), nil
}

// Encode persists a flat pixel buffer as an image file. The format is
// chosen by file extension. JPEG and WebP honor the quality hint; PNG
// is lossless and ignores it.
//
// Arguments:
//   - path: The output file to write.
//   - m: The pixel buffer to encode.
//   - quality: Encoder quality hint, 1-100.
//
// Returns:
//   - error: An error if the buffer is invalid, the format is
//     unsupported, or the write fails.
func Encode(path string, m *raster.Image, quality int) error {
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "encode input")
	}
	img, err := ToImage(m)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output image")
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
	case ".png":
		err = png.Encode(f, img)
	case ".webp":
		err = webp.Encode(f, img, &webp.Options{Quality: float32(quality)})
	default:
		return errors.Errorf("unsupported output format: %s", filepath.Ext(path))
	}
	return errors.Wrapf(err, "encode %s", path)
}

// FromImage flattens a decoded image into a raster.Image. *image.Gray
// stays single-channel; all other color models are normalized to
// 4-channel NRGBA.
func FromImage(img image.Image) *raster.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if g, ok := img.(*image.Gray); ok {
		pix := make([]byte, w*h)
		for y := 0; y < h; y++ {
			copy(pix[y*w:(y+1)*w], g.Pix[y*g.Stride:y*g.Stride+w])
		}
		return &raster.Image{Width: w, Height: h, Channels: 1, Pix: pix}
	}

	n := toNRGBA(img)
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		copy(pix[y*w*4:(y+1)*w*4], n.Pix[y*n.Stride:y*n.Stride+w*4])
	}
	return &raster.Image{Width: w, Height: h, Channels: 4, Pix: pix}
}

// ToImage wraps a flat pixel buffer in the matching stdlib image type.
//
// Returns:
//   - image.Image: A Gray (1 channel) or NRGBA (3 or 4 channels) view.
//   - error: An error for unsupported channel counts.
func ToImage(m *raster.Image) (image.Image, error) {
	rect := image.Rect(0, 0, m.Width, m.Height)
	switch m.Channels {
	case 1:
		return &image.Gray{Pix: m.Pix, Stride: m.Width, Rect: rect}, nil
	case 3:
		out := image.NewNRGBA(rect)
		for i, j := 0, 0; i < len(m.Pix); i, j = i+3, j+4 {
			out.Pix[j+0] = m.Pix[i+0]
			out.Pix[j+1] = m.Pix[i+1]
			out.Pix[j+2] = m.Pix[i+2]
			out.Pix[j+3] = 255
		}
		return out, nil
	case 4:
		return &image.NRGBA{Pix: m.Pix, Stride: m.Width * 4, Rect: rect}, nil
	default:
		return nil, errors.Errorf("unsupported channel count: %d", m.Channels)
	}
}

// toNRGBA returns an *image.NRGBA copy of src, or src itself when it
// already is one.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}
