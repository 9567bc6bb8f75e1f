package cluster

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-raster/partition"
	"github.com/nvr-ai/go-raster/raster"
)

// memCodec keeps the decode/encode collaborators in memory so the
// distributed pass can be exercised without files.
type memCodec struct {
	img       *raster.Image
	decodeErr error
	encodeErr error

	out     *raster.Image
	outPath string
	quality int
}

func (c *memCodec) Decode(string) (*raster.Image, error) {
	if c.decodeErr != nil {
		return nil, c.decodeErr
	}
	return c.img, nil
}

func (c *memCodec) Encode(path string, img *raster.Image, quality int) error {
	if c.encodeErr != nil {
		return c.encodeErr
	}
	c.out = img
	c.outPath = path
	c.quality = quality
	return nil
}

// rowImage builds an image whose every byte encodes its row index.
func rowImage(width, height, channels int) *raster.Image {
	pix := make([]byte, width*height*channels)
	rowBytes := width * channels
	for y := 0; y < height; y++ {
		for i := 0; i < rowBytes; i++ {
			pix[y*rowBytes+i] = byte(y)
		}
	}
	return &raster.Image{Width: width, Height: height, Channels: channels, Pix: pix}
}

// TestRunInvert distributes a 4x4 single-channel zero image across 2
// workers with the invert filter: every output byte must come back 255,
// proving every worker filtered its block, not just the coordinator.
func TestRunInvert(t *testing.T) {
	mc := &memCodec{img: &raster.Image{Width: 4, Height: 4, Channels: 1, Pix: make([]byte, 16)}}

	res, err := Run(Config{
		InputPath:  "in.png",
		OutputPath: "out.png",
		Filter:     "invert",
		Workers:    2,
		Codec:      mc,
	})
	require.NoError(t, err)
	require.NotNil(t, mc.out)

	assert.Equal(t, 4, res.Width)
	assert.Equal(t, 4, res.Height)
	assert.Equal(t, 2, res.Workers)
	for i, p := range mc.out.Pix {
		assert.Equal(t, byte(255), p, "byte %d", i)
	}
}

// TestRunResizeUnknownFilter halves an 8-row, 1-wide, 3-channel image
// across 4 workers with an unrecognized filter. Each worker holds 2 rows
// and produces 1, sourced from its first row, so the output is rows
// 0,2,4,6 of the original, unmodified.
func TestRunResizeUnknownFilter(t *testing.T) {
	mc := &memCodec{img: rowImage(1, 8, 3)}

	res, err := Run(Config{
		InputPath:  "in.png",
		OutputPath: "out.png",
		Filter:     "blur",
		NewHeight:  4,
		Workers:    4,
		Codec:      mc,
	})
	require.NoError(t, err)
	require.NotNil(t, mc.out)
	require.Equal(t, 4, res.Height)

	for y, src := range []byte{0, 2, 4, 6} {
		for c := 0; c < 3; c++ {
			assert.Equal(t, src, mc.out.Pix[y*3+c], "output row %d", y)
		}
	}
}

// TestRunMoreWorkersThanRows covers the degenerate split: with 4 workers
// on a 2-row image, two workers receive no rows and produce empty blocks.
// The gathered height equals the sum of actual per-worker output rows,
// which truncation leaves below the requested height.
func TestRunMoreWorkersThanRows(t *testing.T) {
	mc := &memCodec{img: rowImage(3, 2, 1)}

	res, err := Run(Config{
		InputPath:  "in.png",
		OutputPath: "out.png",
		NewHeight:  3,
		Workers:    4,
		Codec:      mc,
	})
	require.NoError(t, err)
	require.NotNil(t, mc.out)

	descs := partition.Plan(2, 3, 4, partition.TruncateSeams)
	want := partition.OutputHeight(descs)
	assert.Equal(t, want, res.Height, "gathered height must match the plan's byte accounting")
	assert.Less(t, want, 3, "truncation drops a row here")
	assert.Equal(t, want*3, len(mc.out.Pix))
	require.NoError(t, mc.out.Validate())
}

// TestRunPadLastWorker checks the corrected seam policy end to end: the
// last row-owning worker absorbs the truncation remainder and the output
// reaches the requested height.
func TestRunPadLastWorker(t *testing.T) {
	mc := &memCodec{img: rowImage(2, 3, 1)}

	res, err := Run(Config{
		InputPath:  "in.png",
		OutputPath: "out.png",
		NewHeight:  4,
		Workers:    2,
		Strategy:   partition.PadLastWorker,
		Codec:      mc,
	})
	require.NoError(t, err)
	require.Equal(t, 4, res.Height)

	// Worker 0 owns rows 0-1 and emits both; worker 1 owns row 2 and
	// emits it twice.
	want := []byte{0, 1, 2, 2}
	for y, src := range want {
		for x := 0; x < 2; x++ {
			assert.Equal(t, src, mc.out.Pix[y*2+x], "output row %d", y)
		}
	}
}

func TestRunIdentity(t *testing.T) {
	mc := &memCodec{img: rowImage(4, 5, 4)}

	res, err := Run(Config{
		InputPath:  "in.png",
		OutputPath: "out.png",
		Workers:    3,
		Codec:      mc,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Height)
	assert.Equal(t, rowImage(4, 5, 4).Pix, mc.out.Pix, "no resize, no filter: output equals input")
}

func TestRunResizesWidthAtCoordinator(t *testing.T) {
	mc := &memCodec{img: rowImage(4, 2, 4)}

	res, err := Run(Config{
		InputPath:  "in.png",
		OutputPath: "out.png",
		NewWidth:   2,
		Workers:    2,
		Codec:      mc,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Width)
	assert.Equal(t, 2, res.Height)
	require.NoError(t, mc.out.Validate())
	// Row provenance survives: each output row still encodes its index.
	for y := 0; y < 2; y++ {
		for i := 0; i < 2*4; i++ {
			assert.Equal(t, byte(y), mc.out.Pix[y*8+i])
		}
	}
}

// TestRunMissingInputAborts exercises the single fatal path: a decode
// failure at the coordinator must terminate every waiting worker instead
// of leaving them blocked in a collective, and no output is written.
func TestRunMissingInputAborts(t *testing.T) {
	mc := &memCodec{decodeErr: errors.New("no such file")}

	res, err := Run(Config{
		InputPath:  "missing.png",
		OutputPath: "out.png",
		Workers:    4,
		Codec:      mc,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load input")
	assert.Nil(t, res)
	assert.Nil(t, mc.out, "no partial output on the fatal path")
}

func TestRunEncodeFailure(t *testing.T) {
	mc := &memCodec{img: rowImage(2, 2, 1), encodeErr: errors.New("disk full")}

	_, err := Run(Config{
		InputPath:  "in.png",
		OutputPath: "out.png",
		Workers:    2,
		Codec:      mc,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save output")
}

func TestRunReportsMetadata(t *testing.T) {
	mc := &memCodec{img: rowImage(2, 2, 1)}

	res, err := Run(Config{
		InputPath:  "in.png",
		OutputPath: "dest.png",
		Workers:    2,
		Codec:      mc,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "dest.png", res.OutputPath)
	assert.Equal(t, "dest.png", mc.outPath)
	assert.Equal(t, 100, mc.quality, "output quality is fixed at maximum")
	assert.GreaterOrEqual(t, res.Elapsed.Nanoseconds(), int64(0))
}

func TestRunInvalidWorkerCount(t *testing.T) {
	_, err := Run(Config{Workers: 0, Codec: &memCodec{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid worker count")
}

func TestRunSingleWorker(t *testing.T) {
	mc := &memCodec{img: rowImage(2, 4, 1)}

	res, err := Run(Config{
		InputPath:  "in.png",
		OutputPath: "out.png",
		Filter:     "invert",
		Workers:    1,
		Codec:      mc,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Height)
	for y := 0; y < 4; y++ {
		assert.Equal(t, byte(255-y), mc.out.Pix[y*2])
	}
}
