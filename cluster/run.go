package cluster

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/go-raster/codec"
	"github.com/nvr-ai/go-raster/partition"
	"github.com/nvr-ai/go-raster/raster"
)

// encodeQuality is the encoder quality hint for the output image.
// Fixed at maximum: the pipeline resamples, it does not recompress
// aggressively.
const encodeQuality = 100

// Codec is the external decode/encode collaborator. The default is the
// on-disk codec.Files; tests substitute in-memory implementations.
type Codec interface {
	Decode(path string) (*raster.Image, error)
	Encode(path string, img *raster.Image, quality int) error
}

// Config describes one distributed run. Worker count is a launch
// parameter known before the first collective, never computed mid-run.
type Config struct {
	// InputPath is the image file to read.
	InputPath string
	// OutputPath is the image file to write.
	OutputPath string
	// Filter is free-form filter text matched against the closed enum;
	// unmatched text means pass-through.
	Filter string
	// NewWidth is the target width. 0 keeps the original width.
	NewWidth int
	// NewHeight is the target height. 0 keeps the original height.
	NewHeight int
	// Workers is the size of the process group, coordinator included.
	Workers int
	// Strategy selects the output-side row policy at partition seams.
	Strategy partition.OutputStrategy
	// Codec overrides the on-disk codec when non-nil.
	Codec Codec
}

// Result reports a completed run.
type Result struct {
	// RunID tags the run's log lines.
	RunID string
	// OutputPath is the written image file.
	OutputPath string
	// Width and Height are the dimensions actually written. Height can
	// fall short of the requested height under TruncateSeams.
	Width  int
	Height int
	// Workers is the process-group size used.
	Workers int
	// Elapsed is the wall-clock duration of the whole run.
	Elapsed time.Duration
}

// Run executes one complete distributed pass: decode, broadcast,
// scatter, local resample+filter on every rank, gather, encode. There
// are no retries and no partial results: the only fatal path (missing
// or undecodable input) aborts the whole group.
//
// Arguments:
//   - cfg: The run configuration.
//
// Returns:
//   - *Result: The run report on success.
//   - error: The coordinator's error on the fatal path.
func Run(cfg Config) (*Result, error) {
	if cfg.Workers < 1 {
		return nil, errors.Errorf("invalid worker count: %d", cfg.Workers)
	}
	if cfg.Codec == nil {
		cfg.Codec = codec.Files{}
	}

	start := time.Now()
	runID := uuid.New().String()
	g := newGroup(cfg.Workers)

	var eg errgroup.Group
	for rank := 1; rank < cfg.Workers; rank++ {
		rank := rank
		eg.Go(func() error {
			if err := workerMain(g, rank); err != nil {
				g.Abort()
				return err
			}
			return nil
		})
	}

	res, err := coordinatorMain(g, cfg, runID)
	werr := eg.Wait()
	if err != nil {
		return nil, err
	}
	if werr != nil && !errors.Is(werr, ErrAborted) {
		return nil, werr
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

// coordinatorMain is rank 0: it owns the full image before the scatter
// and after the gather, and acts as a regular worker in between.
func coordinatorMain(g *group, cfg Config, runID string) (*Result, error) {
	img, err := cfg.Codec.Decode(cfg.InputPath)
	if err != nil {
		g.Abort()
		return nil, errors.Wrap(err, "coordinator: load input")
	}
	if err := img.Validate(); err != nil {
		g.Abort()
		return nil, errors.Wrap(err, "coordinator: decoded image")
	}

	newWidth, newHeight := cfg.NewWidth, cfg.NewHeight
	if newWidth == 0 {
		newWidth = img.Width
	}
	if newHeight == 0 {
		newHeight = img.Height
	}

	// Columns are resampled once at the coordinator; the distributed
	// pass only ever redistributes rows.
	if newWidth != img.Width {
		if img, err = codec.ResizeWidth(img, newWidth); err != nil {
			g.Abort()
			return nil, errors.Wrap(err, "coordinator: resize width")
		}
	}

	log.Printf("[%.8s] input %dx%d (%d channels), target %dx%d, %d workers",
		runID, img.Width, img.Height, img.Channels, newWidth, newHeight, g.size)

	h := header{
		width:     img.Width,
		height:    img.Height,
		channels:  img.Channels,
		newWidth:  newWidth,
		newHeight: newHeight,
		filter:    raster.ParseFilter(cfg.Filter),
		strategy:  cfg.Strategy,
	}
	if _, err := g.broadcast(0, h); err != nil {
		return nil, err
	}

	descs := partition.Plan(h.height, h.newHeight, g.size, h.strategy)
	sendCounts, sendDispls, recvCounts, recvDispls := partition.ByteCounts(descs, h.width, h.channels)

	local, err := g.scatter(0, img.Pix, sendCounts, sendDispls)
	if err != nil {
		return nil, err
	}
	out := processBlock(local, h, descs[0])

	outHeight := partition.OutputHeight(descs)
	gathered := make([]byte, outHeight*h.width*h.channels)
	if err := g.gather(0, out, gathered, recvCounts, recvDispls); err != nil {
		return nil, err
	}

	final := &raster.Image{Width: h.width, Height: outHeight, Channels: h.channels, Pix: gathered}
	if err := cfg.Codec.Encode(cfg.OutputPath, final, encodeQuality); err != nil {
		return nil, errors.Wrap(err, "coordinator: save output")
	}
	log.Printf("[%.8s] saved %s (%dx%d)", runID, cfg.OutputPath, final.Width, final.Height)

	return &Result{
		RunID:      runID,
		OutputPath: cfg.OutputPath,
		Width:      final.Width,
		Height:     final.Height,
		Workers:    g.size,
	}, nil
}

// workerMain is any rank other than 0. It learns the run geometry from
// the broadcast, recomputes the partition table, and works purely on
// its own block between the scatter and the gather.
func workerMain(g *group, rank int) error {
	h, err := g.broadcast(rank, header{})
	if err != nil {
		return err
	}
	descs := partition.Plan(h.height, h.newHeight, g.size, h.strategy)

	local, err := g.scatter(rank, nil, nil, nil)
	if err != nil {
		return err
	}
	out := processBlock(local, h, descs[rank])

	return g.gather(rank, out, nil, nil, nil)
}

// processBlock is the embarrassingly parallel phase: resample the
// owned rows, then filter the result in place. No rank touches another
// rank's memory here.
func processBlock(block []byte, h header, d partition.Descriptor) []byte {
	out := raster.ResampleRows(block, h.width, d.InputRows, d.OutputRows, h.channels)
	raster.ApplyFilter(out, h.filter)
	return out
}
