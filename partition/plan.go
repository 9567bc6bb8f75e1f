// Package partition computes how an image's rows are split across a
// fixed set of workers and how the per-worker results are laid back out
// in the gathered output buffer.
package partition

// Descriptor assigns one worker a contiguous input row range and the
// output row range its resampled block occupies after the gather.
type Descriptor struct {
	// The worker index, 0-based. Worker 0 is the coordinator.
	Worker int
	// The first input row owned by this worker.
	InputStart int
	// The number of input rows owned by this worker.
	InputRows int
	// The first output row this worker's block occupies. Output starts
	// are the prefix sum of prior workers' output rows: the coordinator
	// reassembles contiguously, whatever each worker produced.
	OutputStart int
	// The number of output rows this worker produces.
	OutputRows int
}

// OutputStrategy selects how per-worker output row counts are derived
// from the input split.
type OutputStrategy int

const (
	// TruncateSeams computes each worker's output rows independently as
	// floor(newHeight*inputRows/height). Integer truncation can lose up
	// to workers-1 rows across partition seams, leaving the gathered
	// image shorter than requested. This matches the observed behavior
	// of the pipeline and is the default.
	TruncateSeams OutputStrategy = iota
	// PadLastWorker assigns the truncation remainder to the last worker
	// holding input rows, so output rows always sum to newHeight.
	PadLastWorker
)

// Plan computes the partition table for a run. It is a pure function of
// its inputs: every rank that evaluates it with the broadcast metadata
// obtains the identical table.
//
// The input side front-loads the remainder: worker i receives
// height/workers rows, plus one when i < height%workers. The ranges tile
// [0, height) with no gap or overlap; a worker past the remainder of a
// short image legitimately receives zero rows.
//
// Arguments:
//   - height: The input image height in rows.
//   - newHeight: The requested output height in rows.
//   - workers: The worker count. Must be >= 1.
//   - strategy: The output-side row policy.
//
// Returns:
//   - []Descriptor: One descriptor per worker, or nil for invalid input.
func Plan(height, newHeight, workers int, strategy OutputStrategy) []Descriptor {
	if workers < 1 || height < 0 || newHeight < 0 {
		return nil
	}

	base := height / workers
	rem := height % workers

	descs := make([]Descriptor, workers)
	for i := range descs {
		inRows := base
		if i < rem {
			inRows++
		}
		inStart := i*base + min(i, rem)

		outRows := 0
		if height > 0 {
			outRows = newHeight * inRows / height
		}
		descs[i] = Descriptor{
			Worker:     i,
			InputStart: inStart,
			InputRows:  inRows,
			OutputRows: outRows,
		}
	}

	if strategy == PadLastWorker {
		padLastWorker(descs, newHeight)
	}

	// Reassembly offsets: prefix sum of what each worker will actually
	// produce, not each worker's own truncated arithmetic.
	start := 0
	for i := range descs {
		descs[i].OutputStart = start
		start += descs[i].OutputRows
	}
	return descs
}

// padLastWorker hands the rows lost to seam truncation to the last
// worker that owns input rows. Zero-row workers are skipped: a worker
// with no input cannot source output rows.
func padLastWorker(descs []Descriptor, newHeight int) {
	total := 0
	last := -1
	for i, d := range descs {
		total += d.OutputRows
		if d.InputRows > 0 {
			last = i
		}
	}
	if last >= 0 {
		descs[last].OutputRows += newHeight - total
	}
}

// OutputHeight returns the total number of output rows the plan
// produces. Under TruncateSeams this can be less than the requested
// height; the gathered image uses this value.
func OutputHeight(descs []Descriptor) int {
	total := 0
	for _, d := range descs {
		total += d.OutputRows
	}
	return total
}

// ByteCounts derives the scatter and gather tables from a plan: byte
// counts and buffer offsets per worker, on both the input and the
// output side.
//
// Arguments:
//   - descs: The partition table.
//   - width: The row width in pixels.
//   - channels: The interleaved channels per pixel.
//
// Returns:
//   - sendCounts: Input bytes scattered to each worker.
//   - sendDispls: Offset of each worker's input block in the full buffer.
//   - recvCounts: Output bytes gathered from each worker.
//   - recvDispls: Offset of each worker's output block in the gathered buffer.
func ByteCounts(descs []Descriptor, width, channels int) (sendCounts, sendDispls, recvCounts, recvDispls []int) {
	rowBytes := width * channels
	sendCounts = make([]int, len(descs))
	sendDispls = make([]int, len(descs))
	recvCounts = make([]int, len(descs))
	recvDispls = make([]int, len(descs))
	for i, d := range descs {
		sendCounts[i] = d.InputRows * rowBytes
		sendDispls[i] = d.InputStart * rowBytes
		recvCounts[i] = d.OutputRows * rowBytes
		recvDispls[i] = d.OutputStart * rowBytes
	}
	return sendCounts, sendDispls, recvCounts, recvDispls
}
