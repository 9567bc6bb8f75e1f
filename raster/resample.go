package raster

// ResampleRows maps an input row-block to an output row-block of a
// different height using nearest-neighbor selection on the vertical
// axis. The horizontal axis is never resampled: every output row is a
// verbatim copy of one input row.
//
// For output row y the source row is floor(y*inHeight/outHeight), so an
// identity resize (outHeight == inHeight) copies the block unchanged.
//
// Arguments:
//   - block: The input row-block, width*inHeight*channels bytes.
//   - width: The row width in pixels.
//   - inHeight: The number of input rows.
//   - outHeight: The number of output rows.
//   - channels: The interleaved channels per pixel.
//
// Returns:
//   - []byte: A new block of width*outHeight*channels bytes. A worker
//     that received no rows (inHeight == 0), or one asked for no output
//     rows, gets an empty block back; the source-row computation never
//     divides by zero.
func ResampleRows(block []byte, width, inHeight, outHeight, channels int) []byte {
	if inHeight == 0 || outHeight == 0 {
		return []byte{}
	}

	rowBytes := width * channels
	out := make([]byte, rowBytes*outHeight)
	for y := 0; y < outHeight; y++ {
		srcY := y * inHeight / outHeight
		copy(out[y*rowBytes:(y+1)*rowBytes], block[srcY*rowBytes:(srcY+1)*rowBytes])
	}
	return out
}
