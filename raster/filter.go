package raster

import (
	"strings"

	"github.com/chewxy/math32"
)

// Filter selects the per-pixel transform applied to a row-block after
// resampling.
type Filter int

const (
	// FilterNone leaves the block unchanged.
	FilterNone Filter = iota
	// FilterInvert replaces every byte with 255 - value.
	FilterInvert
	// FilterBrightness adds a fixed offset to every byte, clamped to 255.
	FilterBrightness
	// FilterContrast stretches every byte around the mid-gray pivot.
	FilterContrast
)

const (
	brightnessOffset = 50
	contrastFactor   = 1.2
	contrastPivot    = 128
)

// ParseFilter matches free-form filter text against the closed enum.
// Unrecognized text maps to FilterNone: an unknown filter is a
// pass-through, not an error.
func ParseFilter(s string) Filter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "invert":
		return FilterInvert
	case "brightness":
		return FilterBrightness
	case "contrast":
		return FilterContrast
	default:
		return FilterNone
	}
}

// String returns the canonical filter name.
func (f Filter) String() string {
	switch f {
	case FilterInvert:
		return "invert"
	case FilterBrightness:
		return "brightness"
	case FilterContrast:
		return "contrast"
	default:
		return "none"
	}
}

// ApplyFilter mutates block in place in a single O(len) pass. The
// transforms are channel-agnostic: alpha bytes are treated like any
// other channel byte.
//
// Arguments:
//   - block: The pixel bytes to transform.
//   - f: The filter to apply. FilterNone and unknown values are no-ops.
func ApplyFilter(block []byte, f Filter) {
	switch f {
	case FilterInvert:
		for i := range block {
			block[i] = 255 - block[i]
		}
	case FilterBrightness:
		for i, p := range block {
			v := int(p) + brightnessOffset
			if v > 255 {
				v = 255
			}
			block[i] = byte(v)
		}
	case FilterContrast:
		for i, p := range block {
			v := math32.Round((float32(p)-contrastPivot)*contrastFactor + contrastPivot)
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			block[i] = byte(v)
		}
	}
}
