// ABOUTME: Adaptive per-band quantizer
// ABOUTME: Picks 8-16 bit widths from the masking profile and scales by band peak
package glc

import (
	"fmt"
	"math"
)

const (
	// MinWidth and MaxWidth bound every band's code width in bits
	MinWidth = 8
	MaxWidth = 16
)

// ChannelFrame is one channel's quantized frame: a width and scale factor
// per band followed by one code per coefficient.
type ChannelFrame struct {
	Widths []uint8
	Scales []float32
	Codes  []int32
}

// maxCode returns the largest magnitude a code of the given width may hold.
// The most negative two's complement value is reserved.
func maxCode(width uint8) int32 {
	return int32(1)<<(width-1) - 1
}

// allocateWidth returns the smallest width whose uniform step keeps the
// quantization noise power (step^2/12) at or below threshold, clamped to
// [MinWidth, MaxWidth]. energy is the band's sum of squared coefficients,
// which bounds the squared peak the step is sized from, so the width depends
// on the band only through its energy. Non-decreasing in energy for a fixed
// threshold.
func allocateWidth(energy, threshold float64) uint8 {
	if !(energy > 0) {
		return MinWidth
	}
	if !(threshold > 0) {
		return MaxWidth
	}

	levels := math.Sqrt(energy / (12 * threshold))
	bits := math.Ceil(math.Log2(levels+1)) + 1
	switch {
	case math.IsNaN(bits) || bits < MinWidth:
		return MinWidth
	case bits > MaxWidth:
		return MaxWidth
	}
	return uint8(bits)
}

// scaleFactor rounds a band peak up to the nearest float32, so that no
// coefficient divided by it exceeds 1 in magnitude.
func scaleFactor(peak float64) float32 {
	if peak >= math.MaxFloat32 {
		return math.MaxFloat32
	}
	s := float32(peak)
	if float64(s) < peak {
		s = math.Nextafter32(s, math.MaxFloat32)
	}
	return s
}

// Quantize maps a spectrum to integer codes, one width and scale per band
func Quantize(spectrum []float64, profile MaskingProfile, layout *Layout) ChannelFrame {
	cf := ChannelFrame{
		Widths: make([]uint8, len(layout.Bands)),
		Scales: make([]float32, len(layout.Bands)),
		Codes:  make([]int32, layout.Bins()),
	}

	for b, band := range layout.Bands {
		var peak, energy float64
		for _, c := range spectrum[band.Start:band.End] {
			energy += c * c
			if a := math.Abs(c); a > peak {
				peak = a
			}
		}

		width := allocateWidth(energy, profile[b])
		cf.Widths[b] = width
		if !(peak > 0) {
			continue
		}

		scale := scaleFactor(peak)
		cf.Scales[b] = scale
		limit := maxCode(width)
		q := float64(limit) / float64(scale)
		for k := band.Start; k < band.End; k++ {
			code := math.Round(spectrum[k] * q)
			if code > float64(limit) {
				code = float64(limit)
			} else if code < -float64(limit) {
				code = -float64(limit)
			}
			cf.Codes[k] = int32(code)
		}
	}
	return cf
}

// Dequantize reconstructs a spectrum from one channel frame into out.
// Widths, scales and codes are checked, never clamped: anything outside its
// declared range is reported as ErrMalformedStream.
func Dequantize(cf ChannelFrame, layout *Layout, out []float64) error {
	if err := checkChannelFrame(cf, layout); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedStream, err)
	}

	for b, band := range layout.Bands {
		scale := float64(cf.Scales[b])
		step := scale / float64(maxCode(cf.Widths[b]))
		for k := band.Start; k < band.End; k++ {
			out[k] = float64(cf.Codes[k]) * step
		}
	}
	return nil
}

// checkChannelFrame validates shape and ranges of a channel frame
func checkChannelFrame(cf ChannelFrame, layout *Layout) error {
	nb := len(layout.Bands)
	if len(cf.Widths) != nb || len(cf.Scales) != nb {
		return fmt.Errorf("expected %d bands, got %d widths and %d scales", nb, len(cf.Widths), len(cf.Scales))
	}
	if len(cf.Codes) != layout.Bins() {
		return fmt.Errorf("expected %d codes, got %d", layout.Bins(), len(cf.Codes))
	}

	for b, band := range layout.Bands {
		width := cf.Widths[b]
		if width < MinWidth || width > MaxWidth {
			return fmt.Errorf("band %d: width %d outside [%d, %d]", b, width, MinWidth, MaxWidth)
		}
		scale := cf.Scales[b]
		if scale < 0 || math.IsNaN(float64(scale)) || math.IsInf(float64(scale), 0) {
			return fmt.Errorf("band %d: invalid scale factor %v", b, scale)
		}
		limit := maxCode(width)
		for k := band.Start; k < band.End; k++ {
			code := cf.Codes[k]
			if code > limit || code < -limit {
				return fmt.Errorf("band %d: code %d out of range for %d-bit width", b, code, width)
			}
			if scale == 0 && code != 0 {
				return fmt.Errorf("band %d: non-zero code %d in silent band", b, code)
			}
		}
	}
	return nil
}
