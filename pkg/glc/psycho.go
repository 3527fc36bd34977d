// ABOUTME: Psychoacoustic masking model
// ABOUTME: Derives a per-band masking threshold from one frame's spectrum
package glc

import "math"

// MaskingProfile holds, per critical band, the noise power per coefficient
// below which quantization error is treated as inaudible. It only steers
// encoder-side bit allocation and is never serialized.
type MaskingProfile []float64

// Masking computes the masking profile of a spectrum of Hop coefficients.
//
// Each band's energy is spread onto its neighbours and lowered by an offset
// that depends on how tonal the masking band is. A band masks itself with
// the tonal offset whatever its shape, so its own threshold depends on its
// content only through its energy and grows at most linearly with it. The
// result is floored by the threshold in quiet; a silent spectrum yields the
// threshold in quiet everywhere.
func (t *Tables) Masking(spectrum []float64) MaskingProfile {
	bands := t.layout.Bands
	nb := len(bands)

	energy := make([]float64, nb)
	tonality := make([]float64, nb)
	for b, band := range bands {
		energy[b], tonality[b] = bandStats(spectrum[band.Start:band.End])
	}

	profile := make(MaskingProfile, nb)
	for b := range bands {
		var spread float64
		row := t.spread[b*nb : (b+1)*nb]
		for j, e := range energy {
			if e == 0 {
				continue
			}
			alpha := tonality[j]
			if j == b {
				alpha = 1
			}
			offset := alpha*(14.5+float64(b)) + (1-alpha)*5.5
			spread += e * row[j] * math.Pow(10, -offset/10)
		}

		threshold := spread
		if !(threshold > t.ath[b]) {
			threshold = t.ath[b]
		}
		profile[b] = threshold
	}
	return profile
}

// bandStats returns the mean power of a band and its tonality in [0, 1],
// derived from the spectral flatness measure. Both are invariant to the
// band's overall gain apart from the power itself.
func bandStats(coeffs []float64) (power, tonality float64) {
	if len(coeffs) == 0 {
		return 0, 1
	}

	var sum, logSum float64
	zero := false
	for _, c := range coeffs {
		p := c * c
		sum += p
		if p == 0 {
			zero = true
		} else {
			logSum += math.Log(p)
		}
	}
	power = sum / float64(len(coeffs))
	if power == 0 || zero || math.IsInf(power, 0) {
		return power, 1
	}

	geo := math.Exp(logSum / float64(len(coeffs)))
	sfm := geo / power
	if !(sfm > 0) {
		return power, 1
	}
	// -60 dB flatness is treated as a pure tone
	tonality = 10 * math.Log10(sfm) / -60
	return power, math.Max(0, math.Min(1, tonality))
}
