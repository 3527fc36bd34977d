// ABOUTME: Critical band layout for MDCT bins
// ABOUTME: Groups bins by Bark index so bands are dense at low frequencies
package glc

import (
	"fmt"
	"math"
)

const (
	// DefaultFrameLength is the window length used when Config leaves it unset
	DefaultFrameLength = 2048

	// MinFrameLength and MaxFrameLength bound the supported window lengths.
	// The basis is stored densely, so memory grows with the square of the length.
	MinFrameLength = 2
	MaxFrameLength = 4096
)

// Band is a half-open range [Start, End) of MDCT bins
type Band struct {
	Start int
	End   int
}

// Width returns the number of bins in the band
func (b Band) Width() int {
	return b.End - b.Start
}

// Layout is the critical band partition of one frame's coefficients.
// It depends only on the frame length and the sample rate.
type Layout struct {
	FrameLength int
	SampleRate  int
	Bands       []Band
}

// Bins returns the number of coefficients per frame (half the frame length)
func (l *Layout) Bins() int {
	return l.FrameLength / 2
}

// BandLayout computes the critical band layout for a frame length and sample rate
func BandLayout(frameLength, sampleRate int) (*Layout, error) {
	if err := validateConfig(frameLength, sampleRate); err != nil {
		return nil, err
	}

	bins := frameLength / 2
	bands := make([]Band, 0, 32)
	start := 0
	prev := barkIndex(binFrequency(0, bins, sampleRate))
	for k := 1; k < bins; k++ {
		idx := barkIndex(binFrequency(k, bins, sampleRate))
		if idx != prev {
			bands = append(bands, Band{Start: start, End: k})
			start = k
			prev = idx
		}
	}
	bands = append(bands, Band{Start: start, End: bins})

	return &Layout{
		FrameLength: frameLength,
		SampleRate:  sampleRate,
		Bands:       bands,
	}, nil
}

// validateConfig checks the (frame length, sample rate) pair tables are keyed by
func validateConfig(frameLength, sampleRate int) error {
	if frameLength < MinFrameLength || frameLength&(frameLength-1) != 0 {
		return fmt.Errorf("%w: frame length %d is not a power of two >= %d", ErrConfiguration, frameLength, MinFrameLength)
	}
	if frameLength > MaxFrameLength {
		return fmt.Errorf("%w: frame length %d exceeds maximum %d", ErrConfiguration, frameLength, MaxFrameLength)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrConfiguration, sampleRate)
	}
	return nil
}

// binFrequency returns the centre frequency in Hz of MDCT bin k
func binFrequency(k, bins, sampleRate int) float64 {
	nyquist := float64(sampleRate) / 2
	return (float64(k) + 0.5) * nyquist / float64(bins)
}

// bark converts a frequency in Hz to the Bark scale
func bark(f float64) float64 {
	return 13*math.Atan(0.00076*f) + 3.5*math.Atan((f/7500)*(f/7500))
}

func barkIndex(f float64) int {
	return int(math.Floor(bark(f)))
}
