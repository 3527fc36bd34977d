// ABOUTME: Precomputed transform and perceptual tables
// ABOUTME: Window, MDCT basis, band layout and per-band masking constants
package glc

import "math"

// Tables holds everything a frame computation reads but never writes.
// Built once per (frame length, sample rate) and shared by all workers.
type Tables struct {
	frameLength int
	hop         int
	sampleRate  int

	window []float64 // frameLength sine window weights
	basis  []float64 // hop rows of frameLength cosines
	norm   float64   // sqrt(2/hop), applied in both directions

	layout *Layout
	ath    []float64 // absolute threshold of hearing per band, as noise power
	spread []float64 // len(bands)^2 spreading gains, [maskee*bands+masker]
}

// NewTables builds the tables for a frame length and sample rate.
// frameLength must be a power of two between MinFrameLength and MaxFrameLength.
func NewTables(frameLength, sampleRate int) (*Tables, error) {
	layout, err := BandLayout(frameLength, sampleRate)
	if err != nil {
		return nil, err
	}

	hop := frameLength / 2
	t := &Tables{
		frameLength: frameLength,
		hop:         hop,
		sampleRate:  sampleRate,
		window:      make([]float64, frameLength),
		basis:       make([]float64, hop*frameLength),
		norm:        math.Sqrt(2 / float64(hop)),
		layout:      layout,
	}

	n := float64(frameLength)
	m := float64(hop)
	for i := range t.window {
		t.window[i] = math.Sin(math.Pi * (float64(i) + 0.5) / n)
	}
	for k := 0; k < hop; k++ {
		row := t.basis[k*frameLength : (k+1)*frameLength]
		for i := range row {
			row[i] = math.Cos(math.Pi / m * (float64(i) + 0.5 + m/2) * (float64(k) + 0.5))
		}
	}

	t.ath = athPerBand(layout)
	t.spread = spreadingMatrix(len(layout.Bands))

	return t, nil
}

// FrameLength returns the window length N
func (t *Tables) FrameLength() int { return t.frameLength }

// Hop returns the frame advance, N/2, which is also the coefficient count
func (t *Tables) Hop() int { return t.hop }

// SampleRate returns the sample rate the tables were built for
func (t *Tables) SampleRate() int { return t.sampleRate }

// Layout returns the critical band layout
func (t *Tables) Layout() *Layout { return t.layout }

// Window returns the analysis/synthesis window. Callers must not modify it.
func (t *Tables) Window() []float64 { return t.window }

// fullScaleDB is the sound pressure level assigned to a full-scale coefficient
const fullScaleDB = 96.0

// athPerBand evaluates Terhardt's threshold in quiet at every bin and keeps
// the lowest value of each band, expressed as coefficient noise power.
func athPerBand(layout *Layout) []float64 {
	bins := layout.Bins()
	fullScalePower := float64(bins) / 2

	ath := make([]float64, len(layout.Bands))
	for b, band := range layout.Bands {
		minDB := math.Inf(1)
		for k := band.Start; k < band.End; k++ {
			db := terhardt(binFrequency(k, bins, layout.SampleRate))
			if db < minDB {
				minDB = db
			}
		}
		ath[b] = fullScalePower * math.Pow(10, (minDB-fullScaleDB)/10)
	}
	return ath
}

// terhardt returns the threshold in quiet in dB SPL, capped at full scale
func terhardt(f float64) float64 {
	khz := math.Max(f, 20) / 1000
	db := 3.64*math.Pow(khz, -0.8) - 6.5*math.Exp(-0.6*(khz-3.3)*(khz-3.3)) + 1e-3*math.Pow(khz, 4)
	return math.Min(db, fullScaleDB)
}

// spreadingMatrix precomputes the Schroeder spreading function between bands
func spreadingMatrix(bands int) []float64 {
	s := make([]float64, bands*bands)
	for maskee := 0; maskee < bands; maskee++ {
		for masker := 0; masker < bands; masker++ {
			dz := float64(maskee-masker) + 0.474
			db := 15.81 + 7.5*dz - 17.5*math.Sqrt(1+dz*dz)
			s[maskee*bands+masker] = math.Pow(10, db/10)
		}
	}
	return s
}
