// ABOUTME: Tests for the adaptive quantizer
// ABOUTME: Width bounds, monotonic allocation, scale factors and strict dequantization
package glc

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateWidthBounds(t *testing.T) {
	tests := []struct {
		name      string
		energy    float64
		threshold float64
		want      uint8
	}{
		{"silent band", 0, 1, MinWidth},
		{"nan energy", math.NaN(), 1, MinWidth},
		{"fully masked", 1e-6, 1, MinWidth},
		{"infinite threshold", 1, math.Inf(1), MinWidth},
		{"huge dynamic range", 1e30, 1e-30, MaxWidth},
		{"zero threshold", 1, 0, MaxWidth},
		{"in range", 600 * 600, 1.0 / 12, 11},
		{"infinite energy", math.Inf(1), 1, MaxWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, allocateWidth(tt.energy, tt.threshold))
		})
	}
}

func TestQuantizeWidthsWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tables, err := NewTables(256, 44100)
	require.NoError(t, err)

	spectrum := make([]float64, tables.Hop())
	for trial := 0; trial < 50; trial++ {
		amp := math.Pow(10, float64(trial%12)-6)
		for k := range spectrum {
			spectrum[k] = (rng.Float64()*2 - 1) * amp
		}
		cf := Quantize(spectrum, tables.Masking(spectrum), tables.Layout())
		for b, w := range cf.Widths {
			assert.GreaterOrEqual(t, w, uint8(MinWidth), "trial %d band %d", trial, b)
			assert.LessOrEqual(t, w, uint8(MaxWidth), "trial %d band %d", trial, b)
		}
		require.NoError(t, checkChannelFrame(cf, tables.Layout()))
	}
}

func TestQuantizeAllocationMonotonicInBandEnergy(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	tables, err := NewTables(512, 44100)
	require.NoError(t, err)
	layout := tables.Layout()

	base := make([]float64, tables.Hop())
	for k := range base {
		base[k] = (rng.Float64()*2 - 1) * 0.05
	}
	ref := Quantize(base, tables.Masking(base), layout)

	for b, band := range layout.Bands {
		prev := ref.Widths[b]
		for _, gain := range []float64{1.5, 2, 10, 100, 1e4} {
			boosted := append([]float64(nil), base...)
			for k := band.Start; k < band.End; k++ {
				boosted[k] *= gain
			}
			cf := Quantize(boosted, tables.Masking(boosted), layout)
			assert.GreaterOrEqual(t, cf.Widths[b], prev, "band %d gain %v", b, gain)
			prev = cf.Widths[b]
		}
	}
}

func TestQuantizeAllocationMonotonicWithinBand(t *testing.T) {
	tables, err := NewTables(2048, 44100)
	require.NoError(t, err)
	layout := tables.Layout()

	rng := rand.New(rand.NewSource(5))
	base := make([]float64, tables.Hop())
	for k := range base {
		base[k] = (rng.Float64()*2 - 1) * 1e-3
	}
	widthOf := func(spectrum []float64, b int) uint8 {
		return Quantize(spectrum, tables.Masking(spectrum), layout).Widths[b]
	}

	for b, band := range layout.Bands {
		if band.Width() < 2 {
			continue
		}

		// Raise every bin but the peak: energy grows, the peak does not
		for _, peak := range []float64{1, 10} {
			var prev uint8
			for _, fill := range []float64{1e-4, 1e-2, 0.1, 0.5, 0.9} {
				s := append([]float64(nil), base...)
				s[band.Start] = peak
				for k := band.Start + 1; k < band.End; k++ {
					s[k] = fill * peak
				}
				w := widthOf(s, b)
				assert.GreaterOrEqual(t, w, prev, "band %d peak %v fill %v", b, peak, fill)
				prev = w
			}
		}

		// Reshape the band at rising energies: the peak may fall
		var prev uint8
		for _, energy := range []float64{1e-2, 1, 10, 1e3, 1e5} {
			s := append([]float64(nil), base...)
			var sum float64
			for k := band.Start; k < band.End; k++ {
				s[k] = rng.NormFloat64() * math.Pow(10, rng.Float64()*4)
				sum += s[k] * s[k]
			}
			gain := math.Sqrt(energy / sum)
			for k := band.Start; k < band.End; k++ {
				s[k] *= gain
			}
			w := widthOf(s, b)
			assert.GreaterOrEqual(t, w, prev, "band %d energy %v", b, energy)
			prev = w
		}
	}
}

func TestQuantizeNoiseBelowThreshold(t *testing.T) {
	tables, err := NewTables(512, 44100)
	require.NoError(t, err)
	layout := tables.Layout()

	rng := rand.New(rand.NewSource(19))
	spectrum := make([]float64, tables.Hop())
	for k := range spectrum {
		spectrum[k] = rng.NormFloat64() * math.Pow(10, rng.Float64()*3-2)
	}
	profile := tables.Masking(spectrum)
	cf := Quantize(spectrum, profile, layout)

	for b := range layout.Bands {
		if cf.Widths[b] == MaxWidth {
			continue
		}
		step := float64(cf.Scales[b]) / float64(maxCode(cf.Widths[b]))
		// float32 scale rounding may exceed the peak by one ulp
		assert.LessOrEqual(t, step*step/12, profile[b]*(1+1e-6), "band %d", b)
	}
}

func TestScaleFactorNeverBelowPeak(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		peak := rng.Float64() * math.Pow(10, float64(rng.Intn(20)-10))
		assert.GreaterOrEqual(t, float64(scaleFactor(peak)), peak)
	}
	assert.Equal(t, float32(math.MaxFloat32), scaleFactor(math.Inf(1)))
}

func TestDequantizeInvertsQuantize(t *testing.T) {
	tables, err := NewTables(256, 48000)
	require.NoError(t, err)

	spectrum := make([]float64, tables.Hop())
	for k := range spectrum {
		spectrum[k] = math.Sin(float64(k)*0.37) * float64(k%7)
	}
	cf := Quantize(spectrum, tables.Masking(spectrum), tables.Layout())

	out := make([]float64, tables.Hop())
	require.NoError(t, Dequantize(cf, tables.Layout(), out))
	for b, band := range tables.Layout().Bands {
		step := float64(cf.Scales[b]) / float64(maxCode(cf.Widths[b]))
		for k := band.Start; k < band.End; k++ {
			assert.InDelta(t, spectrum[k], out[k], step/2+1e-12, "bin %d", k)
		}
	}
}

func TestDequantizeRejectsOutOfRange(t *testing.T) {
	layout, err := BandLayout(16, 8000)
	require.NoError(t, err)

	valid := func() ChannelFrame {
		nb := len(layout.Bands)
		cf := ChannelFrame{
			Widths: make([]uint8, nb),
			Scales: make([]float32, nb),
			Codes:  make([]int32, layout.Bins()),
		}
		for b := range cf.Widths {
			cf.Widths[b] = MinWidth
			cf.Scales[b] = 1
		}
		return cf
	}

	tests := []struct {
		name   string
		mutate func(cf *ChannelFrame)
	}{
		{"code above range", func(cf *ChannelFrame) { cf.Codes[0] = 128 }},
		{"reserved code", func(cf *ChannelFrame) { cf.Codes[0] = -128 }},
		{"width too small", func(cf *ChannelFrame) { cf.Widths[0] = 7 }},
		{"width too large", func(cf *ChannelFrame) { cf.Widths[0] = 17 }},
		{"negative scale", func(cf *ChannelFrame) { cf.Scales[0] = -1 }},
		{"nan scale", func(cf *ChannelFrame) { cf.Scales[0] = float32(math.NaN()) }},
		{"code in silent band", func(cf *ChannelFrame) { cf.Scales[0] = 0; cf.Codes[0] = 1 }},
		{"missing codes", func(cf *ChannelFrame) { cf.Codes = cf.Codes[:1] }},
	}

	out := make([]float64, layout.Bins())
	require.NoError(t, Dequantize(valid(), layout, out))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf := valid()
			tt.mutate(&cf)
			assert.ErrorIs(t, Dequantize(cf, layout, out), ErrMalformedStream)
		})
	}
}
