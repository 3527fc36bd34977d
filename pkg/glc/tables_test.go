// ABOUTME: Tests for transform tables and band layout
// ABOUTME: Configuration errors, layout coverage and window symmetry
package glc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTablesRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name        string
		frameLength int
		sampleRate  int
	}{
		{"zero frame length", 0, 44100},
		{"one", 1, 44100},
		{"not power of two", 1000, 44100},
		{"negative", -256, 44100},
		{"too large", MaxFrameLength * 2, 44100},
		{"zero sample rate", 256, 0},
		{"negative sample rate", 256, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, err := NewTables(tt.frameLength, tt.sampleRate)
			assert.Nil(t, tables)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestNewTablesSmallestFrame(t *testing.T) {
	tables, err := NewTables(2, 8000)
	require.NoError(t, err)
	assert.Equal(t, 1, tables.Hop())
	assert.Len(t, tables.Layout().Bands, 1)
}

func TestBandLayoutCoversAllBins(t *testing.T) {
	for _, rate := range []int{8000, 22050, 44100, 48000, 96000} {
		for _, n := range []int{2, 16, 256, 2048} {
			layout, err := BandLayout(n, rate)
			require.NoError(t, err)

			next := 0
			for _, band := range layout.Bands {
				assert.Equal(t, next, band.Start, "bands must be contiguous")
				assert.Positive(t, band.Width(), "bands must not be empty")
				next = band.End
			}
			assert.Equal(t, n/2, next, "bands must cover every bin (n=%d rate=%d)", n, rate)
		}
	}
}

func TestBandLayoutDenserAtLowFrequencies(t *testing.T) {
	layout, err := BandLayout(2048, 44100)
	require.NoError(t, err)
	require.Greater(t, len(layout.Bands), 20)

	first := layout.Bands[0]
	last := layout.Bands[len(layout.Bands)-1]
	assert.Less(t, first.Width(), last.Width())
}

func TestBandLayoutDependsOnSampleRate(t *testing.T) {
	a, err := BandLayout(1024, 44100)
	require.NoError(t, err)
	b, err := BandLayout(1024, 8000)
	require.NoError(t, err)
	assert.NotEqual(t, a.Bands, b.Bands)
}

func TestWindowPrincenBradley(t *testing.T) {
	tables, err := NewTables(256, 44100)
	require.NoError(t, err)

	w := tables.Window()
	hop := tables.Hop()
	for i := 0; i < hop; i++ {
		assert.InDelta(t, 1.0, w[i]*w[i]+w[i+hop]*w[i+hop], 1e-12)
		assert.InDelta(t, w[i], w[len(w)-1-i], 1e-12)
	}
}

func TestAbsoluteThresholdIsFinite(t *testing.T) {
	tables, err := NewTables(2048, 96000)
	require.NoError(t, err)
	for b, v := range tables.ath {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "band %d", b)
		assert.Positive(t, v, "band %d", b)
	}
}
