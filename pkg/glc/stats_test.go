// ABOUTME: Tests for stream allocation statistics
// ABOUTME: Histogram totals, silent bands and code bit accounting
package glc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamStatsOfSilence(t *testing.T) {
	enc, err := NewEncoder(Config{FrameLength: 64, SampleRate: 8000})
	require.NoError(t, err)
	s, err := enc.Encode(generate(sine(0, 0), 8000, 2, 100))
	require.NoError(t, err)

	layout := enc.Tables().Layout()
	st := s.Stats(layout)
	bands := int(s.Header.FrameCount) * 2 * len(layout.Bands)
	assert.Equal(t, bands, st.Bands)
	assert.Equal(t, bands, st.SilentBands)
	assert.Equal(t, bands, st.Widths[0])
	assert.Zero(t, st.CodeBits)
	assert.Zero(t, st.MeanWidth())
}

func TestStreamStatsMatchesPackedSize(t *testing.T) {
	enc, err := NewEncoder(Config{FrameLength: 128, SampleRate: 16000})
	require.NoError(t, err)
	s, err := enc.Encode(noise(8, 16000, 1, 2000, 0.5))
	require.NoError(t, err)

	layout := enc.Tables().Layout()
	st := s.Stats(layout)

	var histogram int
	for _, n := range st.Widths {
		histogram += n
	}
	assert.Equal(t, st.Bands, histogram)

	var perFrame uint64
	for _, f := range s.Frames {
		perFrame += f.Stats(layout).CodeBits
	}
	assert.Equal(t, st.CodeBits, perFrame)

	data, err := Pack(s)
	require.NoError(t, err)
	sideBits := uint64(st.Bands) * (widthFieldBits + scaleFieldBits)
	payload := uint64(len(data)-27) * 8
	assert.GreaterOrEqual(t, payload, sideBits+st.CodeBits)
	assert.Less(t, payload, sideBits+st.CodeBits+8*s.Header.FrameCount)
}

func TestMeanWidthEmpty(t *testing.T) {
	assert.Zero(t, Stats{}.MeanWidth())
}

func TestMeanWidthSkipsSilentBands(t *testing.T) {
	layout, err := BandLayout(16, 8000)
	require.NoError(t, err)
	nb := len(layout.Bands)
	require.GreaterOrEqual(t, nb, 2)

	cf := ChannelFrame{
		Widths: make([]uint8, nb),
		Scales: make([]float32, nb),
		Codes:  make([]int32, layout.Bins()),
	}
	for b := range cf.Widths {
		cf.Widths[b] = MinWidth
	}
	// One coded band at 12 bits, the rest silent
	cf.Widths[1] = 12
	cf.Scales[1] = 1

	st := Frame{Channels: []ChannelFrame{cf}}.Stats(layout)
	assert.Equal(t, nb, st.Bands)
	assert.Equal(t, nb-1, st.SilentBands)
	assert.Equal(t, 12.0, st.MeanWidth())
	assert.Equal(t, uint64(12*layout.Bands[1].Width()), st.CodeBits)
}
