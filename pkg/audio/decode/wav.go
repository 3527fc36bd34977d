// ABOUTME: WAV audio decoder
// ABOUTME: Decodes PCM WAV files to int32 samples
package decode

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/glc-go/pkg/audio"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// WAVDecoder decodes RIFF/WAVE files holding integer PCM
type WAVDecoder struct{}

// NewWAV creates a new WAV decoder
func NewWAV() Decoder {
	return &WAVDecoder{}
}

// Decode converts a WAV file to int32 samples
func (d *WAVDecoder) Decode(r io.ReadSeeker) (*audio.Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid WAV file", audio.ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: WAV encoding %d (only integer PCM)", audio.ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit WAV", audio.ErrUnsupportedFormat, bitDepth)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV samples: %w", err)
	}

	samples := make([]int32, len(pcm.Data))
	for i, v := range pcm.Data {
		// 8-bit WAV is unsigned
		if bitDepth == 8 {
			v -= 128
		}
		samples[i] = audio.SampleFromBitDepth(int32(v), bitDepth)
	}

	return &audio.Buffer{
		Samples: samples,
		Format: audio.Format{
			Codec:      "wav",
			SampleRate: int(dec.SampleRate),
			Channels:   int(dec.NumChans),
			BitDepth:   bitDepth,
		},
	}, nil
}
