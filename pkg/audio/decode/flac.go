// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC files frame by frame to int32 samples
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/Resonate-Protocol/glc-go/pkg/audio"
)

// maxPrealloc caps the samples reserved up front from the header's
// sample count, which is untrusted until the frames are read
const maxPrealloc = 1 << 22

// FLACDecoder decodes FLAC audio
type FLACDecoder struct{}

// NewFLAC creates a new FLAC decoder
func NewFLAC() Decoder {
	return &FLACDecoder{}
}

// Decode converts a FLAC stream to int32 samples
func (d *FLACDecoder) Decode(r io.ReadSeeker) (*audio.Buffer, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrUnsupportedFormat, err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)
	if bitDepth > 32 {
		return nil, fmt.Errorf("%w: %d-bit FLAC", audio.ErrUnsupportedFormat, bitDepth)
	}

	samples := make([]int32, 0, preallocSamples(info.NSamples, channels))
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}

		// Subframes are already decorrelated into independent channels
		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, audio.SampleFromBitDepth(frame.Subframes[ch].Samples[i], bitDepth))
			}
		}
	}

	return &audio.Buffer{
		Samples: samples,
		Format: audio.Format{
			Codec:      "flac",
			SampleRate: int(info.SampleRate),
			Channels:   channels,
			BitDepth:   bitDepth,
		},
	}, nil
}

// preallocSamples is the interleaved capacity to reserve for a stream
// declaring nsamples per channel
func preallocSamples(nsamples uint64, channels int) int {
	if channels <= 0 || nsamples >= maxPrealloc {
		return maxPrealloc
	}
	return min(int(nsamples)*channels, maxPrealloc)
}
