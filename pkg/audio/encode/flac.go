// ABOUTME: FLAC audio encoder
// ABOUTME: Writes int32 samples as verbatim-coded FLAC frames
package encode

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"

	"github.com/Resonate-Protocol/glc-go/pkg/audio"
)

const (
	// flacBlockSize is the number of samples per channel in each frame
	flacBlockSize = 4096

	// FLAC frames carry at most 8 independent channels
	flacMaxChannels = 8
)

// FLACEncoder writes FLAC files
type FLACEncoder struct {
	bitDepth int
}

// NewFLAC creates a new FLAC encoder
func NewFLAC(bitDepth int) (Encoder, error) {
	if err := checkBitDepth(bitDepth); err != nil {
		return nil, err
	}
	return &FLACEncoder{bitDepth: bitDepth}, nil
}

// Encode writes buf as a FLAC stream. The encoder closes w when done.
func (e *FLACEncoder) Encode(w io.WriteSeeker, buf *audio.Buffer) error {
	channels := buf.Format.Channels
	if channels <= 0 || channels > flacMaxChannels {
		return fmt.Errorf("%w: %d channels in FLAC", audio.ErrUnsupportedFormat, channels)
	}

	n := buf.Frames()
	info := &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    uint32(buf.Format.SampleRate),
		NChannels:     uint8(channels),
		BitsPerSample: uint8(e.bitDepth),
		NSamples:      uint64(n),
	}
	enc, err := flac.NewEncoder(w, info)
	if err != nil {
		return fmt.Errorf("failed to create FLAC encoder: %w", err)
	}

	for start := 0; start < n; start += flacBlockSize {
		size := min(flacBlockSize, n-start)
		subframes := make([]*frame.Subframe, channels)
		for ch := range subframes {
			samples := make([]int32, size)
			for i := range samples {
				samples[i] = audio.SampleToBitDepth(buf.Samples[(start+i)*channels+ch], e.bitDepth)
			}
			subframes[ch] = &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   samples,
				NSamples:  size,
			}
		}

		f := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: false,
				BlockSize:         uint16(size),
				Num:               uint64(start),
				SampleRate:        uint32(buf.Format.SampleRate),
				// Independent channel assignments are numbered channels-1
				Channels:      frame.Channels(channels - 1),
				BitsPerSample: uint8(e.bitDepth),
			},
			Subframes: subframes,
		}
		if err := enc.WriteFrame(f); err != nil {
			enc.Close()
			return fmt.Errorf("failed to write FLAC frame: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize FLAC stream: %w", err)
	}
	return nil
}
