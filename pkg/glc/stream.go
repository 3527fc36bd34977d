// ABOUTME: In-memory representation of a .glc stream
// ABOUTME: Header with gapless metadata plus ordered frames, and their validation
package glc

import (
	"fmt"
	"math"
)

// FormatVersion is the bitstream version written by this package
const FormatVersion = 1

// MaxChannels is the largest channel count the header can carry
const MaxChannels = math.MaxUint16

// Header carries the global metadata needed to rebuild the tables and to
// trim the overlap-add output back to the original length.
type Header struct {
	Version      uint8
	SampleRate   int
	Channels     int
	FrameLength  int
	TotalSamples uint64 // per channel, before padding
	FrameCount   uint64
}

// Hop returns the frame advance
func (h Header) Hop() int {
	return h.FrameLength / 2
}

// Frame holds one quantized ChannelFrame per channel
type Frame struct {
	Channels []ChannelFrame
}

// Stream is a header plus its frames in time order
type Stream struct {
	Header Header
	Frames []Frame
}

// FrameCount returns the number of frames needed to cover totalSamples with
// a head pad of one hop and a tail pad of at least one hop.
func FrameCount(totalSamples uint64, frameLength int) uint64 {
	hop := uint64(frameLength / 2)
	return (totalSamples+hop-1)/hop + 1
}

// paddedLength is the accumulator length covering all frames
func paddedLength(frames uint64, hop int) int {
	return int(frames+1) * hop
}

// validateHeader checks header fields against each other
func validateHeader(h Header) error {
	if h.Version != FormatVersion {
		return fmt.Errorf("unsupported version %d", h.Version)
	}
	if h.Channels <= 0 || h.Channels > MaxChannels {
		return fmt.Errorf("invalid channel count %d", h.Channels)
	}
	if err := validateConfig(h.FrameLength, h.SampleRate); err != nil {
		return err
	}
	if h.SampleRate > math.MaxInt32 {
		return fmt.Errorf("sample rate %d too large", h.SampleRate)
	}
	if h.TotalSamples > math.MaxInt32*uint64(h.Hop()) {
		return fmt.Errorf("total sample count %d too large", h.TotalSamples)
	}
	if want := FrameCount(h.TotalSamples, h.FrameLength); h.FrameCount != want {
		return fmt.Errorf("frame count %d does not match %d samples (want %d)", h.FrameCount, h.TotalSamples, want)
	}
	return nil
}

// validateStream checks a whole stream; layout must match the header
func validateStream(s *Stream, layout *Layout) error {
	if uint64(len(s.Frames)) != s.Header.FrameCount {
		return fmt.Errorf("header declares %d frames, stream has %d", s.Header.FrameCount, len(s.Frames))
	}
	for i, f := range s.Frames {
		if len(f.Channels) != s.Header.Channels {
			return fmt.Errorf("frame %d: expected %d channels, got %d", i, s.Header.Channels, len(f.Channels))
		}
		for ch, cf := range f.Channels {
			if err := checkChannelFrame(cf, layout); err != nil {
				return fmt.Errorf("frame %d channel %d: %v", i, ch, err)
			}
		}
	}
	return nil
}
