// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, interleaved buffers and planar sample buffers
package audio

import (
	"errors"
	"fmt"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23

	// fullScale24 maps a 24-bit integer sample onto [-1, 1)
	fullScale24 = 8388608.0
)

// ErrUnsupportedFormat is reported by readers and writers for container
// formats or encodings they cannot handle.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Buffer represents decoded PCM audio at the collaborator boundary
type Buffer struct {
	Samples []int32 // interleaved PCM samples in 24-bit range
	Format  Format
}

// Frames returns the number of samples per channel
func (b *Buffer) Frames() int {
	if b.Format.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// SampleBuffer holds de-interleaved floating point audio, one slice per channel
type SampleBuffer struct {
	SampleRate int
	Channels   [][]float32
}

// NewSampleBuffer allocates a zeroed buffer of the given shape
func NewSampleBuffer(sampleRate, channels, length int) *SampleBuffer {
	sb := &SampleBuffer{
		SampleRate: sampleRate,
		Channels:   make([][]float32, channels),
	}
	for ch := range sb.Channels {
		sb.Channels[ch] = make([]float32, length)
	}
	return sb
}

// Len returns the number of samples per channel
func (sb *SampleBuffer) Len() int {
	if len(sb.Channels) == 0 {
		return 0
	}
	return len(sb.Channels[0])
}

// NumChannels returns the channel count
func (sb *SampleBuffer) NumChannels() int {
	return len(sb.Channels)
}

// Validate checks that the buffer is usable: positive rate, at least one
// channel and equal channel lengths.
func (sb *SampleBuffer) Validate() error {
	if sb.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sb.SampleRate)
	}
	if len(sb.Channels) == 0 {
		return fmt.Errorf("buffer has no channels")
	}
	n := len(sb.Channels[0])
	for ch, data := range sb.Channels {
		if len(data) != n {
			return fmt.Errorf("channel %d has %d samples, channel 0 has %d", ch, len(data), n)
		}
	}
	return nil
}

// Slice returns a view of samples [start, end) of every channel
func (sb *SampleBuffer) Slice(start, end int) *SampleBuffer {
	out := &SampleBuffer{
		SampleRate: sb.SampleRate,
		Channels:   make([][]float32, len(sb.Channels)),
	}
	for ch, data := range sb.Channels {
		out.Channels[ch] = data[start:end]
	}
	return out
}

// Deinterleave converts an interleaved 24-bit buffer to a SampleBuffer
func Deinterleave(buf *Buffer) (*SampleBuffer, error) {
	channels := buf.Format.Channels
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}
	if len(buf.Samples)%channels != 0 {
		return nil, fmt.Errorf("sample count %d is not a multiple of %d channels", len(buf.Samples), channels)
	}

	sb := NewSampleBuffer(buf.Format.SampleRate, channels, len(buf.Samples)/channels)
	for i, s := range buf.Samples {
		sb.Channels[i%channels][i/channels] = SampleToFloat(s)
	}
	return sb, nil
}

// Interleave converts a SampleBuffer to an interleaved 24-bit buffer.
// bitDepth is recorded in the format for writers; samples stay in 24-bit range.
func Interleave(sb *SampleBuffer, bitDepth int) *Buffer {
	channels := sb.NumChannels()
	n := sb.Len()
	out := &Buffer{
		Samples: make([]int32, n*channels),
		Format: Format{
			Codec:      "pcm",
			SampleRate: sb.SampleRate,
			Channels:   channels,
			BitDepth:   bitDepth,
		},
	}
	for ch, data := range sb.Channels {
		for i, v := range data {
			out.Samples[i*channels+ch] = SampleFromFloat(v)
		}
	}
	return out
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	// Left-shift to position 16-bit value in upper bits
	return int32(sample) << 8
}

// SampleFromBitDepth scales a signed sample of the given bit depth to 24-bit range
func SampleFromBitDepth(sample int32, bitDepth int) int32 {
	switch {
	case bitDepth == 24:
		return sample
	case bitDepth < 24:
		return sample << (24 - bitDepth)
	default:
		return sample >> (bitDepth - 24)
	}
}

// SampleToBitDepth scales a 24-bit range sample to the given bit depth
func SampleToBitDepth(sample int32, bitDepth int) int32 {
	switch {
	case bitDepth == 24:
		return sample
	case bitDepth < 24:
		return sample >> (24 - bitDepth)
	default:
		return sample << (bitDepth - 24)
	}
}

// SampleToFloat converts a 24-bit range sample to [-1, 1)
func SampleToFloat(sample int32) float32 {
	return float32(float64(sample) / fullScale24)
}

// SampleFromFloat converts a float sample to 24-bit range, clipping at full scale
func SampleFromFloat(v float32) int32 {
	scaled := float64(v) * fullScale24
	if scaled >= 0 {
		scaled += 0.5
	} else {
		scaled -= 0.5
	}
	if scaled > Max24Bit {
		return Max24Bit
	}
	if scaled < Min24Bit {
		return Min24Bit
	}
	return int32(scaled)
}
