// ABOUTME: Encoder and decoder configuration
// ABOUTME: Frame length, sample rate, worker pool size and progress reporting
package glc

import "runtime"

// DefaultDecodeBatch is the number of frames decoded in parallel before
// their overlap-add is committed
const DefaultDecodeBatch = 32

// Phase identifies which pipeline is reporting progress
type Phase int

const (
	PhaseEncoding Phase = iota
	PhaseDecoding
)

func (p Phase) String() string {
	switch p {
	case PhaseEncoding:
		return "encoding"
	case PhaseDecoding:
		return "decoding"
	default:
		return "unknown"
	}
}

// Progress reports how many frames of a stream are done
type Progress struct {
	Phase Phase
	Done  int
	Total int
}

// Config configures an Encoder or Decoder
type Config struct {
	// FrameLength is the window length N (hop is N/2). Encoder only.
	FrameLength int
	// SampleRate binds an Encoder to one input rate. Encoder only.
	SampleRate int
	// Workers bounds the number of frames processed concurrently
	Workers int
	// DecodeBatch is the number of frames decoded ahead of the overlap-add
	DecodeBatch int
	// Progress, if set, is called from worker goroutines as frames complete
	Progress func(Progress)
}

func (c Config) withDefaults() Config {
	if c.FrameLength == 0 {
		c.FrameLength = DefaultFrameLength
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.DecodeBatch <= 0 {
		c.DecodeBatch = DefaultDecodeBatch
	}
	return c
}
