// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for playback backends plus a whole-buffer player
package output

import (
	"context"
	"fmt"

	"github.com/Resonate-Protocol/glc-go/pkg/audio"
)

// chunkFrames is how many samples per channel Play hands to Write at a time
const chunkFrames = 4096

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Write outputs audio samples (blocks until written)
	Write(samples []int32) error

	// Close drains pending audio and releases output resources
	Close() error
}

// Play opens out, writes a whole buffer to it and closes it, stopping early
// if ctx is done
func Play(ctx context.Context, out Output, buf *audio.Buffer) error {
	channels := buf.Format.Channels
	if channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", channels)
	}
	if err := out.Open(buf.Format.SampleRate, channels); err != nil {
		return err
	}
	if err := Stream(ctx, out, buf); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Stream writes a whole buffer to an output that is already open, in
// chunks, and leaves it open. Consecutive calls play back to back.
func Stream(ctx context.Context, out Output, buf *audio.Buffer) error {
	channels := buf.Format.Channels
	if channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", channels)
	}

	step := chunkFrames * channels
	for start := 0; start < len(buf.Samples); start += step {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+step, len(buf.Samples))
		if err := out.Write(buf.Samples[start:end]); err != nil {
			return err
		}
	}
	return nil
}
