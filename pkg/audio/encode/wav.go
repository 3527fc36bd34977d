// ABOUTME: WAV audio encoder
// ABOUTME: Writes int32 samples as 16-bit or 24-bit PCM WAV
package encode

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/glc-go/pkg/audio"
)

const wavFormatPCM = 1

// WAVEncoder writes PCM WAV files
type WAVEncoder struct {
	bitDepth int
}

// NewWAV creates a new WAV encoder
func NewWAV(bitDepth int) (Encoder, error) {
	if err := checkBitDepth(bitDepth); err != nil {
		return nil, err
	}
	return &WAVEncoder{bitDepth: bitDepth}, nil
}

// Encode writes buf as a WAV file
func (e *WAVEncoder) Encode(w io.WriteSeeker, buf *audio.Buffer) error {
	channels := buf.Format.Channels
	if channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", channels)
	}

	data := make([]int, len(buf.Samples))
	for i, s := range buf.Samples {
		data[i] = int(audio.SampleToBitDepth(s, e.bitDepth))
	}

	enc := wav.NewEncoder(w, buf.Format.SampleRate, e.bitDepth, channels, wavFormatPCM)
	pcm := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  buf.Format.SampleRate,
		},
		Data:           data,
		SourceBitDepth: e.bitDepth,
	}
	if err := enc.Write(pcm); err != nil {
		return fmt.Errorf("failed to write WAV samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV header: %w", err)
	}
	return nil
}
