// ABOUTME: Decoder interface definition and file dispatch
// ABOUTME: Picks a container decoder from the file extension
package decode

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/glc-go/pkg/audio"
)

// Decoder decodes a whole audio container to interleaved PCM int32 samples
type Decoder interface {
	// Decode reads r to the end and returns its samples in 24-bit range
	Decode(r io.ReadSeeker) (*audio.Buffer, error)
}

// SupportedExtensions lists the input extensions File accepts
var SupportedExtensions = []string{".wav", ".flac", ".mp3"}

// ForPath returns the decoder for a file extension
func ForPath(path string) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav":
		return NewWAV(), nil
	case ".flac":
		return NewFLAC(), nil
	case ".mp3":
		return NewMP3(), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", audio.ErrUnsupportedFormat, ext, strings.Join(SupportedExtensions, ", "))
	}
}

// File decodes the audio file at path
func File(path string) (*audio.Buffer, error) {
	dec, err := ForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	buf, err := dec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}

	log.Printf("Loaded %s: %d Hz, %d channels, %d-bit, %d samples",
		filepath.Base(path), buf.Format.SampleRate, buf.Format.Channels, buf.Format.BitDepth, buf.Frames())
	return buf, nil
}
