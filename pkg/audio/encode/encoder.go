// ABOUTME: Encoder interface definition and file dispatch
// ABOUTME: Picks a lossless container writer from the file extension
package encode

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/glc-go/pkg/audio"
)

// Encoder writes interleaved PCM int32 samples to a container format
type Encoder interface {
	// Encode writes all of buf to w at the encoder's bit depth
	Encode(w io.WriteSeeker, buf *audio.Buffer) error
}

// checkBitDepth rejects depths the writers cannot produce
func checkBitDepth(bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 {
		return fmt.Errorf("%w: bit depth %d (supported: 16, 24)", audio.ErrUnsupportedFormat, bitDepth)
	}
	return nil
}

// ForPath returns the encoder for a file extension
func ForPath(path string, bitDepth int) (Encoder, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav":
		return NewWAV(bitDepth)
	case ".flac":
		return NewFLAC(bitDepth)
	default:
		return nil, fmt.Errorf("%w: cannot export %q (supported: .wav, .flac)", audio.ErrUnsupportedFormat, ext)
	}
}

// File writes buf to a new file at path, choosing the container from its
// extension. An existing file is never touched: the error wraps
// fs.ErrExist. The sample rate and channel count of buf are written
// unchanged.
func File(path string, buf *audio.Buffer, bitDepth int) error {
	return write(path, buf, bitDepth, os.O_EXCL)
}

// Replace is File but truncates an existing file at path
func Replace(path string, buf *audio.Buffer, bitDepth int) error {
	return write(path, buf, bitDepth, os.O_TRUNC)
}

func write(path string, buf *audio.Buffer, bitDepth, mode int) error {
	enc, err := ForPath(path, bitDepth)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|mode, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := enc.Encode(f, buf); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	// Writers may have closed the file already
	if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	log.Printf("Wrote %s: %d Hz, %d channels, %d-bit, %d samples",
		filepath.Base(path), buf.Format.SampleRate, buf.Format.Channels, bitDepth, buf.Frames())
	return nil
}
