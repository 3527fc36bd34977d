// ABOUTME: Tests for WAV and FLAC encoders
// ABOUTME: Round-trips buffers through temporary files and the decode package
package encode

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/Resonate-Protocol/glc-go/pkg/audio"
	"github.com/Resonate-Protocol/glc-go/pkg/audio/decode"
)

func testBuffer(channels, frames, sampleRate int) *audio.Buffer {
	buf := &audio.Buffer{
		Samples: make([]int32, channels*frames),
		Format: audio.Format{
			Codec:      "pcm",
			SampleRate: sampleRate,
			Channels:   channels,
			BitDepth:   24,
		},
	}
	for i := range buf.Samples {
		// Multiples of 256 survive 16-bit requantization exactly
		buf.Samples[i] = int32((i*7919)%65536-32768) << 8
	}
	return buf
}

func TestNewEncoders_BitDepth(t *testing.T) {
	tests := []struct {
		name     string
		bitDepth int
		wantErr  bool
	}{
		{"16-bit", 16, false},
		{"24-bit", 24, false},
		{"8-bit", 8, true},
		{"32-bit", 32, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, wavErr := NewWAV(tt.bitDepth)
			_, flacErr := NewFLAC(tt.bitDepth)
			if tt.wantErr {
				if !errors.Is(wavErr, audio.ErrUnsupportedFormat) || !errors.Is(flacErr, audio.ErrUnsupportedFormat) {
					t.Errorf("expected ErrUnsupportedFormat, got %v and %v", wavErr, flacErr)
				}
				return
			}
			if wavErr != nil || flacErr != nil {
				t.Fatalf("unexpected errors: %v, %v", wavErr, flacErr)
			}
		})
	}
}

func TestFileRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		ext      string
		bitDepth int
		channels int
		frames   int
	}{
		{"wav 16-bit stereo", ".wav", 16, 2, 1000},
		{"wav 24-bit mono", ".wav", 24, 1, 777},
		{"flac 16-bit stereo", ".flac", 16, 2, 10000},
		{"flac 24-bit 3ch", ".flac", 24, 3, 5000},
		{"flac short", ".flac", 16, 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out"+tt.ext)
			buf := testBuffer(tt.channels, tt.frames, 44100)

			if err := File(path, buf, tt.bitDepth); err != nil {
				t.Fatalf("File failed: %v", err)
			}

			got, err := decode.File(path)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}

			if got.Format.SampleRate != 44100 {
				t.Errorf("expected sample rate 44100, got %d", got.Format.SampleRate)
			}
			if got.Format.Channels != tt.channels {
				t.Errorf("expected %d channels, got %d", tt.channels, got.Format.Channels)
			}
			if got.Format.BitDepth != tt.bitDepth {
				t.Errorf("expected %d-bit, got %d-bit", tt.bitDepth, got.Format.BitDepth)
			}
			if len(got.Samples) != len(buf.Samples) {
				t.Fatalf("expected %d samples, got %d", len(buf.Samples), len(got.Samples))
			}
			for i := range buf.Samples {
				if got.Samples[i] != buf.Samples[i] {
					t.Fatalf("sample %d: expected %d, got %d", i, buf.Samples[i], got.Samples[i])
				}
			}
		})
	}
}

func TestFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ogg")
	err := File(path, testBuffer(1, 10, 8000), 16)
	if !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFLAC_TooManyChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.flac")
	err := File(path, testBuffer(9, 10, 8000), 16)
	if !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFile_KeepsExistingFile(t *testing.T) {
	for _, ext := range []string{".wav", ".flac"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "song"+ext)
			original := []byte("lossless original audio")
			if err := os.WriteFile(path, original, 0o644); err != nil {
				t.Fatalf("failed to write fixture: %v", err)
			}

			err := File(path, testBuffer(2, 100, 44100), 16)
			if !errors.Is(err, fs.ErrExist) {
				t.Fatalf("expected fs.ErrExist, got %v", err)
			}
			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("existing file is gone: %v", err)
			}
			if !bytes.Equal(got, original) {
				t.Error("existing file was modified")
			}
		})
	}
}

func TestReplace_OverwritesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.wav")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	buf := testBuffer(1, 50, 8000)
	if err := Replace(path, buf, 16); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	got, err := decode.File(path)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Frames() != 50 {
		t.Errorf("expected 50 frames, got %d", got.Frames())
	}
}
