// ABOUTME: Tests for FLAC decoder
// ABOUTME: Decodes encoder output and rejects non-FLAC input
package decode

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Resonate-Protocol/glc-go/pkg/audio"
	"github.com/Resonate-Protocol/glc-go/pkg/audio/encode"
)

func TestNewFLAC(t *testing.T) {
	decoder := NewFLAC()
	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestFLACDecode(t *testing.T) {
	buf := &audio.Buffer{
		Samples: []int32{256, -256, 512, -512, 1024, -1024, 0, 0},
		Format:  audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 16},
	}
	path := filepath.Join(t.TempDir(), "tone.flac")
	if err := encode.File(path, buf, 16); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open fixture: %v", err)
	}
	defer f.Close()

	got, err := NewFLAC().Decode(f)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Format.Codec != "flac" || got.Format.SampleRate != 48000 || got.Format.Channels != 2 || got.Format.BitDepth != 16 {
		t.Errorf("unexpected format %+v", got.Format)
	}
	if len(got.Samples) != len(buf.Samples) {
		t.Fatalf("expected %d samples, got %d", len(buf.Samples), len(got.Samples))
	}
	for i, s := range buf.Samples {
		if got.Samples[i] != s {
			t.Errorf("sample %d: expected %d, got %d", i, s, got.Samples[i])
		}
	}
}

func TestFLACDecode_InvalidData(t *testing.T) {
	_, err := NewFLAC().Decode(bytes.NewReader([]byte("RIFF not flac at all")))
	if !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestPreallocSamples(t *testing.T) {
	tests := []struct {
		name     string
		nsamples uint64
		channels int
		want     int
	}{
		{"small stream", 1000, 2, 2000},
		{"unknown length", 0, 2, 0},
		{"huge declared length", 1 << 36, 2, maxPrealloc},
		{"overflowing length", 1<<63 + 1, 8, maxPrealloc},
		{"just under cap", maxPrealloc/2 - 1, 2, maxPrealloc - 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preallocSamples(tt.nsamples, tt.channels); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
