// ABOUTME: Decoder pipeline
// ABOUTME: Parallel dequantize/IMDCT per batch, ordered overlap-add and gapless trim
package glc

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Resonate-Protocol/glc-go/pkg/audio"
)

type tablesKey struct {
	frameLength int
	sampleRate  int
}

type tablesCache struct {
	mu     sync.Mutex
	tables map[tablesKey]*Tables
}

// Decoder reconstructs sample buffers from streams of any sample rate.
// Tables are built on first use of each (frame length, sample rate) pair.
type Decoder struct {
	workers  int
	batch    int
	progress func(Progress)
	cache    *tablesCache
}

// NewDecoder creates a decoder. FrameLength and SampleRate in cfg are ignored;
// they are taken from each stream's header.
func NewDecoder(cfg Config) *Decoder {
	cfg = cfg.withDefaults()
	return &Decoder{
		workers:  cfg.Workers,
		batch:    cfg.DecodeBatch,
		progress: cfg.Progress,
		cache:    &tablesCache{tables: make(map[tablesKey]*Tables)},
	}
}

// WithProgress returns a decoder sharing this one's tables cache that
// reports to fn instead
func (d *Decoder) WithProgress(fn func(Progress)) *Decoder {
	c := *d
	c.progress = fn
	return &c
}

func (d *Decoder) tablesFor(frameLength, sampleRate int) (*Tables, error) {
	key := tablesKey{frameLength: frameLength, sampleRate: sampleRate}

	c := d.cache
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.tables[key]; ok {
		return t, nil
	}
	t, err := NewTables(frameLength, sampleRate)
	if err != nil {
		return nil, err
	}
	c.tables[key] = t
	return t, nil
}

// DecodeBytes unpacks and decodes a packed stream
func (d *Decoder) DecodeBytes(data []byte) (*audio.SampleBuffer, error) {
	return d.DecodeFrom(bytes.NewReader(data))
}

// DecodeFrom reads a packed stream from r and decodes it
func (d *Decoder) DecodeFrom(r io.Reader) (*audio.SampleBuffer, error) {
	s, err := Read(r)
	if err != nil {
		return nil, err
	}
	return d.Decode(s)
}

// Decode reconstructs exactly Header.TotalSamples samples per channel.
func (d *Decoder) Decode(s *Stream) (*audio.SampleBuffer, error) {
	h := s.Header
	if err := validateHeader(h); err != nil {
		return nil, malformed(err)
	}
	t, err := d.tablesFor(h.FrameLength, h.SampleRate)
	if err != nil {
		return nil, malformed(err)
	}
	if err := validateStream(s, t.layout); err != nil {
		return nil, malformed(err)
	}

	hop := t.hop
	acc := make([][]float64, h.Channels)
	for ch := range acc {
		acc[ch] = make([]float64, paddedLength(h.FrameCount, hop))
	}

	total := len(s.Frames)
	var done atomic.Int64
	for start := 0; start < total; start += d.batch {
		end := min(start+d.batch, total)
		blocks := make([][][]float64, end-start)

		var g errgroup.Group
		g.SetLimit(d.workers)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				out, err := d.decodeFrame(t, s.Frames[i])
				if err != nil {
					return fmt.Errorf("frame %d: %w", i, err)
				}
				blocks[i-start] = out
				if d.progress != nil {
					d.progress(Progress{Phase: PhaseDecoding, Done: int(done.Add(1)), Total: total})
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		// Overlap-add in frame order: frame i covers [i*hop, i*hop+N)
		for j, frame := range blocks {
			offset := (start + j) * hop
			for ch, block := range frame {
				dst := acc[ch][offset : offset+len(block)]
				for k, v := range block {
					dst[k] += v
				}
			}
		}
	}

	n := int(h.TotalSamples)
	out := audio.NewSampleBuffer(h.SampleRate, h.Channels, n)
	for ch, data := range acc {
		for i, v := range data[hop : hop+n] {
			out.Channels[ch][i] = float32(v)
		}
	}
	return out, nil
}

// decodeFrame dequantizes and inverse-transforms every channel of a frame
func (d *Decoder) decodeFrame(t *Tables, f Frame) ([][]float64, error) {
	spectrum := make([]float64, t.hop)
	out := make([][]float64, len(f.Channels))
	for ch, cf := range f.Channels {
		if err := Dequantize(cf, t.layout, spectrum); err != nil {
			return nil, err
		}
		out[ch] = make([]float64, t.frameLength)
		t.Inverse(spectrum, out[ch])
	}
	return out, nil
}
