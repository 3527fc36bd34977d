// ABOUTME: Encoder pipeline
// ABOUTME: Frames samples, runs transform/model/quantizer per frame in a worker pool
package glc

import (
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Resonate-Protocol/glc-go/pkg/audio"
)

// Encoder compresses sample buffers at one sample rate
type Encoder struct {
	tables   *Tables
	workers  int
	progress func(Progress)
}

// NewEncoder builds the tables for cfg.FrameLength and cfg.SampleRate.
// The encoder cannot be reused for another sample rate.
func NewEncoder(cfg Config) (*Encoder, error) {
	cfg = cfg.withDefaults()
	tables, err := NewTables(cfg.FrameLength, cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	return &Encoder{
		tables:   tables,
		workers:  cfg.Workers,
		progress: cfg.Progress,
	}, nil
}

// WithProgress returns a copy of the encoder sharing its tables that reports
// to fn instead
func (e *Encoder) WithProgress(fn func(Progress)) *Encoder {
	c := *e
	c.progress = fn
	return &c
}

// Tables returns the encoder's tables
func (e *Encoder) Tables() *Tables {
	return e.tables
}

// Encode compresses buf into a stream. The header records buf's exact
// length per channel, which the decoder uses to trim padding.
func (e *Encoder) Encode(buf *audio.SampleBuffer) (*Stream, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if buf.SampleRate != e.tables.sampleRate {
		return nil, fmt.Errorf("%w: encoder built for %d Hz, buffer is %d Hz", ErrConfiguration, e.tables.sampleRate, buf.SampleRate)
	}
	if buf.NumChannels() > MaxChannels {
		return nil, fmt.Errorf("%w: %d channels exceeds maximum %d", ErrConfiguration, buf.NumChannels(), MaxChannels)
	}
	if err := checkFinite(buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}

	total := uint64(buf.Len())
	count := FrameCount(total, e.tables.frameLength)
	frames := make([]Frame, count)

	var done atomic.Int64
	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := range frames {
		i := i
		g.Go(func() error {
			frames[i] = e.encodeFrame(buf, i)
			if e.progress != nil {
				e.progress(Progress{Phase: PhaseEncoding, Done: int(done.Add(1)), Total: len(frames)})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Stream{
		Header: Header{
			Version:      FormatVersion,
			SampleRate:   buf.SampleRate,
			Channels:     buf.NumChannels(),
			FrameLength:  e.tables.frameLength,
			TotalSamples: total,
			FrameCount:   count,
		},
		Frames: frames,
	}, nil
}

// EncodeTo compresses buf and writes the packed stream to w
func (e *Encoder) EncodeTo(w io.Writer, buf *audio.SampleBuffer) (*Header, error) {
	s, err := e.Encode(buf)
	if err != nil {
		return nil, err
	}
	if err := Write(w, s); err != nil {
		return nil, err
	}
	return &s.Header, nil
}

// encodeFrame transforms, models and quantizes frame i of every channel.
// It reads only its own window of buf and the shared tables.
func (e *Encoder) encodeFrame(buf *audio.SampleBuffer, i int) Frame {
	t := e.tables
	block := make([]float64, t.frameLength)
	spectrum := make([]float64, t.hop)

	f := Frame{Channels: make([]ChannelFrame, buf.NumChannels())}
	for ch, data := range buf.Channels {
		fillFrame(block, data, i, t.hop)
		t.Forward(block, spectrum)
		f.Channels[ch] = Quantize(spectrum, t.Masking(spectrum), t.layout)
	}
	return f
}

// fillFrame copies frame i of a channel into block. The padded signal is
// hop zeros, the samples, then zeros; padded index p maps to data[p-hop].
func fillFrame(block []float64, data []float32, i, hop int) {
	start := i*hop - hop
	for j := range block {
		p := start + j
		if p >= 0 && p < len(data) {
			block[j] = float64(data[p])
		} else {
			block[j] = 0
		}
	}
}

func checkFinite(buf *audio.SampleBuffer) error {
	for ch, data := range buf.Channels {
		for i, v := range data {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return fmt.Errorf("channel %d sample %d is not finite", ch, i)
			}
		}
	}
	return nil
}
