// ABOUTME: Bitstream codec for .glc streams
// ABOUTME: Packs headers, per-band widths/scales and variable-width codes MSB-first
package glc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"

	"github.com/icza/bitio"
)

// magic identifies a .glc stream
const magic = 0x474C43 // "GLC"

const (
	widthFieldBits = 4
	scaleFieldBits = 32
)

// Pack serializes a stream. Frames that fail validation are rejected with
// ErrInvalidFrame.
func Pack(s *Stream) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unpack parses a complete stream. Any inconsistency, truncation or trailing
// data is reported as ErrMalformedStream.
func Unpack(data []byte) (*Stream, error) {
	return Read(bytes.NewReader(data))
}

// Write serializes a stream to w in frame order
func Write(w io.Writer, s *Stream) error {
	if err := validateHeader(s.Header); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	layout, err := BandLayout(s.Header.FrameLength, s.Header.SampleRate)
	if err != nil {
		return err
	}
	if err := validateStream(s, layout); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}

	bw := bitio.NewWriter(w)
	writeHeader(bw, s.Header)
	for _, f := range s.Frames {
		for _, cf := range f.Channels {
			writeChannelFrame(bw, cf, layout)
		}
		bw.TryAlign()
	}
	if bw.TryError != nil {
		return fmt.Errorf("failed to write stream: %w", bw.TryError)
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("failed to flush stream: %w", err)
	}
	return nil
}

// Read parses a stream from r, which must end right after the last frame
func Read(r io.Reader) (*Stream, error) {
	br := bitio.NewReader(r)

	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	layout, err := BandLayout(h.FrameLength, h.SampleRate)
	if err != nil {
		return nil, malformed(err)
	}

	// Frame count is untrusted until the frames are actually present
	capacity := h.FrameCount
	if capacity > 1024 {
		capacity = 1024
	}
	s := &Stream{
		Header: h,
		Frames: make([]Frame, 0, capacity),
	}
	for i := uint64(0); i < h.FrameCount; i++ {
		f := Frame{Channels: make([]ChannelFrame, h.Channels)}
		for ch := range f.Channels {
			cf, err := readChannelFrame(br, layout)
			if err != nil {
				return nil, fmt.Errorf("%w: frame %d channel %d: %v", ErrMalformedStream, i, ch, err)
			}
			f.Channels[ch] = cf
		}
		br.Align()
		s.Frames = append(s.Frames, f)
	}

	if _, err := br.ReadBits(8); err == nil {
		return nil, fmt.Errorf("%w: trailing data after frame %d", ErrMalformedStream, h.FrameCount)
	} else if !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}
	return s, nil
}

// ReadHeader parses only the header of a stream
func ReadHeader(r io.Reader) (Header, error) {
	return readHeader(bitio.NewReader(r))
}

func writeHeader(bw *bitio.Writer, h Header) {
	bw.TryWriteBits(magic, 24)
	bw.TryWriteBits(uint64(h.Version), 8)
	bw.TryWriteBits(uint64(h.SampleRate), 32)
	bw.TryWriteBits(uint64(h.Channels), 16)
	bw.TryWriteBits(uint64(bits.TrailingZeros(uint(h.FrameLength))), 8)
	bw.TryWriteBits(h.TotalSamples, 64)
	bw.TryWriteBits(h.FrameCount, 64)
}

func readHeader(br *bitio.Reader) (Header, error) {
	tag := br.TryReadBits(24)
	version := br.TryReadBits(8)
	rate := br.TryReadBits(32)
	channels := br.TryReadBits(16)
	log2Length := br.TryReadBits(8)
	total := br.TryReadBits(64)
	frames := br.TryReadBits(64)
	if br.TryError != nil {
		return Header{}, malformed(fmt.Errorf("header: %v", br.TryError))
	}

	if tag != magic {
		return Header{}, fmt.Errorf("%w: bad magic %#06x", ErrMalformedStream, tag)
	}
	if log2Length < 1 || log2Length > 62 {
		return Header{}, fmt.Errorf("%w: invalid frame length exponent %d", ErrMalformedStream, log2Length)
	}
	if rate > math.MaxInt32 {
		return Header{}, fmt.Errorf("%w: invalid sample rate %d", ErrMalformedStream, rate)
	}

	h := Header{
		Version:      uint8(version),
		SampleRate:   int(rate),
		Channels:     int(channels),
		FrameLength:  1 << log2Length,
		TotalSamples: total,
		FrameCount:   frames,
	}
	if err := validateHeader(h); err != nil {
		return Header{}, malformed(err)
	}
	return h, nil
}

func writeChannelFrame(bw *bitio.Writer, cf ChannelFrame, layout *Layout) {
	for b := range layout.Bands {
		bw.TryWriteBits(uint64(cf.Widths[b]-MinWidth), widthFieldBits)
		bw.TryWriteBits(uint64(math.Float32bits(cf.Scales[b])), scaleFieldBits)
	}
	for b, band := range layout.Bands {
		if cf.Scales[b] == 0 {
			continue
		}
		width := cf.Widths[b]
		mask := uint64(1)<<width - 1
		for _, code := range cf.Codes[band.Start:band.End] {
			bw.TryWriteBits(uint64(int64(code))&mask, width)
		}
	}
}

func readChannelFrame(br *bitio.Reader, layout *Layout) (ChannelFrame, error) {
	nb := len(layout.Bands)
	cf := ChannelFrame{
		Widths: make([]uint8, nb),
		Scales: make([]float32, nb),
		Codes:  make([]int32, layout.Bins()),
	}

	for b := 0; b < nb; b++ {
		w := br.TryReadBits(widthFieldBits)
		scale := math.Float32frombits(uint32(br.TryReadBits(scaleFieldBits)))
		if br.TryError != nil {
			return cf, br.TryError
		}
		if w > MaxWidth-MinWidth {
			return cf, fmt.Errorf("band %d: width code %d out of range", b, w)
		}
		if scale < 0 || math.IsNaN(float64(scale)) || math.IsInf(float64(scale), 0) {
			return cf, fmt.Errorf("band %d: invalid scale factor %v", b, scale)
		}
		cf.Widths[b] = uint8(w) + MinWidth
		cf.Scales[b] = scale
	}

	for b, band := range layout.Bands {
		if cf.Scales[b] == 0 {
			continue
		}
		width := cf.Widths[b]
		shift := 64 - width
		for k := band.Start; k < band.End; k++ {
			raw := br.TryReadBits(width)
			code := int32(int64(raw<<shift) >> shift)
			if code == -maxCode(width)-1 {
				return cf, fmt.Errorf("band %d: reserved code at bin %d for %d-bit width", b, k, width)
			}
			cf.Codes[k] = code
		}
		if br.TryError != nil {
			return cf, br.TryError
		}
	}
	return cf, nil
}

// malformed wraps a parse failure as ErrMalformedStream
func malformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformedStream, err)
}
