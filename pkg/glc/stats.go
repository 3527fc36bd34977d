// ABOUTME: Bit allocation statistics for decoded streams
// ABOUTME: Width histogram and code bit counts used by inspection tools
package glc

// Stats summarizes how a stream's bits were allocated
type Stats struct {
	// Widths counts bands per width; index 0 is MinWidth
	Widths      [MaxWidth - MinWidth + 1]int
	Bands       int
	SilentBands int
	// CodeBits is the number of bits spent on codes, excluding side info
	CodeBits uint64

	codedWidths int
}

// MeanWidth is the average width of bands that carry codes. Silent bands
// are left out; a stream with none coded has mean width 0.
func (s Stats) MeanWidth() float64 {
	coded := s.Bands - s.SilentBands
	if coded <= 0 {
		return 0
	}
	return float64(s.codedWidths) / float64(coded)
}

// Stats walks every band of every frame. Frames must match layout.
func (s *Stream) Stats(layout *Layout) Stats {
	var st Stats
	for _, f := range s.Frames {
		for _, cf := range f.Channels {
			st.add(cf, layout)
		}
	}
	return st
}

// Stats summarizes a single frame
func (f Frame) Stats(layout *Layout) Stats {
	var st Stats
	for _, cf := range f.Channels {
		st.add(cf, layout)
	}
	return st
}

func (st *Stats) add(cf ChannelFrame, layout *Layout) {
	for b, band := range layout.Bands {
		w := cf.Widths[b]
		st.Widths[w-MinWidth]++
		st.Bands++
		if cf.Scales[b] == 0 {
			st.SilentBands++
			continue
		}
		st.codedWidths += int(w)
		st.CodeBits += uint64(w) * uint64(band.Width())
	}
}
