// ABOUTME: Inspection tool for .glc streams
// ABOUTME: Prints header fields, band layout and bit allocation statistics
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Resonate-Protocol/glc-go/pkg/glc"
)

var (
	showFrames = flag.Bool("frames", false, "Print mean width per frame")
	showBands  = flag.Bool("bands", false, "Print the critical band layout")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: glc-inspect [flags] FILE.glc...\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	failed := 0
	for _, path := range flag.Args() {
		if err := inspect(path); err != nil {
			log.Printf("%s: %v", path, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func inspect(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat: %w", err)
	}

	s, err := glc.Read(bufio.NewReader(f))
	if err != nil {
		return err
	}
	h := s.Header
	layout, err := glc.BandLayout(h.FrameLength, h.SampleRate)
	if err != nil {
		return err
	}

	duration := time.Duration(float64(h.TotalSamples) / float64(h.SampleRate) * float64(time.Second))
	fmt.Printf("%s\n", path)
	fmt.Printf("  version:      %d\n", h.Version)
	fmt.Printf("  sample rate:  %d Hz\n", h.SampleRate)
	fmt.Printf("  channels:     %d\n", h.Channels)
	fmt.Printf("  frame length: %d (hop %d)\n", h.FrameLength, h.Hop())
	fmt.Printf("  samples:      %d (%v)\n", h.TotalSamples, duration.Round(time.Millisecond))
	fmt.Printf("  frames:       %d\n", h.FrameCount)
	fmt.Printf("  bands:        %d\n", len(layout.Bands))
	if duration > 0 {
		kbps := float64(info.Size()*8) / duration.Seconds() / 1000
		fmt.Printf("  bitrate:      %.1f kbit/s\n", kbps)
	}

	st := s.Stats(layout)
	fmt.Printf("  mean width:   %.2f bits\n", st.MeanWidth())
	fmt.Printf("  silent bands: %d of %d\n", st.SilentBands, st.Bands)
	fmt.Printf("  width histogram:\n")
	for i, n := range st.Widths {
		if n == 0 {
			continue
		}
		share := float64(n) / float64(st.Bands)
		fmt.Printf("    %2d bits %8d  %s\n", i+glc.MinWidth, n, strings.Repeat("#", int(share*50+0.5)))
	}

	if *showBands {
		fmt.Printf("  band layout:\n")
		for b, band := range layout.Bands {
			fmt.Printf("    %3d  bins %4d-%-4d (%d)\n", b, band.Start, band.End-1, band.Width())
		}
	}
	if *showFrames {
		fmt.Printf("  frames:\n")
		for i, frame := range s.Frames {
			fs := frame.Stats(layout)
			fmt.Printf("    %6d  mean width %.2f  silent %d/%d  code bits %d\n", i, fs.MeanWidth(), fs.SilentBands, fs.Bands, fs.CodeBits)
		}
	}
	return nil
}
