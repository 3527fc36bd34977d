// ABOUTME: Entry point for the glc batch encoder/decoder
// ABOUTME: Parses CLI flags, runs the batch with an optional TUI and sets the exit status
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Resonate-Protocol/glc-go/internal/batch"
	"github.com/Resonate-Protocol/glc-go/internal/trace"
	"github.com/Resonate-Protocol/glc-go/internal/ui"
	"github.com/Resonate-Protocol/glc-go/internal/version"
	"github.com/Resonate-Protocol/glc-go/pkg/audio/output"
	"github.com/Resonate-Protocol/glc-go/pkg/glc"
)

// options holds the parsed command line
type options struct {
	decode      bool
	frameLength int
	workers     int
	export      string
	playlist    string
	force       bool
	bits        int
	play        bool
	volume      int
	traceSpans  bool
	logFile     string
	noTUI       bool
	showVersion bool
	paths       []string
}

// parseFlags reads flags whose defaults may come from the environment,
// so it must run after .env is loaded
func parseFlags() options {
	var o options
	flag.BoolVar(&o.decode, "decode", false, "Decode .glc files instead of encoding")
	flag.IntVar(&o.frameLength, "frame-length", envInt("GLC_FRAME_LENGTH", glc.DefaultFrameLength), "Transform frame length (power of two)")
	flag.IntVar(&o.workers, "workers", envInt("GLC_WORKERS", 0), "Frames processed in parallel (0 = number of CPUs)")
	flag.StringVar(&o.export, "export", "", "Export each decoded file as wav or flac (NAME.decoded.EXT)")
	flag.StringVar(&o.playlist, "export-playlist", "", "Join all decoded files gaplessly into one .wav or .flac file")
	flag.BoolVar(&o.force, "force", false, "Overwrite existing exports")
	flag.IntVar(&o.bits, "bits", 16, "Bit depth of exported audio (16 or 24)")
	flag.BoolVar(&o.play, "play", false, "Play decoded files back to back without gaps")
	flag.IntVar(&o.volume, "volume", 100, "Playback volume (0-100)")
	flag.BoolVar(&o.traceSpans, "trace", false, "Write OpenTelemetry spans for each file")
	flag.StringVar(&o.logFile, "log-file", envString("GLC_LOG_FILE", "glc.log"), "Log file path")
	flag.BoolVar(&o.noTUI, "no-tui", false, "Disable TUI, use streaming logs instead")
	flag.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] FILE...\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(flag.CommandLine.Output(), "Encodes WAV/FLAC/MP3 files to .glc next to the input, or decodes .glc files with -decode.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	o.paths = flag.Args()
	return o
}

func main() {
	// A missing .env is fine
	_ = godotenv.Load()
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}
	if len(opts.paths) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	useTUI := !opts.noTUI

	// Set up logging
	f, err := os.OpenFile(opts.logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	var spanWriter io.Writer
	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
		spanWriter = f
	} else {
		multiWriter := io.MultiWriter(os.Stdout, f)
		log.SetOutput(multiWriter)
		spanWriter = multiWriter
	}

	mode := batch.ModeEncode
	if opts.decode {
		mode = batch.ModeDecode
	}
	cfg := batch.Config{
		Mode:        mode,
		FrameLength: opts.frameLength,
		Workers:     opts.workers,
		Export:      opts.export,
		Playlist:    opts.playlist,
		Overwrite:   opts.force,
		BitDepth:    opts.bits,
	}
	if opts.play {
		if !opts.decode {
			log.Fatalf("-play requires -decode")
		}
		out := output.NewOto()
		out.SetVolume(opts.volume)
		cfg.Player = out
	}

	var events chan batch.Event
	if useTUI {
		events = make(chan batch.Event, 256)
		cfg.Events = events
	}

	runner, err := batch.New(cfg)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if opts.traceSpans {
		if err := trace.Initialize(trace.Config{ExporterType: "stdout", Writer: spanWriter, RunID: runner.RunID()}); err != nil {
			log.Fatalf("Failed to initialize tracing: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := trace.Shutdown(ctx); err != nil {
				log.Printf("Error shutting down tracing: %v", err)
			}
		}()
	}

	// Handle shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var report *batch.Report
	if useTUI {
		report = runWithTUI(ctx, runner, mode, opts.paths, events)
	} else {
		log.Printf("Starting %s %s (run %s)", version.Product, version.Version, runner.RunID())
		report = runner.Run(ctx, opts.paths)
	}

	printSummary(report)
	if report.Failed() > 0 {
		// Deferred cleanup does not run after os.Exit
		stop()
		_ = trace.Shutdown(context.Background())
		_ = f.Close()
		os.Exit(1)
	}
}

// runWithTUI runs the batch while the TUI displays its events. Quitting the
// TUI cancels the remaining files.
func runWithTUI(ctx context.Context, runner *batch.Runner, mode batch.Mode, paths []string, events chan batch.Event) *batch.Report {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctrl := ui.NewControl()
	prog, err := ui.Run(ui.NewModel(runner.RunID(), mode, paths, ctrl))
	if err != nil {
		log.Fatalf("Failed to start TUI: %v", err)
	}

	tuiDone := make(chan struct{})
	go func() {
		defer close(tuiDone)
		if _, err := prog.Run(); err != nil {
			log.Printf("TUI error: %v", err)
		}
	}()
	go func() {
		ui.Forward(prog, events, mode)
		prog.Send(ui.DoneMsg{})
	}()
	go func() {
		select {
		case <-ctrl.Quit:
			log.Printf("Received quit signal from TUI")
			cancel()
		case <-ctx.Done():
		}
	}()

	report := runner.Run(ctx, paths)
	close(events)
	<-tuiDone
	return report
}

// printSummary writes one line per file to stdout
func printSummary(report *batch.Report) {
	ok := 0
	for _, res := range report.Results {
		if res.Err == nil {
			ok++
		}
		switch {
		case res.Err != nil:
			fmt.Printf("✗ %s: %v\n", res.Input, res.Err)
		case report.Mode == batch.ModeEncode:
			fmt.Printf("✓ %s -> %s (%.2fx, %d -> %d bytes)\n", res.Input, res.Outputs[0], res.Ratio(), res.InputBytes, res.OutputBytes)
		default:
			fmt.Printf("✓ %s (%d samples, %d Hz, %d ch)", res.Input, res.Samples, res.SampleRate, res.Channels)
			for _, out := range res.Outputs {
				fmt.Printf(" -> %s", out)
			}
			fmt.Println()
		}
	}
	if pl := report.Playlist; pl != nil {
		if pl.Err != nil {
			fmt.Printf("✗ playlist: %v\n", pl.Err)
		} else {
			fmt.Printf("✓ playlist of %s -> %s (%d samples, %d Hz, %d ch)\n", pl.Input, pl.Outputs[0], pl.Samples, pl.SampleRate, pl.Channels)
		}
	}
	fmt.Printf("%d of %d files processed in %v (run %s)\n",
		ok, len(report.Results), report.Elapsed.Round(time.Millisecond), report.RunID)
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Ignoring invalid %s=%q", key, v)
	}
	return fallback
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
