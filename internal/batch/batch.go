// ABOUTME: Batch encoder/decoder over many files
// ABOUTME: Isolates per-file failures, reports compression ratios and progress
package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Resonate-Protocol/glc-go/internal/trace"
	"github.com/Resonate-Protocol/glc-go/pkg/audio"
	"github.com/Resonate-Protocol/glc-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/glc-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/glc-go/pkg/audio/output"
	"github.com/Resonate-Protocol/glc-go/pkg/glc"
)

const (
	// Extension is the file extension of encoded streams
	Extension = ".glc"

	// ExportSuffix is inserted before the container extension of exports,
	// so song.glc exports to song.decoded.wav and never to song.wav
	ExportSuffix = ".decoded"
)

// ErrMixedFormats is reported for a track whose sample rate or channel count
// differs from the tracks played or joined before it
var ErrMixedFormats = errors.New("track format differs from playlist")

// Mode selects the direction of a batch run
type Mode int

const (
	ModeEncode Mode = iota
	ModeDecode
)

func (m Mode) String() string {
	if m == ModeDecode {
		return "decode"
	}
	return "encode"
}

// Config configures a batch run
type Config struct {
	Mode        Mode
	FrameLength int
	Workers     int
	// Export is "wav", "flac" or empty; decode mode only. Each stream is
	// exported next to itself with ExportSuffix before the extension.
	Export string
	// BitDepth of exported files, 16 or 24
	BitDepth int
	// Player, if set, plays every decoded file back to back through one
	// open output
	Player output.Output
	// Playlist, if set, is the path of a single export joining every decoded
	// file end to end; its extension picks the container
	Playlist string
	// Overwrite lets exports replace existing files
	Overwrite bool
	// Events, if set, receives progress. Frame progress is dropped when the
	// channel is full; lifecycle events block.
	Events chan<- Event
}

// Result describes the outcome for one input file
type Result struct {
	Input       string
	Outputs     []string
	InputBytes  int64
	OutputBytes int64
	Samples     uint64
	SampleRate  int
	Channels    int
	Elapsed     time.Duration
	Err         error
}

// Ratio is the compression ratio of an encode, input bytes over output bytes
func (r Result) Ratio() float64 {
	if r.OutputBytes == 0 {
		return 0
	}
	return float64(r.InputBytes) / float64(r.OutputBytes)
}

// Report summarizes a batch run
type Report struct {
	RunID   string
	Mode    Mode
	Results []Result
	// Playlist is the joined export, when one was requested
	Playlist *Result
	Elapsed  time.Duration
}

// Failed returns the number of files that could not be processed, counting
// a failed playlist export as one more
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	if r.Playlist != nil && r.Playlist.Err != nil {
		n++
	}
	return n
}

// Runner processes files one at a time; each file uses the codec's worker pool
type Runner struct {
	cfg   Config
	runID string

	mu       sync.Mutex
	encoders map[int]*glc.Encoder
	decoder  *glc.Decoder

	// Gapless state of the current Run
	format     *audio.Format
	playerOpen bool
	joined     []int32
	tracks     int
}

// New creates a batch runner with a fresh run ID
func New(cfg Config) (*Runner, error) {
	switch cfg.Export {
	case "", "wav", "flac":
	default:
		return nil, fmt.Errorf("%w: export format %q (supported: wav, flac)", audio.ErrUnsupportedFormat, cfg.Export)
	}
	if cfg.BitDepth == 0 {
		cfg.BitDepth = 16
	}
	if cfg.BitDepth != 16 && cfg.BitDepth != 24 {
		return nil, fmt.Errorf("%w: bit depth %d (supported: 16, 24)", audio.ErrUnsupportedFormat, cfg.BitDepth)
	}
	if cfg.FrameLength == 0 {
		cfg.FrameLength = glc.DefaultFrameLength
	}
	if _, err := glc.BandLayout(cfg.FrameLength, 44100); err != nil {
		return nil, err
	}
	if cfg.Playlist != "" {
		if cfg.Mode != ModeDecode {
			return nil, fmt.Errorf("playlist export requires decode mode")
		}
		if _, err := encode.ForPath(cfg.Playlist, cfg.BitDepth); err != nil {
			return nil, err
		}
	}

	return &Runner{
		cfg:      cfg,
		runID:    uuid.NewString(),
		encoders: make(map[int]*glc.Encoder),
	}, nil
}

// RunID identifies this runner's batch in logs, spans and reports
func (r *Runner) RunID() string {
	return r.runID
}

// Run processes every path in order. A failing file is logged, recorded in
// the report and skipped; it never aborts the batch. Cancellation is checked
// between files and marks the remaining files as failed.
func (r *Runner) Run(ctx context.Context, paths []string) *Report {
	start := time.Now()
	report := &Report{
		RunID:   r.runID,
		Mode:    r.cfg.Mode,
		Results: make([]Result, 0, len(paths)),
	}
	log.Printf("[%s] Starting %s of %d files", r.runID, r.cfg.Mode, len(paths))
	r.format, r.playerOpen, r.joined, r.tracks = nil, false, nil, 0

	for i, path := range paths {
		var res Result
		if err := ctx.Err(); err != nil {
			res = Result{Input: path, Err: err}
		} else {
			res = r.runFile(ctx, i, path)
		}

		if res.Err != nil {
			log.Printf("[%s] Failed %s: %v", r.runID, path, res.Err)
			r.emit(ctx, Event{Kind: EventError, File: path, Index: i, Message: res.Err.Error(), Result: &res})
		} else {
			r.logResult(res)
			r.emit(ctx, Event{Kind: EventComplete, File: path, Index: i, Result: &res})
		}
		report.Results = append(report.Results, res)
	}

	if r.playerOpen {
		if err := r.cfg.Player.Close(); err != nil {
			log.Printf("[%s] Failed to close output: %v", r.runID, err)
		}
		r.playerOpen = false
	}
	if r.cfg.Playlist != "" {
		report.Playlist = r.writePlaylist(ctx)
	}

	report.Elapsed = time.Since(start)
	ok := 0
	for _, res := range report.Results {
		if res.Err == nil {
			ok++
		}
	}
	log.Printf("[%s] Finished: %d ok, %d failed in %v",
		r.runID, ok, report.Failed(), report.Elapsed.Round(time.Millisecond))
	return report
}

func (r *Runner) logResult(res Result) {
	switch r.cfg.Mode {
	case ModeEncode:
		log.Printf("[%s] Compressed %s -> %s: %.2fx (%d -> %d bytes)",
			r.runID, res.Input, res.Outputs[0], res.Ratio(), res.InputBytes, res.OutputBytes)
	case ModeDecode:
		log.Printf("[%s] Decoded %s: %d samples, %d Hz, %d channels",
			r.runID, res.Input, res.Samples, res.SampleRate, res.Channels)
	}
}

// runFile processes one file inside its own span
func (r *Runner) runFile(ctx context.Context, index int, path string) Result {
	ctx, span := trace.StartSpan(ctx, "batch."+r.cfg.Mode.String())
	defer span.End()
	span.SetAttributes(
		attribute.String("glc.run_id", r.runID),
		attribute.String("glc.file", path),
	)

	start := time.Now()
	var res Result
	var err error
	switch r.cfg.Mode {
	case ModeEncode:
		res, err = r.encodeFile(ctx, index, path)
	case ModeDecode:
		res, err = r.decodeFile(ctx, index, path)
	default:
		err = fmt.Errorf("unknown mode %d", r.cfg.Mode)
	}
	res.Input = path
	res.Elapsed = time.Since(start)
	res.Err = err

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.Int64("glc.samples", int64(res.Samples)),
			attribute.Int64("glc.output_bytes", res.OutputBytes),
		)
	}
	return res
}

func (r *Runner) encodeFile(ctx context.Context, index int, path string) (Result, error) {
	var res Result
	if strings.EqualFold(filepath.Ext(path), Extension) {
		return res, fmt.Errorf("%w: %s is already encoded", audio.ErrUnsupportedFormat, filepath.Base(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		return res, fmt.Errorf("failed to stat input: %w", err)
	}
	res.InputBytes = info.Size()

	r.emit(ctx, Event{Kind: EventStatus, File: path, Index: index, Message: "reading"})
	pcm, err := decode.File(path)
	if err != nil {
		return res, err
	}
	buf, err := audio.Deinterleave(pcm)
	if err != nil {
		return res, err
	}

	enc, err := r.encoderFor(ctx, index, path, buf.SampleRate)
	if err != nil {
		return res, err
	}

	outPath := swapExt(path, Extension)
	f, err := os.Create(outPath)
	if err != nil {
		return res, fmt.Errorf("failed to create output: %w", err)
	}
	w := bufio.NewWriter(f)
	h, err := enc.EncodeTo(w, buf)
	if err == nil {
		err = w.Flush()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(outPath)
		return res, err
	}

	out, err := os.Stat(outPath)
	if err != nil {
		return res, fmt.Errorf("failed to stat output: %w", err)
	}
	res.Outputs = []string{outPath}
	res.OutputBytes = out.Size()
	res.Samples = h.TotalSamples
	res.SampleRate = h.SampleRate
	res.Channels = h.Channels
	return res, nil
}

func (r *Runner) decodeFile(ctx context.Context, index int, path string) (Result, error) {
	var res Result
	if !strings.EqualFold(filepath.Ext(path), Extension) {
		return res, fmt.Errorf("%w: expected a %s file, got %s", audio.ErrUnsupportedFormat, Extension, filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return res, fmt.Errorf("failed to open stream: %w", err)
	}
	defer f.Close()
	if info, err := f.Stat(); err == nil {
		res.InputBytes = info.Size()
	}

	r.emit(ctx, Event{Kind: EventStatus, File: path, Index: index, Message: "reading"})
	buf, err := r.decoderFor(ctx, index, path).DecodeFrom(bufio.NewReader(f))
	if err != nil {
		return res, err
	}
	res.Samples = uint64(buf.Len())
	res.SampleRate = buf.SampleRate
	res.Channels = buf.NumChannels()

	pcm := audio.Interleave(buf, r.cfg.BitDepth)
	if r.cfg.Player != nil || r.cfg.Playlist != "" {
		if err := r.checkTrack(pcm.Format); err != nil {
			return res, err
		}
	}
	if r.cfg.Export != "" {
		r.emit(ctx, Event{Kind: EventExporting, File: path, Index: index, Message: r.cfg.Export})
		outPath := exportPath(path, r.cfg.Export)
		if err := r.export(outPath, pcm); err != nil {
			return res, err
		}
		if info, err := os.Stat(outPath); err == nil {
			res.OutputBytes += info.Size()
		}
		res.Outputs = append(res.Outputs, outPath)
	}
	if r.cfg.Playlist != "" {
		r.joined = append(r.joined, pcm.Samples...)
		r.tracks++
	}
	if r.cfg.Player != nil {
		r.emit(ctx, Event{Kind: EventStatus, File: path, Index: index, Message: "playing"})
		if !r.playerOpen {
			if err := r.cfg.Player.Open(pcm.Format.SampleRate, pcm.Format.Channels); err != nil {
				return res, fmt.Errorf("failed to open output: %w", err)
			}
			r.playerOpen = true
		}
		if err := output.Stream(ctx, r.cfg.Player, pcm); err != nil {
			return res, fmt.Errorf("playback failed: %w", err)
		}
	}
	return res, nil
}

// checkTrack pins the playlist format to the first decoded track and
// rejects later tracks that do not share its rate and channel count
func (r *Runner) checkTrack(f audio.Format) error {
	if r.format == nil {
		r.format = &f
		return nil
	}
	if f.SampleRate != r.format.SampleRate || f.Channels != r.format.Channels {
		return fmt.Errorf("%w: %d Hz %d ch after %d Hz %d ch",
			ErrMixedFormats, f.SampleRate, f.Channels, r.format.SampleRate, r.format.Channels)
	}
	return nil
}

func (r *Runner) export(path string, pcm *audio.Buffer) error {
	if r.cfg.Overwrite {
		return encode.Replace(path, pcm, r.cfg.BitDepth)
	}
	return encode.File(path, pcm, r.cfg.BitDepth)
}

// writePlaylist exports every track joined so far as one file
func (r *Runner) writePlaylist(ctx context.Context) *Result {
	_, span := trace.StartSpan(ctx, "batch.playlist")
	defer span.End()

	start := time.Now()
	res := &Result{Input: fmt.Sprintf("%d tracks", r.tracks)}
	defer func() { res.Elapsed = time.Since(start) }()
	if r.tracks == 0 {
		res.Err = fmt.Errorf("no tracks decoded for playlist %s", r.cfg.Playlist)
		span.SetStatus(codes.Error, res.Err.Error())
		log.Printf("[%s] Playlist failed: %v", r.runID, res.Err)
		return res
	}

	pcm := &audio.Buffer{Samples: r.joined, Format: *r.format}
	res.Samples = uint64(pcm.Frames())
	res.SampleRate = pcm.Format.SampleRate
	res.Channels = pcm.Format.Channels
	if err := r.export(r.cfg.Playlist, pcm); err != nil {
		res.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("[%s] Playlist failed: %v", r.runID, err)
		return res
	}
	if info, err := os.Stat(r.cfg.Playlist); err == nil {
		res.OutputBytes = info.Size()
	}
	res.Outputs = []string{r.cfg.Playlist}
	span.SetAttributes(
		attribute.Int("glc.tracks", r.tracks),
		attribute.Int64("glc.samples", int64(res.Samples)),
	)
	log.Printf("[%s] Joined %d tracks into %s: %d samples", r.runID, r.tracks, r.cfg.Playlist, res.Samples)
	return res
}

// encoderFor returns the encoder for a sample rate, reporting progress for
// path. Encoders are bound to one rate, so each input rate gets its own.
func (r *Runner) encoderFor(ctx context.Context, index int, path string, sampleRate int) (*glc.Encoder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	progress := r.progress(ctx, EventEncoding, index, path)
	if enc, ok := r.encoders[sampleRate]; ok {
		return enc.WithProgress(progress), nil
	}
	enc, err := glc.NewEncoder(glc.Config{
		FrameLength: r.cfg.FrameLength,
		SampleRate:  sampleRate,
		Workers:     r.cfg.Workers,
	})
	if err != nil {
		return nil, err
	}
	r.encoders[sampleRate] = enc
	return enc.WithProgress(progress), nil
}

func (r *Runner) decoderFor(ctx context.Context, index int, path string) *glc.Decoder {
	r.mu.Lock()
	defer r.mu.Unlock()

	progress := r.progress(ctx, EventDecoding, index, path)
	if r.decoder == nil {
		r.decoder = glc.NewDecoder(glc.Config{Workers: r.cfg.Workers})
	}
	return r.decoder.WithProgress(progress)
}

// progress adapts codec frame progress into non-blocking events
func (r *Runner) progress(ctx context.Context, kind EventKind, index int, path string) func(glc.Progress) {
	if r.cfg.Events == nil {
		return nil
	}
	return func(p glc.Progress) {
		select {
		case r.cfg.Events <- Event{Kind: kind, File: path, Index: index, Done: p.Done, Total: p.Total}:
		default:
		}
	}
}

// emit delivers a lifecycle event unless the run is cancelled
func (r *Runner) emit(ctx context.Context, ev Event) {
	if r.cfg.Events == nil {
		return
	}
	select {
	case r.cfg.Events <- ev:
	case <-ctx.Done():
	}
}

// swapExt replaces the extension of path
func swapExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// exportPath names the export of a stream in the given container
func exportPath(path, container string) string {
	return swapExt(path, ExportSuffix+"."+container)
}
