// ABOUTME: Audio decoder package for reading source files
// ABOUTME: Provides Decoder interface and implementations for WAV, FLAC, MP3
// Package decode reads whole audio files into PCM buffers.
//
// Supports: WAV (PCM 8/16/24/32-bit), FLAC, MP3
//
// All decoders implement the Decoder interface and output int32 samples
// in 24-bit range, interleaved, for consistent hi-res audio processing.
//
// Example:
//
//	buf, err := decode.File("track.flac")
//	samples, err := audio.Deinterleave(buf)
package decode
