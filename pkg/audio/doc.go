// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer, SampleBuffer and sample conversion functions
// Package audio provides fundamental audio types shared by the codec and its
// file and playback collaborators.
//
// This package defines:
//   - Format: Describes an audio stream (codec, sample rate, channels, bit depth)
//   - Buffer: Interleaved PCM in 24-bit range, as produced by readers
//   - SampleBuffer: De-interleaved float32 channels, as consumed by the codec
//
// It also provides conversions between bit depths and between the
// interleaved and planar representations.
//
// Example:
//
//	buf, err := decode.File("song.flac")
//	planar, err := audio.Deinterleave(buf)
//
//	// Convert 16-bit sample to 24-bit range
//	sample24 := audio.SampleFromInt16(sample16)
package audio
