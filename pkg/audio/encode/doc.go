// ABOUTME: Audio encoder package for writing decoded audio to disk
// ABOUTME: Provides Encoder interface and implementations for WAV and FLAC
// Package encode writes PCM buffers to lossless containers.
//
// Supports: WAV and FLAC, at 16 or 24 bits per sample
//
// All encoders accept int32 samples in 24-bit range and requantize
// them to the requested bit depth.
//
// Example:
//
//	err := encode.File("track.flac", buf, 16)
package encode
