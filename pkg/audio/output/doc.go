// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides Output interface and oto implementation
// Package output provides audio playback interfaces.
//
// Currently supports oto for cross-platform audio output. Samples are
// int32 in 24-bit range and are played back as 16-bit PCM.
//
// Example:
//
//	out := output.NewOto()
//	err := output.Play(ctx, out, buf)
package output
