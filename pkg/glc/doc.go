// ABOUTME: Gapless lossy codec package
// ABOUTME: MDCT transform, psychoacoustic model, adaptive quantizer and .glc bitstream
// Package glc implements the GLC gapless lossy audio codec.
//
// Audio is split into 50%-overlapped frames, transformed with a sine-windowed
// MDCT, quantized per critical band with a bit width between 8 and 16 chosen
// from a psychoacoustic masking threshold, and packed into a bitstream whose
// header records the exact original sample count. Decoding overlap-adds the
// inverse-transformed frames and trims the padding, so the output always has
// exactly as many samples per channel as the input.
//
// Tables are built once per (frame length, sample rate) pair and shared
// read-only between the encoder's and decoder's worker goroutines. An Encoder
// is bound to one sample rate for its lifetime.
//
// Example:
//
//	enc, err := glc.NewEncoder(glc.Config{SampleRate: 44100})
//	stream, err := enc.Encode(samples)
//	data, err := glc.Pack(stream)
//
//	dec := glc.NewDecoder(glc.Config{})
//	out, err := dec.DecodeBytes(data)
package glc
