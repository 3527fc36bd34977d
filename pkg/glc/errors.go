// ABOUTME: Error values reported by the codec
// ABOUTME: Sentinels are wrapped with context and matched with errors.Is
package glc

import "errors"

var (
	// ErrConfiguration indicates an invalid frame length or sample rate, or a
	// buffer that does not match the encoder's sample rate.
	ErrConfiguration = errors.New("glc: invalid configuration")

	// ErrMalformedStream indicates a corrupt or truncated bitstream, an
	// out-of-range quantization code or a header/frame-count mismatch.
	ErrMalformedStream = errors.New("glc: malformed stream")

	// ErrInvalidFrame indicates frame data that cannot be packed.
	ErrInvalidFrame = errors.New("glc: invalid frame data")
)
