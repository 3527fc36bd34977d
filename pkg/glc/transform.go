// ABOUTME: Forward and inverse MDCT on 50%-overlapped frames
// ABOUTME: Dense matrix-vector products against the shared tables
package glc

// Forward computes the windowed MDCT of one frame.
// frame must hold FrameLength samples and out Hop coefficients.
// Safe for concurrent use.
func (t *Tables) Forward(frame, out []float64) {
	n := t.frameLength
	windowed := make([]float64, n)
	for i := 0; i < n; i++ {
		windowed[i] = frame[i] * t.window[i]
	}

	for k := 0; k < t.hop; k++ {
		row := t.basis[k*n : (k+1)*n]
		var s float64
		for i, v := range windowed {
			s += v * row[i]
		}
		out[k] = s * t.norm
	}
}

// Inverse computes the windowed IMDCT of one frame's coefficients.
// coeffs must hold Hop values and out FrameLength samples. Adding the second
// half of frame i to the first half of frame i+1 reconstructs the signal.
// Safe for concurrent use.
func (t *Tables) Inverse(coeffs, out []float64) {
	n := t.frameLength
	for i := range out[:n] {
		out[i] = 0
	}

	for k, c := range coeffs[:t.hop] {
		if c == 0 {
			continue
		}
		row := t.basis[k*n : (k+1)*n]
		for i, v := range row {
			out[i] += c * v
		}
	}

	for i := 0; i < n; i++ {
		out[i] *= t.window[i] * t.norm
	}
}
