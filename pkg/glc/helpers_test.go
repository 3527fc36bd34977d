// ABOUTME: Shared test helpers for codec tests
// ABOUTME: Signal generators, SNR measurement and codec round-trip helpers
package glc

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Resonate-Protocol/glc-go/pkg/audio"
)

type waveform func(t float64) float64

func sine(freq, amp float64) waveform {
	return func(t float64) float64 { return amp * math.Sin(2*math.Pi*freq*t) }
}

func square(freq, amp float64) waveform {
	return func(t float64) float64 {
		if math.Sin(2*math.Pi*freq*t) >= 0 {
			return amp
		}
		return -amp
	}
}

func sawtooth(freq, amp float64) waveform {
	return func(t float64) float64 {
		phase := math.Mod(freq*t, 1)
		return (2*phase - 1) * amp
	}
}

// sweep is a linear chirp from f0 to f1 over duration seconds
func sweep(f0, f1, duration, amp float64) waveform {
	return func(t float64) float64 {
		k := (f1 - f0) / duration
		return amp * math.Sin(2*math.Pi*(f0*t+k*t*t/2))
	}
}

// generate renders a waveform to every channel of a new buffer
func generate(w waveform, sampleRate, channels, length int) *audio.SampleBuffer {
	sb := audio.NewSampleBuffer(sampleRate, channels, length)
	for i := 0; i < length; i++ {
		v := float32(w(float64(i) / float64(sampleRate)))
		for ch := range sb.Channels {
			sb.Channels[ch][i] = v
		}
	}
	return sb
}

func noise(seed int64, sampleRate, channels, length int, amp float64) *audio.SampleBuffer {
	rng := rand.New(rand.NewSource(seed))
	sb := audio.NewSampleBuffer(sampleRate, channels, length)
	for ch := range sb.Channels {
		for i := range sb.Channels[ch] {
			sb.Channels[ch][i] = float32((rng.Float64()*2 - 1) * amp)
		}
	}
	return sb
}

// snr returns the signal-to-noise ratio in dB over [skip, len-skip)
func snr(original, decoded []float32, skip int) float64 {
	var signal, errPower float64
	for i := skip; i < len(original)-skip; i++ {
		d := float64(original[i]) - float64(decoded[i])
		signal += float64(original[i]) * float64(original[i])
		errPower += d * d
	}
	if errPower == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(signal/errPower)
}

// roundTrip encodes, packs, unpacks and decodes buf
func roundTrip(t *testing.T, buf *audio.SampleBuffer, frameLength int) (*Stream, *audio.SampleBuffer) {
	t.Helper()

	enc, err := NewEncoder(Config{FrameLength: frameLength, SampleRate: buf.SampleRate})
	require.NoError(t, err)

	stream, err := enc.Encode(buf)
	require.NoError(t, err)

	data, err := Pack(stream)
	require.NoError(t, err)

	out, err := NewDecoder(Config{}).DecodeBytes(data)
	require.NoError(t, err)
	return stream, out
}
