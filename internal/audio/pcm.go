// Package audio implements the widget's audio pipeline: PCM16 framing,
// the uplink noise gate, and downlink smoothing.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DecodePCM16 converts little-endian PCM16 bytes to float32 samples in [-1, 1].
func DecodePCM16(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("audio data length must be even (got %d bytes)", len(data))
	}

	samples := make([]float32, len(data)/2)
	for i := range samples {
		raw := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float32(raw) / 32768.0
	}
	return samples, nil
}

// EncodePCM16 converts float32 samples to little-endian PCM16 bytes.
// Samples outside [-1, 1] are clipped.
func EncodePCM16(samples []float32) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		scaled := math.Round(float64(s) * 32767.0)
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(scaled)))
	}
	return data
}
