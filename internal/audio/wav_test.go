package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAVRoundTrip(t *testing.T) {
	in := []float32{0, 0.5, -0.5, 0.25, -0.25, 0.9}

	data, err := EncodeWAV(in, 16000)
	require.NoError(t, err)

	out, rate, err := DecodeWAV(data)
	require.NoError(t, err)
	assert.Equal(t, 16000, rate)
	require.Len(t, out, len(in))
	for i := range in {
		assert.InDelta(t, in[i], out[i], 1e-3)
	}
}

func TestEncodeWAVValidation(t *testing.T) {
	_, err := EncodeWAV(nil, 16000)
	assert.Error(t, err)

	_, err = EncodeWAV([]float32{0.1}, 0)
	assert.Error(t, err)
}

func TestDecodeWAVValidation(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty input", nil},
		{"not RIFF", []byte("JUNKDATAJUNKDATA")},
		{"truncated header", []byte("RIFF\x00\x00\x00\x00WAVE")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeWAV(tt.data)
			assert.Error(t, err)
		})
	}

	t.Run("rejects stereo", func(t *testing.T) {
		data, err := EncodeWAV([]float32{0.1, 0.2}, 8000)
		require.NoError(t, err)
		// Flip the channel count in the fmt chunk.
		data[22] = 2

		_, _, err = DecodeWAV(data)
		assert.ErrorContains(t, err, "channel count")
	})
}
