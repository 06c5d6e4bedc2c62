package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// DecodeWAV parses a mono PCM16 WAV file and returns its samples and
// sample rate. Chunks other than fmt and data are skipped.
func DecodeWAV(data []byte) ([]float32, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		sampleRate int
		pcm        []byte
		haveFmt    bool
	)

	rest := data[12:]
	for len(rest) >= 8 {
		chunkID := string(rest[0:4])
		chunkLen := int(binary.LittleEndian.Uint32(rest[4:8]))
		rest = rest[8:]
		if chunkLen > len(rest) {
			return nil, 0, fmt.Errorf("truncated %s chunk: want %d bytes, have %d", chunkID, chunkLen, len(rest))
		}

		switch chunkID {
		case "fmt ":
			if chunkLen < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too short: %d bytes", chunkLen)
			}
			format := binary.LittleEndian.Uint16(rest[0:2])
			channels := binary.LittleEndian.Uint16(rest[2:4])
			bits := binary.LittleEndian.Uint16(rest[14:16])
			if format != 1 {
				return nil, 0, fmt.Errorf("unsupported audio format %d (want PCM)", format)
			}
			if channels != 1 {
				return nil, 0, fmt.Errorf("unsupported channel count %d (want mono)", channels)
			}
			if bits != 16 {
				return nil, 0, fmt.Errorf("unsupported bit depth %d (want 16)", bits)
			}
			sampleRate = int(binary.LittleEndian.Uint32(rest[4:8]))
			haveFmt = true
		case "data":
			pcm = rest[:chunkLen]
		}

		// Chunks are word-aligned.
		if chunkLen%2 == 1 {
			chunkLen++
		}
		if chunkLen > len(rest) {
			break
		}
		rest = rest[chunkLen:]
	}

	if !haveFmt {
		return nil, 0, fmt.Errorf("missing fmt chunk")
	}
	if pcm == nil {
		return nil, 0, fmt.Errorf("missing data chunk")
	}

	samples, err := DecodePCM16(pcm)
	if err != nil {
		return nil, 0, err
	}
	return samples, sampleRate, nil
}

// EncodeWAV writes float32 samples as a mono PCM16 WAV file.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio samples")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	pcm := EncodePCM16(samples)

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(pcm)))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))           // bits per sample

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes(), nil
}
