package audio

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"
)

// Source is the widget's stand-in for a browser microphone. Frames are
// emitted at real-time pacing so the rest of the pipeline behaves the way
// it would against a live device.
type Source interface {
	// Open acquires the underlying input. Failure is the equivalent of a
	// microphone permission denial and must abort the session.
	Open() error
	// ReadFrame blocks until the next frame is available. It returns
	// io.EOF once the source is exhausted or closed, and the context
	// error when ctx is cancelled.
	ReadFrame(ctx context.Context) ([]float32, error)
	SampleRate() int
	Close() error
}

// FileSource plays a mono PCM16 WAV file back at its native rate.
type FileSource struct {
	path      string
	frameSize int
	paced     bool

	mu      sync.Mutex
	samples []float32
	rate    int
	pos     int
	ticker  *time.Ticker
	done    chan struct{}
	closed  bool
}

// NewFileSource creates a paced file source emitting frameSize-sample frames.
func NewFileSource(path string, frameSize int) *FileSource {
	return &FileSource{
		path:      path,
		frameSize: frameSize,
		paced:     true,
	}
}

// Unpaced disables real-time pacing. This is primarily used for testing.
func (s *FileSource) Unpaced() *FileSource {
	s.paced = false
	return s
}

func (s *FileSource) Open() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("open capture source %s: %w", s.path, err)
	}

	samples, rate, err := DecodeWAV(data)
	if err != nil {
		return fmt.Errorf("decode capture source %s: %w", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = samples
	s.rate = rate
	s.pos = 0
	s.closed = false
	s.done = make(chan struct{})
	if s.paced {
		s.ticker = time.NewTicker(frameDuration(s.frameSize, rate))
	}
	return nil
}

func (s *FileSource) ReadFrame(ctx context.Context) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed || s.pos >= len(s.samples) {
		s.mu.Unlock()
		return nil, io.EOF
	}
	ticker, done := s.ticker, s.done
	s.mu.Unlock()

	if ticker != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-done:
			return nil, io.EOF
		case <-ticker.C:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.pos >= len(s.samples) {
		return nil, io.EOF
	}

	end := s.pos + s.frameSize
	if end > len(s.samples) {
		end = len(s.samples)
	}

	frame := make([]float32, end-s.pos)
	copy(frame, s.samples[s.pos:end])
	s.pos = end
	return frame, nil
}

func (s *FileSource) SampleRate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

func (s *FileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		if s.done != nil {
			close(s.done)
		}
	}
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	return nil
}

// ToneSource synthesizes a sine wave. It never runs out, which makes it a
// convenient demo and test input.
type ToneSource struct {
	freq      float64
	amplitude float64
	rate      int
	frameSize int
	paced     bool

	mu     sync.Mutex
	phase  float64
	ticker *time.Ticker
	done   chan struct{}
	closed bool
}

func NewToneSource(freq, amplitude float64, sampleRate, frameSize int) *ToneSource {
	return &ToneSource{
		freq:      freq,
		amplitude: amplitude,
		rate:      sampleRate,
		frameSize: frameSize,
		paced:     true,
	}
}

// Unpaced disables real-time pacing. This is primarily used for testing.
func (s *ToneSource) Unpaced() *ToneSource {
	s.paced = false
	return s
}

func (s *ToneSource) Open() error {
	if s.rate <= 0 || s.frameSize <= 0 {
		return fmt.Errorf("tone source needs a positive sample rate and frame size")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
	s.done = make(chan struct{})
	if s.paced {
		s.ticker = time.NewTicker(frameDuration(s.frameSize, s.rate))
	}
	return nil
}

func (s *ToneSource) ReadFrame(ctx context.Context) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, io.EOF
	}
	ticker, done := s.ticker, s.done
	s.mu.Unlock()

	if ticker != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-done:
			return nil, io.EOF
		case <-ticker.C:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, io.EOF
	}

	frame := make([]float32, s.frameSize)
	step := 2 * math.Pi * s.freq / float64(s.rate)
	for i := range frame {
		frame[i] = float32(s.amplitude * math.Sin(s.phase))
		s.phase += step
	}
	return frame, nil
}

func (s *ToneSource) SampleRate() int {
	return s.rate
}

func (s *ToneSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		if s.done != nil {
			close(s.done)
		}
	}
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	return nil
}

func frameDuration(frameSize, sampleRate int) time.Duration {
	return time.Duration(frameSize) * time.Second / time.Duration(sampleRate)
}
