package audio

// NoiseGate zeroes samples whose magnitude is at or below threshold.
// The frame is modified in place and returned for chaining.
func NoiseGate(frame []float32, threshold float32) []float32 {
	for i, s := range frame {
		if s <= threshold && s >= -threshold {
			frame[i] = 0
		}
	}
	return frame
}

// Clamp clips samples into [-1, 1] in place.
func Clamp(frame []float32) []float32 {
	for i, s := range frame {
		if s > 1 {
			frame[i] = 1
		} else if s < -1 {
			frame[i] = -1
		}
	}
	return frame
}

// LowPass is a single-pole low-pass filter. State carries across frames so
// playback stays smooth at frame boundaries.
type LowPass struct {
	alpha float32
	last  float32
}

// NewLowPass creates a filter with the given smoothing coefficient in (0, 1].
// An alpha of 1 passes samples through unchanged.
func NewLowPass(alpha float32) *LowPass {
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	return &LowPass{alpha: alpha}
}

// Apply filters a frame in place: y[n] = y[n-1] + alpha*(x[n] - y[n-1]).
func (f *LowPass) Apply(frame []float32) []float32 {
	for i, x := range frame {
		f.last += f.alpha * (x - f.last)
		frame[i] = f.last
	}
	return frame
}

// Reset clears the filter state.
func (f *LowPass) Reset() {
	f.last = 0
}
