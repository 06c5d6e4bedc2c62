package config

// Audio pipeline tuning. Defaults match the browser demo this client
// replaces: 16 kHz mono PCM16 in 1024-sample frames.

func GetAudioSampleRate() int {
	return parseEnvInt("AUDIO_SAMPLE_RATE", 16000)
}

func GetAudioFrameSize() int {
	return parseEnvInt("AUDIO_FRAME_SIZE", 1024)
}

// GetAudioGateThreshold returns the noise gate threshold. Samples at or
// below this magnitude are zeroed before upload.
func GetAudioGateThreshold() float64 {
	return parseEnvFloat("AUDIO_GATE_THRESHOLD", 0.01)
}

// GetAudioGateEnabled reports whether the uplink noise gate is applied.
func GetAudioGateEnabled() bool {
	return parseEnvBool("AUDIO_GATE_ENABLED", true)
}

// GetAudioLowPassAlpha returns the smoothing coefficient of the single-pole
// low-pass filter applied to downlink audio. 1.0 disables smoothing.
func GetAudioLowPassAlpha() float64 {
	return parseEnvFloat("AUDIO_LOWPASS_ALPHA", 0.6)
}

// GetAudioLowPassEnabled reports whether downlink smoothing is applied.
func GetAudioLowPassEnabled() bool {
	return parseEnvBool("AUDIO_LOWPASS_ENABLED", false)
}
