package config

import "time"

// GetSDKAPIKey returns the rendering SDK API key.
func GetSDKAPIKey() string {
	return GetEnvOrDefault("SDK_API_KEY", "")
}

// GetSDKFaceID returns the avatar face identifier passed to the rendering SDK.
func GetSDKFaceID() string {
	return GetEnvOrDefault("SDK_FACE_ID", "default-face")
}

// GetSDKSocketURL returns the rendering SDK's streaming endpoint.
func GetSDKSocketURL() string {
	return GetEnvOrDefault("SDK_SOCKET_URL", "wss://render.visage.dev/stream")
}

// GetSDKHandleSilence reports whether the SDK should keep the avatar
// animated through silent stretches.
func GetSDKHandleSilence() bool {
	return parseEnvBool("SDK_HANDLE_SILENCE", true)
}

// GetSDKReadyDelay returns the fixed delay before the first readiness probe.
func GetSDKReadyDelay() time.Duration {
	return parseEnvDuration("SDK_READY_DELAY", 4*time.Second)
}

// GetSDKReadyInterval returns the interval between readiness probes.
func GetSDKReadyInterval() time.Duration {
	return parseEnvDuration("SDK_READY_INTERVAL", time.Second)
}

// GetSDKReadyAttempts returns how many readiness probes are made before
// giving up.
func GetSDKReadyAttempts() int {
	return parseEnvInt("SDK_READY_ATTEMPTS", 20)
}
