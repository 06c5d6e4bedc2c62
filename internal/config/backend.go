package config

// GetBackendBaseURL returns the HTTP base URL of the conversation backend.
func GetBackendBaseURL() string {
	return GetEnvOrDefault("BACKEND_BASE_URL", "http://localhost:8080")
}

// GetBackendSocketURL returns the WebSocket base URL of the conversation
// backend. When unset it is derived from the HTTP base URL.
func GetBackendSocketURL() string {
	value := GetEnvOrDefault("BACKEND_SOCKET_URL", "")
	if value != "" {
		return value
	}
	return httpToSocketURL(GetBackendBaseURL())
}

func httpToSocketURL(base string) string {
	switch {
	case len(base) > 8 && base[:8] == "https://":
		return "wss://" + base[8:]
	case len(base) > 7 && base[:7] == "http://":
		return "ws://" + base[7:]
	default:
		return base
	}
}
