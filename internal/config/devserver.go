package config

// GetDevServerAddr returns the listen address of the development backend.
func GetDevServerAddr() string {
	return GetEnvOrDefault("DEVSERVER_ADDR", ":8080")
}

// GetDevServerStatusEvery returns after how many binary frames the echo
// agent emits a JSON status message.
func GetDevServerStatusEvery() int {
	return parseEnvInt("DEVSERVER_STATUS_EVERY", 50)
}

// GetDevServerRateLimit returns how many conversation starts a client may
// request per minute.
func GetDevServerRateLimit() int {
	return parseEnvInt("DEVSERVER_RATE_LIMIT", 30)
}
