package config

// GetOpenAIKey returns the OpenAI key used by the dev backend's responder.
// Empty means the responder is disabled.
func GetOpenAIKey() string {
	return GetEnvOrDefault("OPENAI_KEY", "")
}
