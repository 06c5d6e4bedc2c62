package config

// GetWidgetPrompt returns the system prompt sent when starting a conversation.
func GetWidgetPrompt() string {
	return GetEnvOrDefault("WIDGET_PROMPT", "You are a friendly avatar assistant.")
}

// GetWidgetVoiceID returns the synthesis voice requested from the backend.
func GetWidgetVoiceID() string {
	return GetEnvOrDefault("WIDGET_VOICE_ID", "aura-asteria-en")
}
