package devserver

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/luminalabs/visage/pkg/httpext"
)

type startConversationRequest struct {
	Prompt  string `json:"prompt"`
	VoiceID string `json:"voiceId"`
}

type startConversationResponse struct {
	ConnectionID string `json:"connectionId"`
}

// HandleStartConversation opens a conversation session and returns its
// opaque connection identifier.
func (s *Server) HandleStartConversation(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(clientKey(r)) {
		httpext.JsonError(w, "Too many conversation starts", http.StatusTooManyRequests)
		return
	}

	var req startConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpext.JsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.VoiceID == "" {
		httpext.JsonError(w, "voiceId is required", http.StatusBadRequest)
		return
	}

	sess, token, err := s.sessions.Create(r.Context(), req.Prompt, req.VoiceID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create conversation session")
		httpext.JsonError(w, "Failed to start conversation", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("session_id", sess.ID).
		Str("voice_id", sess.VoiceID).
		Msg("Conversation session created")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(startConversationResponse{ConnectionID: token}); err != nil {
		log.Error().Err(err).Msg("Failed to encode start-conversation response")
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
