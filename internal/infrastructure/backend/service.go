// Package backend wraps the conversation backend: one REST call to open a
// session and one WebSocket per conversation. The backend itself is opaque;
// this is transport plumbing only.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/luminalabs/visage/internal/config"
)

type Service struct {
	Client    *http.Client
	RestURL   string
	SocketURL string
	Headers   http.Header
}

// StartConversationRequest is the JSON body of POST /start-conversation.
type StartConversationRequest struct {
	Prompt  string `json:"prompt"`
	VoiceID string `json:"voiceId"`
}

// StartConversationResponse carries the opaque connection identifier.
type StartConversationResponse struct {
	ConnectionID string `json:"connectionId"`
}

func NewService() *Service {
	s := &Service{
		Client:    &http.Client{},
		RestURL:   config.GetBackendBaseURL(),
		SocketURL: config.GetBackendSocketURL(),
		Headers:   http.Header{},
	}

	log.Info().
		Str("rest_url", s.RestURL).
		Str("socket_url", s.SocketURL).
		Msg("Conversation backend service initialized")

	return s
}

// SetRestURL sets the REST URL for the service
func (s *Service) SetRestURL(url string) *Service {
	s.RestURL = url
	return s
}

// SetSocketURL sets the WebSocket URL for the service
func (s *Service) SetSocketURL(url string) *Service {
	s.SocketURL = url
	return s
}

// StartConversation opens a conversation session and returns the backend's
// connection identifier. A non-2xx response is a start failure.
func (s *Service) StartConversation(ctx context.Context, prompt, voiceID string) (string, error) {
	body, err := json.Marshal(StartConversationRequest{Prompt: prompt, VoiceID: voiceID})
	if err != nil {
		return "", fmt.Errorf("encode start-conversation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.RestURL+"/start-conversation", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build start-conversation request: %w", err)
	}
	req.Header = s.Headers.Clone()
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("start-conversation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("start-conversation returned %d: %s", resp.StatusCode, snippet)
	}

	var out StartConversationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode start-conversation response: %w", err)
	}
	if out.ConnectionID == "" {
		return "", fmt.Errorf("start-conversation response missing connectionId")
	}

	log.Info().Msg("Conversation session started")
	return out.ConnectionID, nil
}

// ConnectSocket dials the conversation socket for an established session.
func (s *Service) ConnectSocket(ctx context.Context, connectionID string) (*websocket.Conn, error) {
	if s.SocketURL == "" {
		return nil, fmt.Errorf("socket URL is required before connecting to the conversation backend")
	}
	if connectionID == "" {
		return nil, fmt.Errorf("connection ID is required before connecting to the conversation backend")
	}

	u, err := url.Parse(s.SocketURL + "/ws")
	if err != nil {
		return nil, fmt.Errorf("parse conversation socket URL: %w", err)
	}
	q := u.Query()
	q.Set("connectionId", connectionID)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), s.Headers)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to conversation socket")
		return nil, err
	}

	log.Info().Msg("Conversation socket connected")
	return conn, nil
}
