package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// statusMessage is the control envelope sent as text frames.
type statusMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message,omitempty"`
	Bytes     int64  `json:"bytesReceived,omitempty"`
}

// HandleConversationSocket validates the connection token, upgrades, and
// runs the echo agent: binary audio comes straight back, with periodic
// status text and, when the responder is enabled, assistant replies.
func (s *Server) HandleConversationSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("connectionId")
	if token == "" {
		http.Error(w, "Missing connectionId", http.StatusUnauthorized)
		return
	}

	sess, err := s.sessions.Resolve(r.Context(), token)
	if err != nil {
		log.Warn().Err(err).Msg("Rejected conversation socket")
		http.Error(w, "Invalid connectionId", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		log.Warn().Err(err).Msg("Conversation socket upgrade failed")
		return
	}

	s.manager.add(conn, sess.ID)
	if s.metrics != nil {
		s.metrics.ActiveSessions.Inc()
	}
	defer func() {
		s.manager.remove(conn)
		if s.metrics != nil {
			s.metrics.ActiveSessions.Dec()
		}
		conn.Close()
	}()

	log.Info().
		Str("session_id", sess.ID).
		Int("active_connections", s.manager.count()).
		Msg("Conversation socket connected")

	timeouts := s.manager.timeouts
	var writeMu sync.Mutex

	writeJSON := func(msg statusMessage) error {
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(timeouts.WriteWait))
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	// Keepalive ping loop
	conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	})

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(timeouts.PingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				deadline := time.Now().Add(timeouts.WriteWait)
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, deadline); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	if err := writeJSON(statusMessage{Type: "status", SessionID: sess.ID}); err != nil {
		return
	}

	var (
		bytesSeen int64
		frames    int
		replied   bool
	)

	for {
		conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("session_id", sess.ID).Msg("Conversation socket closed unexpectedly")
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			log.Debug().Str("session_id", sess.ID).Str("content", string(message)).Msg("Ignoring text frame from client")
			continue
		}

		bytesSeen += int64(len(message))
		frames++

		writeMu.Lock()
		conn.SetWriteDeadline(time.Now().Add(timeouts.WriteWait))
		err = conn.WriteMessage(websocket.BinaryMessage, message)
		writeMu.Unlock()
		if err != nil {
			break
		}

		if s.statusEvery > 0 && frames%s.statusEvery == 0 {
			if err := writeJSON(statusMessage{Type: "status", SessionID: sess.ID, Bytes: bytesSeen}); err != nil {
				break
			}
		}

		// One assistant reply per conversation, once enough audio arrived.
		if !replied && s.responder.Enabled() && bytesSeen >= replyAfterBytes {
			replied = true
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				reply, err := s.responder.Reply(ctx, sess.Prompt)
				if err != nil {
					log.Error().Err(err).Str("session_id", sess.ID).Msg("Responder failed")
					return
				}
				if err := writeJSON(statusMessage{Type: "assistant", SessionID: sess.ID, Message: reply}); err != nil {
					log.Warn().Err(err).Str("session_id", sess.ID).Msg("Failed to deliver assistant reply")
				}
			}()
		}
	}
}
