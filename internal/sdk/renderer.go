package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ReadyPolicy controls how Start waits for the renderer's connection to
// come up. The connection state is not event-driven, so readiness is
// polled: one fixed delay, then fixed-interval probes.
type ReadyPolicy struct {
	Delay    time.Duration
	Interval time.Duration
	Attempts int
}

// DefaultReadyPolicy matches the browser demo's 4s + 1s probe cadence.
var DefaultReadyPolicy = ReadyPolicy{
	Delay:    4 * time.Second,
	Interval: time.Second,
	Attempts: 20,
}

// Renderer is a socket-backed implementation of Client. Audio goes out as
// binary frames; whatever the render service streams back is drained and
// dropped, since display is not this process's concern.
type Renderer struct {
	mu        sync.RWMutex
	SocketURL string
	Headers   http.Header
	policy    ReadyPolicy

	cfg    Config
	conn   *websocket.Conn
	closed bool

	onProbe func()
}

// NewRenderer creates a renderer against the given streaming endpoint.
func NewRenderer(socketURL string) *Renderer {
	return &Renderer{
		SocketURL: socketURL,
		Headers:   http.Header{},
		policy:    DefaultReadyPolicy,
	}
}

// SetReadyPolicy overrides the readiness poll cadence
func (r *Renderer) SetReadyPolicy(policy ReadyPolicy) *Renderer {
	r.policy = policy
	return r
}

// SetProbeHook registers a callback invoked on every readiness probe.
func (r *Renderer) SetProbeHook(hook func()) *Renderer {
	r.onProbe = hook
	return r
}

// Initialize validates and stores the SDK configuration.
func (r *Renderer) Initialize(_ context.Context, cfg Config) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("renderer API key is required")
	}
	if cfg.FaceID == "" {
		return fmt.Errorf("renderer face ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
	r.Headers.Set("Authorization", "token "+cfg.APIKey)

	log.Info().
		Str("face_id", cfg.FaceID).
		Bool("handle_silence", cfg.HandleSilence).
		Msg("Renderer initialized")
	return nil
}

// Start dials the render service in the background and blocks until the
// connection is ready or the poll budget is exhausted.
func (r *Renderer) Start(ctx context.Context) error {
	r.mu.RLock()
	cfg := r.cfg
	r.mu.RUnlock()
	if cfg.APIKey == "" {
		return fmt.Errorf("renderer must be initialized before starting")
	}

	go r.connect(cfg)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(r.policy.Delay):
	}

	for attempt := 0; attempt < r.policy.Attempts; attempt++ {
		if r.onProbe != nil {
			r.onProbe()
		}
		if r.Ready() {
			log.Info().Int("attempts", attempt+1).Msg("Renderer connection ready")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.policy.Interval):
		}
	}

	return fmt.Errorf("renderer not ready after %d attempts", r.policy.Attempts)
}

func (r *Renderer) connect(cfg Config) {
	conn, _, err := websocket.DefaultDialer.Dial(r.SocketURL, r.Headers)
	if err != nil {
		log.Error().Err(err).Str("url", r.SocketURL).Msg("Failed to connect to render service")
		return
	}

	hello, _ := json.Marshal(cfg)
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		log.Error().Err(err).Msg("Failed to send renderer hello")
		conn.Close()
		return
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		conn.Close()
		return
	}
	r.conn = conn
	r.mu.Unlock()

	// Drain the video/audio stream coming back so the connection stays
	// healthy. Rendering output is handled elsewhere.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Ready reports whether the streaming connection is established.
func (r *Renderer) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conn != nil && !r.closed
}

// SendAudioData forwards raw PCM bytes to the render service.
func (r *Renderer) SendAudioData(data []byte) error {
	r.mu.RLock()
	conn := r.conn
	closed := r.closed
	r.mu.RUnlock()

	if closed || conn == nil {
		return fmt.Errorf("renderer connection is not ready")
	}
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

// Close tears down the streaming connection. Safe to call repeatedly.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if r.conn != nil {
		err := r.conn.Close()
		r.conn = nil
		return err
	}
	return nil
}
