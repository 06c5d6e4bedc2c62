// Package devserver is a development stand-in for the conversation
// backend: it opens sessions over REST and echoes audio over the
// conversation socket so the widget can run end to end without live
// services.
package devserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luminalabs/visage/internal/config"
	"github.com/luminalabs/visage/internal/metrics"
	"github.com/luminalabs/visage/internal/services/session"
	"github.com/luminalabs/visage/pkg/ratelimit"
)

type Server struct {
	sessions    *session.Service
	manager     *connectionManager
	metrics     *metrics.Metrics
	responder   *Responder
	limiter     *ratelimit.Limiter
	statusEvery int
	upgrader    websocket.Upgrader
}

func New(sessions *session.Service, m *metrics.Metrics) *Server {
	return &Server{
		sessions:    sessions,
		manager:     newConnectionManager(DefaultTimeouts),
		metrics:     m,
		responder:   NewResponder(config.GetOpenAIKey()),
		limiter:     ratelimit.NewLimiter(time.Minute, config.GetDevServerRateLimit()),
		statusEvery: config.GetDevServerStatusEvery(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// SetTimeouts overrides the socket keepalive timing. This is primarily
// used for testing.
func (s *Server) SetTimeouts(timeouts TimeoutConfig) *Server {
	s.manager.timeouts = timeouts
	return s
}

// Router builds the dev backend's route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)
	r.HandleFunc("/start-conversation", s.HandleStartConversation).Methods("POST")
	r.HandleFunc("/ws", s.HandleConversationSocket)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The wrapped writer does not implement http.Hijacker, which the
		// websocket upgrade needs.
		if s.metrics == nil || r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.metrics.HTTPRequests.WithLabelValues(r.URL.Path, strconv.Itoa(rec.status)).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
