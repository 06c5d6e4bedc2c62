package widget

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/luminalabs/visage/internal/audio"
	"github.com/luminalabs/visage/internal/infrastructure/backend"
	"github.com/luminalabs/visage/internal/sdk"
)

// fakeSDK records everything the widget pushes into the rendering client.
type fakeSDK struct {
	mu          sync.Mutex
	initialized bool
	started     bool
	closed      int
	frames      [][]byte
}

func (f *fakeSDK) Initialize(_ context.Context, cfg sdk.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initialized = true
	return nil
}

func (f *fakeSDK) Start(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *fakeSDK) SendAudioData(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, append([]byte(nil), data...))
	return nil
}

func (f *fakeSDK) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeSDK) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

// newEchoBackend serves /start-conversation and an echoing /ws endpoint.
func newEchoBackend(t *testing.T) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	r := mux.NewRouter()
	r.HandleFunc("/start-conversation", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"connectionId": "test-conn"})
	}).Methods("POST")
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("connectionId") != "test-conn" {
			http.Error(w, "unknown connection", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"status","sessionId":"test-conn","bytesReceived":0}`))

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if messageType == websocket.BinaryMessage {
				if err := conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
					return
				}
			}
		}
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func testSource(t *testing.T) audio.Source {
	t.Helper()

	samples := make([]float32, 2048)
	for i := range samples {
		samples[i] = 0.3
	}
	data, err := audio.EncodeWAV(samples, 16000)
	if err != nil {
		t.Fatalf("encode test wav: %v", err)
	}

	path := filepath.Join(t.TempDir(), "input.wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write test wav: %v", err)
	}
	return audio.NewFileSource(path, 512).Unpaced()
}

func newTestWidget(t *testing.T, server *httptest.Server, client sdk.Client) *Widget {
	t.Helper()

	svc := backend.NewService().
		SetRestURL(server.URL).
		SetSocketURL("ws" + strings.TrimPrefix(server.URL, "http"))

	return New(Options{
		Source:        testSource(t),
		SDK:           client,
		Backend:       svc,
		SDKConfig:     sdk.Config{APIKey: "key", FaceID: "face"},
		Prompt:        "test prompt",
		VoiceID:       "test-voice",
		GateEnabled:   true,
		GateThreshold: 0.01,
	})
}

func TestWidgetRunRelaysAudio(t *testing.T) {
	server := newEchoBackend(t)
	client := &fakeSDK{}
	w := newTestWidget(t, server, client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(ctx) }()

	// Uplink frames go straight to the SDK sink and the echo server sends
	// them back, so the sink should see both directions.
	deadline := time.After(5 * time.Second)
	for client.frameCount() < 5 {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for SDK frames, got %d", client.frameCount())
		case err := <-runErr:
			t.Fatalf("Run exited early: %v", err)
		case <-time.After(10 * time.Millisecond):
		}
	}

	if got := w.Status(); !got.AvatarVisible {
		t.Errorf("avatar not visible while connected: %+v", got)
	}

	cancel()

	select {
	case err := <-runErr:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	<-w.Done()

	status := w.Status()
	if status.State != StateClosed {
		t.Errorf("final state %s, want closed", status.State)
	}
	if status.Recording {
		t.Error("still recording after teardown")
	}

	client.mu.Lock()
	initialized, started, closed := client.initialized, client.started, client.closed
	client.mu.Unlock()
	if !initialized || !started {
		t.Error("SDK client was not initialized and started")
	}
	if closed == 0 {
		t.Error("SDK client was not closed")
	}
}

// newDownlinkBackend pushes a fixed sequence of binary frames at the
// client after connecting, then holds the socket open.
func newDownlinkBackend(t *testing.T, frames [][]byte) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	r := mux.NewRouter()
	r.HandleFunc("/start-conversation", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"connectionId": "test-conn"})
	}).Methods("POST")
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

// eofSource yields EOF immediately, so every frame reaching the SDK sink
// came down from the backend.
type eofSource struct{}

func (eofSource) Open() error                                  { return nil }
func (eofSource) ReadFrame(context.Context) ([]float32, error) { return nil, io.EOF }
func (eofSource) SampleRate() int                              { return 16000 }
func (eofSource) Close() error                                 { return nil }

func TestWidgetDownlinkLowPass(t *testing.T) {
	samples := make([]float32, 16)
	for i := range samples {
		samples[i] = 0.25
	}
	payload := audio.EncodePCM16(samples)

	// An odd-length frame cannot be PCM16; it must be dropped without
	// ending the session.
	server := newDownlinkBackend(t, [][]byte{{0x7f}, payload})

	svc := backend.NewService().
		SetRestURL(server.URL).
		SetSocketURL("ws" + strings.TrimPrefix(server.URL, "http"))

	client := &fakeSDK{}
	w := New(Options{
		Source:         eofSource{},
		SDK:            client,
		Backend:        svc,
		SDKConfig:      sdk.Config{APIKey: "key", FaceID: "face"},
		LowPassEnabled: true,
		LowPassAlpha:   0.5,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for client.frameCount() < 1 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for downlink frame")
		case err := <-runErr:
			t.Fatalf("Run exited early: %v", err)
		case <-time.After(10 * time.Millisecond):
		}
	}

	decoded, err := audio.DecodePCM16(payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	want := audio.EncodePCM16(audio.NewLowPass(0.5).Apply(decoded))

	client.mu.Lock()
	got := client.frames[0]
	client.mu.Unlock()

	if len(got) != len(want) {
		t.Fatalf("sink frame length %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sink frame byte %d = %#x, want %#x (smoothing not applied)", i, got[i], want[i])
		}
	}

	if status := w.Status(); !status.AvatarVisible {
		t.Errorf("session no longer connected after malformed frame: %+v", status)
	}

	cancel()
	select {
	case err := <-runErr:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestWidgetStartConversationFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no capacity", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := &fakeSDK{}
	w := newTestWidget(t, server, client)

	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected Run to fail")
	}

	status := w.Status()
	if status.Err == "" {
		t.Error("error string empty after failed start-conversation")
	}
	if status.Loading {
		t.Error("loading still true after failed start-conversation")
	}
	if !strings.Contains(status.Err, ErrKindStart) {
		t.Errorf("error %q not attributed to start-conversation", status.Err)
	}
}

func TestWidgetSourceOpenFailure(t *testing.T) {
	server := newEchoBackend(t)

	svc := backend.NewService().
		SetRestURL(server.URL).
		SetSocketURL("ws" + strings.TrimPrefix(server.URL, "http"))

	w := New(Options{
		Source:    audio.NewFileSource(filepath.Join(t.TempDir(), "missing.wav"), 512),
		SDK:       &fakeSDK{},
		Backend:   svc,
		SDKConfig: sdk.Config{APIKey: "key", FaceID: "face"},
	})

	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected Run to fail")
	}

	status := w.Status()
	if !strings.Contains(status.Err, ErrKindPermission) {
		t.Errorf("error %q not attributed to capture permission", status.Err)
	}
}

func TestWidgetStopIdempotent(t *testing.T) {
	server := newEchoBackend(t)
	w := newTestWidget(t, server, &fakeSDK{})

	w.Stop()
	w.Stop()

	select {
	case <-w.Done():
	default:
		t.Error("Done channel not closed after Stop")
	}
}
