package widget

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/luminalabs/visage/internal/audio"
	"github.com/luminalabs/visage/internal/infrastructure/backend"
	"github.com/luminalabs/visage/internal/metrics"
	"github.com/luminalabs/visage/internal/sdk"
)

const writeWait = 10 * time.Second

// Options configures a widget session.
type Options struct {
	Source  audio.Source
	SDK     sdk.Client
	Backend *backend.Service
	Metrics *metrics.Metrics

	SDKConfig sdk.Config
	Prompt    string
	VoiceID   string

	GateEnabled    bool
	GateThreshold  float32
	LowPassEnabled bool
	LowPassAlpha   float32
}

// Widget relays capture-source audio to the conversation backend and
// backend audio into the rendering SDK while tracking lifecycle state.
type Widget struct {
	opts  Options
	state *stateMachine

	conn    *websocket.Conn
	writeMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

func New(opts Options) *Widget {
	return &Widget{
		opts:  opts,
		state: newStateMachine(),
		done:  make(chan struct{}),
	}
}

// Status returns a presentable snapshot of the session.
func (w *Widget) Status() Status {
	return w.state.status()
}

// Done is closed once the session has fully torn down.
func (w *Widget) Done() <-chan struct{} {
	return w.done
}

// Run drives a full session: acquire the capture source, start a backend
// conversation, bring up the SDK, then relay audio both ways until the
// context is cancelled or the socket dies. It always tears down before
// returning.
func (w *Widget) Run(ctx context.Context) error {
	defer w.Stop()

	if err := w.state.transition(StateLoading); err != nil {
		return err
	}
	if w.opts.Metrics != nil {
		w.opts.Metrics.SessionsStarted.Inc()
	}

	if err := w.opts.Source.Open(); err != nil {
		w.failed(ErrKindPermission, err)
		return err
	}

	connectionID, err := w.opts.Backend.StartConversation(ctx, w.opts.Prompt, w.opts.VoiceID)
	if err != nil {
		w.failed(ErrKindStart, err)
		return err
	}

	if err := w.opts.SDK.Initialize(ctx, w.opts.SDKConfig); err != nil {
		w.failed(ErrKindSocket, err)
		return err
	}
	if err := w.opts.SDK.Start(ctx); err != nil {
		w.failed(ErrKindSocket, err)
		return err
	}

	conn, err := w.opts.Backend.ConnectSocket(ctx, connectionID)
	if err != nil {
		w.failed(ErrKindSocket, err)
		return err
	}
	w.conn = conn

	if err := w.state.transition(StateConnected); err != nil {
		return err
	}
	w.state.setRecording(true)
	if w.opts.Metrics != nil {
		w.opts.Metrics.ActiveSessions.Inc()
		defer w.opts.Metrics.ActiveSessions.Dec()
	}

	errChan := make(chan error, 2)
	relayCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go w.uplink(relayCtx, errChan)
	go w.downlink(errChan)

	select {
	case <-ctx.Done():
		w.Stop()
		return ctx.Err()
	case err := <-errChan:
		if err != nil {
			w.failed(ErrKindSocket, err)
			w.Stop()
			return err
		}
		w.Stop()
		return nil
	}
}

// uplink pumps capture frames through the gate and clamp, then into the
// SDK sink and the conversation socket. Source exhaustion is a clean stop
// of recording, not an error.
func (w *Widget) uplink(ctx context.Context, errChan chan<- error) {
	for {
		frame, err := w.opts.Source.ReadFrame(ctx)
		if err == io.EOF {
			log.Info().Msg("Capture source exhausted, recording stopped")
			w.state.setRecording(false)
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			errChan <- err
			return
		}

		if w.opts.GateEnabled {
			before := countZeros(frame)
			audio.NoiseGate(frame, w.opts.GateThreshold)
			if w.opts.Metrics != nil {
				w.opts.Metrics.SamplesGated.Add(float64(countZeros(frame) - before))
			}
		}
		audio.Clamp(frame)

		data := audio.EncodePCM16(frame)
		if w.opts.Metrics != nil {
			w.opts.Metrics.FramesCaptured.Inc()
			w.opts.Metrics.UplinkBytes.Add(float64(len(data)))
		}

		if err := w.opts.SDK.SendAudioData(data); err != nil {
			log.Warn().Err(err).Msg("Dropped frame on SDK sink")
		}

		if err := w.writeBinary(data); err != nil {
			if ctx.Err() != nil {
				return
			}
			errChan <- err
			return
		}
	}
}

// downlink relays backend audio into the SDK sink, optionally smoothed,
// and logs control text.
func (w *Widget) downlink(errChan chan<- error) {
	var filter *audio.LowPass
	if w.opts.LowPassEnabled {
		filter = audio.NewLowPass(w.opts.LowPassAlpha)
	}

	for {
		messageType, message, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				errChan <- nil
				return
			}
			errChan <- err
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			if w.opts.Metrics != nil {
				w.opts.Metrics.DownlinkBytes.Add(float64(len(message)))
			}

			data := message
			if filter != nil {
				samples, err := audio.DecodePCM16(message)
				if err != nil {
					log.Warn().Err(err).Msg("Dropped malformed downlink frame")
					continue
				}
				data = audio.EncodePCM16(filter.Apply(samples))
			}

			if err := w.opts.SDK.SendAudioData(data); err != nil {
				log.Warn().Err(err).Msg("Dropped downlink frame on SDK sink")
			}

		case websocket.TextMessage:
			if w.opts.Metrics != nil {
				w.opts.Metrics.ControlMessages.Inc()
			}
			msg, err := parseControlMessage(message)
			if err != nil {
				log.Warn().Err(err).Msg("Unparseable control message")
				continue
			}
			log.Info().
				Str("type", msg.Type).
				Str("session_id", msg.SessionID).
				Str("message", msg.Message).
				Int64("bytes_received", msg.Bytes).
				Msg("Backend control message")
		}
	}
}

func (w *Widget) writeBinary(data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (w *Widget) failed(kind string, err error) {
	w.state.fail(kind, err)
	if w.opts.Metrics != nil {
		w.opts.Metrics.SessionErrors.WithLabelValues(kind).Inc()
	}
}

// Stop releases the capture source, the socket and the SDK client. It is
// idempotent and best-effort: in-flight sends may still race with close.
func (w *Widget) Stop() {
	w.closeOnce.Do(func() {
		w.opts.Source.Close()

		if w.conn != nil {
			w.writeMu.Lock()
			w.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			w.writeMu.Unlock()
			w.conn.Close()
		}

		if err := w.opts.SDK.Close(); err != nil {
			log.Warn().Err(err).Msg("SDK close failed")
		}

		w.state.transition(StateClosed)
		close(w.done)

		log.Info().Msg("Widget session torn down")
	})
}

func countZeros(frame []float32) int {
	n := 0
	for _, s := range frame {
		if s == 0 {
			n++
		}
	}
	return n
}
