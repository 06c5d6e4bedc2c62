// Package widget wires the capture source, the conversation backend, and
// the rendering SDK together and tracks the session lifecycle.
package widget

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// State is the widget's lifecycle phase. At most one of idle, loading and
// connected is ever presented.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateConnected
	StateErrored
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateConnected:
		return "connected"
	case StateErrored:
		return "errored"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Error kinds surfaced to the user. Everything else collapses into these.
const (
	ErrKindPermission = "permission"
	ErrKindStart      = "start_conversation"
	ErrKindSocket     = "socket"
)

// Status is a presentable snapshot of the widget.
type Status struct {
	State         State  `json:"state"`
	Loading       bool   `json:"loading"`
	AvatarVisible bool   `json:"avatarVisible"`
	Recording     bool   `json:"recording"`
	Err           string `json:"error,omitempty"`
}

type stateMachine struct {
	mu        sync.RWMutex
	state     State
	recording bool
	errMsg    string
}

func newStateMachine() *stateMachine {
	return &stateMachine{state: StateIdle}
}

var validTransitions = map[State][]State{
	StateIdle:      {StateLoading, StateClosed},
	StateLoading:   {StateConnected, StateErrored, StateClosed},
	StateConnected: {StateErrored, StateClosed},
	StateErrored:   {StateClosed},
	StateClosed:    {},
}

func (m *stateMachine) transition(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, allowed := range validTransitions[m.state] {
		if next == allowed {
			log.Debug().
				Str("from", m.state.String()).
				Str("to", next.String()).
				Msg("Widget state changed")
			m.state = next
			if next != StateConnected {
				m.recording = false
			}
			return nil
		}
	}
	return fmt.Errorf("invalid state transition %s -> %s", m.state, next)
}

// fail moves to the errored state and records the user-visible message.
// Failing an already-closed widget is a no-op.
func (m *stateMachine) fail(kind string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateClosed || m.state == StateErrored {
		return
	}

	m.state = StateErrored
	m.recording = false
	m.errMsg = fmt.Sprintf("%s: %v", kind, err)

	log.Error().Err(err).Str("kind", kind).Msg("Widget session failed")
}

func (m *stateMachine) setRecording(recording bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recording = recording && m.state == StateConnected
}

func (m *stateMachine) current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *stateMachine) status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Status{
		State:         m.state,
		Loading:       m.state == StateLoading,
		AvatarVisible: m.state == StateConnected,
		Recording:     m.recording,
		Err:           m.errMsg,
	}
}
