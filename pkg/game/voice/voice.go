// Package voice implements the optional spoken "stop" control. A Monitor
// watches a Recognizer's transcript stream for the pause keyword and emits
// events for the session to act on. Voice is strictly an enhancement: every
// failure degrades to a notice or a silent retry, never to a stuck session.
package voice

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// ListenState is the monitor's externally visible state.
type ListenState int32

const (
	StateIdle ListenState = iota
	StateListening
	StateRestarting
	StateDisconnected
)

// String returns a short label for display in the status line.
func (s ListenState) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateRestarting:
		return "reconnecting"
	case StateDisconnected:
		return "disconnected"
	default:
		return "idle"
	}
}

// Transcript is one recognized utterance, interim or final. The keyword is
// matched against both kinds.
type Transcript struct {
	Text  string
	Final bool
}

// ErrKind categorizes recognizer errors.
type ErrKind int

const (
	ErrUnknown ErrKind = iota
	ErrPermissionDenied
	ErrNoSpeech
	ErrNetwork
)

// Error is a categorized recognizer error.
type Error struct {
	Kind ErrKind
	Err  error
}

func (e Error) Error() string {
	return fmt.Sprintf("recognizer error (kind %d): %v", e.Kind, e.Err)
}

// Recognizer is the capability the platform's speech input must expose.
// Implementations are external to the core: the game ships LineRecognizer
// (transcripts piped from an external speech-to-text process) and the tests
// drive a fake.
type Recognizer interface {
	// RequestPermission asks for microphone access. An Error with
	// ErrPermissionDenied means the user refused.
	RequestPermission() error

	// Start begins a recognition session.
	Start() error

	// Stop ends the current recognition session. Ended still fires.
	Stop()

	// Transcripts delivers interim and final utterances.
	Transcripts() <-chan Transcript

	// Errors delivers categorized recognition errors.
	Errors() <-chan Error

	// Ended delivers one value per ended recognition session, expected or
	// not. Implementations must send values rather than close the channel:
	// the monitor selects on it in a loop, and a closed channel is ready
	// forever.
	Ended() <-chan struct{}
}

// EventKind identifies monitor events.
type EventKind int

const (
	// EventPause fires when the keyword is detected while not paused.
	EventPause EventKind = iota
	// EventNotice carries a transient user-visible message.
	EventNotice
	// EventState reports a listening-state change.
	EventState
)

// Event is emitted by the monitor for the session to handle.
type Event struct {
	Kind   EventKind
	Notice string
	State  ListenState
}

// Config is the monitor's retry and heartbeat policy.
type Config struct {
	// Keyword is matched case-insensitively as a substring of each
	// transcript.
	Keyword string

	// MaxRestarts bounds consecutive automatic restarts after a
	// recognition session ends. Exceeding it disconnects the monitor
	// until Rearm.
	MaxRestarts int

	// RestartBackoff is the fixed wait between automatic restarts.
	RestartBackoff time.Duration

	// HeartbeatInterval is how often the stall check runs.
	HeartbeatInterval time.Duration

	// StallThreshold is how long the monitor tolerates a silent Listening
	// state before forcing a stop/restart cycle.
	StallThreshold time.Duration
}

// ErrNoRecognizer is returned by Start when the monitor has no recognizer.
var ErrNoRecognizer = errors.New("voice: no recognizer available")

// Monitor runs the listening state machine over a Recognizer.
type Monitor struct {
	rec    Recognizer
	cfg    Config
	paused *atomic.Bool

	state   atomic.Int32
	started atomic.Bool

	events chan Event
	rearm  chan struct{}
	stop   chan struct{}
	done   chan struct{}
}

// NewMonitor creates a monitor. paused is the shared pause flag: the monitor
// sets it on detection and ignores the keyword while it is already set. The
// session clears it on resume.
func NewMonitor(rec Recognizer, cfg Config, paused *atomic.Bool) *Monitor {
	if cfg.Keyword == "" {
		cfg.Keyword = "stop"
	}
	if cfg.RestartBackoff <= 0 {
		cfg.RestartBackoff = time.Second
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 5 * time.Second
	}
	if cfg.StallThreshold <= 0 {
		cfg.StallThreshold = 15 * time.Second
	}
	return &Monitor{
		rec:    rec,
		cfg:    cfg,
		paused: paused,
		events: make(chan Event, 16),
		rearm:  make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Events returns the monitor's event stream. Events are dropped rather than
// blocking the monitor when the consumer falls behind.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// State returns the current listening state.
func (m *Monitor) State() ListenState {
	return ListenState(m.state.Load())
}

// Start requests permission and begins listening. The monitor keeps running
// after a permission refusal (in Disconnected) so a later Rearm can retry.
func (m *Monitor) Start() error {
	if m.rec == nil {
		return ErrNoRecognizer
	}

	var startErr error
	if err := m.rec.RequestPermission(); err != nil {
		m.disconnect("Voice control needs microphone access. Press v to try again.")
		startErr = err
	} else if err := m.rec.Start(); err != nil {
		m.disconnect("Voice control could not start. Press v to try again.")
		startErr = err
	} else {
		m.setState(StateListening)
	}

	m.started.Store(true)
	go m.loop()
	return startErr
}

// Stop shuts the monitor down for good.
func (m *Monitor) Stop() {
	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
	if m.started.Load() {
		<-m.done
	}
}

// Rearm reconnects a Disconnected monitor. It must come from an explicit
// user gesture; automatic retries stop once the restart bound is hit.
func (m *Monitor) Rearm() {
	select {
	case m.rearm <- struct{}{}:
	default:
	}
}

func (m *Monitor) setState(s ListenState) {
	if ListenState(m.state.Swap(int32(s))) != s {
		m.emit(Event{Kind: EventState, State: s})
	}
}

func (m *Monitor) disconnect(notice string) {
	m.setState(StateDisconnected)
	m.emit(Event{Kind: EventNotice, Notice: notice})
}

func (m *Monitor) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
	}
}

// matches reports whether text contains the keyword, case-insensitively.
func (m *Monitor) matches(text string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(m.cfg.Keyword))
}

func (m *Monitor) loop() {
	defer close(m.done)

	heartbeat := time.NewTicker(m.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	restarts := 0
	lastActivity := time.Now()

	for {
		select {
		case <-m.stop:
			m.rec.Stop()
			m.setState(StateIdle)
			return

		case t := <-m.rec.Transcripts():
			lastActivity = time.Now()
			restarts = 0
			if m.State() != StateListening {
				continue
			}
			if m.matches(t.Text) && m.paused.CompareAndSwap(false, true) {
				m.emit(Event{Kind: EventPause})
			}

		case e := <-m.rec.Errors():
			lastActivity = time.Now()
			switch e.Kind {
			case ErrPermissionDenied:
				m.rec.Stop()
				m.disconnect("Voice control needs microphone access. Press v to try again.")
			case ErrNoSpeech:
				// Normal silence.
			case ErrNetwork:
				// The recognizer will end its session; the restart path
				// below picks it up.
			default:
				m.emit(Event{Kind: EventNotice, Notice: "Voice control hiccup; still listening."})
			}

		case <-m.rec.Ended():
			if m.State() == StateDisconnected || m.State() == StateIdle {
				continue
			}
			restarts++
			if restarts > m.cfg.MaxRestarts {
				m.disconnect("Voice control gave up reconnecting. Press v to try again.")
				continue
			}
			m.setState(StateRestarting)
			if !m.sleep(m.cfg.RestartBackoff) {
				m.rec.Stop()
				m.setState(StateIdle)
				return
			}
			if err := m.rec.Start(); err != nil {
				m.disconnect("Voice control could not restart. Press v to try again.")
				continue
			}
			lastActivity = time.Now()
			m.setState(StateListening)

		case <-heartbeat.C:
			if m.State() != StateListening || m.paused.Load() {
				continue
			}
			if time.Since(lastActivity) < m.cfg.StallThreshold {
				continue
			}
			// Stalled: force a stop/restart cycle.
			m.rec.Stop()
			if err := m.rec.Start(); err != nil {
				m.disconnect("Voice control stalled and could not restart. Press v to try again.")
				continue
			}
			lastActivity = time.Now()

		case <-m.rearm:
			if m.State() != StateDisconnected {
				continue
			}
			restarts = 0
			if err := m.rec.RequestPermission(); err != nil {
				m.disconnect("Voice control still has no microphone access.")
				continue
			}
			if err := m.rec.Start(); err != nil {
				m.disconnect("Voice control could not reconnect.")
				continue
			}
			lastActivity = time.Now()
			m.setState(StateListening)
			m.emit(Event{Kind: EventNotice, Notice: "Voice control reconnected."})
		}
	}
}

// sleep waits for d unless the monitor is stopped first.
func (m *Monitor) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-m.stop:
		return false
	}
}
