package voice

import (
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeRecognizer is a test double driven directly by the test body.
type fakeRecognizer struct {
	mu         sync.Mutex
	startCalls int
	stopCalls  int
	permErr    error
	startErr   error

	transcripts chan Transcript
	errs        chan Error
	ended       chan struct{}
}

func newFakeRecognizer() *fakeRecognizer {
	return &fakeRecognizer{
		transcripts: make(chan Transcript, 16),
		errs:        make(chan Error, 16),
		ended:       make(chan struct{}),
	}
}

func (f *fakeRecognizer) RequestPermission() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.permErr
}

func (f *fakeRecognizer) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	return f.startErr
}

func (f *fakeRecognizer) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
}

func (f *fakeRecognizer) Transcripts() <-chan Transcript { return f.transcripts }
func (f *fakeRecognizer) Errors() <-chan Error           { return f.errs }
func (f *fakeRecognizer) Ended() <-chan struct{}         { return f.ended }

func (f *fakeRecognizer) starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls
}

func (f *fakeRecognizer) stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}

func (f *fakeRecognizer) endSession() {
	f.ended <- struct{}{}
}

// quietConfig keeps the heartbeat out of the way for tests that don't
// exercise it.
func quietConfig() Config {
	return Config{
		Keyword:           "stop",
		MaxRestarts:       5,
		RestartBackoff:    time.Millisecond,
		HeartbeatInterval: time.Hour,
		StallThreshold:    time.Hour,
	}
}

// startMonitor wires a monitor to a fake recognizer and cleans it up.
func startMonitor(t *testing.T, rec Recognizer, cfg Config, paused *atomic.Bool) *Monitor {
	t.Helper()
	m := NewMonitor(rec, cfg, paused)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(m.Stop)
	return m
}

// waitEvent waits for the next event of the given kind, skipping others.
func waitEvent(t *testing.T, m *Monitor, kind EventKind) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-m.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("no event of kind %d within 2s", kind)
			return Event{}
		}
	}
}

// waitState polls until the monitor reaches the given state.
func waitState(t *testing.T, m *Monitor, want ListenState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("monitor state = %v, want %v", m.State(), want)
}

// expectNoEvent asserts no event of the given kind arrives within a window.
func expectNoEvent(t *testing.T, m *Monitor, kind EventKind, window time.Duration) {
	t.Helper()
	deadline := time.After(window)
	for {
		select {
		case ev := <-m.Events():
			if ev.Kind == kind {
				t.Fatalf("unexpected event of kind %d: %+v", kind, ev)
			}
		case <-deadline:
			return
		}
	}
}

func TestKeywordPausesOnce(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"exact", "stop"},
		{"uppercase", "STOP"},
		{"mixed case substring", "please StOp the story"},
		{"interim transcript", "sto stop"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var paused atomic.Bool
			rec := newFakeRecognizer()
			m := startMonitor(t, rec, quietConfig(), &paused)

			rec.transcripts <- Transcript{Text: tc.text, Final: false}
			waitEvent(t, m, EventPause)
			if !paused.Load() {
				t.Error("paused flag not set after detection")
			}
		})
	}
}

func TestKeywordWhilePausedIsNoOp(t *testing.T) {
	var paused atomic.Bool
	rec := newFakeRecognizer()
	m := startMonitor(t, rec, quietConfig(), &paused)

	rec.transcripts <- Transcript{Text: "stop", Final: true}
	waitEvent(t, m, EventPause)

	// Still paused: a second detection must not emit another pause.
	rec.transcripts <- Transcript{Text: "stop again", Final: true}
	expectNoEvent(t, m, EventPause, 50*time.Millisecond)

	// After resume, detection pauses again.
	paused.Store(false)
	rec.transcripts <- Transcript{Text: "stop", Final: true}
	waitEvent(t, m, EventPause)
}

func TestNonKeywordIgnored(t *testing.T) {
	var paused atomic.Bool
	rec := newFakeRecognizer()
	m := startMonitor(t, rec, quietConfig(), &paused)

	rec.transcripts <- Transcript{Text: "keep going please", Final: true}
	expectNoEvent(t, m, EventPause, 50*time.Millisecond)
	if paused.Load() {
		t.Error("paused flag set without keyword")
	}
}

func TestAutoRestartBounded(t *testing.T) {
	var paused atomic.Bool
	rec := newFakeRecognizer()
	cfg := quietConfig()
	cfg.MaxRestarts = 5
	m := startMonitor(t, rec, cfg, &paused)

	initial := rec.starts()

	// Five ends are retried automatically.
	for i := 0; i < 5; i++ {
		rec.endSession()
		waitState(t, m, StateListening)
	}
	if got := rec.starts(); got != initial+5 {
		t.Errorf("recognizer starts = %d, want %d", got, initial+5)
	}

	// The sixth consecutive end exceeds the bound.
	rec.endSession()
	waitState(t, m, StateDisconnected)
	ev := waitEvent(t, m, EventNotice)
	if !strings.Contains(ev.Notice, "gave up") {
		t.Errorf("disconnect notice = %q", ev.Notice)
	}

	// No further automatic restarts.
	before := rec.starts()
	time.Sleep(20 * time.Millisecond)
	if got := rec.starts(); got != before {
		t.Errorf("recognizer restarted while disconnected: %d -> %d", before, got)
	}
}

func TestActivityResetsRestartBudget(t *testing.T) {
	var paused atomic.Bool
	rec := newFakeRecognizer()
	cfg := quietConfig()
	cfg.MaxRestarts = 2
	m := startMonitor(t, rec, cfg, &paused)

	for round := 0; round < 3; round++ {
		// Burn the whole budget, then show activity.
		for i := 0; i < 2; i++ {
			rec.endSession()
			waitState(t, m, StateListening)
		}
		rec.transcripts <- Transcript{Text: "hello", Final: true}
		// Allow the transcript to be consumed before ending again.
		time.Sleep(5 * time.Millisecond)
	}
	if m.State() != StateListening {
		t.Errorf("state = %v after interleaved activity, want StateListening", m.State())
	}
}

func TestRearmFromDisconnected(t *testing.T) {
	var paused atomic.Bool
	rec := newFakeRecognizer()
	cfg := quietConfig()
	cfg.MaxRestarts = 0 // first end disconnects
	m := startMonitor(t, rec, cfg, &paused)

	rec.endSession()
	waitState(t, m, StateDisconnected)

	m.Rearm()
	waitState(t, m, StateListening)

	// Keyword works again after rearm.
	rec.transcripts <- Transcript{Text: "stop", Final: true}
	waitEvent(t, m, EventPause)
}

func TestPermissionDenied(t *testing.T) {
	var paused atomic.Bool
	rec := newFakeRecognizer()
	rec.permErr = Error{Kind: ErrPermissionDenied, Err: nil}

	m := NewMonitor(rec, quietConfig(), &paused)
	if err := m.Start(); err == nil {
		t.Error("Start with denied permission returned nil error")
	}
	t.Cleanup(m.Stop)

	if m.State() != StateDisconnected {
		t.Errorf("state = %v, want StateDisconnected", m.State())
	}
	ev := waitEvent(t, m, EventNotice)
	if !strings.Contains(ev.Notice, "microphone") {
		t.Errorf("notice = %q, want microphone prompt", ev.Notice)
	}
	if rec.starts() != 0 {
		t.Errorf("recognizer started %d times despite denied permission", rec.starts())
	}
}

func TestNoSpeechIgnored(t *testing.T) {
	var paused atomic.Bool
	rec := newFakeRecognizer()
	m := startMonitor(t, rec, quietConfig(), &paused)

	rec.errs <- Error{Kind: ErrNoSpeech}
	expectNoEvent(t, m, EventNotice, 50*time.Millisecond)
	if m.State() != StateListening {
		t.Errorf("state = %v after no-speech, want StateListening", m.State())
	}
}

func TestHeartbeatRestartsStalledSession(t *testing.T) {
	var paused atomic.Bool
	rec := newFakeRecognizer()
	cfg := quietConfig()
	cfg.HeartbeatInterval = 5 * time.Millisecond
	cfg.StallThreshold = 10 * time.Millisecond
	m := startMonitor(t, rec, cfg, &paused)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rec.stops() > 0 && rec.starts() > 1 {
			return // stall cycle happened
		}
		time.Sleep(time.Millisecond)
	}
	t.Errorf("no stall cycle: stops=%d starts=%d", rec.stops(), rec.starts())
	_ = m
}

func TestHeartbeatSkippedWhilePaused(t *testing.T) {
	var paused atomic.Bool
	paused.Store(true)

	rec := newFakeRecognizer()
	cfg := quietConfig()
	cfg.HeartbeatInterval = 5 * time.Millisecond
	cfg.StallThreshold = 10 * time.Millisecond
	startMonitor(t, rec, cfg, &paused)

	time.Sleep(60 * time.Millisecond)
	if rec.stops() > 0 {
		t.Errorf("stall cycle fired while paused: stops=%d", rec.stops())
	}
}

// countingRecognizer wraps a real recognizer and counts Start calls.
type countingRecognizer struct {
	Recognizer
	startCalls atomic.Int32
}

func (c *countingRecognizer) Start() error {
	c.startCalls.Add(1)
	return c.Recognizer.Start()
}

// TestMonitorOverLineRecognizerEOF drives the monitor with the shipped
// LineRecognizer: the keyword pauses while the pipe is live, and EOF (the
// external speech-to-text process exiting) ends in a quiescent disconnect
// instead of restart churn.
func TestMonitorOverLineRecognizerEOF(t *testing.T) {
	pr, pw := io.Pipe()
	rec := &countingRecognizer{Recognizer: NewLineRecognizer(pr)}

	var paused atomic.Bool
	cfg := quietConfig()
	cfg.MaxRestarts = 2
	m := startMonitor(t, rec, cfg, &paused)

	go pw.Write([]byte("please stop\n"))
	waitEvent(t, m, EventPause)
	if !paused.Load() {
		t.Error("paused flag not set after detection over the pipe")
	}

	// EOF is terminal for a line source: the restart attempt fails and the
	// monitor disconnects instead of re-listening on a dead recognizer.
	pw.Close()
	waitState(t, m, StateDisconnected)

	// Disconnected over an exhausted source must be quiescent.
	before := rec.startCalls.Load()
	time.Sleep(50 * time.Millisecond)
	if got := rec.startCalls.Load(); got != before {
		t.Errorf("recognizer restarted while disconnected: %d -> %d", before, got)
	}

	// Rearm tries exactly once, fails, and stays disconnected.
	m.Rearm()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && rec.startCalls.Load() == before {
		time.Sleep(time.Millisecond)
	}
	if got := rec.startCalls.Load(); got != before+1 {
		t.Errorf("rearm made %d start attempts, want 1", got-before)
	}
	if m.State() != StateDisconnected {
		t.Errorf("state after rearm on exhausted source = %v, want StateDisconnected", m.State())
	}
}

func TestMonitorWithoutRecognizer(t *testing.T) {
	var paused atomic.Bool
	m := NewMonitor(nil, quietConfig(), &paused)
	if err := m.Start(); err != ErrNoRecognizer {
		t.Errorf("Start() = %v, want ErrNoRecognizer", err)
	}
	m.Stop() // must not hang
}
