package state

import (
	"time"

	"crossroads/pkg/game/voice"
	"crossroads/pkg/story"
)

// Phase is where the session currently is in its lifecycle.
type Phase int

const (
	PhaseRendering Phase = iota
	PhaseAwaitingChoice
	PhaseTransitioning
	PhaseEnded
)

// Outcome records how a session ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeEnding
	OutcomeTimeout
)

// Session is the single mutable value describing one play-through. It is
// owned and written by the display controller; renderers read a snapshot of
// it each frame. There are deliberately no ambient globals: everything a
// frame needs is here.
type Session struct {
	Title string

	// Node is the current story node; Choices are its rendered choices
	// (dangling targets already filtered out, empty on endings).
	Node    *story.Node
	Choices []story.Choice

	Phase   Phase
	Outcome Outcome

	// Paused mirrors the shared pause flag for rendering. The
	// authoritative flag lives with the controller and voice monitor.
	Paused bool

	// Deadline is when the running choice countdown expires; zero when no
	// countdown is running. Renderers derive the live remaining time from
	// it.
	Deadline      time.Time
	ChoiceSeconds int

	// TransitionStarted marks the beginning of the fade into the current
	// node, for renderers that animate it.
	TransitionStarted time.Time

	VoiceEnabled bool
	VoiceState   voice.ListenState

	Notices []string
}

// NewSession creates a session positioned before the first node.
func NewSession(title string, choiceSeconds int) *Session {
	return &Session{
		Title:         title,
		ChoiceSeconds: choiceSeconds,
		Notices:       make([]string, 0),
	}
}

// AddNotice appends a transient notice, keeping only the most recent few.
func (s *Session) AddNotice(msg string) {
	const maxNotices = 5
	s.Notices = append(s.Notices, msg)
	if len(s.Notices) > maxNotices {
		s.Notices = s.Notices[len(s.Notices)-maxNotices:]
	}
}

// ClearNotices clears all notices.
func (s *Session) ClearNotices() {
	s.Notices = make([]string, 0)
}

// Remaining returns the whole seconds left on the choice countdown, rounded
// up, or zero when no countdown is running.
func (s *Session) Remaining(now time.Time) int {
	if s.Deadline.IsZero() || !now.Before(s.Deadline) {
		return 0
	}
	d := s.Deadline.Sub(now)
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
