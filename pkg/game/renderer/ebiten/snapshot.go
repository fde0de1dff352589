package ebiten

import (
	"time"

	"crossroads/pkg/game/state"
)

// frameSnapshot is a copy of everything a frame needs from the session.
// Capturing it in RenderFrame keeps the Ebiten draw goroutine from reading
// the session while the controller mutates it.
type frameSnapshot struct {
	valid bool

	title     string
	storyText string
	choices   []string

	phase   state.Phase
	outcome state.Outcome
	paused  bool

	deadline      time.Time
	choiceSeconds int

	transitionStarted time.Time

	voiceEnabled bool
	voiceState   string

	notices []string
}

// captureSnapshot copies the render-relevant session fields.
func captureSnapshot(s *state.Session) frameSnapshot {
	snap := frameSnapshot{
		valid:             true,
		title:             s.Title,
		phase:             s.Phase,
		outcome:           s.Outcome,
		paused:            s.Paused,
		deadline:          s.Deadline,
		choiceSeconds:     s.ChoiceSeconds,
		transitionStarted: s.TransitionStarted,
		voiceEnabled:      s.VoiceEnabled,
		voiceState:        s.VoiceState.String(),
	}

	if s.Node != nil {
		snap.storyText = s.Node.Text
	}

	snap.choices = make([]string, len(s.Choices))
	for i, c := range s.Choices {
		snap.choices[i] = c.Label
	}

	snap.notices = make([]string, len(s.Notices))
	copy(snap.notices, s.Notices)

	return snap
}

// remainingSeconds returns the whole seconds left on the countdown, rounded
// up, or zero when no countdown is running.
func (s *frameSnapshot) remainingSeconds(now time.Time) int {
	if s.deadline.IsZero() || !now.Before(s.deadline) {
		return 0
	}
	d := s.deadline.Sub(now)
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

// fadeAlpha returns the fade-in progress for the current node, 0..1.
func (s *frameSnapshot) fadeAlpha(now time.Time, fade time.Duration) float64 {
	if s.transitionStarted.IsZero() || fade <= 0 {
		return 1.0
	}
	elapsed := now.Sub(s.transitionStarted)
	if elapsed >= fade {
		return 1.0
	}
	if elapsed < 0 {
		return 0
	}
	return float64(elapsed) / float64(fade)
}
