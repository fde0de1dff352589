// Package play runs the display controller: the single loop that owns the
// session, advances the story graph, and arbitrates between player intents,
// the decision countdown and the voice monitor.
package play

import (
	"log"
	"sync/atomic"
	"time"

	engineinput "crossroads/pkg/engine/input"
	"crossroads/pkg/engine/timer"
	"crossroads/pkg/game/config"
	"crossroads/pkg/game/menu"
	"crossroads/pkg/game/renderer"
	"crossroads/pkg/game/state"
	"crossroads/pkg/game/voice"
	"crossroads/pkg/story"
)

// Result is how a play-through handed control back to the caller.
type Result int

const (
	// ResultMenu returns to the main menu.
	ResultMenu Result = iota
	// ResultQuit exits the program.
	ResultQuit
)

// VoiceControl is the slice of the voice monitor the controller needs.
type VoiceControl interface {
	Events() <-chan voice.Event
	State() voice.ListenState
	Rearm()
}

// Controller owns one session. All session mutation happens on the goroutine
// running Run; renderers and the voice monitor communicate through channels
// and the shared pause flag.
type Controller struct {
	graph     *story.Graph
	cfg       config.Config
	sess      *state.Session
	countdown *timer.Countdown
	vc        VoiceControl // nil when voice is off
	intents   <-chan engineinput.Intent
	paused    *atomic.Bool

	// wait blocks for the node transition fade. Tests replace it.
	wait func(time.Duration)
}

// New creates a controller for one or more play-throughs of the graph.
// vc may be nil; intents is the session's single input stream; paused is the
// pause flag shared with the voice monitor.
func New(graph *story.Graph, cfg config.Config, sess *state.Session, countdown *timer.Countdown, vc VoiceControl, intents <-chan engineinput.Intent, paused *atomic.Bool) *Controller {
	return &Controller{
		graph:     graph,
		cfg:       cfg,
		sess:      sess,
		countdown: countdown,
		vc:        vc,
		intents:   intents,
		paused:    paused,
		wait:      func(d time.Duration) { time.Sleep(d) },
	}
}

// Run plays sessions until the player returns to the menu or quits. The
// retry option on the end screen restarts from the first node without
// surfacing here.
func (c *Controller) Run() Result {
	defer c.countdown.Cancel()

	for {
		res, retry := c.playOnce()
		if retry {
			continue
		}
		return res
	}
}

// playOnce runs a single play-through from the start node. The second return
// is true when the player chose to retry.
func (c *Controller) playOnce() (Result, bool) {
	c.sess.Outcome = state.OutcomeNone
	c.sess.ClearNotices()

	// A "stop" heard while a menu owned the input stream can leave the
	// shared flag set with its pause event dropped. A play-through never
	// starts paused; a pending EventPause still pauses normally.
	c.paused.Store(false)
	c.sess.Paused = false

	if ended := c.enterNode(c.graph.Start()); ended {
		return c.endSession()
	}

	for {
		select {
		case intent := <-c.intents:
			if res, done := c.handleIntent(intent); done {
				return res, false
			} else if c.sess.Phase == state.PhaseEnded {
				return c.endSession()
			}

		case e := <-c.countdown.Expired():
			// A queued expiry can lose the race against Cancel; the
			// generation check makes cancellation win.
			if !c.countdown.Valid(e) {
				continue
			}
			if c.paused.Load() || c.sess.Phase != state.PhaseAwaitingChoice {
				continue
			}
			log.Printf("decision timed out at node %s", c.sess.Node.ID)
			c.sess.Outcome = state.OutcomeTimeout
			c.sess.Phase = state.PhaseEnded
			c.sess.Deadline = time.Time{}
			renderer.RenderFrame(c.sess)
			return c.endSession()

		case ev := <-c.voiceEvents():
			if res, done := c.handleVoiceEvent(ev); done {
				return res, false
			}
		}
	}
}

// voiceEvents returns the monitor's event stream, or a nil channel (blocking
// forever in select) when voice is off.
func (c *Controller) voiceEvents() <-chan voice.Event {
	if c.vc == nil {
		return nil
	}
	return c.vc.Events()
}

// handleIntent applies one player intent. done is true when the play-through
// is over and res carries how.
func (c *Controller) handleIntent(intent engineinput.Intent) (res Result, done bool) {
	switch intent.Action {
	case engineinput.ActionChoice:
		c.handleChoice(intent.Choice)

	case engineinput.ActionPause:
		return c.pause()

	case engineinput.ActionVoiceRearm:
		if c.vc != nil {
			c.vc.Rearm()
		}

	case engineinput.ActionQuit:
		c.countdown.Cancel()
		return ResultQuit, true
	}
	return 0, false
}

// handleChoice follows the numbered choice if the session is accepting one.
// Everything out of range or out of phase is a silent no-op.
func (c *Controller) handleChoice(number int) {
	if c.sess.Phase != state.PhaseAwaitingChoice || c.paused.Load() {
		return
	}
	idx := number - 1
	if idx < 0 || idx >= len(c.sess.Choices) {
		return
	}

	next, ok := c.graph.Choose(c.sess.Node, c.sess.Choices[idx].Label)
	if !ok {
		// Dangling edge that survived filtering: drop it silently, the
		// player keeps their remaining time.
		log.Printf("choice %q at node %s has no target", c.sess.Choices[idx].Label, c.sess.Node.ID)
		return
	}

	c.countdown.Cancel()
	c.sess.Phase = state.PhaseTransitioning
	c.sess.Deadline = time.Time{}
	renderer.RenderFrame(c.sess)

	c.enterNode(next)
}

// enterNode makes n the current node, runs the fade, and either arms the
// decision countdown or ends the session on an ending. It returns true when
// the session ended.
func (c *Controller) enterNode(n *story.Node) bool {
	c.countdown.Cancel()

	c.sess.Node = n
	c.sess.Choices = c.graph.RenderedChoices(n)
	c.sess.Phase = state.PhaseRendering
	c.sess.TransitionStarted = time.Now()
	c.sess.Deadline = time.Time{}
	renderer.RenderFrame(c.sess)

	c.wait(c.cfg.Transition())

	// A non-ending node whose choices all dangled is a dead end; treat it
	// as an ending rather than stranding the player with no options.
	if n.Ending || len(c.sess.Choices) == 0 {
		c.sess.Phase = state.PhaseEnded
		c.sess.Outcome = state.OutcomeEnding
		renderer.RenderFrame(c.sess)
		return true
	}

	c.sess.Phase = state.PhaseAwaitingChoice
	c.countdown.Start(c.sess.ChoiceSeconds)
	c.sess.Deadline = c.countdown.Deadline()
	renderer.RenderFrame(c.sess)
	return false
}

// pause freezes the session and shows the pause menu. Cancel always wins: the
// countdown is cancelled before anything else, so an expiry racing the pause
// can never end the session underneath the menu. Resuming starts a fresh
// full-length countdown; remaining time is never carried over.
func (c *Controller) pause() (Result, bool) {
	c.countdown.Cancel()
	c.paused.Store(true)
	c.sess.Paused = true
	c.sess.Deadline = time.Time{}
	renderer.RenderFrame(c.sess)

	decision := menu.RunPauseMenu(c.sess, c.nextIntent)

	c.sess.Paused = false
	c.paused.Store(false)

	if decision == menu.PauseDecisionMenu {
		return ResultMenu, true
	}

	if c.sess.Phase == state.PhaseAwaitingChoice {
		c.countdown.Start(c.sess.ChoiceSeconds)
		c.sess.Deadline = c.countdown.Deadline()
	}
	renderer.RenderFrame(c.sess)
	return 0, false
}

// handleVoiceEvent applies one monitor event.
func (c *Controller) handleVoiceEvent(ev voice.Event) (Result, bool) {
	switch ev.Kind {
	case voice.EventPause:
		// The monitor already set the shared pause flag; run the same
		// pause flow a keypress would.
		return c.pause()

	case voice.EventNotice:
		c.sess.AddNotice(ev.Notice)
		renderer.ShowNotice(ev.Notice)
		renderer.RenderFrame(c.sess)

	case voice.EventState:
		c.sess.VoiceState = ev.State
		renderer.RenderFrame(c.sess)
	}
	return 0, false
}

// endSession shows the retry/return pair and maps the decision.
func (c *Controller) endSession() (Result, bool) {
	decision := menu.RunEndMenu(c.sess, c.nextIntent)
	if decision == menu.EndDecisionRetry {
		return 0, true
	}
	return ResultMenu, false
}

// nextIntent adapts the intent channel to the menu system's IntentSource.
func (c *Controller) nextIntent() engineinput.Intent {
	return <-c.intents
}
