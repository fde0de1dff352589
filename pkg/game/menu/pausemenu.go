// Package menu provides the pause overlay using the generic menu system.
package menu

import (
	"crossroads/pkg/game/state"
)

// PauseDecision is what the player chose to do about a paused session.
type PauseDecision int

const (
	// PauseDecisionResume restarts the choice countdown from the full
	// configured duration. Remaining time is never carried across a
	// pause.
	PauseDecisionResume PauseDecision = iota
	// PauseDecisionMenu abandons the session and returns to the main menu.
	PauseDecisionMenu
)

// pauseMenuItem is a menu item in the pause overlay.
type pauseMenuItem struct {
	label    string
	decision PauseDecision
}

func (p *pauseMenuItem) GetLabel() string    { return p.label }
func (p *pauseMenuItem) IsSelectable() bool  { return true }
func (p *pauseMenuItem) GetHelpText() string { return "" }

// pauseMenuHandler handles the pause overlay.
type pauseMenuHandler struct {
	decision PauseDecision
}

func (h *pauseMenuHandler) GetTitle() string {
	return "Paused"
}

func (h *pauseMenuHandler) GetInstructions(selected MenuItem) string {
	return "Up/down to select, Enter to activate"
}

func (h *pauseMenuHandler) OnSelect(item MenuItem, index int) {}

func (h *pauseMenuHandler) OnActivate(item MenuItem, index int) (bool, string) {
	if pi, ok := item.(*pauseMenuItem); ok {
		h.decision = pi.decision
		return true, ""
	}
	return false, ""
}

func (h *pauseMenuHandler) OnExit() {}

// RunPauseMenu overlays the pause menu and returns the player's decision.
// Backing out (q) resumes, so a stray quit press never loses the session.
func RunPauseMenu(s *state.Session, next IntentSource) PauseDecision {
	handler := &pauseMenuHandler{decision: PauseDecisionResume}
	items := []MenuItem{
		&pauseMenuItem{label: "Resume", decision: PauseDecisionResume},
		&pauseMenuItem{label: "Return to menu", decision: PauseDecisionMenu},
	}
	RunMenu(s, items, handler, next)
	return handler.decision
}
