// Package menu provides the end-of-session menu using the generic menu system.
package menu

import (
	"crossroads/pkg/game/state"
)

// EndDecision is what the player chose after a session ended.
type EndDecision int

const (
	// EndDecisionRetry restarts the whole session from the first node.
	EndDecisionRetry EndDecision = iota
	// EndDecisionMenu returns to the main menu.
	EndDecisionMenu
)

// endMenuItem is a menu item in the end-of-session menu.
type endMenuItem struct {
	label    string
	decision EndDecision
}

func (e *endMenuItem) GetLabel() string    { return e.label }
func (e *endMenuItem) IsSelectable() bool  { return true }
func (e *endMenuItem) GetHelpText() string { return "" }

// endMenuHandler handles the end-of-session menu.
type endMenuHandler struct {
	title    string
	decision EndDecision
}

func (h *endMenuHandler) GetTitle() string {
	return h.title
}

func (h *endMenuHandler) GetInstructions(selected MenuItem) string {
	return "Up/down to select, Enter to activate"
}

func (h *endMenuHandler) OnSelect(item MenuItem, index int) {}

func (h *endMenuHandler) OnActivate(item MenuItem, index int) (bool, string) {
	if ei, ok := item.(*endMenuItem); ok {
		h.decision = ei.decision
		return true, ""
	}
	return false, ""
}

func (h *endMenuHandler) OnExit() {}

// RunEndMenu shows the retry/return pair after a session ends and returns
// the player's decision. These are the only two options: there is no
// resume-from-node.
func RunEndMenu(s *state.Session, next IntentSource) EndDecision {
	title := "The End"
	if s.Outcome == state.OutcomeTimeout {
		title = "Time's Up"
	}
	handler := &endMenuHandler{title: title, decision: EndDecisionMenu}
	items := []MenuItem{
		&endMenuItem{label: "Retry", decision: EndDecisionRetry},
		&endMenuItem{label: "Return to menu", decision: EndDecisionMenu},
	}
	RunMenu(s, items, handler, next)
	return handler.decision
}
