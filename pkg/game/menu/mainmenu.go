// Package menu provides main menu implementation using the generic menu system.
package menu

import (
	"crossroads/pkg/game/state"
)

// MainMenuAction represents the action type for main menu items.
type MainMenuAction int

const (
	MainMenuActionBegin MainMenuAction = iota
	MainMenuActionReconnectVoice
	MainMenuActionQuit
)

// MainMenuItem represents a menu item in the main menu.
type MainMenuItem struct {
	Label      string
	Action     MainMenuAction
	Selectable bool
}

// GetLabel returns the display label for this menu item.
func (m *MainMenuItem) GetLabel() string {
	return m.Label
}

// IsSelectable returns whether this item can be selected.
func (m *MainMenuItem) IsSelectable() bool {
	return m.Selectable
}

// GetHelpText returns help text for this menu item.
func (m *MainMenuItem) GetHelpText() string {
	switch m.Action {
	case MainMenuActionBegin:
		return "Start the story from the beginning"
	case MainMenuActionReconnectVoice:
		return "Ask for the microphone again and resume listening"
	case MainMenuActionQuit:
		return "Exit the game"
	default:
		return ""
	}
}

// MainMenuHandler handles the main menu.
type MainMenuHandler struct {
	selectedAction MainMenuAction
	title          string
	voiceOffered   bool
}

// NewMainMenuHandler creates a new main menu handler. voiceOffered controls
// whether the reconnect-voice entry appears at all.
func NewMainMenuHandler(title string, voiceOffered bool) *MainMenuHandler {
	return &MainMenuHandler{
		selectedAction: MainMenuActionQuit,
		title:          title,
		voiceOffered:   voiceOffered,
	}
}

// GetTitle returns the menu title.
func (h *MainMenuHandler) GetTitle() string {
	return h.title
}

// GetInstructions returns the menu instructions.
func (h *MainMenuHandler) GetInstructions(selected MenuItem) string {
	if selected != nil {
		if help := selected.GetHelpText(); help != "" {
			return help
		}
	}
	return "Up/down to select, Enter to activate, q to quit"
}

// OnSelect is called when an item is selected.
func (h *MainMenuHandler) OnSelect(item MenuItem, index int) {
	if mainItem, ok := item.(*MainMenuItem); ok {
		h.selectedAction = mainItem.Action
	}
}

// OnActivate is called when an item is activated.
func (h *MainMenuHandler) OnActivate(item MenuItem, index int) (shouldClose bool, helpText string) {
	if mainItem, ok := item.(*MainMenuItem); ok {
		h.selectedAction = mainItem.Action
		return true, ""
	}
	return false, ""
}

// OnExit is called when the menu is exited.
func (h *MainMenuHandler) OnExit() {
	// Nothing to do on exit
}

// GetSelectedAction returns the selected action.
func (h *MainMenuHandler) GetSelectedAction() MainMenuAction {
	return h.selectedAction
}

// GetMenuItems returns the menu items for the main menu.
func (h *MainMenuHandler) GetMenuItems() []MenuItem {
	items := []MenuItem{
		&MainMenuItem{Label: "Begin", Action: MainMenuActionBegin, Selectable: true},
	}
	if h.voiceOffered {
		items = append(items, &MainMenuItem{
			Label:      "Reconnect voice",
			Action:     MainMenuActionReconnectVoice,
			Selectable: true,
		})
	}
	items = append(items, &MainMenuItem{Label: "Quit", Action: MainMenuActionQuit, Selectable: true})
	return items
}

// RunMainMenu runs the main menu and returns the selected action.
func RunMainMenu(s *state.Session, title string, voiceOffered bool, next IntentSource) MainMenuAction {
	handler := NewMainMenuHandler(title, voiceOffered)
	RunMenu(s, handler.GetMenuItems(), handler, next)
	return handler.GetSelectedAction()
}
