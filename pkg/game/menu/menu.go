// Package menu provides a generic menu system for the player.
package menu

import (
	"fmt"

	engineinput "crossroads/pkg/engine/input"
	"crossroads/pkg/game/renderer"
	"crossroads/pkg/game/state"
)

// MenuItem represents a single item in a menu.
type MenuItem interface {
	// GetLabel returns the display label for this menu item.
	GetLabel() string
	// IsSelectable returns whether this item can be selected.
	IsSelectable() bool
	// GetHelpText returns optional help text for this item.
	GetHelpText() string
}

// MenuHandler handles menu item selection and activation.
type MenuHandler interface {
	// OnSelect is called when an item is selected (navigated to).
	OnSelect(item MenuItem, index int)

	// OnActivate is called when an item is activated (Enter pressed or
	// its number typed). Returns true if the menu should close, and any
	// help text to display.
	OnActivate(item MenuItem, index int) (shouldClose bool, helpText string)
	// OnExit is called when the menu is exited.
	OnExit()
	// GetTitle returns the menu title.
	GetTitle() string
	// GetInstructions returns the menu instructions.
	GetInstructions(selected MenuItem) string
}

// MenuRenderer is an optional interface for renderers that can draw
// a full-screen menu overlay.
type MenuRenderer interface {
	// RenderMenu draws the menu with the given items, selected index, help text, and title.
	RenderMenu(s *state.Session, items []MenuItem, selected int, helpText string, title string)
	// ClearMenu hides any active menu overlay.
	ClearMenu()
}

// IntentSource supplies the next input intent. Menus share the session's
// single input stream with the display controller, so the caller passes the
// read function in rather than the menu talking to a device itself.
type IntentSource func() engineinput.Intent

// RunMenu runs a generic menu with the given items and handler, consuming
// intents from next until an item closes the menu or the user backs out.
func RunMenu(s *state.Session, items []MenuItem, handler MenuHandler, next IntentSource) {
	selected := 0
	helpText := ""

	// Find first selectable item
	for i, item := range items {
		if item.IsSelectable() {
			selected = i
			break
		}
	}

	closeMenu := func() {
		if mr, ok := renderer.Current.(MenuRenderer); ok {
			mr.ClearMenu()
		}
		handler.OnExit()
	}

	for {
		if mr, ok := renderer.Current.(MenuRenderer); ok {
			mr.RenderMenu(s, items, selected, helpText, handler.GetTitle())
		} else {
			renderMenuFallback(s, items, selected, helpText, handler)
		}

		intent := next()

		switch intent.Action {
		case engineinput.ActionMenuUp:
			if i, ok := prevSelectable(items, selected); ok {
				selected = i
				helpText = ""
				handler.OnSelect(items[selected], selected)
			}

		case engineinput.ActionMenuDown:
			if i, ok := nextSelectable(items, selected); ok {
				selected = i
				helpText = ""
				handler.OnSelect(items[selected], selected)
			}

		case engineinput.ActionChoice:
			// Typing an item's number activates it directly.
			idx := intent.Choice - 1
			if idx >= 0 && idx < len(items) && items[idx].IsSelectable() {
				selected = idx
				handler.OnSelect(items[selected], selected)
				shouldClose, newHelpText := handler.OnActivate(items[selected], selected)
				helpText = newHelpText
				if shouldClose {
					closeMenu()
					return
				}
			}

		case engineinput.ActionConfirm:
			if selected >= 0 && selected < len(items) && items[selected].IsSelectable() {
				shouldClose, newHelpText := handler.OnActivate(items[selected], selected)
				helpText = newHelpText
				if shouldClose {
					closeMenu()
					return
				}
			}

		case engineinput.ActionQuit:
			closeMenu()
			return

		default:
			// Ignore other actions while in a menu
		}
	}
}

// prevSelectable finds the previous selectable item with wrap-around.
func prevSelectable(items []MenuItem, selected int) (int, bool) {
	for i := selected - 1; i >= 0; i-- {
		if items[i].IsSelectable() {
			return i, true
		}
	}
	for i := len(items) - 1; i > selected; i-- {
		if items[i].IsSelectable() {
			return i, true
		}
	}
	return selected, false
}

// nextSelectable finds the next selectable item with wrap-around.
func nextSelectable(items []MenuItem, selected int) (int, bool) {
	for i := selected + 1; i < len(items); i++ {
		if items[i].IsSelectable() {
			return i, true
		}
	}
	for i := 0; i < selected; i++ {
		if items[i].IsSelectable() {
			return i, true
		}
	}
	return selected, false
}

// renderMenuFallback prints the menu inline for renderers without a native
// menu overlay.
func renderMenuFallback(s *state.Session, items []MenuItem, selected int, helpText string, handler MenuHandler) {
	renderer.Clear()
	fmt.Printf("%s\n\n", renderer.StyleText(handler.GetTitle(), renderer.StyleTitle))
	for i, item := range items {
		cursor := "  "
		label := item.GetLabel()
		if i == selected {
			cursor = "> "
			label = renderer.StyleText(label, renderer.StyleChoiceKey)
		} else if !item.IsSelectable() {
			label = renderer.StyleText(label, renderer.StyleSubtle)
		}
		fmt.Printf("%s%d) %s\n", cursor, i+1, label)
	}
	if helpText != "" {
		fmt.Printf("\n%s\n", renderer.StyleText(helpText, renderer.StyleNotice))
	}
	var selectedItem MenuItem
	if selected >= 0 && selected < len(items) {
		selectedItem = items[selected]
	}
	fmt.Printf("\n%s\n", renderer.StyleText(handler.GetInstructions(selectedItem), renderer.StyleSubtle))
}
