package input

import (
	"sort"
	"time"
)

// Device represents a physical input source.
type Device int

const (
	DeviceUnknown Device = iota
	DeviceKeyboard
	DeviceMouse
	DeviceTerminal
)

// Action represents a high‑level intent in the player.
type Action int

const (
	ActionNone Action = iota

	// ActionChoice selects a numbered choice; Intent.Choice carries the
	// 1-based number.
	ActionChoice

	// Menu navigation
	ActionMenuUp
	ActionMenuDown

	// Meta / UI
	ActionConfirm    // Generic "confirm/activate" (Enter/Space)
	ActionPause      // Pause the session (p/Escape), same effect as voice "stop"
	ActionVoiceRearm // Reconnect voice after it gave up (v)
	ActionQuit
)

// Intent is the 4th‑layer, high‑level description of what the player wants
// to do. Choice is only meaningful when Action is ActionChoice.
type Intent struct {
	Action Action
	Choice int
}

// RawInput is the 1st‑layer event emitted directly from an input device.
// Code is a device‑specific identifier (e.g. "3", "arrow_up", "enter").
type RawInput struct {
	Device    Device
	Code      string
	Timestamp time.Time
}

// DebouncedInput is the 2nd‑layer representation after debouncing.
// Keystroke and click events arrive pre-debounced from the underlying
// libraries (terminal raw mode, Ebiten's just-pressed helpers), but the
// distinct type keeps the layering explicit.
type DebouncedInput struct {
	Device Device
	Code   string
}

// NewDebouncedInput converts a raw event to a debounced event.
func NewDebouncedInput(raw RawInput) DebouncedInput {
	return DebouncedInput{
		Device: raw.Device,
		Code:   raw.Code,
	}
}

// bindings maps raw codes to actions (3rd-layer bindings).
// Choice digits are handled separately in MapToIntent.
var bindings = map[string]Action{
	// Menu navigation (arrows and Vim keys)
	"arrow_up":   ActionMenuUp,
	"k":          ActionMenuUp,
	"arrow_down": ActionMenuDown,
	"j":          ActionMenuDown,

	// Confirm (Enter/Space)
	"enter": ActionConfirm,
	"space": ActionConfirm,

	// Pause
	"p":      ActionPause,
	"escape": ActionPause,

	// Voice reconnect
	"v": ActionVoiceRearm,

	// Quit
	"q":    ActionQuit,
	"quit": ActionQuit,
}

// MapToIntent is the 3rd+4th layer: it applies the current bindings to a
// debounced input and returns a high‑level Intent.
func MapToIntent(ev DebouncedInput) Intent {
	if len(ev.Code) == 1 && ev.Code[0] >= '1' && ev.Code[0] <= '9' {
		return Intent{Action: ActionChoice, Choice: int(ev.Code[0] - '0')}
	}
	if act, ok := bindings[ev.Code]; ok {
		return Intent{Action: act}
	}
	return Intent{Action: ActionNone}
}

// ChoiceIntent builds a choice intent directly, for input paths that already
// know the choice number (mouse clicks on choice buttons).
func ChoiceIntent(n int) Intent {
	return Intent{Action: ActionChoice, Choice: n}
}

// ActionName returns a human-friendly name for an action.
func ActionName(a Action) string {
	switch a {
	case ActionChoice:
		return "Select Choice"
	case ActionMenuUp:
		return "Up"
	case ActionMenuDown:
		return "Down"
	case ActionConfirm:
		return "Confirm"
	case ActionPause:
		return "Pause"
	case ActionVoiceRearm:
		return "Reconnect Voice"
	case ActionQuit:
		return "Quit"
	default:
		return "None"
	}
}

// GetBindingsByAction returns the current bindings grouped by action.
func GetBindingsByAction() map[Action][]string {
	result := make(map[Action][]string)
	for code, act := range bindings {
		result[act] = append(result[act], code)
	}
	// Stable ordering of codes within each action so UI doesn't flicker.
	for act, codes := range result {
		sort.Strings(codes)
		result[act] = codes
	}
	return result
}
