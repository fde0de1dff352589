// Package renderer defines the rendering backend abstraction. The player
// core never touches a screen directly: it describes the session and the
// active backend (terminal or Ebiten window) decides how to show it.
package renderer

import (
	"crossroads/pkg/engine/input"
	"crossroads/pkg/game/state"
)

// TextStyle represents different text styling options
type TextStyle int

const (
	StyleNormal TextStyle = iota
	StyleTitle
	StyleStory
	StyleChoice
	StyleChoiceKey
	StyleEnding
	StyleTimer
	StyleNotice
	StyleDenied
	StyleSubtle
)

// Renderer defines the interface for rendering backends.
type Renderer interface {
	// Init initializes the renderer (colors, fonts, window, etc.)
	Init()

	// Clear clears the display
	Clear()

	// RenderFrame renders a complete frame from the session: story text,
	// choices, countdown, notices and any pause overlay.
	RenderFrame(s *state.Session)

	// GetInput blocks until the user produces a high-level intent.
	GetInput() input.Intent

	// StyleText applies a style to text and returns the styled string.
	// For the TUI this applies ANSI colors; the window backend returns
	// the text unchanged and styles at draw time.
	StyleText(text string, style TextStyle) string

	// FormatText formats a message with the renderer's markup system
	FormatText(msg string, args ...any) string

	// ShowNotice displays a transient message to the user
	ShowNotice(msg string)

	// GetViewportSize returns the usable text area (rows, cols)
	GetViewportSize() (rows, cols int)

	// Run executes the application body. The terminal backend simply
	// calls it; the window backend runs it alongside the Ebiten game
	// loop, which must own the main goroutine.
	Run(app func()) error
}

// Current holds the active renderer instance
var Current Renderer

// SetRenderer sets the active renderer
func SetRenderer(r Renderer) {
	Current = r
}

// Init initializes the current renderer
func Init() {
	if Current != nil {
		Current.Init()
	}
}

// Clear clears the display using the current renderer
func Clear() {
	if Current != nil {
		Current.Clear()
	}
}

// RenderFrame renders a complete frame
func RenderFrame(s *state.Session) {
	if Current != nil {
		Current.RenderFrame(s)
	}
}

// GetInput gets user input from the current renderer
func GetInput() input.Intent {
	if Current != nil {
		return Current.GetInput()
	}
	return input.Intent{}
}

// StyleText applies a style to text
func StyleText(text string, style TextStyle) string {
	if Current != nil {
		return Current.StyleText(text, style)
	}
	return text
}

// FormatText formats a message with markup
func FormatText(msg string, args ...any) string {
	if Current != nil {
		return Current.FormatText(msg, args...)
	}
	return msg
}

// ShowNotice displays a transient message
func ShowNotice(msg string) {
	if Current != nil {
		Current.ShowNotice(msg)
	}
}

// GetViewportSize returns viewport dimensions
func GetViewportSize() (rows, cols int) {
	if Current != nil {
		return Current.GetViewportSize()
	}
	return 24, 80 // sensible defaults
}
