// Package tui provides the terminal renderer for Crossroads.
package tui

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/leonelquinteros/gotext"

	"crossroads/pkg/engine/input"
	"crossroads/pkg/engine/terminal"
	"crossroads/pkg/game/renderer"
	"crossroads/pkg/game/state"
)

// Layout constants
const (
	// MaxTextWidth caps story text lines even on wide terminals; long
	// lines are hard to read.
	MaxTextWidth = 72

	// Lines used outside the story text: title bar, spacing, choices,
	// timer line, notices pane, prompt.
	ChromeRows = 14
)

// dynamicGet is used for runtime translation key lookups.
// We use a function variable to avoid go vet's non-constant format string check,
// since we intentionally look up translation keys dynamically from markup.
var dynamicGet = gotext.Get

// TUIRenderer is the terminal-based renderer implementation
type TUIRenderer struct {
	colorTitle     color.Style
	colorStory     color.Style
	colorChoice    color.Style
	colorChoiceKey color.Style
	colorEnding    color.Style
	colorTimer     color.Style
	colorNotice    color.Style
	colorDenied    color.Style
	colorSubtle    color.Style

	regexpStringFunctions *regexp.Regexp
}

// New creates a new TUI renderer
func New() *TUIRenderer {
	return &TUIRenderer{}
}

// Init initializes the TUI renderer (colors, etc.)
func (t *TUIRenderer) Init() {
	t.colorTitle = color.Style{color.FgCyan, color.OpBold}
	t.colorStory = color.Style{color.FgWhite}
	t.colorChoice = color.Style{color.FgMagenta}
	t.colorChoiceKey = color.Style{color.FgMagenta, color.OpBold}
	t.colorEnding = color.Style{color.FgGreen, color.OpBold}
	t.colorTimer = color.Style{color.FgYellow}
	t.colorNotice = color.Style{color.FgBlue}
	t.colorDenied = color.Style{color.FgRed, color.OpBold}
	t.colorSubtle = color.Style{color.FgGray, color.OpBold}

	t.regexpStringFunctions = regexp.MustCompile(`([a-zA-Z_]*){([^{}]+)}`)
}

// Clear clears the terminal screen
func (t *TUIRenderer) Clear() {
	c := exec.Command("clear")
	c.Stdout = os.Stdout
	c.Run()
}

// Run executes the application body directly; the terminal needs no
// separate event loop.
func (t *TUIRenderer) Run(app func()) error {
	app()
	return nil
}

// GetInput reads one keystroke and returns a high-level Intent.
func (t *TUIRenderer) GetInput() input.Intent {
	return input.GetIntent()
}

// StyleText applies a style to text
func (t *TUIRenderer) StyleText(text string, style renderer.TextStyle) string {
	switch style {
	case renderer.StyleTitle:
		return t.colorTitle.Sprint(text)
	case renderer.StyleStory:
		return t.colorStory.Sprint(text)
	case renderer.StyleChoice:
		return t.colorChoice.Sprint(text)
	case renderer.StyleChoiceKey:
		return t.colorChoiceKey.Sprint(text)
	case renderer.StyleEnding:
		return t.colorEnding.Sprint(text)
	case renderer.StyleTimer:
		return t.colorTimer.Sprint(text)
	case renderer.StyleNotice:
		return t.colorNotice.Sprint(text)
	case renderer.StyleDenied:
		return t.colorDenied.Sprint(text)
	case renderer.StyleSubtle:
		return t.colorSubtle.Sprint(text)
	default:
		return text
	}
}

// FormatText formats a message with special markup: GT{key} translates,
// CHOICE{label} styles a choice label with its first letter emphasized,
// EM{text} emphasizes, TIME{n} styles the countdown.
func (t *TUIRenderer) FormatText(msg string, args ...any) string {
	ret := fmt.Sprintf(msg, args...)

	matches := t.regexpStringFunctions.FindAllStringSubmatch(ret, -1)
	for _, match := range matches {
		function := match[1]
		operand := match[2]

		var val string
		switch function {
		case "GT":
			val = dynamicGet(operand)
		case "CHOICE":
			val = t.colorChoiceKey.Sprint(operand[0:1]) + t.colorChoice.Sprint(operand[1:])
		case "EM":
			val = t.colorEnding.Sprint(operand)
		case "TIME":
			val = t.colorTimer.Sprint(operand)
		default:
			continue
		}

		ret = strings.Replace(ret, match[0], val, -1)
	}

	return ret
}

// ShowNotice prints a transient message below the current frame.
func (t *TUIRenderer) ShowNotice(msg string) {
	fmt.Println(t.colorNotice.Sprint(msg))
}

// GetViewportSize returns the usable text area.
func (t *TUIRenderer) GetViewportSize() (rows, cols int) {
	w, h := terminal.GetSize()
	if w > MaxTextWidth {
		w = MaxTextWidth
	}
	rows = h - ChromeRows
	if rows < 4 {
		rows = 4
	}
	return rows, w
}

// RenderFrame renders a complete frame for the session.
func (t *TUIRenderer) RenderFrame(s *state.Session) {
	t.Clear()

	_, cols := t.GetViewportSize()

	t.printTitleBar(s, cols)
	fmt.Println()

	if s.Node != nil {
		for _, line := range terminal.Wrap(s.Node.Text, cols) {
			fmt.Println(t.colorStory.Sprint(line))
		}
		fmt.Println()
	}

	switch {
	case s.Paused:
		t.printPaused()
	case s.Phase == state.PhaseEnded:
		t.printEnded(s)
	case s.Phase == state.PhaseAwaitingChoice:
		t.printChoices(s)
	}

	t.printNotices(s)
	fmt.Printf("\n> ")
}

// printTitleBar prints the story title and the voice/pause status.
func (t *TUIRenderer) printTitleBar(s *state.Session, cols int) {
	title := t.colorTitle.Sprint(s.Title)

	status := ""
	if s.VoiceEnabled {
		status = t.colorSubtle.Sprintf("voice: %s", s.VoiceState)
	}

	pad := cols - len(s.Title) - len(color.ClearCode(status))
	if pad < 1 {
		pad = 1
	}
	fmt.Printf("%s%*s\n", title, pad, status)
}

func (t *TUIRenderer) printChoices(s *state.Session) {
	for i, c := range s.Choices {
		key := t.colorChoiceKey.Sprintf("%d", i+1)
		fmt.Printf("  %s) %s\n", key, t.colorChoice.Sprint(c.Label))
	}
	fmt.Println()

	remaining := s.Remaining(time.Now())
	if remaining > 0 {
		fmt.Println(t.colorTimer.Sprintf("You have %d seconds to decide.", remaining))
	}
	fmt.Println(t.colorSubtle.Sprint("1-9 choose · p pause · q quit"))
}

func (t *TUIRenderer) printPaused() {
	fmt.Println(t.colorTitle.Sprint("-- PAUSED --"))
	fmt.Println()
}

func (t *TUIRenderer) printEnded(s *state.Session) {
	if s.Outcome == state.OutcomeTimeout {
		fmt.Println(t.colorDenied.Sprint("Time's up. The moment passed without you."))
	} else {
		fmt.Println(t.colorEnding.Sprint("~ THE END ~"))
	}
	fmt.Println()
}

func (t *TUIRenderer) printNotices(s *state.Session) {
	if len(s.Notices) == 0 {
		return
	}
	fmt.Println()
	for _, n := range s.Notices {
		fmt.Printf("%s %s\n", t.colorSubtle.Sprint("·"), t.colorNotice.Sprint(n))
	}
}
