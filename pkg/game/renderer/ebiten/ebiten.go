// Package ebiten provides an Ebiten-based windowed renderer for Crossroads.
// Ebiten owns the main goroutine: Run starts the window loop and executes the
// application body on a separate goroutine, with intents crossing back over
// a channel.
package ebiten

import (
	"fmt"
	"image"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/leonelquinteros/gotext"

	engineinput "crossroads/pkg/engine/input"
	gamemenu "crossroads/pkg/game/menu"
	"crossroads/pkg/game/renderer"
	"crossroads/pkg/game/state"
)

// dynamicGet is used for runtime translation key lookups.
// We use a function variable to avoid go vet's non-constant format string check,
// since we intentionally look up translation keys dynamically from markup.
var dynamicGet = gotext.Get

// noticeEntry is a transient message with its arrival time, for fade-out.
type noticeEntry struct {
	Text      string
	Timestamp int64 // Unix milliseconds when the notice was added
}

// keyRepeatInfo tracks the repeat state for a held key.
type keyRepeatInfo struct {
	firstPressed int64 // Timestamp when first pressed (milliseconds)
	lastRepeat   int64 // Timestamp when the last repeat event was sent (milliseconds)
}

// EbitenRenderer is the windowed renderer implementation.
type EbitenRenderer struct {
	windowWidth  int
	windowHeight int

	// Font sources and cached faces (recreated when the font size changes)
	sansFontSource *text.GoTextFaceSource
	monoFontSource *text.GoTextFaceSource
	fontSize       float64
	cachedBodyFace *text.GoTextFace
	cachedBodySize float64
	cachedMonoFace *text.GoTextFace
	cachedMonoSize float64
	cachedBoldFace *text.GoTextFace
	cachedBoldSize float64

	// Snapshot of the session captured by RenderFrame, read by Draw.
	snapshot      frameSnapshot
	snapshotMutex sync.RWMutex

	// How long the per-node fade-in runs, measured from TransitionStarted.
	fadeDuration time.Duration

	// Intent channel between the Ebiten loop and the application goroutine
	inputChan chan engineinput.Intent

	// Clickable choice button rects, rebuilt every Draw.
	choiceRects     []image.Rectangle
	choiceRectMutex sync.RWMutex

	// Transient notices with timestamps for fade-out
	notices      []noticeEntry
	noticesMutex sync.RWMutex

	// Generic menu overlay state
	menuActive    bool
	menuItems     []gamemenu.MenuItem
	menuSelected  int
	menuHelpText  string
	menuTitle     string
	menuItemRects []image.Rectangle
	menuMutex     sync.RWMutex

	// Key repeat state, keyed by key code
	keyRepeatState      map[string]keyRepeatInfo
	keyRepeatStateMutex sync.Mutex

	// Closed by Run once the application body returns; Update then
	// terminates the window loop.
	done     chan struct{}
	doneOnce sync.Once

	windowOpenedLogged bool

	regexpStringFunctions *regexp.Regexp
}

// New creates a new Ebiten renderer.
func New() *EbitenRenderer {
	return &EbitenRenderer{
		windowWidth:    defaultWindowWidth,
		windowHeight:   defaultWindowHeight,
		fontSize:       baseFontSize,
		fadeDuration:   400 * time.Millisecond,
		inputChan:      make(chan engineinput.Intent, 8),
		keyRepeatState: make(map[string]keyRepeatInfo),
		done:           make(chan struct{}),
	}
}

// SetFadeDuration overrides the per-node fade-in length.
func (e *EbitenRenderer) SetFadeDuration(d time.Duration) {
	if d > 0 {
		e.fadeDuration = d
	}
}

// Init loads fonts and compiles the markup pattern. Window properties are
// set in Run, just before the loop starts.
func (e *EbitenRenderer) Init() {
	if err := e.loadFonts(); err != nil {
		log.Fatalf("could not load fonts: %v", err)
	}
	e.regexpStringFunctions = regexp.MustCompile(`([a-zA-Z_]*){([^{}]+)}`)
}

// Clear is a no-op: Ebiten redraws the whole frame every tick.
func (e *EbitenRenderer) Clear() {}

// Run opens the window and executes the application body on its own
// goroutine. It returns when the body finishes or the window is closed.
func (e *EbitenRenderer) Run(app func()) error {
	ebiten.SetWindowSize(e.windowWidth, e.windowHeight)
	ebiten.SetWindowTitle("Crossroads")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	go func() {
		app()
		e.doneOnce.Do(func() { close(e.done) })
	}()

	return ebiten.RunGame(e)
}

// GetInput blocks until the Ebiten loop produces an intent.
func (e *EbitenRenderer) GetInput() engineinput.Intent {
	select {
	case intent := <-e.inputChan:
		return intent
	case <-e.done:
		return engineinput.Intent{Action: engineinput.ActionQuit}
	}
}

// StyleText returns the text unchanged: the window backend styles at draw
// time, not with inline escape codes.
func (e *EbitenRenderer) StyleText(text string, style renderer.TextStyle) string {
	return text
}

// FormatText resolves the shared markup (GT/CHOICE/EM/TIME) to plain text.
// GT{} keys are translated; the rest keep their operand, since color is
// applied when the frame is drawn.
func (e *EbitenRenderer) FormatText(msg string, args ...any) string {
	ret := fmt.Sprintf(msg, args...)

	matches := e.regexpStringFunctions.FindAllStringSubmatch(ret, -1)
	for _, match := range matches {
		function := match[1]
		operand := match[2]

		var val string
		switch function {
		case "GT":
			val = dynamicGet(operand)
		case "CHOICE", "EM", "TIME":
			val = operand
		default:
			continue
		}

		ret = strings.Replace(ret, match[0], val, -1)
	}

	return ret
}

// ShowNotice adds a transient message that fades out after a few seconds.
func (e *EbitenRenderer) ShowNotice(msg string) {
	e.noticesMutex.Lock()
	defer e.noticesMutex.Unlock()
	e.notices = append(e.notices, noticeEntry{
		Text:      msg,
		Timestamp: time.Now().UnixMilli(),
	})
}

// GetViewportSize returns an approximate text area in rows and columns, for
// callers that size content before the first frame.
func (e *EbitenRenderer) GetViewportSize() (rows, cols int) {
	lineHeight := e.fontSize * lineSpacing
	rows = int((float64(e.windowHeight) - 2*contentMargin) / lineHeight)
	cols = int((float64(e.windowWidth) - 2*contentMargin) / (e.fontSize * 0.55))
	if rows < 4 {
		rows = 4
	}
	if cols < 20 {
		cols = 20
	}
	return rows, cols
}

// RenderFrame captures a consistent snapshot of the session for Draw. The
// session is owned by the controller goroutine; Draw runs on Ebiten's, so the
// copy is the only thing they share.
func (e *EbitenRenderer) RenderFrame(s *state.Session) {
	snap := captureSnapshot(s)

	e.snapshotMutex.Lock()
	e.snapshot = snap
	e.snapshotMutex.Unlock()
}
