package ebiten

import (
	"image"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	engineinput "crossroads/pkg/engine/input"
)

// digitKeys maps the top-row and numpad digit keys to choice numbers 1-9.
var digitKeys = []struct {
	key    ebiten.Key
	numpad ebiten.Key
	number int
}{
	{ebiten.KeyDigit1, ebiten.KeyNumpad1, 1},
	{ebiten.KeyDigit2, ebiten.KeyNumpad2, 2},
	{ebiten.KeyDigit3, ebiten.KeyNumpad3, 3},
	{ebiten.KeyDigit4, ebiten.KeyNumpad4, 4},
	{ebiten.KeyDigit5, ebiten.KeyNumpad5, 5},
	{ebiten.KeyDigit6, ebiten.KeyNumpad6, 6},
	{ebiten.KeyDigit7, ebiten.KeyNumpad7, 7},
	{ebiten.KeyDigit8, ebiten.KeyNumpad8, 8},
	{ebiten.KeyDigit9, ebiten.KeyNumpad9, 9},
}

// Update handles input each tick (Ebiten interface). Drawing state lives in
// Draw; this side only translates device events into intents and forwards
// them to the application goroutine.
func (e *EbitenRenderer) Update() error {
	// Stop the window loop once the application body has returned.
	select {
	case <-e.done:
		return ebiten.Termination
	default:
	}

	// Log window opening on the first update, once the window actually runs.
	if !e.windowOpenedLogged {
		e.windowOpenedLogged = true
		w, h := ebiten.WindowSize()
		log.Printf("window opened (%dx%d)", w, h)
	}

	// Font size adjustment (Ctrl+= / Ctrl+- / Ctrl+0 and numpad variants)
	e.handleZoom()

	if intent := e.checkMouseInput(); intent.Action != engineinput.ActionNone {
		e.sendIntent(intent)
		return nil
	}

	if intent := e.checkInput(); intent.Action != engineinput.ActionNone {
		e.sendIntent(intent)
	}

	return nil
}

// sendIntent forwards an intent without blocking the Ebiten loop. A full
// channel means the application is busy; dropping the event matches how a
// terminal discards type-ahead the reader never asks for.
func (e *EbitenRenderer) sendIntent(intent engineinput.Intent) {
	select {
	case e.inputChan <- intent:
	default:
	}
}

// handleZoom handles =/- for font size adjustment.
func (e *EbitenRenderer) handleZoom() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd) {
		e.increaseFontSize()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract) {
		e.decreaseFontSize()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit0) || inpututil.IsKeyJustPressed(ebiten.KeyNumpad0) {
		e.resetFontSize()
	}
}

// shouldRepeatKey checks if a held key should trigger (initial press or
// repeat).
func (e *EbitenRenderer) shouldRepeatKey(isPressed func() bool, code string) bool {
	now := time.Now().UnixMilli()

	e.keyRepeatStateMutex.Lock()
	defer e.keyRepeatStateMutex.Unlock()

	pressed := isPressed()
	rs, exists := e.keyRepeatState[code]

	if !pressed {
		if exists {
			delete(e.keyRepeatState, code)
		}
		return false
	}

	if !exists {
		e.keyRepeatState[code] = keyRepeatInfo{firstPressed: now, lastRepeat: now}
		return true
	}

	if now-rs.firstPressed >= keyRepeatInitialDelay && now-rs.lastRepeat >= keyRepeatInterval {
		rs.lastRepeat = now
		e.keyRepeatState[code] = rs
		return true
	}
	return false
}

// checkInput checks for keyboard input and returns the corresponding Intent.
func (e *EbitenRenderer) checkInput() engineinput.Intent {
	// Choice digits (1-9, top row or numpad)
	for _, d := range digitKeys {
		if inpututil.IsKeyJustPressed(d.key) || inpututil.IsKeyJustPressed(d.numpad) {
			return engineinput.ChoiceIntent(d.number)
		}
	}

	// Menu navigation with key repeat (arrows and Vim keys)
	if e.shouldRepeatKey(func() bool { return ebiten.IsKeyPressed(ebiten.KeyArrowUp) }, "key_arrow_up") {
		return engineinput.MapToIntent(engineinput.NewDebouncedInput(engineinput.RawInput{
			Device: engineinput.DeviceKeyboard,
			Code:   "arrow_up",
		}))
	}
	if e.shouldRepeatKey(func() bool { return ebiten.IsKeyPressed(ebiten.KeyArrowDown) }, "key_arrow_down") {
		return engineinput.MapToIntent(engineinput.NewDebouncedInput(engineinput.RawInput{
			Device: engineinput.DeviceKeyboard,
			Code:   "arrow_down",
		}))
	}
	if e.shouldRepeatKey(func() bool { return ebiten.IsKeyPressed(ebiten.KeyK) }, "key_k") {
		return engineinput.MapToIntent(engineinput.NewDebouncedInput(engineinput.RawInput{
			Device: engineinput.DeviceKeyboard,
			Code:   "k",
		}))
	}
	if e.shouldRepeatKey(func() bool { return ebiten.IsKeyPressed(ebiten.KeyJ) }, "key_j") {
		return engineinput.MapToIntent(engineinput.NewDebouncedInput(engineinput.RawInput{
			Device: engineinput.DeviceKeyboard,
			Code:   "j",
		}))
	}

	// Confirm (Enter/Space)
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter) {
		return engineinput.MapToIntent(engineinput.NewDebouncedInput(engineinput.RawInput{
			Device: engineinput.DeviceKeyboard,
			Code:   "enter",
		}))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		return engineinput.MapToIntent(engineinput.NewDebouncedInput(engineinput.RawInput{
			Device: engineinput.DeviceKeyboard,
			Code:   "space",
		}))
	}

	// Pause (p / Escape)
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		return engineinput.MapToIntent(engineinput.NewDebouncedInput(engineinput.RawInput{
			Device: engineinput.DeviceKeyboard,
			Code:   "p",
		}))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return engineinput.MapToIntent(engineinput.NewDebouncedInput(engineinput.RawInput{
			Device: engineinput.DeviceKeyboard,
			Code:   "escape",
		}))
	}

	// Voice reconnect
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		return engineinput.MapToIntent(engineinput.NewDebouncedInput(engineinput.RawInput{
			Device: engineinput.DeviceKeyboard,
			Code:   "v",
		}))
	}

	// Quit
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return engineinput.MapToIntent(engineinput.NewDebouncedInput(engineinput.RawInput{
			Device: engineinput.DeviceKeyboard,
			Code:   "q",
		}))
	}

	return engineinput.Intent{Action: engineinput.ActionNone}
}

// checkMouseInput turns a left click on a choice button or menu item into a
// choice intent. Button rects come from the last Draw, so a click is tested
// against what the player actually saw.
func (e *EbitenRenderer) checkMouseInput() engineinput.Intent {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return engineinput.Intent{Action: engineinput.ActionNone}
	}

	x, y := ebiten.CursorPosition()
	pt := image.Pt(x, y)

	e.menuMutex.RLock()
	menuActive := e.menuActive
	menuRects := e.menuItemRects
	e.menuMutex.RUnlock()

	if menuActive {
		for i, r := range menuRects {
			if pt.In(r) {
				return engineinput.ChoiceIntent(i + 1)
			}
		}
		return engineinput.Intent{Action: engineinput.ActionNone}
	}

	e.choiceRectMutex.RLock()
	defer e.choiceRectMutex.RUnlock()
	for i, r := range e.choiceRects {
		if pt.In(r) {
			return engineinput.ChoiceIntent(i + 1)
		}
	}
	return engineinput.Intent{Action: engineinput.ActionNone}
}

// Layout returns the game's logical screen size (Ebiten interface).
func (e *EbitenRenderer) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != e.windowWidth || outsideHeight != e.windowHeight {
		e.windowWidth = outsideWidth
		e.windowHeight = outsideHeight
	}
	return outsideWidth, outsideHeight
}
