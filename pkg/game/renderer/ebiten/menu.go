package ebiten

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	gamemenu "crossroads/pkg/game/menu"
	"crossroads/pkg/game/state"
)

// RenderMenu implements gamemenu.MenuRenderer for Ebiten. It keeps the
// underlying frame snapshot fresh and marks the menu overlay active; the
// actual drawing happens in Draw on the Ebiten goroutine.
func (e *EbitenRenderer) RenderMenu(s *state.Session, items []gamemenu.MenuItem, selected int, helpText string, title string) {
	e.RenderFrame(s)

	e.menuMutex.Lock()
	defer e.menuMutex.Unlock()

	e.menuActive = true
	e.menuSelected = selected
	e.menuHelpText = helpText
	e.menuTitle = title
	e.menuItems = make([]gamemenu.MenuItem, len(items))
	copy(e.menuItems, items)
}

// ClearMenu hides the menu overlay.
func (e *EbitenRenderer) ClearMenu() {
	e.menuMutex.Lock()
	defer e.menuMutex.Unlock()

	e.menuActive = false
	e.menuItems = nil
	e.menuSelected = 0
	e.menuHelpText = ""
	e.menuTitle = ""
	e.menuItemRects = nil
}

// drawMenuOverlay draws the active menu as a centered panel over the dimmed
// frame, and records item rects for mouse hit-testing.
func (e *EbitenRenderer) drawMenuOverlay(screen *ebiten.Image) {
	e.menuMutex.RLock()
	items := e.menuItems
	selected := e.menuSelected
	helpText := e.menuHelpText
	title := e.menuTitle
	e.menuMutex.RUnlock()

	vector.DrawFilledRect(screen, 0, 0, float32(e.windowWidth), float32(e.windowHeight), colorOverlayShade, false)

	titleFace := e.getTitleFontFace()
	face := e.getBodyFontFace()
	lineHeight := face.Size * lineSpacing

	// Panel sized to the widest line
	panelWidth := e.textWidth(title, titleFace)
	for i, item := range items {
		w := e.textWidth(fmt.Sprintf("%d) %s", i+1, item.GetLabel()), face)
		if w > panelWidth {
			panelWidth = w
		}
	}
	if helpText != "" {
		if w := e.textWidth(helpText, face); w > panelWidth {
			panelWidth = w
		}
	}
	panelWidth += 4 * choiceButtonPad

	panelHeight := titleFace.Size*lineSpacing + float64(len(items))*lineHeight + 4*choiceButtonPad
	if helpText != "" {
		panelHeight += lineHeight
	}

	px := (float64(e.windowWidth) - panelWidth) / 2
	py := (float64(e.windowHeight) - panelHeight) / 2

	vector.DrawFilledRect(screen, float32(px), float32(py), float32(panelWidth), float32(panelHeight), colorPanelBackground, false)
	vector.StrokeRect(screen, float32(px), float32(py), float32(panelWidth), float32(panelHeight), 1, colorPanelBorder, false)

	x := px + 2*choiceButtonPad
	y := py + 2*choiceButtonPad

	e.drawText(screen, title, x, y, colorTitle, titleFace)
	y += titleFace.Size * lineSpacing

	rects := make([]image.Rectangle, 0, len(items))
	for i, item := range items {
		label := fmt.Sprintf("%d) %s", i+1, item.GetLabel())
		col := colorText
		if !item.IsSelectable() {
			col = colorSubtle
		}
		if i == selected {
			vector.DrawFilledRect(screen,
				float32(px)+choiceButtonPad, float32(y-2),
				float32(panelWidth)-2*choiceButtonPad, float32(lineHeight),
				colorChoiceHover, false)
			col = colorChoiceKey
		}
		e.drawText(screen, label, x, y, col, face)
		rects = append(rects, image.Rect(int(px), int(y)-2, int(px+panelWidth), int(y+lineHeight)))
		y += lineHeight
	}

	if helpText != "" {
		e.drawText(screen, helpText, x, y, colorSubtle, face)
	}

	e.menuMutex.Lock()
	e.menuItemRects = rects
	e.menuMutex.Unlock()
}
