package ebiten

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"crossroads/pkg/game/state"
)

// Draw renders the current snapshot (Ebiten interface).
func (e *EbitenRenderer) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)

	e.snapshotMutex.RLock()
	snap := e.snapshot
	e.snapshotMutex.RUnlock()

	now := time.Now()

	if snap.valid {
		e.drawFrame(screen, &snap, now)
	}

	e.menuMutex.RLock()
	menuActive := e.menuActive
	e.menuMutex.RUnlock()
	if menuActive {
		e.drawMenuOverlay(screen)
	} else if snap.valid && snap.paused {
		e.drawPausedOverlay(screen)
	}

	e.drawTransientNotices(screen, now)
}

// drawFrame draws one full frame of the session: title bar, story text and
// the phase-specific bottom area.
func (e *EbitenRenderer) drawFrame(screen *ebiten.Image, snap *frameSnapshot, now time.Time) {
	e.drawTitleBar(screen, snap)

	alpha := snap.fadeAlpha(now, e.fadeDuration)
	y := e.drawStory(screen, snap, alpha)

	switch {
	case snap.paused:
		// The pause overlay is drawn on top; nothing extra here.
	case snap.phase == state.PhaseEnded:
		e.drawEndedBanner(screen, snap, y)
	default:
		if len(snap.choices) > 0 {
			e.drawChoices(screen, snap, y, alpha)
			e.drawCountdown(screen, snap, now)
		}
	}

	e.drawSessionNotices(screen, snap)
}

// drawTitleBar draws the story title and, when voice is on, its listener
// state right-aligned on the same line.
func (e *EbitenRenderer) drawTitleBar(screen *ebiten.Image, snap *frameSnapshot) {
	titleFace := e.getTitleFontFace()
	e.drawText(screen, snap.title, contentMargin, contentMargin/2, colorTitle, titleFace)

	if snap.voiceEnabled {
		status := fmt.Sprintf("voice: %s", snap.voiceState)
		face := e.getBodyFontFace()
		w := e.textWidth(status, face)
		x := float64(e.windowWidth) - contentMargin - w
		e.drawText(screen, status, x, contentMargin/2+titleFace.Size-face.Size, colorSubtle, face)
	}
}

// drawStory draws the wrapped story text with the node fade-in and returns
// the y position below it.
func (e *EbitenRenderer) drawStory(screen *ebiten.Image, snap *frameSnapshot, alpha float64) float64 {
	face := e.getBodyFontFace()
	lineHeight := face.Size * lineSpacing

	maxWidth := float64(e.windowWidth) - 2*contentMargin
	if maxWidth > maxStoryWidth {
		maxWidth = maxStoryWidth
	}

	y := contentMargin + e.getTitleFontFace().Size*lineSpacing + lineHeight
	col := applyAlpha(colorText, alpha)

	for _, line := range e.wrapToWidth(snap.storyText, face, maxWidth) {
		if line != "" {
			e.drawText(screen, line, contentMargin, y, col, face)
		}
		y += lineHeight
	}

	return y + lineHeight
}

// drawChoices draws the numbered choice buttons and records their rects for
// mouse hit-testing.
func (e *EbitenRenderer) drawChoices(screen *ebiten.Image, snap *frameSnapshot, y, alpha float64) {
	face := e.getBodyFontFace()
	lineHeight := face.Size * lineSpacing
	buttonHeight := lineHeight + 2*choiceButtonPad

	cx, cy := ebiten.CursorPosition()
	cursor := image.Pt(cx, cy)

	rects := make([]image.Rectangle, 0, len(snap.choices))

	for i, label := range snap.choices {
		key := fmt.Sprintf("%d", i+1)
		display := fmt.Sprintf("%s) %s", key, label)
		w := e.textWidth(display, face) + 2*choiceButtonPad

		rect := image.Rect(
			contentMargin,
			int(y),
			contentMargin+int(w),
			int(y+buttonHeight),
		)
		rects = append(rects, rect)

		if cursor.In(rect) {
			vector.DrawFilledRect(screen,
				float32(rect.Min.X), float32(rect.Min.Y),
				float32(rect.Dx()), float32(rect.Dy()),
				colorChoiceHover, false)
		}

		keyW := e.textWidth(key+") ", face)
		e.drawText(screen, key+")", float64(rect.Min.X)+choiceButtonPad, y+choiceButtonPad, applyAlpha(colorChoiceKey, alpha), face)
		e.drawText(screen, label, float64(rect.Min.X)+choiceButtonPad+keyW, y+choiceButtonPad, applyAlpha(colorChoice, alpha), face)

		y += buttonHeight + choiceButtonGap
	}

	e.choiceRectMutex.Lock()
	e.choiceRects = rects
	e.choiceRectMutex.Unlock()

	hint := "1-9 or click to choose · p pause · q quit"
	e.drawText(screen, hint, contentMargin, y+choiceButtonGap, colorSubtle, face)
}

// drawCountdown draws the decision timer as a shrinking bar with the seconds
// remaining, bottom-right.
func (e *EbitenRenderer) drawCountdown(screen *ebiten.Image, snap *frameSnapshot, now time.Time) {
	remaining := snap.remainingSeconds(now)
	if remaining <= 0 || snap.choiceSeconds <= 0 {
		return
	}

	frac := snap.deadline.Sub(now).Seconds() / float64(snap.choiceSeconds)
	if frac > 1 {
		frac = 1
	}

	barColor := colorTimer
	if remaining <= lowTimeSeconds {
		barColor = colorTimerLow
	}

	x := float64(e.windowWidth) - contentMargin - countdownBarWidth
	y := float64(e.windowHeight) - contentMargin

	vector.DrawFilledRect(screen, float32(x), float32(y), countdownBarWidth, countdownBarH, colorBarTrack, false)
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(countdownBarWidth*frac), countdownBarH, barColor, false)

	face := e.getMonoFontFace()
	label := fmt.Sprintf("%ds", remaining)
	e.drawText(screen, label, x-e.textWidth(label, face)-10, y-face.Size/2, barColor, face)
}

// drawEndedBanner draws the ending banner; choices are never shown here.
func (e *EbitenRenderer) drawEndedBanner(screen *ebiten.Image, snap *frameSnapshot, y float64) {
	face := e.getTitleFontFace()
	if snap.outcome == state.OutcomeTimeout {
		e.drawText(screen, "Time's up. The moment passed without you.", contentMargin, y, colorDenied, face)
	} else {
		e.drawText(screen, "~ THE END ~", contentMargin, y, colorEnding, face)
	}
}

// drawPausedOverlay dims the frame and announces the pause.
func (e *EbitenRenderer) drawPausedOverlay(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 0, 0, float32(e.windowWidth), float32(e.windowHeight), colorOverlayShade, false)

	face := e.getTitleFontFace()
	label := "-- PAUSED --"
	x := (float64(e.windowWidth) - e.textWidth(label, face)) / 2
	y := float64(e.windowHeight)/2 - face.Size
	e.drawText(screen, label, x, y, colorTitle, face)
}

// drawSessionNotices draws the session's sticky notices bottom-left.
func (e *EbitenRenderer) drawSessionNotices(screen *ebiten.Image, snap *frameSnapshot) {
	if len(snap.notices) == 0 {
		return
	}
	face := e.getBodyFontFace()
	lineHeight := face.Size * lineSpacing
	y := float64(e.windowHeight) - contentMargin - lineHeight*float64(len(snap.notices))
	for _, n := range snap.notices {
		e.drawText(screen, "· "+n, contentMargin, y, colorNotice, face)
		y += lineHeight
	}
}

// drawTransientNotices draws ShowNotice messages top-right, fading them out
// and dropping expired ones.
func (e *EbitenRenderer) drawTransientNotices(screen *ebiten.Image, now time.Time) {
	nowMillis := now.UnixMilli()

	e.noticesMutex.Lock()
	kept := e.notices[:0]
	for _, n := range e.notices {
		if nowMillis-n.Timestamp < noticeLifetimeMillis {
			kept = append(kept, n)
		}
	}
	e.notices = kept
	entries := make([]noticeEntry, len(kept))
	copy(entries, kept)
	e.noticesMutex.Unlock()

	face := e.getBodyFontFace()
	lineHeight := face.Size * lineSpacing
	y := contentMargin + e.getTitleFontFace().Size*lineSpacing

	for _, n := range entries {
		age := nowMillis - n.Timestamp
		alpha := 1.0
		if fadeStart := int64(noticeLifetimeMillis - noticeFadeMillis); age > fadeStart {
			alpha = 1.0 - float64(age-fadeStart)/float64(noticeFadeMillis)
		}
		w := e.textWidth(n.Text, face)
		x := float64(e.windowWidth) - contentMargin - w
		e.drawText(screen, n.Text, x, y, applyAlpha(colorNotice, alpha), face)
		y += lineHeight
	}
}

// drawText draws a string with top-left origin at (x, y).
func (e *EbitenRenderer) drawText(screen *ebiten.Image, str string, x, y float64, col color.Color, face *text.GoTextFace) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(col)
	text.Draw(screen, str, face, op)
}

// textWidth returns the pixel width of a string in the given face.
func (e *EbitenRenderer) textWidth(str string, face *text.GoTextFace) float64 {
	w, _ := text.Measure(str, face, 0)
	return w
}

// wrapToWidth word-wraps text to a pixel width, keeping paragraph breaks as
// empty lines. Words wider than the limit stay unsplit.
func (e *EbitenRenderer) wrapToWidth(str string, face *text.GoTextFace, maxWidth float64) []string {
	var lines []string

	for pi, para := range strings.Split(str, "\n\n") {
		if pi > 0 {
			lines = append(lines, "")
		}

		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}

		current := words[0]
		for _, word := range words[1:] {
			candidate := current + " " + word
			if e.textWidth(candidate, face) > maxWidth {
				lines = append(lines, current)
				current = word
			} else {
				current = candidate
			}
		}
		lines = append(lines, current)
	}

	return lines
}

// applyAlpha scales a color toward transparent black.
func applyAlpha(c color.Color, alpha float64) color.Color {
	if alpha <= 0 {
		return color.RGBA{}
	}
	if alpha > 1 {
		alpha = 1
	}
	r, g, b, a := c.RGBA()
	return color.RGBA{
		uint8(float64(r>>8) * alpha),
		uint8(float64(g>>8) * alpha),
		uint8(float64(b>>8) * alpha),
		uint8(float64(a>>8) * alpha),
	}
}
