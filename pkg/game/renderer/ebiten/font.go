package ebiten

import (
	"bytes"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// loadFonts parses the embedded Go fonts into text/v2 face sources.
// The sans face carries story text and UI; the mono face carries the
// countdown digits and key hints.
func (e *EbitenRenderer) loadFonts() error {
	sans, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return fmt.Errorf("parse sans font: %w", err)
	}
	mono, err := text.NewGoTextFaceSource(bytes.NewReader(gomono.TTF))
	if err != nil {
		return fmt.Errorf("parse mono font: %w", err)
	}
	e.sansFontSource = sans
	e.monoFontSource = mono
	return nil
}

// getBodyFontFace returns a cached sans face at the current body size.
func (e *EbitenRenderer) getBodyFontFace() *text.GoTextFace {
	if e.cachedBodyFace == nil || e.cachedBodySize != e.fontSize {
		e.cachedBodySize = e.fontSize
		e.cachedBodyFace = &text.GoTextFace{
			Source: e.sansFontSource,
			Size:   e.fontSize,
		}
	}
	return e.cachedBodyFace
}

// getMonoFontFace returns a cached mono face at the current body size.
func (e *EbitenRenderer) getMonoFontFace() *text.GoTextFace {
	if e.cachedMonoFace == nil || e.cachedMonoSize != e.fontSize {
		e.cachedMonoSize = e.fontSize
		e.cachedMonoFace = &text.GoTextFace{
			Source: e.monoFontSource,
			Size:   e.fontSize,
		}
	}
	return e.cachedMonoFace
}

// getTitleFontFace returns a cached sans face scaled up for titles.
func (e *EbitenRenderer) getTitleFontFace() *text.GoTextFace {
	size := e.fontSize * titleFontSize / baseFontSize
	if e.cachedBoldFace == nil || e.cachedBoldSize != size {
		e.cachedBoldSize = size
		e.cachedBoldFace = &text.GoTextFace{
			Source: e.sansFontSource,
			Size:   size,
		}
	}
	return e.cachedBoldFace
}

// invalidateFontCache clears cached faces (call when the font size changes).
func (e *EbitenRenderer) invalidateFontCache() {
	e.cachedBodyFace = nil
	e.cachedMonoFace = nil
	e.cachedBoldFace = nil
}

// increaseFontSize bumps the font size one step (Ctrl+= / numpad +).
func (e *EbitenRenderer) increaseFontSize() {
	if e.fontSize < maxFontSize {
		e.fontSize += fontSizeStep
		e.invalidateFontCache()
	}
}

// decreaseFontSize drops the font size one step.
func (e *EbitenRenderer) decreaseFontSize() {
	if e.fontSize > minFontSize {
		e.fontSize -= fontSizeStep
		e.invalidateFontCache()
	}
}

// resetFontSize restores the default font size.
func (e *EbitenRenderer) resetFontSize() {
	e.fontSize = baseFontSize
	e.invalidateFontCache()
}
