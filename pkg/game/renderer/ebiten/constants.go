package ebiten

import "image/color"

// Color palette - soft dark theme so long story text stays readable
var (
	colorBackground      = color.RGBA{26, 26, 46, 255}    // Dark blue-gray
	colorText            = color.RGBA{200, 210, 245, 255} // Soft off-white with blue tint
	colorTitle           = color.RGBA{120, 220, 235, 255} // Cyan, matches the TUI title
	colorSubtle          = color.RGBA{120, 130, 180, 255} // Soft blue-purple-gray
	colorChoice          = color.RGBA{220, 170, 255, 255} // Purple
	colorChoiceKey       = color.RGBA{240, 200, 255, 255} // Brighter purple for the number
	colorChoiceHover     = color.RGBA{60, 60, 100, 255}   // Button background under the cursor
	colorEnding          = color.RGBA{100, 255, 150, 255} // Green
	colorTimer           = color.RGBA{255, 220, 100, 255} // Yellow
	colorTimerLow        = color.RGBA{255, 100, 100, 255} // Red once the countdown runs short
	colorNotice          = color.RGBA{150, 180, 255, 255} // Light blue
	colorDenied          = color.RGBA{255, 100, 100, 255} // Red
	colorPanelBackground = color.RGBA{30, 30, 50, 230}    // Semi-transparent dark panel
	colorPanelBorder     = color.RGBA{180, 150, 250, 255} // Blue-purple border
	colorOverlayShade    = color.RGBA{0, 0, 0, 170}       // Dim layer under pause/menu overlays
	colorBarTrack        = color.RGBA{50, 50, 75, 255}    // Countdown bar background
)

// Layout constants (pixels)
const (
	defaultWindowWidth  = 960
	defaultWindowHeight = 640

	contentMargin = 48
	maxStoryWidth = 760

	lineSpacing       = 1.45 // Line height as a multiple of the font size
	choiceButtonPad   = 10
	choiceButtonGap   = 8
	countdownBarWidth = 320
	countdownBarH     = 8
)

const (
	baseFontSize  = 18.0
	titleFontSize = 24.0
	minFontSize   = 12.0
	maxFontSize   = 36.0
	fontSizeStep  = 2.0
)

// Countdown seconds below which the bar and number switch to the low color.
const lowTimeSeconds = 5

// How long a ShowNotice message stays on screen before fading out.
const (
	noticeLifetimeMillis = 4000
	noticeFadeMillis     = 600
)

const (
	keyRepeatInitialDelay = 400 // Initial delay before the first repeat (milliseconds)
	keyRepeatInterval     = 120 // Interval between repeat events (milliseconds)
)
