package input

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/term"
)

// readByte reads a single byte from stdin in raw mode
func readByte() (byte, error) {
	buf := make([]byte, 1)
	_, err := os.Stdin.Read(buf)
	return buf[0], err
}

// tryReadArrowKey attempts to read an arrow key escape sequence after a
// leading ESC byte. Returns the arrow direction code if successful, or
// "escape" when the ESC stood alone.
func tryReadArrowKey() string {
	b2, err := readByte()
	if err != nil {
		return "escape"
	}

	// Handle both CSI sequences (ESC [) and SS3 sequences (ESC O)
	if b2 == '[' || b2 == 'O' {
		b3, err := readByte()
		if err != nil {
			return ""
		}

		switch b3 {
		case 'A':
			return "arrow_up"
		case 'B':
			return "arrow_down"
		case 'C':
			return "arrow_right"
		case 'D':
			return "arrow_left"
		}
		// Unknown escape sequence - discard it
		return ""
	}

	return "escape"
}

// GetKey reads a single keystroke from the terminal and returns its raw
// code. The player is driven entirely by single keys (choice digits, p, q,
// Enter, arrows), so there is no line editing: every key returns
// immediately without Enter.
func GetKey() string {
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		log.Fatalf("Cannot set terminal to raw mode: %v", err)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	b, err := readByte()
	if err != nil {
		log.Fatalf("Cannot read stdin: %v", err)
		return ""
	}

	switch {
	case b == 0x1b:
		return tryReadArrowKey()
	case b == 3: // Ctrl+C
		term.Restore(int(os.Stdin.Fd()), oldState)
		fmt.Println()
		os.Exit(0)
	case b == '\n' || b == '\r':
		return "enter"
	case b == ' ':
		return "space"
	case b >= 'A' && b <= 'Z':
		return string(b + 32)
	case b >= 32 && b < 127:
		return string(b)
	}

	return ""
}

// GetIntent reads one keystroke and maps it through the input layers.
func GetIntent() Intent {
	raw := RawInput{
		Device: DeviceTerminal,
		Code:   GetKey(),
	}
	return MapToIntent(NewDebouncedInput(raw))
}
