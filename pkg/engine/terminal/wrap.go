package terminal

import "strings"

// Wrap breaks text into lines no wider than width, preserving paragraph
// breaks (blank lines) from the source text. Words longer than the width
// are emitted on their own line rather than split.
func Wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}

	var lines []string
	for _, para := range strings.Split(strings.TrimSpace(text), "\n\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}

		if len(lines) > 0 {
			lines = append(lines, "")
		}

		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) > width {
				lines = append(lines, line)
				line = w
				continue
			}
			line += " " + w
		}
		lines = append(lines, line)
	}

	return lines
}
