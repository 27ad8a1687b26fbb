// Package status classifies a Claude Code pane from the text it renders.
//
// Classification is protocol parsing over a bounded tail of captured pane
// content. It is a pure function: no I/O, no state, and no error path.
// Unrecognized content is StatusUnknown.
package status

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/timvw/claude-panes/internal/model"
)

// promptGlyph starts Claude Code's input line.
const promptGlyph = "❯"

// interruptHint is shown in the footer while a request is being processed.
const interruptHint = "ctrl+c to interrupt"

// waitingMarkers appear only while a dialog or confirmation is waiting for
// the user. Any of them decides the status regardless of other content.
var waitingMarkers = []string{
	"[y/n]",
	"[Y/n]",
	"Do you want to proceed?",
	"Enter to select",
}

// minDividerRunes is the shortest run of border characters treated as the
// divider above the input box.
const minDividerRunes = 3

// Classify derives the status from captured pane text. Rules are evaluated in
// order and the first match wins:
//
//  1. a waiting marker anywhere in the text: WaitingInput
//  2. a prompt line directly under a divider, plus the interrupt hint: Working
//  3. a prompt line directly under a divider: Idle
//  4. anything else: Unknown
func Classify(content string) model.Status {
	text := ansi.Strip(content)

	for _, marker := range waitingMarkers {
		if strings.Contains(text, marker) {
			return model.StatusWaitingInput
		}
	}

	if !hasPromptBox(text) {
		return model.StatusUnknown
	}
	if strings.Contains(strings.ToLower(text), interruptHint) {
		return model.StatusWorking
	}
	return model.StatusIdle
}

// hasPromptBox reports whether the bottom-most prompt line is immediately
// preceded by a divider line. Blank lines between them are ignored.
func hasPromptBox(text string) bool {
	lines := nonBlankLines(text)
	for i := len(lines) - 1; i >= 0; i-- {
		if !strings.HasPrefix(lines[i], promptGlyph) {
			continue
		}
		return i > 0 && isDivider(lines[i-1])
	}
	return false
}

// nonBlankLines returns the trimmed, non-blank lines of text.
func nonBlankLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// isDivider reports whether line is a horizontal rule: at least
// minDividerRunes runes, all box-drawing characters or dashes.
func isDivider(line string) bool {
	n := 0
	for _, r := range line {
		switch {
		case r >= 0x2500 && r <= 0x257F: // Box Drawing block
		case r == '-' || r == '=':
		default:
			return false
		}
		n++
	}
	return n >= minDividerRunes
}
