package automation

import (
	"regexp"
	"strings"
)

// MatchMode controls how a window title is compared, mirroring AutoIt's
// WinTitleMatchMode option.
type MatchMode int

const (
	// MatchStart matches titles starting with the pattern.
	MatchStart MatchMode = 1
	// MatchSubstring matches titles containing the pattern.
	MatchSubstring MatchMode = 2
	// MatchExact matches the whole title.
	MatchExact MatchMode = 3
	// MatchRegexp treats the pattern as a regular expression.
	MatchRegexp MatchMode = 4
)

// String returns a human-readable name for the mode.
func (m MatchMode) String() string {
	switch m {
	case MatchStart:
		return "start"
	case MatchSubstring:
		return "substring"
	case MatchExact:
		return "exact"
	case MatchRegexp:
		return "regexp"
	default:
		return "unknown"
	}
}

// Matches reports whether title satisfies pattern under the mode.
// An empty pattern matches any title.
func (m MatchMode) Matches(title, pattern string) bool {
	if pattern == "" {
		return true
	}
	switch m {
	case MatchStart:
		return strings.HasPrefix(title, pattern)
	case MatchSubstring:
		return strings.Contains(title, pattern)
	case MatchRegexp:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(title)
	default:
		return title == pattern
	}
}

// Window names a top-level window by title and, optionally, by text that must
// appear in one of its controls.
type Window struct {
	Title string
	Text  string
}

// String formats the window for logs and error messages.
func (w Window) String() string {
	if w.Text == "" {
		return w.Title
	}
	return w.Title + " (" + w.Text + ")"
}

// MatchesWindow reports whether a window with the given title and control
// texts is the one w names.
func (m MatchMode) MatchesWindow(w Window, title string, controlTexts []string) bool {
	if !m.Matches(title, w.Title) {
		return false
	}
	if w.Text == "" {
		return true
	}
	if strings.Contains(title, w.Text) {
		return true
	}
	for _, text := range controlTexts {
		if strings.Contains(text, w.Text) {
			return true
		}
	}
	return false
}
