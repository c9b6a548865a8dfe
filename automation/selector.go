package automation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yllada/anyconnect-autologin/common"
)

// Selector identifies a control inside a window, written the way AutoIt does:
//
//	[CLASS:Edit; INSTANCE:1]
//	[CLASS:Button; TEXT:Connect; INSTANCE:1]
//	[CLASS:Button; ID:1067; INSTANCE:2]
//
// Instance is 1-based and counts controls matching every other property
// that is set. An ID is treated as the control's key; see Find.
type Selector struct {
	Class    string
	Text     string
	ID       int // 0 means any
	Instance int // 1-based, 0 is treated as 1
	raw      string
}

// ParseSelector parses an AutoIt-style control selector.
func ParseSelector(s string) (Selector, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return Selector{}, fmt.Errorf("%w: %q is not bracketed", common.ErrInvalidSelector, s)
	}
	body := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	if body == "" {
		return Selector{}, fmt.Errorf("%w: %q is empty", common.ErrInvalidSelector, s)
	}

	sel := Selector{raw: trimmed}
	for _, part := range strings.Split(body, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			return Selector{}, fmt.Errorf("%w: %q has no value in %q", common.ErrInvalidSelector, part, s)
		}
		value = strings.TrimSpace(value)

		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "CLASS":
			sel.Class = value
		case "TEXT":
			sel.Text = value
		case "ID":
			id, err := strconv.Atoi(value)
			if err != nil || id <= 0 {
				return Selector{}, fmt.Errorf("%w: bad ID %q in %q", common.ErrInvalidSelector, value, s)
			}
			sel.ID = id
		case "INSTANCE":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return Selector{}, fmt.Errorf("%w: bad INSTANCE %q in %q", common.ErrInvalidSelector, value, s)
			}
			sel.Instance = n
		default:
			return Selector{}, fmt.Errorf("%w: unknown property %q in %q", common.ErrInvalidSelector, key, s)
		}
	}

	if sel.Class == "" && sel.Text == "" && sel.ID == 0 {
		return Selector{}, fmt.Errorf("%w: %q needs CLASS, TEXT or ID", common.ErrInvalidSelector, s)
	}
	return sel, nil
}

// MustParseSelector is like ParseSelector but panics on error.
// Intended for package-level identifier tables.
func MustParseSelector(s string) Selector {
	sel, err := ParseSelector(s)
	if err != nil {
		panic(err)
	}
	return sel
}

// String returns the selector in its bracketed form.
func (s Selector) String() string {
	if s.raw != "" {
		return s.raw
	}
	var parts []string
	if s.Class != "" {
		parts = append(parts, "CLASS:"+s.Class)
	}
	if s.Text != "" {
		parts = append(parts, "TEXT:"+s.Text)
	}
	if s.ID != 0 {
		parts = append(parts, "ID:"+strconv.Itoa(s.ID))
	}
	parts = append(parts, "INSTANCE:"+strconv.Itoa(s.instance()))
	return "[" + strings.Join(parts, "; ") + "]"
}

func (s Selector) instance() int {
	if s.Instance <= 0 {
		return 1
	}
	return s.Instance
}

// Control describes a child control as seen by a backend.
type Control struct {
	Class string
	Text  string
	ID    int
}

// Matches reports whether c satisfies every property of the selector
// except Instance.
func (s Selector) Matches(c Control) bool {
	if s.Class != "" && !strings.EqualFold(s.Class, c.Class) {
		return false
	}
	if s.Text != "" && stripMnemonic(c.Text) != stripMnemonic(s.Text) {
		return false
	}
	if s.ID != 0 && s.ID != c.ID {
		return false
	}
	return true
}

// Find returns the index in controls of the control the selector picks,
// honouring Instance, or -1.
//
// A control ID identifies a single control in a dialog. When fewer than
// Instance controls carry the ID, the first one carrying it is picked; when
// none does, Instance is counted among the controls matching the other
// properties.
func (s Selector) Find(controls []Control) int {
	want := s.instance()
	if s.ID == 0 {
		return s.nth(controls, want, true)
	}

	if i := s.nth(controls, want, true); i >= 0 {
		return i
	}
	if i := s.nth(controls, 1, true); i >= 0 {
		return i
	}
	return s.nth(controls, want, false)
}

// nth returns the index of the n-th control matching the selector, with or
// without comparing the control ID.
func (s Selector) nth(controls []Control, n int, withID bool) int {
	m := s
	if !withID {
		m.ID = 0
	}
	seen := 0
	for i, c := range controls {
		if !m.Matches(c) {
			continue
		}
		seen++
		if seen == n {
			return i
		}
	}
	return -1
}

// stripMnemonic drops the '&' accelerator markers Win32 button captions carry,
// so "&Connect" matches "Connect". "&&" is a literal ampersand.
func stripMnemonic(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '&' {
			if i+1 < len(s) && s[i+1] == '&' {
				b.WriteByte('&')
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
