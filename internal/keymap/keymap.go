// Package keymap translates key labels sent by the browser (KeyboardEvent.key
// values) into device key codes plus a shift requirement.
package keymap

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"remotepad/internal/input"
)

// Mapping is the device-level form of a key label.
type Mapping struct {
	Code  input.KeyCode
	Shift bool
}

func (m Mapping) String() string {
	if m.Shift {
		return "Shift+" + m.Code.String()
	}
	return m.Code.String()
}

// Layout is an immutable label table. Lookups are safe for concurrent use.
type Layout struct {
	name    string
	entries map[string]Mapping
}

// named keys shared by every layout
var namedKeys = map[string]input.KeyCode{
	"Enter":      input.KeyEnter,
	"Backspace":  input.KeyBackspace,
	"Space":      input.KeySpace,
	" ":          input.KeySpace,
	"Tab":        input.KeyTab,
	"Escape":     input.KeyEscape,
	"Delete":     input.KeyDelete,
	"Insert":     input.KeyInsert,
	"Home":       input.KeyHome,
	"End":        input.KeyEnd,
	"PageUp":     input.KeyPageUp,
	"PageDown":   input.KeyPageDown,
	"ArrowLeft":  input.KeyLeft,
	"ArrowUp":    input.KeyUp,
	"ArrowRight": input.KeyRight,
	"ArrowDown":  input.KeyDown,
	"Shift":      input.KeyShift,
	"Control":    input.KeyControl,
	"Alt":        input.KeyAlt,
	"Meta":       input.KeyMeta,
}

// Named resolves a named key such as "Enter" or "Alt".
func Named(name string) (input.KeyCode, bool) {
	code, ok := namedKeys[name]
	return code, ok
}

func newLayout(name string) *Layout {
	l := &Layout{name: name, entries: make(map[string]Mapping, 128)}
	for label, code := range namedKeys {
		l.entries[label] = Mapping{Code: code}
	}
	for c := 'a'; c <= 'z'; c++ {
		code := input.KeyA + input.KeyCode(c-'a')
		l.entries[string(c)] = Mapping{Code: code}
		l.entries[strings.ToUpper(string(c))] = Mapping{Code: code, Shift: true}
	}
	for d := '0'; d <= '9'; d++ {
		l.entries[string(d)] = Mapping{Code: input.Key0 + input.KeyCode(d-'0')}
	}
	return l
}

func (l *Layout) set(label string, code input.KeyCode, shift bool) {
	l.entries[label] = Mapping{Code: code, Shift: shift}
}

// Name returns the layout name.
func (l *Layout) Name() string {
	return l.name
}

// Lookup resolves a label. Unknown labels report ok=false.
func (l *Layout) Lookup(label string) (Mapping, bool) {
	m, ok := l.entries[label]
	return m, ok
}

// Labels returns every label in the table, sorted.
func (l *Layout) Labels() []string {
	labels := make([]string, 0, len(l.entries))
	for label := range l.entries {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// WithOverrides returns a copy of the layout where each label in overrides is
// remapped to the given chord (see ParseChord).
func (l *Layout) WithOverrides(overrides map[string]string) (*Layout, error) {
	out := &Layout{name: l.name, entries: make(map[string]Mapping, len(l.entries)+len(overrides))}
	for label, m := range l.entries {
		out.entries[label] = m
	}
	for label, chord := range overrides {
		if label == "" {
			return nil, eris.New("override with empty label")
		}
		m, err := l.ParseChord(chord)
		if err != nil {
			return nil, eris.Wrapf(err, "override %q", label)
		}
		out.entries[label] = m
	}
	if len(overrides) > 0 {
		out.name = l.name + "+overrides"
	}
	return out, nil
}

// ParseChord parses "[Shift+]<key>" where key is a named key, a single letter
// or digit, or any label already in the layout. "Shift+2" is digit 2 with shift,
// "Alt" is the bare Alt key. A letter names the key that types it on this
// layout, so "z" on de is the key in the y position.
func (l *Layout) ParseChord(chord string) (Mapping, error) {
	chord = strings.TrimSpace(chord)
	shift := false
	if rest, ok := cutPrefixFold(chord, "shift+"); ok {
		shift = true
		chord = strings.TrimSpace(rest)
	}
	if chord == "" {
		return Mapping{}, eris.New("empty chord")
	}
	if code, ok := Named(chord); ok {
		return Mapping{Code: code, Shift: shift}, nil
	}
	if len(chord) == 1 {
		if m, ok := l.Lookup(strings.ToLower(chord)); ok && !m.Shift {
			return Mapping{Code: m.Code, Shift: shift}, nil
		}
		c := chord[0]
		switch {
		case c >= 'a' && c <= 'z':
			return Mapping{Code: input.KeyA + input.KeyCode(c-'a'), Shift: shift}, nil
		case c >= 'A' && c <= 'Z':
			return Mapping{Code: input.KeyA + input.KeyCode(c-'A'), Shift: shift}, nil
		case c >= '0' && c <= '9':
			return Mapping{Code: input.Key0 + input.KeyCode(c-'0'), Shift: shift}, nil
		}
	}
	if m, ok := l.Lookup(chord); ok {
		return Mapping{Code: m.Code, Shift: shift || m.Shift}, nil
	}
	return Mapping{}, eris.Errorf("unknown key %q", chord)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) > len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

// Combo is a modifier held around one key, such as Alt+Enter.
type Combo struct {
	Modifier input.KeyCode
	Key      input.KeyCode
}

func (c Combo) String() string {
	return c.Modifier.String() + "+" + c.Key.String()
}

var modifiers = map[input.KeyCode]bool{
	input.KeyShift:   true,
	input.KeyControl: true,
	input.KeyAlt:     true,
	input.KeyMeta:    true,
}

// ParseCombo parses "<modifier>+<key>". The modifier must be Shift, Control,
// Alt or Meta; the key is anything ParseChord accepts without a shift.
func (l *Layout) ParseCombo(text string) (Combo, error) {
	mod, key, ok := strings.Cut(strings.TrimSpace(text), "+")
	if !ok {
		return Combo{}, eris.Errorf("combo %q: want <modifier>+<key>", text)
	}
	modCode, found := Named(strings.TrimSpace(mod))
	if !found || !modifiers[modCode] {
		return Combo{}, eris.Errorf("combo %q: %q is not a modifier", text, mod)
	}
	m, err := l.ParseChord(key)
	if err != nil {
		return Combo{}, eris.Wrapf(err, "combo %q", text)
	}
	if m.Shift {
		return Combo{}, eris.Errorf("combo %q: key must not need shift", text)
	}
	return Combo{Modifier: modCode, Key: m.Code}, nil
}
