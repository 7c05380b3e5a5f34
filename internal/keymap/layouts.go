package keymap

import (
	"sort"

	"github.com/rotisserie/eris"

	"remotepad/internal/input"
)

// DefaultLayout is used when configuration names no layout.
const DefaultLayout = "us"

var builtin = map[string]func() *Layout{
	"us": usLayout,
	"de": deLayout,
}

// Builtin returns a fresh copy of a built-in layout.
func Builtin(name string) (*Layout, error) {
	if name == "" {
		name = DefaultLayout
	}
	build, ok := builtin[name]
	if !ok {
		return nil, eris.Errorf("unknown keyboard layout %q (available: %v)", name, BuiltinNames())
	}
	return build(), nil
}

// BuiltinNames lists the built-in layouts.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// usLayout is the ANSI US table.
func usLayout() *Layout {
	l := newLayout("us")
	for i, sym := range []string{")", "!", "@", "#", "$", "%", "^", "&", "*", "("} {
		l.set(sym, input.Key0+input.KeyCode(i), true)
	}
	punct := []struct {
		plain, shifted string
		code           input.KeyCode
	}{
		{".", ">", input.KeyPeriod},
		{",", "<", input.KeyComma},
		{"-", "_", input.KeyMinus},
		{"=", "+", input.KeyEqual},
		{"/", "?", input.KeySlash},
		{";", ":", input.KeySemicolon},
		{"'", "\"", input.KeyQuote},
		{"[", "{", input.KeyBracketLeft},
		{"]", "}", input.KeyBracketRight},
		{"\\", "|", input.KeyBackslash},
		{"`", "~", input.KeyGrave},
	}
	for _, p := range punct {
		l.set(p.plain, p.code, false)
		l.set(p.shifted, p.code, true)
	}
	return l
}

// deLayout is the German QWERTZ table for hosts configured with a DE keymap.
// Key codes are positional, so y and z trade places.
func deLayout() *Layout {
	l := newLayout("de")
	l.set("y", input.KeyZ, false)
	l.set("Y", input.KeyZ, true)
	l.set("z", input.KeyY, false)
	l.set("Z", input.KeyY, true)
	for i, sym := range []string{"=", "!", "\"", "§", "$", "%", "&", "/", "(", ")"} {
		l.set(sym, input.Key0+input.KeyCode(i), true)
	}
	punct := []struct {
		plain, shifted string
		code           input.KeyCode
	}{
		{".", ":", input.KeyPeriod},
		{",", ";", input.KeyComma},
		{"-", "_", input.KeySlash},
		{"ß", "?", input.KeyMinus},
		{"#", "'", input.KeyBackslash},
		{"+", "*", input.KeyBracketRight},
		{"<", ">", input.KeyIntlBackslash},
		{"ü", "Ü", input.KeyBracketLeft},
		{"ö", "Ö", input.KeySemicolon},
		{"ä", "Ä", input.KeyQuote},
		{"^", "°", input.KeyGrave},
	}
	for _, p := range punct {
		l.set(p.plain, p.code, false)
		l.set(p.shifted, p.code, true)
	}
	return l
}
