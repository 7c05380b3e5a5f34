package input

import "fmt"

// Key codes understood by every injector.
const (
	KeyBackspace KeyCode = 0x08
	KeyTab       KeyCode = 0x09
	KeyEnter     KeyCode = 0x0D
	KeyShift     KeyCode = 0x10
	KeyControl   KeyCode = 0x11
	KeyAlt       KeyCode = 0x12
	KeyEscape    KeyCode = 0x1B
	KeySpace     KeyCode = 0x20
	KeyPageUp    KeyCode = 0x21
	KeyPageDown  KeyCode = 0x22
	KeyEnd       KeyCode = 0x23
	KeyHome      KeyCode = 0x24
	KeyLeft      KeyCode = 0x25
	KeyUp        KeyCode = 0x26
	KeyRight     KeyCode = 0x27
	KeyDown      KeyCode = 0x28
	KeyInsert    KeyCode = 0x2D
	KeyDelete    KeyCode = 0x2E

	Key0 KeyCode = 0x30
	Key1 KeyCode = 0x31
	Key2 KeyCode = 0x32
	Key3 KeyCode = 0x33
	Key4 KeyCode = 0x34
	Key5 KeyCode = 0x35
	Key6 KeyCode = 0x36
	Key7 KeyCode = 0x37
	Key8 KeyCode = 0x38
	Key9 KeyCode = 0x39

	KeyA KeyCode = 0x41
	KeyB KeyCode = 0x42
	KeyC KeyCode = 0x43
	KeyD KeyCode = 0x44
	KeyE KeyCode = 0x45
	KeyF KeyCode = 0x46
	KeyG KeyCode = 0x47
	KeyH KeyCode = 0x48
	KeyI KeyCode = 0x49
	KeyJ KeyCode = 0x4A
	KeyK KeyCode = 0x4B
	KeyL KeyCode = 0x4C
	KeyM KeyCode = 0x4D
	KeyN KeyCode = 0x4E
	KeyO KeyCode = 0x4F
	KeyP KeyCode = 0x50
	KeyQ KeyCode = 0x51
	KeyR KeyCode = 0x52
	KeyS KeyCode = 0x53
	KeyT KeyCode = 0x54
	KeyU KeyCode = 0x55
	KeyV KeyCode = 0x56
	KeyW KeyCode = 0x57
	KeyX KeyCode = 0x58
	KeyY KeyCode = 0x59
	KeyZ KeyCode = 0x5A

	KeyMeta KeyCode = 0x5B

	KeySemicolon     KeyCode = 0xBA
	KeyEqual         KeyCode = 0xBB
	KeyComma         KeyCode = 0xBC
	KeyMinus         KeyCode = 0xBD
	KeyPeriod        KeyCode = 0xBE
	KeySlash         KeyCode = 0xBF
	KeyGrave         KeyCode = 0xC0
	KeyBracketLeft   KeyCode = 0xDB
	KeyBackslash     KeyCode = 0xDC
	KeyBracketRight  KeyCode = 0xDD
	KeyQuote         KeyCode = 0xDE
	KeyIntlBackslash KeyCode = 0xE2
)

var keyNames = map[KeyCode]string{
	KeyBackspace:     "Backspace",
	KeyTab:           "Tab",
	KeyEnter:         "Enter",
	KeyShift:         "Shift",
	KeyControl:       "Control",
	KeyAlt:           "Alt",
	KeyEscape:        "Escape",
	KeySpace:         "Space",
	KeyPageUp:        "PageUp",
	KeyPageDown:      "PageDown",
	KeyEnd:           "End",
	KeyHome:          "Home",
	KeyLeft:          "ArrowLeft",
	KeyUp:            "ArrowUp",
	KeyRight:         "ArrowRight",
	KeyDown:          "ArrowDown",
	KeyInsert:        "Insert",
	KeyDelete:        "Delete",
	KeyMeta:          "Meta",
	KeySemicolon:     "Semicolon",
	KeyEqual:         "Equal",
	KeyComma:         "Comma",
	KeyMinus:         "Minus",
	KeyPeriod:        "Period",
	KeySlash:         "Slash",
	KeyGrave:         "Grave",
	KeyBracketLeft:   "BracketLeft",
	KeyBackslash:     "Backslash",
	KeyBracketRight:  "BracketRight",
	KeyQuote:         "Quote",
	KeyIntlBackslash: "IntlBackslash",
}

// String returns a readable key name, used in logs and the layout listing.
func (k KeyCode) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	if (k >= Key0 && k <= Key9) || (k >= KeyA && k <= KeyZ) {
		return string(rune(k))
	}
	return fmt.Sprintf("0x%02X", uint16(k))
}
