// Package input provides the host input-injection capability: a small
// press/release/click/move-relative vocabulary on top of per-platform injectors.
package input

// KeyCode identifies a physical key. Values follow Windows virtual-key
// numbering; each platform injector translates to its native code space.
type KeyCode uint16

// Button identifies a mouse button.
type Button int

const (
	ButtonLeft   Button = 1
	ButtonRight  Button = 2
	ButtonMiddle Button = 3
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	default:
		return "unknown"
	}
}

// Backend defines the raw injection primitives. The platform Injector and
// LogInjector implement it.
type Backend interface {
	InjectMouseMove(dx, dy int) error
	InjectMouseButton(button Button, pressed bool) error
	InjectKey(code KeyCode, pressed bool) error
	Close() error
}

// Device is the capability the actuation loop drives. A Device is owned by a
// single goroutine and is not safe for concurrent use.
type Device interface {
	// Press holds a key down.
	Press(code KeyCode) error
	// Release lets a held key go.
	Release(code KeyCode) error
	// ClickKey presses and releases a key.
	ClickKey(code KeyCode) error
	// Click presses and releases a mouse button.
	Click(button Button) error
	// MoveRelative moves the pointer by (dx, dy); positive dy is down.
	MoveRelative(dx, dy int) error
	// Close releases the underlying handle.
	Close() error
}

// Opener acquires a fresh Device handle.
type Opener func() (Device, error)
