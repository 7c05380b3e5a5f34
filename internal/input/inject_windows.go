//go:build windows

package input

import (
	"syscall"
	"unsafe"

	"github.com/rotisserie/eris"
	"golang.org/x/sys/windows"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseeventfMove       = 0x0001
	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040

	keyeventfExtendedKey = 0x0001
	keyeventfKeyUp       = 0x0002
)

type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type keybdInput struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// mouseInputRecord and keybdInputRecord are the two arms of the INPUT union.
// keybdInputRecord is padded to the size of the larger mouse arm.
type mouseInputRecord struct {
	Type uint32
	Mi   mouseInput
}

type keybdInputRecord struct {
	Type uint32
	Ki   keybdInput
	_    [8]byte
}

// keys that need KEYEVENTF_EXTENDEDKEY to reach the navigation cluster
var extendedKeys = map[KeyCode]bool{
	KeyPageUp: true, KeyPageDown: true, KeyEnd: true, KeyHome: true,
	KeyLeft: true, KeyUp: true, KeyRight: true, KeyDown: true,
	KeyInsert: true, KeyDelete: true, KeyMeta: true,
}

// Injector sends synthesized input through SendInput. KeyCode values are
// virtual-key codes already, so no translation table is needed.
type Injector struct{}

// NewInjector creates a Windows injector.
func NewInjector() (*Injector, error) {
	if err := procSendInput.Find(); err != nil {
		return nil, eris.Wrap(err, "locate SendInput")
	}
	return &Injector{}, nil
}

func sendInput(ptr unsafe.Pointer, size uintptr) error {
	n, _, err := procSendInput.Call(1, uintptr(ptr), size)
	if n == 1 {
		return nil
	}
	if errno, ok := err.(syscall.Errno); ok && errno != 0 {
		return eris.Wrap(errno, "SendInput")
	}
	return eris.New("SendInput: input was blocked")
}

// InjectMouseMove injects a relative mouse movement.
func (i *Injector) InjectMouseMove(dx, dy int) error {
	in := mouseInputRecord{Type: inputMouse}
	in.Mi.Dx = int32(dx)
	in.Mi.Dy = int32(dy)
	in.Mi.DwFlags = mouseeventfMove
	return sendInput(unsafe.Pointer(&in), unsafe.Sizeof(in))
}

// InjectMouseButton injects a mouse button event.
func (i *Injector) InjectMouseButton(button Button, pressed bool) error {
	var flags uint32
	switch button {
	case ButtonLeft:
		flags = pick(pressed, mouseeventfLeftDown, mouseeventfLeftUp)
	case ButtonRight:
		flags = pick(pressed, mouseeventfRightDown, mouseeventfRightUp)
	case ButtonMiddle:
		flags = pick(pressed, mouseeventfMiddleDown, mouseeventfMiddleUp)
	default:
		return eris.Errorf("invalid button number: %d", button)
	}
	in := mouseInputRecord{Type: inputMouse}
	in.Mi.DwFlags = flags
	return sendInput(unsafe.Pointer(&in), unsafe.Sizeof(in))
}

// InjectKey injects a keyboard event.
func (i *Injector) InjectKey(code KeyCode, pressed bool) error {
	in := keybdInputRecord{Type: inputKeyboard}
	in.Ki.WVk = uint16(code)
	if !pressed {
		in.Ki.DwFlags |= keyeventfKeyUp
	}
	if extendedKeys[code] {
		in.Ki.DwFlags |= keyeventfExtendedKey
	}
	return sendInput(unsafe.Pointer(&in), unsafe.Sizeof(in))
}

// Close is a no-op; SendInput has no per-client handle.
func (i *Injector) Close() error {
	return nil
}

func pick(cond bool, a, b uint32) uint32 {
	if cond {
		return a
	}
	return b
}
