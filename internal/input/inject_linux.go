//go:build linux

package input

import (
	"encoding/binary"
	"os"

	"github.com/rotisserie/eris"
	"golang.org/x/sys/unix"
)

// Linux implementation of input injection using a virtual uinput device.

const uinputPath = "/dev/uinput"

// ioctl requests from linux/uinput.h
const (
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiSetRelBit  = 0x40045566
)

// event types and codes from linux/input-event-codes.h
const (
	evSyn     = 0x00
	evKey     = 0x01
	evRel     = 0x02
	synReport = 0
	relX      = 0x00
	relY      = 0x01
	btnLeft   = 0x110
	btnRight  = 0x111
	btnMiddle = 0x112
	busUSB    = 0x03
)

// KeyCode (virtual-key numbering) to evdev KEY_* codes
var keyToEvdev = map[KeyCode]uint16{
	KeyBackspace: 14,
	KeyTab:       15,
	KeyEnter:     28,
	KeyShift:     42,
	KeyControl:   29,
	KeyAlt:       56,
	KeyEscape:    1,
	KeySpace:     57,
	KeyPageUp:    104,
	KeyPageDown:  109,
	KeyEnd:       107,
	KeyHome:      102,
	KeyLeft:      105,
	KeyUp:        103,
	KeyRight:     106,
	KeyDown:      108,
	KeyInsert:    110,
	KeyDelete:    111,
	KeyMeta:      125,

	Key0: 11, Key1: 2, Key2: 3, Key3: 4, Key4: 5,
	Key5: 6, Key6: 7, Key7: 8, Key8: 9, Key9: 10,

	KeyA: 30, KeyB: 48, KeyC: 46, KeyD: 32, KeyE: 18, KeyF: 33, KeyG: 34,
	KeyH: 35, KeyI: 23, KeyJ: 36, KeyK: 37, KeyL: 38, KeyM: 50, KeyN: 49,
	KeyO: 24, KeyP: 25, KeyQ: 16, KeyR: 19, KeyS: 31, KeyT: 20, KeyU: 22,
	KeyV: 47, KeyW: 17, KeyX: 45, KeyY: 21, KeyZ: 44,

	KeySemicolon:     39,
	KeyEqual:         13,
	KeyComma:         51,
	KeyMinus:         12,
	KeyPeriod:        52,
	KeySlash:         53,
	KeyGrave:         41,
	KeyBracketLeft:   26,
	KeyBackslash:     43,
	KeyBracketRight:  27,
	KeyQuote:         40,
	KeyIntlBackslash: 86,
}

var buttonToEvdev = map[Button]uint16{
	ButtonLeft:   btnLeft,
	ButtonRight:  btnRight,
	ButtonMiddle: btnMiddle,
}

// uinputUserDev mirrors struct uinput_user_dev.
type uinputUserDev struct {
	Name         [80]byte
	Bustype      uint16
	Vendor       uint16
	Product      uint16
	Version      uint16
	FFEffectsMax uint32
	Absmax       [64]int32
	Absmin       [64]int32
	Absfuzz      [64]int32
	Absflat      [64]int32
}

// inputEvent mirrors struct input_event.
type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type ioctlStep struct {
	req   uint
	value int
}

// Injector is a virtual keyboard+mouse registered through uinput.
type Injector struct {
	file *os.File
}

// NewInjector creates the virtual device. The caller needs write access to
// /dev/uinput (root or the input group).
func NewInjector() (*Injector, error) {
	f, err := os.OpenFile(uinputPath, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", uinputPath)
	}
	fd := int(f.Fd())

	setup := func(req uint, value int) error {
		return unix.IoctlSetInt(fd, req, value)
	}
	steps := []ioctlStep{
		{uiSetEvBit, evKey},
		{uiSetEvBit, evRel},
		{uiSetEvBit, evSyn},
		{uiSetRelBit, relX},
		{uiSetRelBit, relY},
	}
	for _, code := range keyToEvdev {
		steps = append(steps, ioctlStep{uiSetKeyBit, int(code)})
	}
	for _, code := range buttonToEvdev {
		steps = append(steps, ioctlStep{uiSetKeyBit, int(code)})
	}
	for _, s := range steps {
		if err := setup(s.req, s.value); err != nil {
			f.Close()
			return nil, eris.Wrapf(err, "uinput ioctl 0x%x(%d)", s.req, s.value)
		}
	}

	dev := uinputUserDev{
		Bustype: busUSB,
		Vendor:  0x1209,
		Product: 0x7270,
		Version: 1,
	}
	copy(dev.Name[:], "remotepad virtual input")
	if err := binary.Write(f, binary.NativeEndian, &dev); err != nil {
		f.Close()
		return nil, eris.Wrap(err, "write uinput device description")
	}
	if err := setup(uiDevCreate, 0); err != nil {
		f.Close()
		return nil, eris.Wrap(err, "create uinput device")
	}

	return &Injector{file: f}, nil
}

func (i *Injector) emit(events ...inputEvent) error {
	events = append(events, inputEvent{Type: evSyn, Code: synReport})
	if err := binary.Write(i.file, binary.NativeEndian, events); err != nil {
		return eris.Wrap(err, "write uinput events")
	}
	return nil
}

// InjectMouseMove injects a relative pointer motion.
func (i *Injector) InjectMouseMove(dx, dy int) error {
	return i.emit(
		inputEvent{Type: evRel, Code: relX, Value: int32(dx)},
		inputEvent{Type: evRel, Code: relY, Value: int32(dy)},
	)
}

// InjectMouseButton injects a mouse button transition.
func (i *Injector) InjectMouseButton(button Button, pressed bool) error {
	code, ok := buttonToEvdev[button]
	if !ok {
		return eris.Errorf("invalid button: %d", button)
	}
	return i.emit(inputEvent{Type: evKey, Code: code, Value: boolValue(pressed)})
}

// InjectKey injects a key transition.
func (i *Injector) InjectKey(code KeyCode, pressed bool) error {
	evdev, ok := keyToEvdev[code]
	if !ok {
		return eris.Errorf("no evdev mapping for key %s", code)
	}
	return i.emit(inputEvent{Type: evKey, Code: evdev, Value: boolValue(pressed)})
}

// Close destroys the virtual device.
func (i *Injector) Close() error {
	destroyErr := unix.IoctlSetInt(int(i.file.Fd()), uiDevDestroy, 0)
	closeErr := i.file.Close()
	if destroyErr != nil {
		return eris.Wrap(destroyErr, "destroy uinput device")
	}
	return closeErr
}

func boolValue(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
