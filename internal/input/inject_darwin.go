//go:build darwin

package input

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ApplicationServices

#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <ApplicationServices/ApplicationServices.h>

bool hasAccessibilityPermissions() {
    return AXIsProcessTrusted();
}

CGPoint getCurrentMousePosition() {
    CGEventRef event = CGEventCreate(NULL);
    CGPoint cursor = CGEventGetLocation(event);
    CFRelease(event);
    return cursor;
}

void injectMouseMove(CGFloat dx, CGFloat dy) {
    CGPoint currentPos = getCurrentMousePosition();
    CGPoint newPos = CGPointMake(currentPos.x + dx, currentPos.y + dy);
    CGEventRef event = CGEventCreateMouseEvent(NULL, kCGEventMouseMoved, newPos, kCGMouseButtonLeft);
    CGEventPost(kCGSessionEventTap, event);
    CFRelease(event);
}

void injectMouseButton(int button, bool pressed) {
    CGMouseButton cgButton;
    CGEventType eventType;

    switch (button) {
        case 1: cgButton = kCGMouseButtonLeft; eventType = pressed ? kCGEventLeftMouseDown : kCGEventLeftMouseUp; break;
        case 2: cgButton = kCGMouseButtonRight; eventType = pressed ? kCGEventRightMouseDown : kCGEventRightMouseUp; break;
        case 3: cgButton = kCGMouseButtonCenter; eventType = pressed ? kCGEventOtherMouseDown : kCGEventOtherMouseUp; break;
        default: return;
    }

    CGPoint currentPos = getCurrentMousePosition();
    CGEventRef event = CGEventCreateMouseEvent(NULL, eventType, currentPos, cgButton);
    CGEventPost(kCGSessionEventTap, event);
    CFRelease(event);
}

void injectKey(CGKeyCode keyCode, bool pressed) {
    CGEventRef event = CGEventCreateKeyboardEvent(NULL, keyCode, pressed);
    CGEventPost(kCGSessionEventTap, event);
    CFRelease(event);
}
*/
import "C"

import (
	"github.com/rotisserie/eris"
)

// macOS implementation of input injection using CoreGraphics.
// Reference: https://developer.apple.com/documentation/coregraphics/cgkeycode
var keyToMac = map[KeyCode]uint16{
	KeyA: 0x00, KeyB: 0x0B, KeyC: 0x08, KeyD: 0x02, KeyE: 0x0E, KeyF: 0x03, KeyG: 0x05,
	KeyH: 0x04, KeyI: 0x22, KeyJ: 0x26, KeyK: 0x28, KeyL: 0x25, KeyM: 0x2E, KeyN: 0x2D,
	KeyO: 0x1F, KeyP: 0x23, KeyQ: 0x0C, KeyR: 0x0F, KeyS: 0x01, KeyT: 0x11, KeyU: 0x20,
	KeyV: 0x09, KeyW: 0x0D, KeyX: 0x07, KeyY: 0x10, KeyZ: 0x06,

	Key0: 0x1D, Key1: 0x12, Key2: 0x13, Key3: 0x14, Key4: 0x15,
	Key5: 0x17, Key6: 0x16, Key7: 0x1A, Key8: 0x1C, Key9: 0x19,

	KeyBackspace: 0x33, // Delete
	KeyTab:       0x30,
	KeyEnter:     0x24, // Return
	KeyShift:     0x38,
	KeyControl:   0x3B,
	KeyAlt:       0x3A, // Option
	KeyMeta:      0x37, // Command
	KeyEscape:    0x35,
	KeySpace:     0x31,
	KeyLeft:      0x7B,
	KeyUp:        0x7E,
	KeyRight:     0x7C,
	KeyDown:      0x7D,
	KeyPageUp:    0x74,
	KeyPageDown:  0x79,
	KeyEnd:       0x77,
	KeyHome:      0x73,
	KeyInsert:    0x72, // Help
	KeyDelete:    0x75, // Forward Delete

	KeySemicolon:     0x29,
	KeyEqual:         0x18,
	KeyComma:         0x2B,
	KeyMinus:         0x1B,
	KeyPeriod:        0x2F,
	KeySlash:         0x2C,
	KeyGrave:         0x32,
	KeyBracketLeft:   0x21,
	KeyBackslash:     0x2A,
	KeyBracketRight:  0x1E,
	KeyQuote:         0x27,
	KeyIntlBackslash: 0x0A,
}

// Injector posts CoreGraphics events into the login session.
type Injector struct{}

// NewInjector creates a macOS injector. Posting events requires the
// Accessibility permission for the running binary.
func NewInjector() (*Injector, error) {
	if !bool(C.hasAccessibilityPermissions()) {
		return nil, eris.New("accessibility permission not granted")
	}
	return &Injector{}, nil
}

// InjectMouseMove injects a relative mouse movement.
func (i *Injector) InjectMouseMove(dx, dy int) error {
	C.injectMouseMove(C.CGFloat(dx), C.CGFloat(dy))
	return nil
}

// InjectMouseButton injects a mouse button event.
func (i *Injector) InjectMouseButton(button Button, pressed bool) error {
	if button < ButtonLeft || button > ButtonMiddle {
		return eris.Errorf("invalid button number: %d", button)
	}
	C.injectMouseButton(C.int(button), C.bool(pressed))
	return nil
}

// InjectKey injects a keyboard event.
func (i *Injector) InjectKey(code KeyCode, pressed bool) error {
	macKeyCode, ok := keyToMac[code]
	if !ok {
		return eris.Errorf("no CGKeyCode mapping for key %s", code)
	}
	C.injectKey(C.CGKeyCode(macKeyCode), C.bool(pressed))
	return nil
}

// Close is a no-op; CoreGraphics has no per-client handle.
func (i *Injector) Close() error {
	return nil
}
