// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// MenuItem represents a menu item
type MenuItem struct {
	ID       int
	Title    string
	Callback func()
	item     *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	mu       sync.Mutex
	items    []*MenuItem
	status   *systray.MenuItem
	sessions int
	readyCh  chan struct{}
	quitCh   chan struct{}
}

// New creates a new system tray
func New() *Tray {
	return &Tray{
		items:   make([]*MenuItem, 0),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// AddMenuItem adds a menu item to the tray. Items must be added before Run.
func (t *Tray) AddMenuItem(title string, callback func()) int {
	id := len(t.items)
	t.items = append(t.items, &MenuItem{
		ID:       id,
		Title:    title,
		Callback: callback,
	})
	return id
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.items = append(t.items, nil) // nil indicates separator
}

// SetSessionCount updates the tooltip and status line. Safe to call from any
// goroutine, before or after the tray is ready.
func (t *Tray) SetSessionCount(n int) {
	t.mu.Lock()
	t.sessions = n
	status := t.status
	t.mu.Unlock()

	if status == nil {
		return
	}
	systray.SetTooltip(Tooltip(n))
	status.SetTitle(statusLine(n))
}

// Tooltip describes the number of connected controllers.
func Tooltip(n int) string {
	switch n {
	case 0:
		return "remotepad: no controller connected"
	case 1:
		return "remotepad: 1 controller connected"
	default:
		return fmt.Sprintf("remotepad: %d controllers connected", n)
	}
}

func statusLine(n int) string {
	if n == 0 {
		return "Idle"
	}
	return fmt.Sprintf("Controllers: %d", n)
}

// Run starts the tray event loop and blocks until Stop. On macOS and
// Windows it must be called from the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.setupMenu, func() { close(t.quitCh) })
}

// Ready is closed once the menu is built.
func (t *Tray) Ready() <-chan struct{} {
	return t.readyCh
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	systray.SetTitle("remotepad")
	systray.SetIcon(getIcon())

	t.mu.Lock()
	n := t.sessions
	t.status = systray.AddMenuItem(statusLine(n), "")
	t.status.Disable()
	t.mu.Unlock()
	systray.SetTooltip(Tooltip(n))
	systray.AddSeparator()

	for _, menuItem := range t.items {
		if menuItem == nil {
			systray.AddSeparator()
			continue
		}
		menuItem.item = systray.AddMenuItem(menuItem.Title, "")
		if menuItem.Callback == nil {
			continue
		}
		go func(mi *MenuItem) {
			for {
				select {
				case <-mi.item.ClickedCh:
					mi.Callback()
				case <-t.quitCh:
					return
				}
			}
		}(menuItem)
	}
	close(t.readyCh)
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

// getIcon returns a placeholder icon (valid 16x16 ICO)
func getIcon() []byte {
	// A valid 16x16 32-bit ICO file with correct size and DIB header
	icon := make([]byte, 1118)
	// ICO Header
	copy(icon[0:6], []byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00})
	// Icon Directory
	copy(icon[6:22], []byte{
		0x10, 0x10, 0x00, 0x00, 0x01, 0x00, 0x20, 0x00,
		0x48, 0x04, 0x00, 0x00, // Size: 1024 (pixels) + 40 (header) + 32 (mask) = 1096 bytes
		0x16, 0x00, 0x00, 0x00, // Offset
	})
	// DIB Header
	copy(icon[22:62], []byte{
		0x28, 0x00, 0x00, 0x00, // Size
		0x10, 0x00, 0x00, 0x00, // Width
		0x20, 0x00, 0x00, 0x00, // Height (16 * 2 for icon)
		0x01, 0x00, // Planes
		0x20, 0x00, // BPP
		0x00, 0x00, 0x00, 0x00, // Compression
		0x00, 0x04, 0x00, 0x00, // Image Size
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	})
	// The rest (pixels and mask) can stay 0 for transparency
	return icon
}
