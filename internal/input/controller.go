package input

import (
	"github.com/rotisserie/eris"
)

// Controller adapts a Backend to the Device capability.
type Controller struct {
	injector Backend
}

// NewController wraps an injector.
func NewController(injector Backend) *Controller {
	return &Controller{injector: injector}
}

// Press holds a key down.
func (c *Controller) Press(code KeyCode) error {
	if err := c.injector.InjectKey(code, true); err != nil {
		return eris.Wrapf(err, "press %s", code)
	}
	return nil
}

// Release lets a held key go.
func (c *Controller) Release(code KeyCode) error {
	if err := c.injector.InjectKey(code, false); err != nil {
		return eris.Wrapf(err, "release %s", code)
	}
	return nil
}

// ClickKey presses and releases a key. The release is skipped when the press
// itself failed.
func (c *Controller) ClickKey(code KeyCode) error {
	if err := c.Press(code); err != nil {
		return err
	}
	return c.Release(code)
}

// Click presses and releases a mouse button.
func (c *Controller) Click(button Button) error {
	if err := c.injector.InjectMouseButton(button, true); err != nil {
		return eris.Wrapf(err, "%s button down", button)
	}
	if err := c.injector.InjectMouseButton(button, false); err != nil {
		return eris.Wrapf(err, "%s button up", button)
	}
	return nil
}

// MoveRelative moves the pointer. Zero vectors reach the backend too, so
// every actuator tick produces one injection.
func (c *Controller) MoveRelative(dx, dy int) error {
	if err := c.injector.InjectMouseMove(dx, dy); err != nil {
		return eris.Wrapf(err, "move (%d,%d)", dx, dy)
	}
	return nil
}

// Close releases the injector.
func (c *Controller) Close() error {
	return c.injector.Close()
}
