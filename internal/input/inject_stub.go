//go:build !darwin && !linux && !windows

package input

// Injector is unavailable on this platform.
type Injector struct{}

// NewInjector always fails; use the "log" backend instead.
func NewInjector() (*Injector, error) {
	return nil, ErrUnsupported
}

func (i *Injector) InjectMouseMove(dx, dy int) error {
	return ErrUnsupported
}

func (i *Injector) InjectMouseButton(button Button, pressed bool) error {
	return ErrUnsupported
}

func (i *Injector) InjectKey(code KeyCode, pressed bool) error {
	return ErrUnsupported
}

func (i *Injector) Close() error {
	return nil
}
