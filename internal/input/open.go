package input

import (
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Device backends selectable from configuration.
const (
	BackendSystem = "system"
	BackendLog    = "log"
)

// ErrUnsupported is returned by injectors on platforms without an implementation.
var ErrUnsupported = eris.New("input injection not supported on this platform")

// NewOpener returns an Opener for the named backend. Each call of the returned
// function acquires an independent handle.
func NewOpener(backend string, log zerolog.Logger) (Opener, error) {
	switch backend {
	case BackendSystem, "":
		return func() (Device, error) {
			injector, err := NewInjector()
			if err != nil {
				return nil, eris.Wrap(err, "open system input device")
			}
			return NewController(injector), nil
		}, nil
	case BackendLog:
		return func() (Device, error) {
			return NewController(NewLogInjector(log)), nil
		}, nil
	default:
		return nil, eris.Errorf("unknown device backend %q", backend)
	}
}
