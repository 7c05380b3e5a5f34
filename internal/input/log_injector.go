package input

import (
	"github.com/rs/zerolog"
)

// LogInjector records injections to a logger instead of touching the host.
// It backs the "log" device backend used for dry runs.
type LogInjector struct {
	log zerolog.Logger
}

// NewLogInjector creates a log-only injector.
func NewLogInjector(log zerolog.Logger) *LogInjector {
	return &LogInjector{log: log}
}

func (l *LogInjector) InjectMouseMove(dx, dy int) error {
	l.log.Trace().Int("dx", dx).Int("dy", dy).Msg("mouse move")
	return nil
}

func (l *LogInjector) InjectMouseButton(button Button, pressed bool) error {
	l.log.Debug().Stringer("button", button).Bool("pressed", pressed).Msg("mouse button")
	return nil
}

func (l *LogInjector) InjectKey(code KeyCode, pressed bool) error {
	l.log.Debug().Stringer("key", code).Bool("pressed", pressed).Msg("key")
	return nil
}

func (l *LogInjector) Close() error {
	l.log.Debug().Msg("log device closed")
	return nil
}
