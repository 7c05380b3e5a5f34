// Package actuator runs the per-session loop that owns the host input device:
// it drains commands from the session's inbox, integrates pointer velocity and
// turns discrete commands into device primitives.
package actuator

import (
	"errors"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"remotepad/internal/channel"
	"remotepad/internal/input"
	"remotepad/internal/keymap"
	"remotepad/internal/logger"
	"remotepad/internal/protocol"
)

const (
	DefaultSpeed        = 10.0
	DefaultWarmup       = time.Second
	DefaultPollInterval = 10 * time.Millisecond
	DefaultFullscreen   = "Alt+Enter"
)

// State is the lifecycle phase of a Loop.
type State int32

const (
	Warmup State = iota
	Running
	Terminated
)

func (s State) String() string {
	switch s {
	case Warmup:
		return "warmup"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Velocity is the pointer displacement applied on every tick, in device units.
type Velocity struct {
	X, Y int
}

// Inbox is the consumer side of a session's command channel.
type Inbox interface {
	Receive(timeout time.Duration) (protocol.Command, error)
	Abandon()
	Disconnected() <-chan struct{}
}

// Options tunes a Loop. Zero fields fall back to the defaults above; Warmup
// is taken as given so tests can skip it.
type Options struct {
	Speed        float64
	InvertY      bool
	Warmup       time.Duration
	PollInterval time.Duration
	Layout       *keymap.Layout
	Fullscreen   keymap.Combo
	Logger       zerolog.Logger
}

// Loop is one actuation loop. It is single use: call Run once.
type Loop struct {
	open  input.Opener
	opts  Options
	log   zerolog.Logger
	state atomic.Int32
	done  chan struct{}

	// owned by the Run goroutine
	velocity Velocity
}

// New creates a loop that will acquire its device through open.
func New(open input.Opener, opts Options) *Loop {
	if opts.Speed == 0 {
		opts.Speed = DefaultSpeed
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Warmup < 0 {
		opts.Warmup = 0
	}
	if opts.Layout == nil {
		opts.Layout, _ = keymap.Builtin(keymap.DefaultLayout)
	}
	if opts.Fullscreen == (keymap.Combo{}) {
		opts.Fullscreen = keymap.Combo{Modifier: input.KeyAlt, Key: input.KeyEnter}
	}
	return &Loop{
		open: open,
		opts: opts,
		log:  logger.Component(opts.Logger, "actuator"),
		done: make(chan struct{}),
	}
}

// State returns the current phase.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Done is closed once the loop reached Terminated and released the device.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Start runs the loop on a new goroutine.
func (l *Loop) Start(inbox Inbox) {
	go l.Run(inbox)
}

// Run drives the loop until the producer side of inbox disconnects. The
// calling goroutine is pinned to its OS thread for the device's lifetime.
func (l *Loop) Run(inbox Inbox) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.done)
	defer l.setState(Terminated)

	dev, err := l.open()
	if err != nil {
		l.log.Error().Err(err).Msg("failed to open input device")
		inbox.Abandon()
		return
	}
	defer func() {
		if err := dev.Close(); err != nil {
			l.log.Warn().Err(err).Msg("failed to close input device")
		}
	}()

	if !l.warmup(inbox) {
		l.log.Debug().Msg("producer disconnected during warm-up")
		return
	}
	l.setState(Running)
	l.log.Debug().
		Float64("speed", l.opts.Speed).
		Str("layout", l.opts.Layout.Name()).
		Dur("poll", l.opts.PollInterval).
		Msg("actuator running")

	for {
		cmd, err := inbox.Receive(l.opts.PollInterval)
		switch {
		case err == nil:
			l.handle(dev, cmd)
		case errors.Is(err, channel.ErrTimeout):
		case errors.Is(err, channel.ErrDisconnected):
			l.log.Debug().Msg("producer disconnected, stopping actuator")
			return
		default:
			l.log.Error().Err(err).Msg("inbox failed, stopping actuator")
			return
		}

		if err := dev.MoveRelative(l.velocity.X, l.velocity.Y); err != nil {
			l.log.Debug().Err(err).Msg("move failed")
		}
	}
}

// warmup waits out the warm-up delay and reports false if the producer
// disconnected first. Commands queued meanwhile are dropped in that case.
func (l *Loop) warmup(inbox Inbox) bool {
	if l.opts.Warmup <= 0 {
		return true
	}
	timer := time.NewTimer(l.opts.Warmup)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-inbox.Disconnected():
		return false
	}
}

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
}

func (l *Loop) handle(dev input.Device, cmd protocol.Command) {
	switch c := cmd.(type) {
	case protocol.Move:
		l.velocity = Velocity{
			X: Scale(c.DX, l.opts.Speed),
			Y: Scale(c.DY, l.opts.Speed),
		}
		if l.opts.InvertY {
			l.velocity.Y = -l.velocity.Y
		}
	case protocol.Click:
		if err := dev.Click(input.ButtonLeft); err != nil {
			l.log.Warn().Err(err).Msg("click failed")
		}
	case protocol.Fullscreen:
		l.fullscreen(dev)
	case protocol.KeyPress:
		l.typeKey(dev, c.Label)
	case protocol.Unknown:
		l.log.Debug().Str("control_type", c.Type).Msg("ignoring unknown command")
	}
}

// fullscreen always issues modifier press, key click, modifier release.
func (l *Loop) fullscreen(dev input.Device) {
	combo := l.opts.Fullscreen
	if err := dev.Press(combo.Modifier); err != nil {
		l.log.Warn().Err(err).Str("combo", combo.String()).Msg("fullscreen modifier press failed")
	}
	if err := dev.ClickKey(combo.Key); err != nil {
		l.log.Warn().Err(err).Str("combo", combo.String()).Msg("fullscreen key failed")
	}
	if err := dev.Release(combo.Modifier); err != nil {
		l.log.Warn().Err(err).Str("combo", combo.String()).Msg("fullscreen modifier release failed")
	}
}

func (l *Loop) typeKey(dev input.Device, label string) {
	m, ok := l.opts.Layout.Lookup(label)
	if !ok {
		l.log.Debug().Str("key", label).Str("layout", l.opts.Layout.Name()).Msg("unmapped key label")
		return
	}
	if m.Shift {
		if err := dev.Press(input.KeyShift); err != nil {
			l.log.Warn().Err(err).Str("key", label).Msg("shift press failed")
		}
	}
	if err := dev.ClickKey(m.Code); err != nil {
		l.log.Warn().Err(err).Str("key", label).Msg("key click failed")
	}
	if m.Shift {
		if err := dev.Release(input.KeyShift); err != nil {
			l.log.Warn().Err(err).Str("key", label).Msg("shift release failed")
		}
	}
}

// Scale converts a UI delta to device units: truncated toward zero, NaN as 0,
// saturated to the int32 range.
func Scale(d, speed float64) int {
	v := math.Trunc(d * speed)
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int(v)
}
