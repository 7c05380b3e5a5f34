// Package inputtest provides a recording input.Device for tests.
package inputtest

import (
	"sync"
	"time"

	"remotepad/internal/input"
)

// Operations recorded by Recorder.
const (
	OpPress    = "press"
	OpRelease  = "release"
	OpClickKey = "click_key"
	OpClick    = "click"
	OpMove     = "move"
)

// Call is one recorded device invocation.
type Call struct {
	Op     string
	Key    input.KeyCode
	Button input.Button
	DX, DY int
	At     time.Time
}

// Recorder is a thread-safe fake Device. Every invocation is recorded, including
// the ones configured to fail.
type Recorder struct {
	mu     sync.Mutex
	calls  []Call
	fail   map[string]error
	openErr error
	closed  bool
	opened  int
}

var _ input.Device = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{fail: make(map[string]error)}
}

// FailOn makes every subsequent call of op return err.
func (r *Recorder) FailOn(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[op] = err
}

// FailOpen makes the Opener fail with err.
func (r *Recorder) FailOpen(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openErr = err
}

// Opener returns an Opener that hands out this recorder.
func (r *Recorder) Opener() input.Opener {
	return func() (input.Device, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.openErr != nil {
			return nil, r.openErr
		}
		r.opened++
		return r, nil
	}
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.At = time.Now()
	r.calls = append(r.calls, c)
	return r.fail[c.Op]
}

func (r *Recorder) Press(code input.KeyCode) error {
	return r.record(Call{Op: OpPress, Key: code})
}

func (r *Recorder) Release(code input.KeyCode) error {
	return r.record(Call{Op: OpRelease, Key: code})
}

func (r *Recorder) ClickKey(code input.KeyCode) error {
	return r.record(Call{Op: OpClickKey, Key: code})
}

func (r *Recorder) Click(button input.Button) error {
	return r.record(Call{Op: OpClick, Button: button})
}

func (r *Recorder) MoveRelative(dx, dy int) error {
	return r.record(Call{Op: OpMove, DX: dx, DY: dy})
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Calls returns a copy of every recorded call.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Discrete returns the recorded calls other than moves.
func (r *Recorder) Discrete() []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Op != OpMove {
			out = append(out, c)
		}
	}
	return out
}

// Moves returns the recorded move calls.
func (r *Recorder) Moves() []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Op == OpMove {
			out = append(out, c)
		}
	}
	return out
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Opened reports how many handles were acquired through Opener.
func (r *Recorder) Opened() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened
}
