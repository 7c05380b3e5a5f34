package actuator

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remotepad/internal/channel"
	"remotepad/internal/input"
	"remotepad/internal/input/inputtest"
	"remotepad/internal/keymap"
	"remotepad/internal/protocol"
)

func newTestLoop(t *testing.T, rec *inputtest.Recorder, opts Options) *Loop {
	t.Helper()
	opts.Logger = zerolog.Nop()
	if opts.PollInterval == 0 {
		opts.PollInterval = 5 * time.Millisecond
	}
	return New(rec.Opener(), opts)
}

// runToCompletion queues cmds, closes the producer and runs the loop inline.
func runToCompletion(t *testing.T, rec *inputtest.Recorder, opts Options, cmds ...protocol.Command) *Loop {
	t.Helper()
	ch := channel.New[protocol.Command]()
	for _, c := range cmds {
		require.NoError(t, ch.Send(c))
	}
	ch.Close()

	l := newTestLoop(t, rec, opts)
	l.Run(ch)
	return l
}

func waitDone(t *testing.T, l *Loop) {
	t.Helper()
	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("actuator did not terminate")
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		d, speed float64
		want     int
	}{
		{1, 10, 10},
		{0.55, 10, 5},
		{-0.55, 10, -5},
		{0.09, 10, 0},
		{-1, 10, -10},
		{math.NaN(), 10, 0},
		{math.Inf(1), 10, math.MaxInt32},
		{math.Inf(-1), 10, math.MinInt32},
		{1e12, 10, math.MaxInt32},
		{-1e12, 10, math.MinInt32},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Scale(tt.d, tt.speed), "Scale(%v, %v)", tt.d, tt.speed)
	}
}

func TestVelocityFollowsLastMove(t *testing.T) {
	rec := inputtest.NewRecorder()
	runToCompletion(t, rec, Options{},
		protocol.Move{DX: 1, DY: 0},
		protocol.Click{},
		protocol.Move{DX: -0.5, DY: 0.25},
		protocol.KeyPress{Label: "a"},
		protocol.Unknown{Type: "scroll"},
	)

	moves := rec.Moves()
	require.Len(t, moves, 5)
	want := [][2]int{{10, 0}, {10, 0}, {-5, 2}, {-5, 2}, {-5, 2}}
	for i, m := range moves {
		assert.Equal(t, want[i], [2]int{m.DX, m.DY}, "move %d", i)
	}
}

func TestInvertY(t *testing.T) {
	rec := inputtest.NewRecorder()
	runToCompletion(t, rec, Options{InvertY: true}, protocol.Move{DX: 0.5, DY: 1})

	moves := rec.Moves()
	require.Len(t, moves, 1)
	assert.Equal(t, 5, moves[0].DX)
	assert.Equal(t, -10, moves[0].DY)
}

func TestIdleTicksKeepMoving(t *testing.T) {
	rec := inputtest.NewRecorder()
	ch := channel.New[protocol.Command]()
	require.NoError(t, ch.Send(protocol.Move{DX: 0.2, DY: -0.3}))

	l := newTestLoop(t, rec, Options{PollInterval: 10 * time.Millisecond})
	l.Start(ch)
	time.Sleep(150 * time.Millisecond)
	ch.Close()
	waitDone(t, l)

	moves := rec.Moves()
	require.GreaterOrEqual(t, len(moves), 5)
	for _, m := range moves {
		assert.Equal(t, 2, m.DX)
		assert.Equal(t, -3, m.DY)
	}
	assert.Empty(t, rec.Discrete())

	gaps := make([]time.Duration, 0, len(moves)-1)
	for i := 1; i < len(moves); i++ {
		gaps = append(gaps, moves[i].At.Sub(moves[i-1].At))
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	median := gaps[len(gaps)/2]
	assert.GreaterOrEqual(t, median, 5*time.Millisecond, "idle moves closer than the poll interval")
	assert.LessOrEqual(t, median, 30*time.Millisecond, "idle moves too far apart")
}

func TestDisconnectDuringWarmupStopsEarly(t *testing.T) {
	rec := inputtest.NewRecorder()
	ch := channel.New[protocol.Command]()
	require.NoError(t, ch.Send(protocol.Click{}))

	l := newTestLoop(t, rec, Options{Warmup: 10 * time.Second})
	start := time.Now()
	l.Start(ch)
	require.Eventually(t, func() bool { return rec.Opened() == 1 }, time.Second, time.Millisecond)
	ch.Close()

	waitDone(t, l)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, Terminated, l.State())
	assert.Empty(t, rec.Calls(), "nothing runs after an aborted warm-up")
	assert.True(t, rec.Closed())
}

func TestZeroVelocityStillMoves(t *testing.T) {
	rec := inputtest.NewRecorder()
	ch := channel.New[protocol.Command]()
	l := newTestLoop(t, rec, Options{})
	l.Start(ch)

	require.Eventually(t, func() bool { return len(rec.Moves()) >= 3 }, time.Second, 5*time.Millisecond)
	ch.Close()
	waitDone(t, l)

	for _, m := range rec.Moves() {
		assert.Zero(t, m.DX)
		assert.Zero(t, m.DY)
	}
}

func TestClick(t *testing.T) {
	rec := inputtest.NewRecorder()
	runToCompletion(t, rec, Options{}, protocol.Click{})

	calls := rec.Discrete()
	require.Len(t, calls, 1)
	assert.Equal(t, inputtest.OpClick, calls[0].Op)
	assert.Equal(t, input.ButtonLeft, calls[0].Button)
}

func TestKeyPressShiftedLetter(t *testing.T) {
	rec := inputtest.NewRecorder()
	runToCompletion(t, rec, Options{}, protocol.KeyPress{Label: "A"})

	calls := rec.Discrete()
	require.Len(t, calls, 3)
	assert.Equal(t, inputtest.Call{Op: inputtest.OpPress, Key: input.KeyShift}, stripTime(calls[0]))
	assert.Equal(t, inputtest.Call{Op: inputtest.OpClickKey, Key: input.KeyA}, stripTime(calls[1]))
	assert.Equal(t, inputtest.Call{Op: inputtest.OpRelease, Key: input.KeyShift}, stripTime(calls[2]))
}

func TestKeyPressReleasesShiftWhenClickFails(t *testing.T) {
	rec := inputtest.NewRecorder()
	rec.FailOn(inputtest.OpClickKey, eris.New("device busy"))
	runToCompletion(t, rec, Options{}, protocol.KeyPress{Label: "!"}, protocol.KeyPress{Label: "b"})

	calls := rec.Discrete()
	require.Len(t, calls, 4)
	assert.Equal(t, inputtest.OpPress, calls[0].Op)
	assert.Equal(t, input.Key1, calls[1].Key)
	assert.Equal(t, inputtest.OpRelease, calls[2].Op)
	assert.Equal(t, input.KeyShift, calls[2].Key)
	assert.Equal(t, inputtest.Call{Op: inputtest.OpClickKey, Key: input.KeyB}, stripTime(calls[3]))
}

func TestKeyPressUnmappedNeverTouchesDevice(t *testing.T) {
	rec := inputtest.NewRecorder()
	runToCompletion(t, rec, Options{}, protocol.KeyPress{Label: "F13"}, protocol.KeyPress{Label: ""})

	assert.Empty(t, rec.Discrete())
	assert.Len(t, rec.Moves(), 2)
}

func TestKeyPressUsesLayout(t *testing.T) {
	de, err := keymap.Builtin("de")
	require.NoError(t, err)

	rec := inputtest.NewRecorder()
	runToCompletion(t, rec, Options{Layout: de}, protocol.KeyPress{Label: "z"})

	calls := rec.Discrete()
	require.Len(t, calls, 1)
	assert.Equal(t, input.KeyY, calls[0].Key)
}

func TestFullscreenSequence(t *testing.T) {
	rec := inputtest.NewRecorder()
	runToCompletion(t, rec, Options{}, protocol.Fullscreen{})

	calls := rec.Discrete()
	require.Len(t, calls, 3)
	assert.Equal(t, inputtest.Call{Op: inputtest.OpPress, Key: input.KeyAlt}, stripTime(calls[0]))
	assert.Equal(t, inputtest.Call{Op: inputtest.OpClickKey, Key: input.KeyEnter}, stripTime(calls[1]))
	assert.Equal(t, inputtest.Call{Op: inputtest.OpRelease, Key: input.KeyAlt}, stripTime(calls[2]))
}

func TestFullscreenCompletesDespiteFailures(t *testing.T) {
	rec := inputtest.NewRecorder()
	rec.FailOn(inputtest.OpPress, eris.New("press failed"))
	rec.FailOn(inputtest.OpClickKey, eris.New("click failed"))

	combo := keymap.Combo{Modifier: input.KeyControl, Key: input.KeyF}
	runToCompletion(t, rec, Options{Fullscreen: combo}, protocol.Fullscreen{})

	calls := rec.Discrete()
	require.Len(t, calls, 3)
	assert.Equal(t, []string{inputtest.OpPress, inputtest.OpClickKey, inputtest.OpRelease},
		[]string{calls[0].Op, calls[1].Op, calls[2].Op})
	assert.Equal(t, input.KeyControl, calls[0].Key)
	assert.Equal(t, input.KeyF, calls[1].Key)
	assert.Equal(t, input.KeyControl, calls[2].Key)
}

func TestDisconnectStopsWithoutFurtherMoves(t *testing.T) {
	rec := inputtest.NewRecorder()
	l := runToCompletion(t, rec, Options{}, protocol.Move{DX: 1, DY: 1})

	assert.Equal(t, Terminated, l.State())
	assert.True(t, rec.Closed())
	require.Len(t, rec.Moves(), 1)
	assert.Equal(t, 10, rec.Moves()[0].DX)

	select {
	case <-l.Done():
	default:
		t.Fatal("done not closed after Run returned")
	}
}

func TestStateTransitions(t *testing.T) {
	rec := inputtest.NewRecorder()
	ch := channel.New[protocol.Command]()
	l := newTestLoop(t, rec, Options{Warmup: 50 * time.Millisecond})
	assert.Equal(t, Warmup, l.State())

	l.Start(ch)
	require.Eventually(t, func() bool { return l.State() == Running }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, rec.Opened())

	ch.Close()
	waitDone(t, l)
	assert.Equal(t, Terminated, l.State())
	assert.True(t, rec.Closed())
}

func TestOpenFailureAbandonsInbox(t *testing.T) {
	rec := inputtest.NewRecorder()
	rec.FailOpen(eris.New("no uinput"))

	ch := channel.New[protocol.Command]()
	l := newTestLoop(t, rec, Options{})
	l.Run(ch)

	assert.Equal(t, Terminated, l.State())
	assert.ErrorIs(t, ch.Send(protocol.Click{}), channel.ErrReceiverGone)
	assert.Empty(t, rec.Calls())
	assert.False(t, rec.Closed())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "warmup", Warmup.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "terminated", Terminated.String())
}

func stripTime(c inputtest.Call) inputtest.Call {
	c.At = time.Time{}
	return c
}
