package session

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remotepad/internal/actuator"
	"remotepad/internal/auth"
	"remotepad/internal/config"
	"remotepad/internal/input"
	"remotepad/internal/input/inputtest"
	"remotepad/internal/protocol"
)

const testSecret = "s3cret"

type harness struct {
	rec      *inputtest.Recorder
	registry *Registry
	server   *httptest.Server
	url      string
}

func newHarness(t *testing.T, policy string) *harness {
	t.Helper()
	return newHarnessWith(t, policy, actuator.Options{Speed: 10, PollInterval: 5 * time.Millisecond})
}

func newHarnessWith(t *testing.T, policy string, opts actuator.Options) *harness {
	t.Helper()
	rec := inputtest.NewRecorder()
	registry := NewRegistry(policy)
	secret := auth.NewSecret(testSecret)
	t.Cleanup(secret.Destroy)

	settings := func() (Settings, error) {
		return Settings{
			Secret:   secret,
			Actuator: opts,
		}, nil
	}
	acceptor := NewAcceptor(registry, rec.Opener(), settings, zerolog.Nop())
	server := httptest.NewServer(acceptor)
	t.Cleanup(server.Close)

	return &harness{
		rec:      rec,
		registry: registry,
		server:   server,
		url:      "ws" + strings.TrimPrefix(server.URL, "http"),
	}
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(h.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, cmd protocol.Command, password string) {
	t.Helper()
	data, err := protocol.Encode(cmd, password)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// expectClose reads until the server closes and returns the close code.
func expectClose(t *testing.T, conn *websocket.Conn) int {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		var closeErr *websocket.CloseError
		require.True(t, errors.As(err, &closeErr), "expected close frame, got %v", err)
		return closeErr.Code
	}
}

func (h *harness) waitIdle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return h.registry.Count() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestKeyboardFrameReachesDevice(t *testing.T) {
	h := newHarness(t, config.PolicyExclusive)
	conn := h.dial(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"control_type":"keyboard","password":"s3cret","key":"A"}`)))

	require.Eventually(t, func() bool { return len(h.rec.Discrete()) == 3 }, 2*time.Second, 5*time.Millisecond)
	calls := h.rec.Discrete()
	assert.Equal(t, inputtest.OpPress, calls[0].Op)
	assert.Equal(t, input.KeyShift, calls[0].Key)
	assert.Equal(t, inputtest.OpClickKey, calls[1].Op)
	assert.Equal(t, input.KeyA, calls[1].Key)
	assert.Equal(t, inputtest.OpRelease, calls[2].Op)
	assert.Equal(t, input.KeyShift, calls[2].Key)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	h.waitIdle(t)
	assert.True(t, h.rec.Closed())
}

func TestMoveFrameSetsVelocity(t *testing.T) {
	h := newHarness(t, config.PolicyExclusive)
	conn := h.dial(t)

	send(t, conn, protocol.Move{DX: 0.5, DY: -1}, testSecret)
	require.Eventually(t, func() bool {
		moves := h.rec.Moves()
		return len(moves) > 0 && moves[len(moves)-1].DX == 5 && moves[len(moves)-1].DY == -10
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWrongPasswordClosesSession(t *testing.T) {
	h := newHarness(t, config.PolicyExclusive)
	conn := h.dial(t)

	send(t, conn, protocol.Click{}, "wrong")
	assert.Equal(t, websocket.ClosePolicyViolation, expectClose(t, conn))

	h.waitIdle(t)
	assert.Empty(t, h.rec.Discrete(), "unauthenticated command must never reach the device")
	assert.Zero(t, h.rec.Opened(), "no device is opened before authentication")
}

func TestMalformedFrameClosesSession(t *testing.T) {
	h := newHarness(t, config.PolicyExclusive)
	conn := h.dial(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"control_type":"move","password":"s3cret"}`)))
	assert.Equal(t, websocket.CloseInvalidFramePayloadData, expectClose(t, conn))
	h.waitIdle(t)
}

func TestExclusivePolicyReplacesController(t *testing.T) {
	h := newHarness(t, config.PolicyExclusive)
	first := h.dial(t)
	send(t, first, protocol.Click{}, testSecret)
	require.Eventually(t, func() bool { return len(h.rec.Discrete()) == 1 }, 2*time.Second, 5*time.Millisecond)

	// the first socket stays open on the client side, like a phone that lost wifi
	second := h.dial(t)
	send(t, second, protocol.Click{}, testSecret)

	assert.Equal(t, websocket.CloseGoingAway, expectClose(t, first))
	require.Eventually(t, func() bool { return len(h.rec.Discrete()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.registry.Count())
	assert.Equal(t, 2, h.rec.Opened())
}

func TestUnauthenticatedConnectionHoldsNoSlot(t *testing.T) {
	h := newHarness(t, config.PolicyExclusive)
	idle := h.dial(t)

	ctl := h.dial(t)
	send(t, ctl, protocol.Click{}, testSecret)
	require.Eventually(t, func() bool {
		return len(h.rec.Discrete()) == 1 && h.registry.Connections() == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.registry.Count())
	assert.Equal(t, 1, h.rec.Opened())

	// the silent socket is still open and was never promoted
	require.NoError(t, idle.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, _, err := idle.ReadMessage()
	var netErr interface{ Timeout() bool }
	require.True(t, errors.As(err, &netErr) && netErr.Timeout(), "expected read timeout, got %v", err)
}

func TestReconnectDuringWarmup(t *testing.T) {
	h := newHarnessWith(t, config.PolicyExclusive, actuator.Options{
		Speed:        10,
		Warmup:       time.Second,
		PollInterval: 5 * time.Millisecond,
	})
	first := h.dial(t)
	send(t, first, protocol.Click{}, testSecret)
	require.Eventually(t, func() bool { return h.registry.Count() == 1 }, time.Second, 5*time.Millisecond)

	// page reload: the old socket drops mid warm-up
	require.NoError(t, first.Close())
	time.Sleep(100 * time.Millisecond)

	second := h.dial(t)
	send(t, second, protocol.Click{}, testSecret)
	require.Eventually(t, func() bool { return len(h.rec.Discrete()) == 1 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, h.registry.Count())

	require.NoError(t, second.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, _, err := second.ReadMessage()
	var closeErr *websocket.CloseError
	assert.False(t, errors.As(err, &closeErr), "reconnected controller must not be refused: %v", err)
}

func TestSharedPolicyAllowsOverlap(t *testing.T) {
	h := newHarness(t, config.PolicyShared)
	a := h.dial(t)
	b := h.dial(t)

	send(t, a, protocol.Click{}, testSecret)
	send(t, b, protocol.Click{}, testSecret)
	require.Eventually(t, func() bool { return len(h.rec.Discrete()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, h.registry.Count())
	assert.Equal(t, 2, h.rec.Opened())
	assert.Len(t, h.registry.List(), 2)
}

func TestDisconnectAllKicksSessions(t *testing.T) {
	h := newHarness(t, config.PolicyShared)
	a := h.dial(t)
	b := h.dial(t)
	pending := h.dial(t)
	send(t, a, protocol.Click{}, testSecret)
	send(t, b, protocol.Click{}, testSecret)
	require.Eventually(t, func() bool {
		return h.registry.Count() == 2 && h.registry.Connections() == 3
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 3, h.registry.DisconnectAll())
	assert.Equal(t, websocket.CloseGoingAway, expectClose(t, pending))
	assert.Equal(t, websocket.CloseGoingAway, expectClose(t, a))
	assert.Equal(t, websocket.CloseGoingAway, expectClose(t, b))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, h.registry.Wait(ctx))
	assert.Zero(t, h.registry.Count())
}

func TestDeviceOpenFailureClosesOnNextFrame(t *testing.T) {
	h := newHarness(t, config.PolicyExclusive)
	h.rec.FailOpen(eris.New("no uinput"))
	conn := h.dial(t)

	// the first frame starts the actuator, which gives up on the device;
	// the next frame finds it gone unless the first one already did
	send(t, conn, protocol.Click{}, testSecret)
	time.Sleep(50 * time.Millisecond)
	data, err := protocol.Encode(protocol.Click{}, testSecret)
	require.NoError(t, err)
	_ = conn.WriteMessage(websocket.TextMessage, data)

	assert.Equal(t, websocket.CloseInternalServerErr, expectClose(t, conn))
	h.waitIdle(t)
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := config.Config{
		Motion:   config.MotionConfig{Speed: 3, InvertY: true},
		Actuator: config.ActuatorConfig{Warmup: time.Second, PollInterval: 20 * time.Millisecond},
		Keyboard: config.KeyboardConfig{Layout: "de", Fullscreen: "Meta+f"},
	}
	secret := auth.NewSecret("pw")
	defer secret.Destroy()

	s, err := SettingsFromConfig(cfg, secret)
	require.NoError(t, err)
	assert.Same(t, secret, s.Secret)
	assert.Equal(t, 3.0, s.Actuator.Speed)
	assert.True(t, s.Actuator.InvertY)
	assert.Equal(t, time.Second, s.Actuator.Warmup)
	assert.Equal(t, 20*time.Millisecond, s.Actuator.PollInterval)
	assert.Equal(t, "de", s.Actuator.Layout.Name())
	assert.Equal(t, input.KeyMeta, s.Actuator.Fullscreen.Modifier)
	assert.Equal(t, input.KeyF, s.Actuator.Fullscreen.Key)

	cfg.Keyboard.Layout = "xx"
	_, err = SettingsFromConfig(cfg, secret)
	assert.Error(t, err)
}
