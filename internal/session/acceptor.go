// Package session accepts controller websockets and wires each one to its own
// command channel and actuation loop.
package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"remotepad/internal/actuator"
	"remotepad/internal/auth"
	"remotepad/internal/channel"
	"remotepad/internal/config"
	"remotepad/internal/input"
	"remotepad/internal/logger"
	"remotepad/internal/protocol"
)

const (
	pongWait     = 60 * time.Second
	pingPeriod   = 50 * time.Second
	maxFrameSize = 4096

	// replaceWait bounds how long a new controller waits for the one it
	// replaced to close its device.
	replaceWait = 2 * time.Second
)

// Settings is the configuration a session captures when it is accepted.
type Settings struct {
	Secret   *auth.Secret
	Actuator actuator.Options
}

// SettingsFromConfig builds session settings from a configuration snapshot.
func SettingsFromConfig(cfg config.Config, secret *auth.Secret) (Settings, error) {
	layout, err := cfg.Layout()
	if err != nil {
		return Settings{}, err
	}
	combo, err := layout.ParseCombo(cfg.Keyboard.Fullscreen)
	if err != nil {
		return Settings{}, eris.Wrap(err, "keyboard.fullscreen")
	}
	return Settings{
		Secret: secret,
		Actuator: actuator.Options{
			Speed:        cfg.Motion.Speed,
			InvertY:      cfg.Motion.InvertY,
			Warmup:       cfg.Actuator.Warmup,
			PollInterval: cfg.Actuator.PollInterval,
			Layout:       layout,
			Fullscreen:   combo,
		},
	}, nil
}

// Acceptor is the http.Handler for /ws.
type Acceptor struct {
	registry *Registry
	open     input.Opener
	settings func() (Settings, error)
	log      zerolog.Logger
	upgrader websocket.Upgrader

	pingPeriod  time.Duration
	pongWait    time.Duration
	replaceWait time.Duration
}

// controller is the actuation side of a session, started by its first
// authenticated frame.
type controller struct {
	inbox *channel.Channel[protocol.Command]
	loop  *actuator.Loop
}

// NewAcceptor creates an acceptor. settings is called once per new session.
func NewAcceptor(registry *Registry, open input.Opener, settings func() (Settings, error), log zerolog.Logger) *Acceptor {
	return &Acceptor{
		registry: registry,
		open:     open,
		settings: settings,
		log:      logger.Component(log, "session"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// LAN tool, any origin may connect
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		pingPeriod:  pingPeriod,
		pongWait:    pongWait,
		replaceWait: replaceWait,
	}
}

func (a *Acceptor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	sess := newSession(conn, r)
	log := a.log.With().Str("session", sess.id).Str("remote_addr", sess.remoteAddr).Logger()

	settings, err := a.settings()
	if err != nil {
		log.Error().Err(err).Msg("cannot build session settings")
		sess.close(websocket.CloseInternalServerErr, "server misconfigured")
		return
	}

	a.registry.Track(sess)
	defer a.registry.Release(sess.id)
	log.Debug().Msg("connection opened")

	stopPing := make(chan struct{})
	go a.keepAlive(sess, stopPing)

	ctl := &controller{}
	code, reason := a.readLoop(sess, settings, ctl, log)

	close(stopPing)
	if ctl.inbox != nil {
		ctl.inbox.Close()
	}
	sess.close(code, reason)
	if ctl.loop != nil {
		<-ctl.loop.Done()
		log.Info().Int("close_code", code).Str("reason", reason).Msg("controller disconnected")
		return
	}
	log.Debug().Int("close_code", code).Str("reason", reason).Msg("connection closed before authenticating")
}

// readLoop forwards authenticated commands until the session must end and
// returns the close frame to send.
func (a *Acceptor) readLoop(sess *Session, settings Settings, ctl *controller, log zerolog.Logger) (int, string) {
	conn := sess.conn
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(a.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(a.pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("read error")
			}
			return websocket.CloseNormalClosure, ""
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			log.Warn().Err(err).Msg("dropping session on malformed frame")
			return websocket.CloseInvalidFramePayloadData, "malformed frame"
		}
		if !settings.Secret.Matches(msg.Credential) {
			log.Warn().Msg("dropping session on invalid credential")
			return websocket.ClosePolicyViolation, "invalid credential"
		}

		if ctl.inbox == nil {
			a.activate(sess, settings.Actuator, ctl, log)
		}

		if err := ctl.inbox.Send(msg.Command); err != nil {
			if errors.Is(err, channel.ErrReceiverGone) {
				log.Warn().Msg("actuator gone, dropping command and closing session")
				return websocket.CloseInternalServerErr, "input device unavailable"
			}
			log.Error().Err(err).Msg("forwarding command failed")
			return websocket.CloseInternalServerErr, "internal error"
		}
	}
}

// activate claims a controller slot for sess and starts its actuator. Under
// the exclusive policy the previous controller is replaced, and its device
// is closed before this session opens one.
func (a *Acceptor) activate(sess *Session, opts actuator.Options, ctl *controller, log zerolog.Logger) {
	displaced := a.registry.Claim(sess)
	for _, old := range displaced {
		log.Info().Str("replaced", old.id).Msg("taking over from previous controller")
		old.replace()
	}
	if err := AwaitReleased(displaced, a.replaceWait); err != nil {
		log.Warn().Err(err).Msg("opening device while previous controller is still closing")
	}
	log.Info().Msg("controller connected")

	ctl.inbox = channel.New[protocol.Command]()
	opts.Logger = log
	ctl.loop = actuator.New(a.open, opts)
	ctl.loop.Start(ctl.inbox)
}

func (a *Acceptor) keepAlive(sess *Session, stop <-chan struct{}) {
	ticker := time.NewTicker(a.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := sess.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}
