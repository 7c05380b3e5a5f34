package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = time.Second

// Info describes a live session for the admin API.
type Info struct {
	ID         string    `json:"id"`
	RemoteAddr string    `json:"remote_addr"`
	StartedAt  time.Time `json:"started_at"`
}

// Session is one connected controller.
type Session struct {
	id         string
	remoteAddr string
	startedAt  time.Time
	conn       *websocket.Conn
	closeOnce  sync.Once
	released   chan struct{}

	// guarded by the registry mutex
	controlling bool
}

func newSession(conn *websocket.Conn, r *http.Request) *Session {
	return &Session{
		id:         uuid.NewString(),
		remoteAddr: r.RemoteAddr,
		startedAt:  time.Now(),
		conn:       conn,
		released:   make(chan struct{}),
	}
}

// ID returns the session's UUID.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) Info() Info {
	return Info{ID: s.id, RemoteAddr: s.remoteAddr, StartedAt: s.startedAt}
}

// Kick ends the session with 1001 going away.
func (s *Session) Kick() {
	s.close(websocket.CloseGoingAway, "disconnected by host")
}

func (s *Session) replace() {
	s.close(websocket.CloseGoingAway, "replaced by another controller")
}

// close sends a close frame once and drops the connection, which unblocks
// the reader.
func (s *Session) close(code int, reason string) {
	s.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(code, reason)
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = s.conn.Close()
	})
}
