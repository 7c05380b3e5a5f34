package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"remotepad/internal/config"
)

// Registry tracks every open connection and which of them are controllers,
// i.e. have sent an authenticated frame. The policy only applies to
// controllers.
type Registry struct {
	mu       sync.Mutex
	policy   string
	sessions map[string]*Session
	onChange []func(count int)
	active   sync.WaitGroup
}

// NewRegistry creates a registry with the given policy ("exclusive" or "shared").
func NewRegistry(policy string) *Registry {
	if policy == "" {
		policy = config.PolicyExclusive
	}
	return &Registry{
		policy:   policy,
		sessions: make(map[string]*Session),
	}
}

// SetPolicy changes the policy for later claims. Live sessions are kept.
func (r *Registry) SetPolicy(policy string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policy = policy
}

// OnChange registers fn to run with the new controller count whenever it
// changes.
func (r *Registry) OnChange(fn func(count int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, fn)
}

// Track adds a freshly upgraded connection. It counts for DisconnectAll and
// Wait but holds no controller slot.
func (r *Registry) Track(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.id] = s
	r.active.Add(1)
}

// Claim makes s a controller. Under the exclusive policy every other
// controller loses its slot and is returned; the caller ends them.
func (r *Registry) Claim(s *Session) []*Session {
	r.mu.Lock()
	var displaced []*Session
	if r.policy == config.PolicyExclusive {
		for _, other := range r.sessions {
			if other != s && other.controlling {
				other.controlling = false
				displaced = append(displaced, other)
			}
		}
	}
	s.controlling = true
	count, callbacks := r.controllers(), r.callbacks()
	r.mu.Unlock()

	for _, fn := range callbacks {
		fn(count)
	}
	return displaced
}

// Release removes the session with the given id.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, id)
	r.active.Done()
	close(s.released)
	wasController := s.controlling
	s.controlling = false
	count, callbacks := r.controllers(), r.callbacks()
	r.mu.Unlock()

	if !wasController {
		return
	}
	for _, fn := range callbacks {
		fn(count)
	}
}

// AwaitReleased waits until every session in ss was released or timeout
// passed.
func AwaitReleased(ss []*Session, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for _, s := range ss {
		select {
		case <-s.released:
		case <-deadline.C:
			return eris.Errorf("session %s still holds its device after %s", s.id, timeout)
		}
	}
	return nil
}

func (r *Registry) callbacks() []func(int) {
	return append([]func(int){}, r.onChange...)
}

func (r *Registry) controllers() int {
	n := 0
	for _, s := range r.sessions {
		if s.controlling {
			n++
		}
	}
	return n
}

// Count returns the number of controllers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.controllers()
}

// Connections returns the number of open connections, authenticated or not.
func (r *Registry) Connections() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// List describes the controllers, oldest first.
func (r *Registry) List() []Info {
	r.mu.Lock()
	out := make([]Info, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.controlling {
			out = append(out, s.Info())
		}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// DisconnectAll kicks every open connection, authenticated or not, and
// returns how many were kicked. Sessions leave the registry once their
// actuator has stopped.
func (r *Registry) DisconnectAll() int {
	r.mu.Lock()
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.Unlock()

	for _, s := range live {
		s.Kick()
	}
	return len(live)
}

// Wait blocks until every tracked session was released or ctx is done.
func (r *Registry) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "waiting for sessions")
	}
}
