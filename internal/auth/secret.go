// Package auth holds the shared secret every control frame must present.
package auth

import (
	"crypto/subtle"
	"sync"

	"github.com/awnumar/memguard"
)

// Secret is the configured password, kept in a locked, guarded buffer.
// Matches behaves exactly like string equality but compares in constant time.
type Secret struct {
	mu  sync.RWMutex
	buf *memguard.LockedBuffer
}

// NewSecret copies plaintext into protected memory.
func NewSecret(plaintext string) *Secret {
	return &Secret{buf: memguard.NewBufferFromBytes([]byte(plaintext))}
}

// Matches reports whether credential equals the secret. A destroyed secret
// matches nothing.
func (s *Secret) Matches(credential string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.buf == nil {
		return false
	}
	return subtle.ConstantTimeCompare(s.buf.Bytes(), []byte(credential)) == 1
}

// WithValue runs fn with the plaintext. fn must not retain it.
func (s *Secret) WithValue(fn func(string)) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.buf == nil {
		return
	}
	fn(string(s.buf.Bytes()))
}

// Destroy wipes the secret. Later Matches calls return false.
func (s *Secret) Destroy() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf != nil {
		s.buf.Destroy()
		s.buf = nil
	}
}

// Purge wipes every guarded buffer in the process. Call once on exit.
func Purge() {
	memguard.Purge()
}
