// Package session manages the delegated-access credential that gates every
// outbound call a workboard session makes. Exactly one live credential
// exists at a time; there is no refresh, an expired credential means a
// fresh interactive authorization.
package session

import (
	"sync"
	"time"
)

// Credential is a delegated access token plus its absolute expiry instant
// in epoch milliseconds.
type Credential struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// Live reports whether the credential is usable at the given instant.
func (c Credential) Live(now time.Time) bool {
	return c.Token != "" && now.UnixMilli() < c.ExpiresAt
}

// Store is session-scoped credential storage, the server-side analog of
// browser sessionStorage. Implementations hold at most one credential.
type Store interface {
	Load() (Credential, bool)
	Save(Credential)
	Clear()
}

// MemoryStore keeps the credential in memory for the lifetime of one
// session.
type MemoryStore struct {
	mu   sync.Mutex
	cred Credential
	set  bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Load() (Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred, s.set
}

func (s *MemoryStore) Save(c Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = c
	s.set = true
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = Credential{}
	s.set = false
}
