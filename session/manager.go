package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrAuthorizationCanceled is returned by an Authorizer when the user backs
// out of the consent flow. The manager treats it as a non-event: no state
// change, no login signal.
var ErrAuthorizationCanceled = errors.New("authorization canceled by user")

// ErrAuthorizationUnavailable is returned by BeginAuthorization when no
// Authorizer is wired. Deployments without an interactive consent flow
// install tokens granted elsewhere instead.
var ErrAuthorizationUnavailable = errors.New("interactive authorization not configured")

// Authorizer runs the external interactive consent flow and returns the
// granted credential.
type Authorizer interface {
	Authorize(ctx context.Context) (Credential, error)
}

// Revoker asks the authorization service to invalidate a token. Revocation
// is best-effort: the manager clears local state whether or not the call
// succeeds.
type Revoker interface {
	Revoke(ctx context.Context, token string) error
}

// Manager owns the credential lifecycle for one session: acquire, cache,
// expiry-checked read, revoke. It is the sole gate for outbound calls.
type Manager struct {
	store   Store
	auth    Authorizer
	revoker Revoker
	now     func() time.Time

	onLogin func(Credential)
	onReset func()
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLoginSignal registers fn to run after a successful authorization.
func WithLoginSignal(fn func(Credential)) Option {
	return func(m *Manager) { m.onLogin = fn }
}

// WithResetSignal registers fn to run after Revoke has cleared local state.
// The session uses it to force a full reset, the cold-reload equivalent.
func WithResetSignal(fn func()) Option {
	return func(m *Manager) { m.onReset = fn }
}

// NewManager builds a Manager over the given store. If the store already
// holds a non-expired credential the manager starts logged in without a
// round trip.
func NewManager(store Store, auth Authorizer, revoker Revoker, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		auth:    auth,
		revoker: revoker,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if cred, ok := store.Load(); ok && cred.Live(m.now()) {
		log.Debug().Int64("expires_at", cred.ExpiresAt).Msg("Resuming session from stored credential")
	}
	return m
}

// Current returns the cached credential only while it is live. An expired
// credential reads as absent but stays in the store until a fresh
// authorization overwrites it.
func (m *Manager) Current() (Credential, bool) {
	cred, ok := m.store.Load()
	if !ok || !cred.Live(m.now()) {
		return Credential{}, false
	}
	return cred, true
}

// LoggedIn reports whether a live credential is cached.
func (m *Manager) LoggedIn() bool {
	_, ok := m.Current()
	return ok
}

// BeginAuthorization runs the interactive consent flow and caches the
// resulting credential. User cancellation surfaces as
// ErrAuthorizationCanceled with no state change.
func (m *Manager) BeginAuthorization(ctx context.Context) (Credential, error) {
	if m.auth == nil {
		return Credential{}, ErrAuthorizationUnavailable
	}
	cred, err := m.auth.Authorize(ctx)
	if err != nil {
		if errors.Is(err, ErrAuthorizationCanceled) {
			log.Info().Msg("Authorization canceled by user")
		}
		return Credential{}, err
	}
	m.install(cred)
	return cred, nil
}

// Install caches a credential obtained from a consent flow that ran
// elsewhere (a browser front end completing OAuth on its own), converting
// the server-declared lifetime into an absolute expiry.
func (m *Manager) Install(token string, lifetime time.Duration) Credential {
	cred := Credential{
		Token:     token,
		ExpiresAt: m.now().Add(lifetime).UnixMilli(),
	}
	m.install(cred)
	return cred
}

func (m *Manager) install(cred Credential) {
	m.store.Save(cred)
	log.Info().Int64("expires_at", cred.ExpiresAt).Msg("🔑 Login succeeded")
	if m.onLogin != nil {
		m.onLogin(cred)
	}
}

// Revoke invalidates the session. If a credential is cached the remote
// revocation is attempted first, but local invalidation is unconditional:
// the store is cleared and the reset signal fires regardless of the remote
// outcome. With nothing cached, no network call is made and no error is
// returned.
func (m *Manager) Revoke(ctx context.Context) error {
	if cred, ok := m.store.Load(); ok && cred.Token != "" && m.revoker != nil {
		if err := m.revoker.Revoke(ctx, cred.Token); err != nil {
			log.Warn().Err(err).Msg("Remote token revocation failed; clearing local session anyway")
		}
	}
	m.store.Clear()
	log.Info().Msg("Session revoked")
	if m.onReset != nil {
		m.onReset()
	}
	return nil
}
