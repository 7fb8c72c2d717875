package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthorizer struct {
	cred Credential
	err  error
}

func (f *fakeAuthorizer) Authorize(context.Context) (Credential, error) {
	return f.cred, f.err
}

type fakeRevoker struct {
	calls  int
	tokens []string
	err    error
}

func (f *fakeRevoker) Revoke(_ context.Context, token string) error {
	f.calls++
	f.tokens = append(f.tokens, token)
	return f.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCurrent_ExpiredReadsAbsent(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.Save(Credential{Token: "tok", ExpiresAt: now.Add(-time.Minute).UnixMilli()})

	m := NewManager(store, nil, nil, WithClock(fixedClock(now)))

	_, ok := m.Current()
	assert.False(t, ok)
	assert.False(t, m.LoggedIn())

	// The stale value stays in storage until a fresh login replaces it.
	stale, present := store.Load()
	assert.True(t, present)
	assert.Equal(t, "tok", stale.Token)
}

func TestCurrent_LiveCredential(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.Save(Credential{Token: "tok", ExpiresAt: now.Add(time.Hour).UnixMilli()})

	m := NewManager(store, nil, nil, WithClock(fixedClock(now)))

	cred, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "tok", cred.Token)
	assert.True(t, m.LoggedIn(), "pre-seeded store means logged in at startup, no round trip")
}

func TestBeginAuthorization_StoresAndSignals(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	auth := &fakeAuthorizer{cred: Credential{Token: "fresh", ExpiresAt: now.Add(time.Hour).UnixMilli()}}

	var signaled bool
	m := NewManager(store, auth, nil,
		WithClock(fixedClock(now)),
		WithLoginSignal(func(Credential) { signaled = true }))

	cred, err := m.BeginAuthorization(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", cred.Token)
	assert.True(t, signaled)
	assert.True(t, m.LoggedIn())
}

func TestBeginAuthorization_NoAuthorizerConfigured(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, nil, nil)

	_, err := m.BeginAuthorization(context.Background())

	assert.ErrorIs(t, err, ErrAuthorizationUnavailable)
	assert.False(t, m.LoggedIn())
	_, present := store.Load()
	assert.False(t, present)
}

func TestBeginAuthorization_CanceledNoStateChange(t *testing.T) {
	store := NewMemoryStore()
	auth := &fakeAuthorizer{err: ErrAuthorizationCanceled}

	var signaled bool
	m := NewManager(store, auth, nil, WithLoginSignal(func(Credential) { signaled = true }))

	_, err := m.BeginAuthorization(context.Background())
	assert.ErrorIs(t, err, ErrAuthorizationCanceled)
	assert.False(t, signaled)
	_, present := store.Load()
	assert.False(t, present)
}

func TestInstall_ConvertsLifetimeToAbsoluteExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(NewMemoryStore(), nil, nil, WithClock(fixedClock(now)))

	cred := m.Install("tok", time.Hour)

	assert.Equal(t, now.Add(time.Hour).UnixMilli(), cred.ExpiresAt)
	assert.True(t, m.LoggedIn())
}

func TestRevoke_BestEffortRemoteAlwaysClearsLocal(t *testing.T) {
	store := NewMemoryStore()
	store.Save(Credential{Token: "tok", ExpiresAt: time.Now().Add(time.Hour).UnixMilli()})
	revoker := &fakeRevoker{err: errors.New("revocation endpoint down")}

	var reset bool
	m := NewManager(store, nil, revoker, WithResetSignal(func() { reset = true }))

	err := m.Revoke(context.Background())

	require.NoError(t, err, "remote failure must not surface; local invalidation is the guarantee")
	assert.Equal(t, 1, revoker.calls)
	assert.Equal(t, []string{"tok"}, revoker.tokens)
	assert.True(t, reset)
	_, present := store.Load()
	assert.False(t, present)
}

func TestRevoke_NoCredentialNoNetworkCall(t *testing.T) {
	revoker := &fakeRevoker{}
	var reset bool
	m := NewManager(NewMemoryStore(), nil, revoker, WithResetSignal(func() { reset = true }))

	err := m.Revoke(context.Background())

	require.NoError(t, err)
	assert.Zero(t, revoker.calls)
	assert.True(t, reset)
}
