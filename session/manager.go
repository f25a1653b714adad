// Package session owns the bearer credential used by every outbound API
// call: durable storage, the identity-proof exchange against the backend,
// and single-flight "ensure a valid token exists" semantics.
package session

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// TokenExchanger is the part of the Authenticator the Manager depends on.
type TokenExchanger interface {
	Authenticate(ctx context.Context, id Identity) (*oauth2.Token, error)
}

// state is the observable credential lifecycle. Transitions:
// stateNoToken -> stateAuthenticating -> stateValid -> (invalidation) ->
// stateNoToken.
type state int

const (
	stateNoToken state = iota
	stateAuthenticating
	stateValid
)

// flight is one in-progress authentication exchange. Joiners block on done;
// tok and err are written exactly once, before done is closed, so every
// caller that joined the flight observes the same outcome.
type flight struct {
	done chan struct{}
	tok  *oauth2.Token
	err  error
}

func (f *flight) wait(ctx context.Context) (*oauth2.Token, error) {
	select {
	case <-f.done:
		return f.tok, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Manager provides "ensure a valid token exists" semantics over a Store and
// an Authenticator. Concurrent callers that find no cached token converge on
// a single exchange; at most one exchange is ever in flight.
//
// The Manager is safe for concurrent use. Construct one per process and
// inject it into everything that issues outbound requests.
type Manager struct {
	auth     TokenExchanger
	store    Store
	identity Identity

	mu       sync.Mutex
	state    state
	inflight *flight
}

// NewManager creates a Manager. A credential already present in the store
// (loaded from disk at startup) makes the session valid immediately.
func NewManager(auth TokenExchanger, store Store, id Identity) *Manager {
	m := &Manager{auth: auth, store: store, identity: id}
	if store.Token() != nil {
		m.state = stateValid
	}
	return m
}

// EnsureToken returns the cached credential when one exists, joins an
// in-flight exchange when one is pending, and otherwise performs exactly one
// fresh exchange. All concurrent callers receive the identical token or the
// identical error.
func (m *Manager) EnsureToken(ctx context.Context) (*oauth2.Token, error) {
	m.mu.Lock()

	switch m.state {
	case stateValid:
		if tok := m.store.Token(); tok != nil {
			m.mu.Unlock()
			return tok, nil
		}
		// Store was cleared underneath us; fall through to a fresh exchange.
		m.state = stateNoToken

	case stateAuthenticating:
		f := m.inflight
		m.mu.Unlock()
		return f.wait(ctx)
	}

	// stateNoToken: this caller leads the single flight.
	f := &flight{done: make(chan struct{})}
	m.inflight = f
	m.state = stateAuthenticating
	id := m.identity
	m.mu.Unlock()

	tok, err := m.auth.Authenticate(ctx, id)

	m.mu.Lock()
	m.inflight = nil
	if err != nil {
		m.state = stateNoToken
		f.err = err
	} else {
		// Disk persistence is best effort; the in-memory credential stays
		// live for this session even if the write fails.
		_ = m.store.Save(tok)
		m.state = stateValid
		f.tok = tok
	}
	m.mu.Unlock()

	close(f.done)
	return f.tok, f.err
}

// Clear drops the cached credential so the next EnsureToken performs a fresh
// exchange. An exchange already in flight is not cancelled; its result
// becomes the new credential when it resolves.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == stateValid {
		m.state = stateNoToken
	}
	return m.store.Clear()
}

// NewBearerToken wraps a pre-issued opaque token string as a credential.
func NewBearerToken(tok string) *oauth2.Token {
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}
}

// Adopt installs a pre-issued token, as handed off by the companion bot's
// deep link, exactly as if it had been loaded from storage. While it is
// present no exchange is triggered.
func (m *Manager) Adopt(tok *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.store.Save(tok)
	m.state = stateValid
	return err
}

// Token returns the cached credential without triggering an exchange.
func (m *Manager) Token() *oauth2.Token {
	return m.store.Token()
}
