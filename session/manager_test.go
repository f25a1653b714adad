package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeExchanger counts Authenticate calls and optionally blocks until
// released, so tests can hold an exchange in flight.
type fakeExchanger struct {
	calls   atomic.Int32
	started chan struct{} // closed on first call
	release chan struct{} // Authenticate blocks on this when non-nil
	tok     *oauth2.Token
	err     error

	startOnce sync.Once
}

func (f *fakeExchanger) Authenticate(ctx context.Context, _ Identity) (*oauth2.Token, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.startOnce.Do(func() { close(f.started) })
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.tok, f.err
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "token.json"))
}

func TestManager_SingleFlight(t *testing.T) {
	exchanger := &fakeExchanger{
		started: make(chan struct{}),
		release: make(chan struct{}),
		tok:     NewBearerToken("tok-shared"),
	}
	m := NewManager(exchanger, newTestStore(t), Identity{InitData: "signed"})

	const callers = 5
	results := make(chan *oauth2.Token, callers)
	errs := make(chan error, callers)

	// The leader starts the exchange and blocks inside it
	go func() {
		tok, err := m.EnsureToken(context.Background())
		results <- tok
		errs <- err
	}()
	<-exchanger.started

	// Joiners must attach to the in-flight exchange, not start their own
	for i := 1; i < callers; i++ {
		go func() {
			tok, err := m.EnsureToken(context.Background())
			results <- tok
			errs <- err
		}()
	}
	close(exchanger.release)

	for i := 0; i < callers; i++ {
		require.NoError(t, <-errs)
		tok := <-results
		require.NotNil(t, tok)
		assert.Equal(t, "tok-shared", tok.AccessToken)
	}
	assert.Equal(t, int32(1), exchanger.calls.Load(),
		"concurrent callers must share one exchange")
}

func TestManager_SingleFlightSharesFailure(t *testing.T) {
	exchangeErr := errors.New("backend said no")
	exchanger := &fakeExchanger{
		started: make(chan struct{}),
		release: make(chan struct{}),
		err:     exchangeErr,
	}
	m := NewManager(exchanger, newTestStore(t), Identity{InitData: "signed"})

	errs := make(chan error, 2)
	go func() {
		_, err := m.EnsureToken(context.Background())
		errs <- err
	}()
	<-exchanger.started
	go func() {
		_, err := m.EnsureToken(context.Background())
		errs <- err
	}()
	close(exchanger.release)

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, <-errs, exchangeErr)
	}
	assert.Equal(t, int32(1), exchanger.calls.Load())
}

func TestManager_CacheHitShortCircuit(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(NewBearerToken("tok-cached")))

	exchanger := &fakeExchanger{tok: NewBearerToken("tok-fresh")}
	m := NewManager(exchanger, store, Identity{InitData: "signed"})

	tok, err := m.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-cached", tok.AccessToken)
	assert.Equal(t, int32(0), exchanger.calls.Load(),
		"a cached token must not trigger an exchange")
}

func TestManager_ClearThenReacquire(t *testing.T) {
	exchanger := &fakeExchanger{tok: NewBearerToken("tok-1")}
	m := NewManager(exchanger, newTestStore(t), Identity{InitData: "signed"})

	tok, err := m.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.AccessToken)

	require.NoError(t, m.Clear())
	assert.Nil(t, m.Token())

	exchanger.tok = NewBearerToken("tok-2")
	tok, err = m.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok.AccessToken, "clear must force a fresh exchange")
	assert.Equal(t, int32(2), exchanger.calls.Load())
}

func TestManager_AdoptSkipsExchange(t *testing.T) {
	exchanger := &fakeExchanger{tok: NewBearerToken("tok-exchange")}
	// Identity data is available, but the adopted token must win
	m := NewManager(exchanger, newTestStore(t), Identity{InitData: "signed"})

	require.NoError(t, m.Adopt(NewBearerToken("tok-deeplink")))

	tok, err := m.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-deeplink", tok.AccessToken)
	assert.Equal(t, int32(0), exchanger.calls.Load())
}

func TestManager_FailureLeavesNoToken(t *testing.T) {
	exchanger := &fakeExchanger{err: errors.New("unreachable")}
	m := NewManager(exchanger, newTestStore(t), Identity{InitData: "signed"})

	_, err := m.EnsureToken(context.Background())
	require.Error(t, err)
	assert.Nil(t, m.Token())

	// The next attempt starts over instead of returning the stale failure
	exchanger.err = nil
	exchanger.tok = NewBearerToken("tok-recovered")
	tok, err := m.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-recovered", tok.AccessToken)
}

func TestManager_JoinerHonorsContext(t *testing.T) {
	exchanger := &fakeExchanger{
		started: make(chan struct{}),
		release: make(chan struct{}),
		tok:     NewBearerToken("tok-slow"),
	}
	m := NewManager(exchanger, newTestStore(t), Identity{InitData: "signed"})

	go func() {
		_, _ = m.EnsureToken(context.Background())
	}()
	<-exchanger.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.EnsureToken(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(exchanger.release)
}

func TestManager_StartupLoadsStoredToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	require.NoError(t, NewFileStore(path).Save(NewBearerToken("tok-persisted")))

	exchanger := &fakeExchanger{tok: NewBearerToken("tok-fresh")}
	m := NewManager(exchanger, NewFileStore(path), Identity{InitData: "signed"})

	tok, err := m.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-persisted", tok.AccessToken)
	assert.Equal(t, int32(0), exchanger.calls.Load())
}
