package listsync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	authService "collablist/internal/auth/service"
	"collablist/internal/entry/repository"
	entryService "collablist/internal/entry/service"
	"collablist/pkg/retryfetch"
	"collablist/router"
	"collablist/socket"
	"collablist/store"

	"github.com/stretchr/testify/require"
)

const (
	testAppID  = "test-app"
	waitFor    = 2 * time.Second
	quietFor   = 200 * time.Millisecond
	entriesURL = "/api/collections/entries"
)

// testStore runs the real store server in-process and counts entry writes.
type testStore struct {
	srv    *httptest.Server
	auth   *authService.AuthService
	writes atomic.Int32
	fail   atomic.Bool
	// While hold is set, writes wait for gate to be closed.
	hold atomic.Bool
	gate chan struct{}
}

func newTestStore(t *testing.T) *testStore {
	repo := repository.NewMemoryRepository()
	hub := socket.NewHub(repo)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	ts := &testStore{
		auth: authService.NewAuthService("test-secret", "collablist", time.Hour),
		gate: make(chan struct{}),
	}
	api := router.Setup(hub, entryService.NewEntryService(repo, hub), ts.auth)

	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == entriesURL && r.Method == http.MethodPost {
			ts.writes.Add(1)
			if ts.hold.Load() {
				<-ts.gate
			}
			if ts.fail.Load() {
				http.Error(w, `{"error":"Database error"}`, http.StatusInternalServerError)
				return
			}
		}
		api.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testStore) config() Config {
	return Config{AppID: testAppID, Store: &StoreConfig{URL: ts.srv.URL}}
}

func (ts *testStore) connect(t *testing.T) *Session {
	session, err := Connect(context.Background(), ts.config(), noWait())
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

// noWait keeps retried reads from sleeping in tests.
func noWait() Option {
	return WithRetry(retryfetch.WithSleep(func(context.Context, time.Duration) error { return nil }))
}

func jukeboxPath() store.CollectionPath {
	return store.NewCollectionPath(testAppID, store.JukeboxCollection)
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for delivery")
	}
	var zero T
	return zero
}

func assertQuiet[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected delivery: %v", v)
	case <-time.After(quietFor):
	}
}
