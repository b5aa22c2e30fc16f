package listsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"collablist/pkg/logger"
	"collablist/pkg/retryfetch"
	"collablist/store"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
)

// Session is one signed-in connection to the collection store. It replaces
// process-wide db/auth/user globals: everything that needs the identity gets
// the session passed in.
type Session struct {
	cfg    Config
	client *resty.Client
	dialer *websocket.Dialer
	retry  []retryfetch.Option

	userID string
	token  string

	mu        sync.Mutex
	closed    bool
	nextObs   int
	observers map[int]*authObserver
	subs      map[*Subscription]struct{}
}

type Option func(*Session)

// WithRetry sets the backoff used for one-shot reads (schema, snapshot).
func WithRetry(opts ...retryfetch.Option) Option {
	return func(s *Session) { s.retry = opts }
}

func WithDialer(d *websocket.Dialer) Option {
	return func(s *Session) { s.dialer = d }
}

type identity struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

// Connect establishes an identity against the store: with cfg.Token when one
// was provided, anonymously otherwise. A missing store configuration is a
// *ConfigError, a failed sign-in an *AuthError.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg: cfg,
		client: resty.New().
			SetBaseURL(cfg.Store.URL).
			SetTimeout(cfg.Store.timeout()),
		dialer:    websocket.DefaultDialer,
		observers: make(map[int]*authObserver),
		subs:      make(map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	id, err := s.signIn(ctx)
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	s.userID = id.UserID
	s.token = id.Token

	logger.Sugar.Infof("Signed in to %s as %s", cfg.Store.URL, s.userID)
	return s, nil
}

func (s *Session) signIn(ctx context.Context) (identity, error) {
	req := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")

	var (
		resp *resty.Response
		err  error
	)
	if s.cfg.Token != "" {
		resp, err = req.SetBody(map[string]string{"token": s.cfg.Token}).Post("/api/auth/token")
	} else {
		resp, err = req.Post("/api/auth/anonymous")
	}
	if err != nil {
		return identity{}, fmt.Errorf("sign-in request: %w", err)
	}
	if err := responseError(resp); err != nil {
		return identity{}, err
	}

	var id identity
	if err := json.Unmarshal(resp.Body(), &id); err != nil {
		return identity{}, fmt.Errorf("decode identity: %w", err)
	}
	if id.UserID == "" || id.Token == "" {
		return identity{}, errors.New("store returned an empty identity")
	}
	return id, nil
}

// UserID is stable for the lifetime of the session.
func (s *Session) UserID() string { return s.userID }

func (s *Session) AppID() string { return s.cfg.AppID }

// Path addresses a collection of this session's application.
func (s *Session) Path(collection string) store.CollectionPath {
	return store.NewCollectionPath(s.cfg.AppID, collection)
}

// authObserver is signed out by Close only after its initial user id was
// delivered.
type authObserver struct {
	fn      func(userID string)
	mu      sync.Mutex
	initial bool
	signOut bool
}

// OnAuthChange calls fn with the current user id right away and with "" once
// the session is closed. The returned func removes the observer.
func (s *Session) OnAuthChange(fn func(userID string)) func() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn("")
		return func() {}
	}
	obs := &authObserver{fn: fn, initial: true}
	id := s.nextObs
	s.nextObs++
	s.observers[id] = obs
	s.mu.Unlock()

	fn(s.userID)

	obs.mu.Lock()
	obs.initial = false
	signOut := obs.signOut
	obs.mu.Unlock()
	if signOut {
		fn("")
	}

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Close cancels every live subscription and signs out observers. Writes
// already issued are not interrupted. Calling Close again has no effect.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := make([]*Subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	observers := make([]*authObserver, 0, len(s.observers))
	for _, obs := range s.observers {
		observers = append(observers, obs)
	}
	s.observers = map[int]*authObserver{}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	for _, obs := range observers {
		obs.mu.Lock()
		pending := obs.initial
		obs.signOut = pending
		obs.mu.Unlock()
		if !pending {
			obs.fn("")
		}
	}
	logger.Sugar.Infof("Session of %s closed", s.userID)
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Schema fetches the field description of a collection. It is a plain
// request/response read and is retried with backoff.
func (s *Session) Schema(ctx context.Context, path store.CollectionPath) (store.Schema, error) {
	resp, err := retryfetch.Get(ctx, s.client, "/api/collections/schema", s.fetchOptions(path)...)
	if err != nil {
		return store.Schema{}, fmt.Errorf("fetch schema of %s: %w", path, err)
	}

	var schema store.Schema
	if err := json.Unmarshal(resp.Body(), &schema); err != nil {
		return store.Schema{}, fmt.Errorf("decode schema of %s: %w", path, err)
	}
	return schema, nil
}

// Snapshot reads the current member set once, without subscribing.
func (s *Session) Snapshot(ctx context.Context, path store.CollectionPath) (store.Snapshot, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	resp, err := retryfetch.Get(ctx, s.client, "/api/collections/entries", s.fetchOptions(path)...)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot of %s: %w", path, err)
	}

	var snap store.Snapshot
	if err := json.Unmarshal(resp.Body(), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot of %s: %w", path, err)
	}
	return snap, nil
}

func (s *Session) fetchOptions(path store.CollectionPath) []retryfetch.Option {
	opts := make([]retryfetch.Option, 0, len(s.retry)+1)
	opts = append(opts, s.retry...)
	return append(opts, retryfetch.WithRequest(func(r *resty.Request) {
		r.SetAuthToken(s.token).
			SetHeader("Accept", "application/json").
			SetQueryParam("collection", path.String())
	}))
}

func (s *Session) track(sub *Subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.subs[sub] = struct{}{}
	return true
}

func (s *Session) forget(sub *Subscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

func responseError(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	msg := strings.TrimSpace(resp.String())
	var body errorBody
	if json.Unmarshal(resp.Body(), &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	return &retryfetch.StatusError{Code: resp.StatusCode(), Body: msg}
}
