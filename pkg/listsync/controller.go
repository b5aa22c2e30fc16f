package listsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"collablist/pkg/logger"
	"collablist/store"
)

type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarning
	StatusError
	StatusPlaying
)

const (
	StatusAuthenticating = "Authenticating..."
	StatusConnected      = "Connected to Database. Start adding entries!"
	StatusAdding         = "Adding entry to database..."
	StatusAdded          = "Entry added successfully!"
	StatusAddFailed      = "Failed to add entry. Try again."
	StatusLoadFailed     = "Error loading data from the store."
)

type Status struct {
	Text string
	Kind StatusKind
}

// State is what a front end draws. It is a value; the controller hands out
// copies and never mutates one after publishing it.
type State struct {
	UserID string
	Schema store.Schema
	View   View
	Status Status
	// Loading is true until the first snapshot or subscription error arrives.
	Loading bool
	// WriteEnabled is false until connected, after a fatal error, and while
	// a write is outstanding.
	WriteEnabled bool
	Busy         bool
}

// Controller drives one collection screen: connect, subscribe, render and
// submit with pending/success/failure feedback.
type Controller struct {
	cfg        Config
	collection string
	opts       []Option

	mu        sync.Mutex
	state     State
	connected bool
	closed    bool
	session   *Session
	sub       *Subscription
	unwatch   func()
	onChange  func(State)
	form      Form

	notifyMu sync.Mutex
}

func NewController(cfg Config, collection string, opts ...Option) *Controller {
	return &Controller{
		cfg:        cfg,
		collection: collection,
		opts:       opts,
		state:      State{Loading: true},
	}
}

// OnChange registers the observer of state changes. It is called from
// whichever goroutine caused the change, one call at a time.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Path is the collection path this controller reads and writes.
func (c *Controller) Path() store.CollectionPath {
	return store.NewCollectionPath(c.cfg.AppID, c.collection)
}

// Start connects, loads the collection schema and subscribes. Failures are
// reported in the status line and returned; the write affordance stays off.
func (c *Controller) Start(ctx context.Context) error {
	c.update(func(s *State) {
		s.Status = Status{Text: StatusAuthenticating, Kind: StatusInfo}
	})

	session, err := Connect(ctx, c.cfg, c.opts...)
	if err != nil {
		c.fatal(err)
		return err
	}

	schema, err := session.Schema(ctx, c.Path())
	if err != nil {
		session.Close()
		c.fatal(err)
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		session.Close()
		return ErrClosed
	}
	c.session = session
	c.state.Schema = schema
	c.mu.Unlock()

	unwatch := session.OnAuthChange(func(userID string) {
		c.update(func(s *State) {
			s.UserID = userID
			if userID == "" {
				s.WriteEnabled = false
			}
		})
	})

	sub, err := session.Subscribe(ctx, c.Path(), c.handleSnapshot, c.handleError)
	if err != nil {
		unwatch()
		c.fatal(err)
		return err
	}

	c.mu.Lock()
	c.sub = sub
	c.unwatch = unwatch
	c.connected = true
	c.mu.Unlock()

	c.update(func(s *State) {
		s.WriteEnabled = true
		if s.Status.Kind != StatusError {
			s.Status = Status{Text: StatusConnected, Kind: StatusSuccess}
		}
	})
	return nil
}

// Submit appends one entry. Incomplete input is reported inline without a
// write; while the write is outstanding the affordance is busy, and it is
// re-enabled whatever the outcome.
func (c *Controller) Submit(ctx context.Context, fields store.Fields) (store.Entry, error) {
	c.mu.Lock()
	session, schema, closed, connected := c.session, c.state.Schema, c.closed, c.connected
	c.mu.Unlock()
	if closed {
		return store.Entry{}, ErrClosed
	}
	if !connected {
		return store.Entry{}, errors.New("not connected")
	}

	if _, err := schema.Normalize(fields); err != nil {
		var vErr *store.ValidationError
		if errors.As(err, &vErr) {
			c.update(func(s *State) { s.Status = Status{Text: validationText(schema, vErr), Kind: StatusWarning} })
			return store.Entry{}, newValidationError(vErr)
		}
		return store.Entry{}, err
	}

	if err := c.form.Begin(); err != nil {
		return store.Entry{}, err
	}
	defer func() {
		c.form.End()
		c.update(func(s *State) {
			s.Busy = false
			s.WriteEnabled = c.connected
		})
	}()

	c.update(func(s *State) {
		s.Busy = true
		s.WriteEnabled = false
		s.Status = Status{Text: StatusAdding, Kind: StatusInfo}
	})

	entry, err := session.Append(ctx, c.Path(), fields)
	if err != nil {
		logger.Sugar.Errorf("Error adding entry: %v", err)
		c.update(func(s *State) { s.Status = Status{Text: StatusAddFailed, Kind: StatusError} })
		return store.Entry{}, err
	}

	c.update(func(s *State) { s.Status = Status{Text: StatusAdded, Kind: StatusSuccess} })
	return entry, nil
}

// Select reacts to a row being picked. On a playable collection it shows
// what is playing and reports true.
func (c *Controller) Select(entryID string) bool {
	c.mu.Lock()
	schema, view := c.state.Schema, c.state.View
	c.mu.Unlock()

	if !schema.Playable {
		return false
	}
	row, ok := view.Row(entryID)
	if !ok {
		return false
	}
	text := fmt.Sprintf("Playing: %q from %q", row.Detail, row.Title)
	c.update(func(s *State) { s.Status = Status{Text: text, Kind: StatusPlaying} })
	return true
}

// Close cancels the subscription and ends the session. A write still in
// flight runs to completion but no longer changes the state.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.connected = false
	sub, session, unwatch := c.sub, c.session, c.unwatch
	c.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
	if sub != nil {
		sub.Cancel()
	}
	if session != nil {
		session.Close()
	}
}

func (c *Controller) handleSnapshot(snap store.Snapshot) {
	c.mu.Lock()
	schema := c.state.Schema
	c.mu.Unlock()

	view := Render(schema, snap)
	c.update(func(s *State) {
		s.View = view
		s.Loading = false
	})
}

func (c *Controller) handleError(err error) {
	logger.Sugar.Errorf("Error fetching data: %v", err)
	c.update(func(s *State) {
		s.Loading = false
		s.Status = Status{Text: StatusLoadFailed, Kind: StatusError}
	})
}

func (c *Controller) fatal(err error) {
	logger.Sugar.Errorf("Initialization error: %v", err)
	c.update(func(s *State) {
		s.Loading = false
		s.WriteEnabled = false
		s.Status = Status{Text: fmt.Sprintf("Error: %v.", err), Kind: StatusError}
	})
}

// update applies fn and notifies the observer. It is a no-op once the
// controller is closed, which keeps late completions away from the view.
func (c *Controller) update(fn func(*State)) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fn(&c.state)
	state, observer := c.state, c.onChange
	c.mu.Unlock()

	if observer != nil {
		observer(state)
	}
}

func validationText(schema store.Schema, err *store.ValidationError) string {
	switch err.Reason {
	case "is required", "must not be empty":
		if schema.IncompleteText != "" {
			return schema.IncompleteText
		}
	}
	return err.Error()
}
