package listsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"collablist/pkg/logger"
	"collablist/socket"
	"collablist/store"

	"github.com/gorilla/websocket"
)

const closeWait = time.Second

// Subscription is a live listener on one collection. Every update carries the
// full member set; there is no diffing. Once canceled or failed it is not
// restartable, subscribe again instead.
type Subscription struct {
	path     store.CollectionPath
	session  *Session
	conn     *websocket.Conn
	onUpdate func(store.Snapshot)
	onError  func(error)

	mu       sync.Mutex
	canceled bool
	failed   bool
	done     chan struct{}

	// Held while a callback runs. reader is the goroutine that runs them.
	deliverMu sync.Mutex
	reader    atomic.Uint64
}

// Subscribe opens the live feed of path. onUpdate receives every snapshot in
// the order the store emits them, from a single goroutine. onError is called
// at most once and ends the subscription; it is never resubscribed.
func (s *Session) Subscribe(ctx context.Context, path store.CollectionPath, onUpdate func(store.Snapshot), onError func(error)) (*Subscription, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	if onUpdate == nil {
		return nil, errors.New("subscribe: onUpdate is required")
	}

	q := url.Values{}
	q.Set("collection", path.String())
	q.Set("token", s.token)
	conn, _, err := s.dialer.DialContext(ctx, s.cfg.Store.wsURL()+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &SubscriptionError{Path: path.String(), Err: err}
	}

	sub := &Subscription{
		path:     path,
		session:  s,
		conn:     conn,
		onUpdate: onUpdate,
		onError:  onError,
		done:     make(chan struct{}),
	}
	if !s.track(sub) {
		conn.Close()
		return nil, ErrClosed
	}

	go sub.run()
	logger.Sugar.Infof("Subscribed to %s", path)
	return sub, nil
}

func (sub *Subscription) run() {
	sub.reader.Store(goroutineID())
	defer func() {
		sub.conn.Close()
		sub.session.forget(sub)
		close(sub.done)
	}()

	for {
		_, data, err := sub.conn.ReadMessage()
		if err != nil {
			sub.fail(err)
			return
		}

		var msg socket.WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sub.fail(fmt.Errorf("malformed message: %w", err))
			return
		}

		switch msg.Type {
		case socket.SnapshotType:
			var snap store.Snapshot
			if err := json.Unmarshal(msg.Payload, &snap); err != nil {
				sub.fail(fmt.Errorf("malformed snapshot: %w", err))
				return
			}
			sub.deliver(func() { sub.onUpdate(snap) })
		case socket.ErrorType:
			var payload socket.ErrorPayload
			json.Unmarshal(msg.Payload, &payload)
			if payload.Message == "" {
				payload.Message = "subscription rejected"
			}
			sub.fail(errors.New(payload.Message))
			return
		default:
			logger.Sugar.Warnf("Ignoring message of type %q on %s", msg.Type, sub.path)
		}
	}
}

// deliver runs fn unless the subscription was canceled. fn runs under
// deliverMu, which Cancel waits on, so no callback is running or begins once
// Cancel has returned. fn may call Cancel itself.
func (sub *Subscription) deliver(fn func()) {
	sub.deliverMu.Lock()
	defer sub.deliverMu.Unlock()

	sub.mu.Lock()
	canceled := sub.canceled
	sub.mu.Unlock()
	if canceled {
		return
	}
	fn()
}

func (sub *Subscription) fail(err error) {
	sub.mu.Lock()
	if sub.failed || sub.canceled {
		sub.mu.Unlock()
		return
	}
	sub.failed = true
	sub.mu.Unlock()

	logger.Sugar.Errorf("Subscription to %s failed: %v", sub.path, err)
	if sub.onError != nil {
		sub.deliver(func() { sub.onError(&SubscriptionError{Path: sub.path.String(), Err: err}) })
	}
}

// Cancel stops delivery. When called from another goroutine it waits for a
// running callback to return; from inside a callback it returns at once. A
// second call has no further effect.
func (sub *Subscription) Cancel() {
	sub.mu.Lock()
	first := !sub.canceled
	sub.canceled = true
	sub.mu.Unlock()

	if first {
		sub.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWait))
		sub.conn.Close()
		logger.Sugar.Infof("Unsubscribed from %s", sub.path)
	}

	if goroutineID() != sub.reader.Load() {
		sub.deliverMu.Lock()
		sub.deliverMu.Unlock()
	}
}

// Done is closed once the subscription's reader has stopped.
func (sub *Subscription) Done() <-chan struct{} {
	return sub.done
}

func (sub *Subscription) Path() store.CollectionPath {
	return sub.path
}

// goroutineID parses the current goroutine's id from its stack header
// ("goroutine 42 [running]:").
func goroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}
