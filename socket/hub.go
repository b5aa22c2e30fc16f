package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"collablist/pkg/logger"
	"collablist/store"

	"github.com/gorilla/websocket"
)

const (
	SnapshotType = "SNAPSHOT" // Full member set of a collection
	ErrorType    = "ERROR"    // Subscription failed, the socket is closed right after

	loadTimeout = 5 * time.Second
)

type WSMessage struct {
	Type       string          `json:"type"`
	Collection string          `json:"collection"`
	Payload    json.RawMessage `json:"payload"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// SnapshotLoader reads the stored member set of a collection.
type SnapshotLoader interface {
	ListByCollection(ctx context.Context, path string) (store.Snapshot, error)
}

type publication struct {
	path  string
	entry store.Entry
}

type reload struct {
	path string
	snap store.Snapshot
}

// Hub keeps one room per collection path. Every subscriber of a room receives
// the full snapshot on join and again after each change.
type Hub struct {
	Rooms      map[string]map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	// Snapshot cache of every active room
	Snapshots map[string]store.Snapshot

	broadcast chan publication
	reloads   chan reload
	loader    SnapshotLoader
	done      chan struct{}
	mu        sync.Mutex
}

type Client struct {
	Hub        *Hub
	Conn       *websocket.Conn
	Collection string
	UserID     string
	Send       chan []byte
}

func NewHub(loader SnapshotLoader) *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Snapshots:  make(map[string]store.Snapshot),
		broadcast:  make(chan publication, 256),
		reloads:    make(chan reload, 16),
		loader:     loader,
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for path, clients := range h.Rooms {
				for client := range clients {
					close(client.Send)
				}
				delete(h.Rooms, path)
				delete(h.Snapshots, path)
			}
			h.mu.Unlock()
			return

		case client := <-h.Register:
			h.register(ctx, client)

		case client := <-h.Unregister:
			h.mu.Lock()
			h.removeClient(client)
			h.mu.Unlock()

		case pub := <-h.broadcast:
			h.mu.Lock()
			snap, ok := h.Snapshots[pub.path]
			if ok && !containsEntry(snap, pub.entry.ID) {
				h.Snapshots[pub.path] = append(snap, pub.entry)
				h.sendSnapshot(pub.path)
			}
			h.mu.Unlock()

		case rl := <-h.reloads:
			h.mu.Lock()
			// Entries are never removed, so a reload can only add members.
			// A read that started before a local append must not drop it.
			if cached, ok := h.Snapshots[rl.path]; ok {
				if merged, grew := mergeEntries(cached, rl.snap); grew {
					h.Snapshots[rl.path] = merged
					h.sendSnapshot(rl.path)
					logger.Sugar.Infof("Collection %s changed in storage, re-sent snapshot", rl.path)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish hands a stored entry to the hub for fan-out.
func (h *Hub) Publish(path string, e store.Entry) {
	select {
	case h.broadcast <- publication{path: path, entry: e}:
	case <-h.done:
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ActiveCollections lists the paths that currently have subscribers.
func (h *Hub) ActiveCollections() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	paths := make([]string, 0, len(h.Rooms))
	for path := range h.Rooms {
		paths = append(paths, path)
	}
	return paths
}

// SyncWorker periodically reloads active collections from storage so entries
// written through another server instance still reach local subscribers.
func (h *Hub) SyncWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.refresh(ctx)
		}
	}
}

func (h *Hub) refresh(ctx context.Context) {
	for _, path := range h.ActiveCollections() {
		loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
		snap, err := h.loader.ListByCollection(loadCtx, path)
		cancel()
		if err != nil {
			logger.Sugar.Errorf("Failed to refresh collection %s: %v", path, err)
			continue
		}
		select {
		case h.reloads <- reload{path: path, snap: snap}:
		case <-ctx.Done():
			return
		case <-h.done:
			return
		}
	}
}

func (h *Hub) register(ctx context.Context, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.Rooms[client.Collection] == nil {
		loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
		snap, err := h.loader.ListByCollection(loadCtx, client.Collection)
		cancel()
		if err != nil {
			logger.Sugar.Errorf("Failed to load collection %s: %v", client.Collection, err)
			client.Send <- errorMessage(client.Collection, "Error loading data from the store.")
			close(client.Send)
			return
		}
		if snap == nil {
			snap = store.Snapshot{}
		}
		h.Rooms[client.Collection] = make(map[*Client]bool)
		h.Snapshots[client.Collection] = snap
	}
	h.Rooms[client.Collection][client] = true

	payload, err := snapshotMessage(client.Collection, h.Snapshots[client.Collection])
	if err != nil {
		logger.Sugar.Errorf("Error marshalling snapshot of %s: %v", client.Collection, err)
		return
	}
	client.Send <- payload
	logger.Sugar.Infof("User %s subscribed to %s", client.UserID, client.Collection)
}

// removeClient must be called with h.mu held.
func (h *Hub) removeClient(client *Client) {
	clients, ok := h.Rooms[client.Collection]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Send)

	if len(clients) == 0 {
		delete(h.Rooms, client.Collection)
		delete(h.Snapshots, client.Collection)
		logger.Sugar.Infof("Closed and cleaned up empty room: %s", client.Collection)
	}
}

// sendSnapshot must be called with h.mu held.
func (h *Hub) sendSnapshot(path string) {
	payload, err := snapshotMessage(path, h.Snapshots[path])
	if err != nil {
		logger.Sugar.Errorf("Error marshalling snapshot of %s: %v", path, err)
		return
	}

	for client := range h.Rooms[path] {
		select {
		case client.Send <- payload:
		default:
			// The client is lagging, drop it rather than block the hub.
			logger.Sugar.Warnf("Client %s's send buffer is full. Unregistering.", client.UserID)
			h.removeClient(client)
		}
	}
}

func snapshotMessage(path string, snap store.Snapshot) ([]byte, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: SnapshotType, Collection: path, Payload: body})
}

func errorMessage(path, message string) []byte {
	body, _ := json.Marshal(ErrorPayload{Message: message})
	msg, _ := json.Marshal(WSMessage{Type: ErrorType, Collection: path, Payload: body})
	return msg
}

func containsEntry(snap store.Snapshot, id string) bool {
	for _, e := range snap {
		if e.ID == id {
			return true
		}
	}
	return false
}

// mergeEntries appends the members of loaded missing from cached and reports
// whether any were added.
func mergeEntries(cached, loaded store.Snapshot) (store.Snapshot, bool) {
	ids := make(map[string]struct{}, len(cached))
	for _, e := range cached {
		ids[e.ID] = struct{}{}
	}
	merged := cached
	for _, e := range loaded {
		if _, ok := ids[e.ID]; ok {
			continue
		}
		ids[e.ID] = struct{}{}
		merged = append(merged, e)
	}
	return merged, len(merged) > len(cached)
}
