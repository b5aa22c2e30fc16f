package listsync

import (
	"testing"
	"time"

	"collablist/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

func jukeboxEntry(id, movie, song string, createdAt time.Time) store.Entry {
	return store.Entry{
		ID:        id,
		Fields:    store.Fields{"movie": movie, "song": song},
		AddedBy:   "user-0123456789abcdef",
		CreatedAt: createdAt,
	}
}

func TestRenderNewestFirst(t *testing.T) {
	snap := store.Snapshot{
		jukeboxEntry("a", "Inception", "Time", at(100)),
		jukeboxEntry("b", "Up", "Married Life", at(200)),
	}

	view := Render(store.JukeboxSchema, snap)
	require.False(t, view.Empty)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "Up", view.Rows[0].Title)
	assert.Equal(t, "Married Life", view.Rows[0].Detail)
	assert.Equal(t, "Inception", view.Rows[1].Title)
	assert.Equal(t, "Time", view.Rows[1].Detail)
	assert.Equal(t, "Iconic Song", view.Rows[0].DetailLabel)

	// The input keeps its order.
	assert.Equal(t, "a", snap[0].ID)
}

func TestRenderIsIdempotent(t *testing.T) {
	snap := store.Snapshot{
		jukeboxEntry("a", "Inception", "Time", at(100)),
		jukeboxEntry("c", "Jaws", "Main Title", at(50)),
		jukeboxEntry("b", "Up", "Married Life", at(200)),
	}

	first := Render(store.JukeboxSchema, snap)
	second := Render(store.JukeboxSchema, snap)
	assert.Equal(t, first, second)

	var ids []string
	for _, r := range first.Rows {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
}

func TestRenderMatchesDescendingOrder(t *testing.T) {
	var snap store.Snapshot
	for i, sec := range []int64{7, 3, 9, 1, 5} {
		snap = append(snap, jukeboxEntry(string(rune('a'+i)), "m", "s", at(sec)))
	}

	view := Render(store.JukeboxSchema, snap)
	for i := 1; i < len(view.Rows); i++ {
		assert.False(t, view.Rows[i].CreatedAt.After(view.Rows[i-1].CreatedAt))
	}
}

func TestRenderPendingTimestampsLast(t *testing.T) {
	snap := store.Snapshot{
		jukeboxEntry("pending", "Heat", "Force Marker", time.Time{}),
		jukeboxEntry("stored", "Up", "Married Life", at(200)),
	}

	view := Render(store.JukeboxSchema, snap)
	assert.Equal(t, "stored", view.Rows[0].ID)
	assert.Equal(t, "pending", view.Rows[1].ID)
}

func TestRenderEmptyState(t *testing.T) {
	for _, snap := range []store.Snapshot{nil, {}} {
		view := Render(store.JukeboxSchema, snap)
		assert.True(t, view.Empty)
		assert.Equal(t, store.JukeboxSchema.EmptyText, view.EmptyText)
		assert.Empty(t, view.Rows)
	}

	view := Render(store.CatalogSchema, store.Snapshot{})
	assert.Equal(t, "The catalog is empty. Add the first product above!", view.EmptyText)
}

func TestRenderCatalog(t *testing.T) {
	snap := store.Snapshot{{
		ID:        "p1",
		Fields:    store.Fields{"name": "Wireless Headset", "price": 99.9},
		AddedBy:   "abcdefghijklmnop",
		CreatedAt: at(10),
	}}

	row := Render(store.CatalogSchema, snap).Rows[0]
	assert.Equal(t, "Wireless Headset", row.Title)
	assert.Equal(t, "$99.90", row.Detail)
	assert.Equal(t, "abcdefgh...", row.AddedBy)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "0123456789...", TruncateID("0123456789abcdef", 10))
	assert.Equal(t, "short...", TruncateID("short", 10))
	assert.Equal(t, "...", TruncateID("", 10))
}

func TestViewRow(t *testing.T) {
	view := Render(store.JukeboxSchema, store.Snapshot{jukeboxEntry("a", "Up", "Married Life", at(1))})

	row, ok := view.Row("a")
	require.True(t, ok)
	assert.Equal(t, "Up", row.Title)

	_, ok = view.Row("missing")
	assert.False(t, ok)
}

func TestFormGuard(t *testing.T) {
	var f Form
	require.NoError(t, f.Begin())
	assert.True(t, f.Busy())
	assert.ErrorIs(t, f.Begin(), ErrBusy)

	f.End()
	assert.False(t, f.Busy())
	assert.NoError(t, f.Begin())
}
