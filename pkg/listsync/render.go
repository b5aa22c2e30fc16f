package listsync

import (
	"time"

	"collablist/store"
)

// Row is one rendered entry.
type Row struct {
	ID          string
	Title       string
	Detail      string
	DetailLabel string
	AddedBy     string
	CreatedAt   time.Time
	Entry       store.Entry
}

// View is the display form of a snapshot. An empty snapshot is an explicit
// Empty state carrying the collection's empty text, never a bare list.
type View struct {
	Empty     bool
	EmptyText string
	Rows      []Row
}

// Render orders the snapshot newest first and formats each entry. It does
// not modify snap and returns the same View for the same input.
func Render(schema store.Schema, snap store.Snapshot) View {
	if len(snap) == 0 {
		return View{Empty: true, EmptyText: schema.EmptyText}
	}

	sorted := store.SortNewestFirst(snap)
	rows := make([]Row, 0, len(sorted))
	for _, e := range sorted {
		rows = append(rows, Row{
			ID:          e.ID,
			Title:       schema.Title(e),
			Detail:      schema.Detail(e),
			DetailLabel: schema.DetailLabel,
			AddedBy:     TruncateID(e.AddedBy, schema.AuthorPrefix),
			CreatedAt:   e.CreatedAt,
			Entry:       e,
		})
	}
	return View{Rows: rows}
}

// TruncateID shortens a user id for display: the first n characters
// followed by "...".
func TruncateID(id string, n int) string {
	runes := []rune(id)
	if n > 0 && len(runes) > n {
		runes = runes[:n]
	}
	return string(runes) + "..."
}

// Row looks a rendered entry up by id.
func (v View) Row(id string) (Row, bool) {
	for _, r := range v.Rows {
		if r.ID == id {
			return r, true
		}
	}
	return Row{}, false
}
