package store

import "time"

// Fields is the document body of an entry, keyed by field name.
type Fields map[string]any

// Entry is one immutable record appended to a shared collection.
type Entry struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	Fields     Fields    `json:"fields"`
	AddedBy    string    `json:"added_by"`
	CreatedAt  time.Time `json:"created_at"` // assigned by the store, zero while pending
}

// Snapshot is the full member set of a collection at one point in time.
type Snapshot []Entry

// String returns the named field as a string, or "" when absent or not a string.
func (e Entry) String(field string) string {
	s, _ := e.Fields[field].(string)
	return s
}

// Number returns the named field as a float64.
func (e Entry) Number(field string) (float64, bool) {
	switch v := e.Fields[field].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
