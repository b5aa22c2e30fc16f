package listsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"collablist/pkg/logger"
	"collablist/store"
)

// Append validates fields locally and then issues exactly one write authored
// by the session's user. The store assigns createdAt. Repeated calls create
// repeated entries; nothing is de-duplicated and the write is never retried.
func (s *Session) Append(ctx context.Context, path store.CollectionPath, fields store.Fields) (store.Entry, error) {
	schema, ok := store.LookupSchema(path.Collection)
	if !ok {
		return store.Entry{}, newValidationError(&store.ValidationError{Field: "collection", Reason: "is not a known collection"})
	}
	normalized, err := schema.Normalize(fields)
	if err != nil {
		var vErr *store.ValidationError
		if errors.As(err, &vErr) {
			return store.Entry{}, newValidationError(vErr)
		}
		return store.Entry{}, err
	}

	if s.isClosed() {
		return store.Entry{}, ErrClosed
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.token).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("collection", path.String()).
		SetBody(map[string]any{"fields": normalized}).
		Post("/api/collections/entries")
	if err != nil {
		return store.Entry{}, &WriteError{Path: path.String(), Err: fmt.Errorf("append request: %w", err)}
	}
	if err := responseError(resp); err != nil {
		return store.Entry{}, &WriteError{Path: path.String(), Err: err}
	}

	var entry store.Entry
	if err := json.Unmarshal(resp.Body(), &entry); err != nil {
		return store.Entry{}, &WriteError{Path: path.String(), Err: fmt.Errorf("decode entry: %w", err)}
	}

	logger.Sugar.Infof("Appended entry %s to %s", entry.ID, path)
	return entry, nil
}
