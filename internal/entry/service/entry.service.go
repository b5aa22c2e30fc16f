package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collablist/pkg/logger"
	"collablist/store"

	"github.com/google/uuid"
)

var ErrUnknownCollection = errors.New("unknown collection")

type Repository interface {
	Insert(ctx context.Context, e store.Entry) (time.Time, error)
	ListByCollection(ctx context.Context, path string) (store.Snapshot, error)
}

// Publisher fans a freshly stored entry out to live subscribers.
type Publisher interface {
	Publish(path string, e store.Entry)
}

type EntryService struct {
	Repo Repository
	Hub  Publisher
}

func NewEntryService(repo Repository, hub Publisher) *EntryService {
	return &EntryService{Repo: repo, Hub: hub}
}

// Resolve parses a collection path and finds the schema of its collection.
func (s *EntryService) Resolve(rawPath string) (store.CollectionPath, store.Schema, error) {
	path, err := store.ParseCollectionPath(rawPath)
	if err != nil {
		return store.CollectionPath{}, store.Schema{}, err
	}
	schema, ok := store.LookupSchema(path.Collection)
	if !ok {
		return store.CollectionPath{}, store.Schema{}, fmt.Errorf("%w: %s", ErrUnknownCollection, path.Collection)
	}
	return path, schema, nil
}

// Append validates fields, stores one new entry authored by userID and
// publishes it. Every call creates a new entry; there is no de-duplication.
func (s *EntryService) Append(ctx context.Context, userID, rawPath string, fields store.Fields) (store.Entry, error) {
	path, schema, err := s.Resolve(rawPath)
	if err != nil {
		return store.Entry{}, err
	}

	normalized, err := schema.Normalize(fields)
	if err != nil {
		return store.Entry{}, err
	}

	entry := store.Entry{
		ID:         uuid.NewString(),
		Collection: path.String(),
		Fields:     normalized,
		AddedBy:    userID,
	}
	createdAt, err := s.Repo.Insert(ctx, entry)
	if err != nil {
		return store.Entry{}, fmt.Errorf("store entry: %w", err)
	}
	entry.CreatedAt = createdAt

	s.Hub.Publish(entry.Collection, entry)
	logger.Sugar.Infof("Entry %s appended to %s by %s", entry.ID, entry.Collection, userID)
	return entry, nil
}

// Snapshot returns the full member set of a collection, unordered.
func (s *EntryService) Snapshot(ctx context.Context, rawPath string) (store.Snapshot, error) {
	path, _, err := s.Resolve(rawPath)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListByCollection(ctx, path.String())
}
