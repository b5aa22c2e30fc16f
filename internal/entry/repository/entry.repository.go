package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"collablist/pkg/logger"
	"collablist/store"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type EntryRepository struct {
	DB sq.StdSqlCtx
}

func NewEntryRepository(db sq.StdSqlCtx) *EntryRepository {
	return &EntryRepository{DB: db}
}

// Insert stores a new entry and returns the creation time assigned by the database.
func (r *EntryRepository) Insert(ctx context.Context, e store.Entry) (time.Time, error) {
	// lib/pq wants JSONB parameters as strings, not []byte
	body, err := json.Marshal(e.Fields)
	if err != nil {
		return time.Time{}, fmt.Errorf("encode fields: %w", err)
	}

	query, args, err := psql.Insert("entries").
		Columns("id", "collection_path", "fields", "added_by").
		Values(e.ID, e.Collection, string(body), e.AddedBy).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return time.Time{}, fmt.Errorf("build insert: %w", err)
	}

	var createdAt time.Time
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&createdAt); err != nil {
		logger.Sugar.Errorf("Failed to insert entry into %s: %v", e.Collection, err)
		return time.Time{}, err
	}
	return createdAt, nil
}

// ListByCollection returns every entry of a collection in storage order.
func (r *EntryRepository) ListByCollection(ctx context.Context, path string) (store.Snapshot, error) {
	query, args, err := psql.Select("id", "fields", "added_by", "created_at").
		From("entries").
		Where(sq.Eq{"collection_path": path}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to list entries of %s: %v", path, err)
		return nil, err
	}
	defer rows.Close()

	snap := store.Snapshot{}
	for rows.Next() {
		var (
			e    store.Entry
			body []byte
		)
		if err := rows.Scan(&e.ID, &body, &e.AddedBy, &e.CreatedAt); err != nil {
			logger.Sugar.Warnf("Skipping unreadable entry in %s: %v", path, err)
			continue
		}
		if err := json.Unmarshal(body, &e.Fields); err != nil {
			logger.Sugar.Warnf("Skipping entry %s with malformed fields: %v", e.ID, err)
			continue
		}
		e.Collection = path
		snap = append(snap, e)
	}
	return snap, rows.Err()
}
