package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"
	"github.com/poiesic/graphrag/core"
	"github.com/poiesic/graphrag/storage"
)

const defaultQueryLimit = 5

// QueryStore is a Postgres/pgvector implementation of storage.QueryStore.
// Records are append-only; supersession chains live entirely in the
// query_embeddings table.
type QueryStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ storage.QueryStore = (*QueryStore)(nil)

// NewQueryStore creates a query store on the given pool. The pool is shared;
// Close does not close it.
func NewQueryStore(pool *pgxpool.Pool) *QueryStore {
	return &QueryStore{
		pool:   pool,
		logger: slog.Default().With("component", "pgvector-query-store"),
	}
}

// InsertQuery stores a new record at version 1 and returns its id.
func (s *QueryStore) InsertQuery(ctx context.Context, record core.QueryEmbeddingRecord) (uuid.UUID, error) {
	if err := core.ValidateQueryRecord(&record); err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	joins, err := json.Marshal(record.Joins)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding joins: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO query_embeddings
			(id, question, sql_query, description, query_type, tables, columns, joins, embedding, version, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, TRUE)`,
		id, record.Question, record.SQLQuery, record.Description, record.QueryType,
		record.Tables, record.Columns, joins, pgv.NewVector(record.Embedding))
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting query record: %w", err)
	}

	s.logger.Debug("inserted query record", "id", id, "query_type", record.QueryType)
	return id, nil
}

// SearchQueries returns records ranked by cosine distance to embedding,
// subject to filter. Only active records are returned unless the filter
// includes inactive ones.
func (s *QueryStore) SearchQueries(ctx context.Context, embedding []float32, filter storage.QueryFilter) ([]core.QueryEmbeddingRecord, error) {
	limit := filter.Limit
	if limit < 1 {
		limit = defaultQueryLimit
	}

	query := `SELECT id, question, sql_query, description, query_type, tables, columns, joins,
			embedding, version, is_active, superseded_by, created_at
		FROM query_embeddings WHERE TRUE`
	args := []any{pgv.NewVector(embedding)}

	if !filter.IncludeInactive {
		query += ` AND is_active`
	}
	if filter.QueryType != "" {
		args = append(args, filter.QueryType)
		query += fmt.Sprintf(` AND query_type = $%d`, len(args))
	}
	if len(filter.Tables) > 0 {
		args = append(args, filter.Tables)
		query += fmt.Sprintf(` AND tables && $%d`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY embedding <=> $1 LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching query records: %w", err)
	}
	defer rows.Close()

	records := make([]core.QueryEmbeddingRecord, 0, limit)
	for rows.Next() {
		record, err := scanQueryRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading query records: %w", err)
	}
	return records, nil
}

// Supersede creates version n+1 of the record in a single transaction,
// carrying over any field left zero in changes, and marks the old version
// inactive with a pointer to its successor.
func (s *QueryStore) Supersede(ctx context.Context, oldID uuid.UUID, changes core.QueryEmbeddingRecord) (uuid.UUID, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the old row so concurrent supersedes of the same id serialize
	// and the loser observes is_active = FALSE.
	old, err := getQueryRecordLocked(ctx, tx, oldID)
	if err != nil {
		return uuid.Nil, err
	}
	if !old.IsActive {
		return uuid.Nil, storage.ErrInactiveRecord
	}

	next := mergeRecord(old, changes)
	newID := uuid.New()
	joins, err := json.Marshal(next.Joins)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding joins: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO query_embeddings
			(id, question, sql_query, description, query_type, tables, columns, joins, embedding, version, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)`,
		newID, next.Question, next.SQLQuery, next.Description, next.QueryType,
		next.Tables, next.Columns, joins, pgv.NewVector(next.Embedding), old.Version+1)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting superseding record: %w", err)
	}

	tag, err := tx.Exec(ctx, deactivateQuerySQL, newID, oldID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("deactivating superseded record: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return uuid.Nil, storage.ErrInactiveRecord
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("committing supersession: %w", err)
	}

	s.logger.Info("superseded query record", "old_id", oldID, "new_id", newID, "version", old.Version+1)
	return newID, nil
}

// GetQuery returns the record with the given id.
func (s *QueryStore) GetQuery(ctx context.Context, id uuid.UUID) (core.QueryEmbeddingRecord, error) {
	return getQueryRecord(ctx, s.pool, id)
}

// Close is a no-op; the pool's owner closes it.
func (s *QueryStore) Close() error {
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const getQuerySQL = `SELECT id, question, sql_query, description, query_type, tables, columns, joins,
		embedding, version, is_active, superseded_by, created_at
	 FROM query_embeddings WHERE id = $1`

// deactivateQuerySQL only matches while the row is still active, so a
// supersede that lost the row lock race affects zero rows.
const deactivateQuerySQL = `UPDATE query_embeddings
	SET is_active = FALSE, superseded_by = $1
	WHERE id = $2 AND is_active`

func getQueryRecord(ctx context.Context, q querier, id uuid.UUID) (core.QueryEmbeddingRecord, error) {
	return queryRecordBySQL(ctx, q, getQuerySQL, id)
}

func lockedQuerySQL() string {
	return getQuerySQL + ` FOR UPDATE`
}

func getQueryRecordLocked(ctx context.Context, q querier, id uuid.UUID) (core.QueryEmbeddingRecord, error) {
	return queryRecordBySQL(ctx, q, lockedQuerySQL(), id)
}

func queryRecordBySQL(ctx context.Context, q querier, sql string, id uuid.UUID) (core.QueryEmbeddingRecord, error) {
	record, err := scanQueryRecord(q.QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.QueryEmbeddingRecord{}, storage.ErrNotFound
	}
	return record, err
}

func scanQueryRecord(row pgx.Row) (core.QueryEmbeddingRecord, error) {
	var record core.QueryEmbeddingRecord
	var joins []byte
	var embedding pgv.Vector
	var supersededBy *uuid.UUID

	err := row.Scan(&record.Id, &record.Question, &record.SQLQuery, &record.Description,
		&record.QueryType, &record.Tables, &record.Columns, &joins, &embedding,
		&record.Version, &record.IsActive, &supersededBy, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.QueryEmbeddingRecord{}, err
		}
		return core.QueryEmbeddingRecord{}, fmt.Errorf("scanning query record: %w", err)
	}

	if len(joins) > 0 {
		if err := json.Unmarshal(joins, &record.Joins); err != nil {
			return core.QueryEmbeddingRecord{}, fmt.Errorf("decoding joins: %w", err)
		}
	}
	record.Embedding = embedding.Slice()
	if supersededBy != nil {
		record.SupersededBy = *supersededBy
	}
	return record, nil
}

func mergeRecord(old, changes core.QueryEmbeddingRecord) core.QueryEmbeddingRecord {
	next := old
	if changes.Question != "" {
		next.Question = changes.Question
	}
	if changes.SQLQuery != "" {
		next.SQLQuery = changes.SQLQuery
	}
	if changes.Description != "" {
		next.Description = changes.Description
	}
	if changes.QueryType != "" {
		next.QueryType = changes.QueryType
	}
	if len(changes.Tables) > 0 {
		next.Tables = changes.Tables
	}
	if len(changes.Columns) > 0 {
		next.Columns = changes.Columns
	}
	if len(changes.Joins) > 0 {
		next.Joins = changes.Joins
	}
	if len(changes.Embedding) > 0 {
		next.Embedding = changes.Embedding
	}
	return next
}
