// Package pgvector backs the vector store contract with Postgres and the
// pgvector extension. Each collection is one table named "rag-<name>"
// with a vector(D) column ordered by cosine distance.
package pgvector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"topic-rag/internal/config"
	"topic-rag/internal/models"
)

const tablePrefix = "rag-"

type Store struct {
	db  *bun.DB
	dim int
}

func New(cfg *config.DatabaseConfig, dim int) (*Store, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithPassword(cfg.Password),
	))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Store{db: db, dim: dim}, nil
}

func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM pg_tables WHERE schemaname = 'public' AND tablename = ?",
		tablePrefix+name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("pgvector collection exists: %w", err)
	}
	return count > 0, nil
}

func (s *Store) CreateCollection(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("pgvector create extension: %w", err)
	}
	_, err := s.db.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS ? (id text PRIMARY KEY, embedding vector(?), content text, source text, file_path text, chunk_type text)",
		bun.Ident(tablePrefix+name), s.dim,
	)
	if err != nil {
		return fmt.Errorf("pgvector create collection: %w", err)
	}
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS ?", bun.Ident(tablePrefix+name)); err != nil {
		return fmt.Errorf("pgvector delete collection: %w", err)
	}
	return nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename")
	if err != nil {
		return nil, fmt.Errorf("pgvector list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, fmt.Errorf("pgvector list collections: %w", err)
		}
		if strings.HasPrefix(table, tablePrefix) {
			names = append(names, strings.TrimPrefix(table, tablePrefix))
		}
	}
	return names, rows.Err()
}

func (s *Store) Upsert(ctx context.Context, collection string, records []models.Record) error {
	for _, rec := range records {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO ? (id, embedding, content, source, file_path, chunk_type)
			 VALUES (?, ?::vector, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			   embedding = EXCLUDED.embedding,
			   content = EXCLUDED.content,
			   source = EXCLUDED.source,
			   file_path = EXCLUDED.file_path,
			   chunk_type = EXCLUDED.chunk_type`,
			bun.Ident(tablePrefix+collection),
			rec.ID, vectorLiteral(rec.Vector),
			rec.Payload.Content, rec.Payload.Source, rec.Payload.FilePath, rec.Payload.Type,
		)
		if err != nil {
			return fmt.Errorf("pgvector upsert: %w", err)
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*models.Record, error) {
	var p models.Payload
	err := s.db.QueryRowContext(ctx,
		"SELECT content, source, file_path, chunk_type FROM ? WHERE id = ?",
		bun.Ident(tablePrefix+collection), id,
	).Scan(&p.Content, &p.Source, &p.FilePath, &p.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %q: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("pgvector get: %w", err)
	}
	return &models.Record{ID: id, Payload: p}, nil
}

func (s *Store) DeleteByID(ctx context.Context, collection string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM ? WHERE id IN (?)",
		bun.Ident(tablePrefix+collection), bun.In(ids),
	); err != nil {
		return fmt.Errorf("pgvector delete by id: %w", err)
	}
	return nil
}

func (s *Store) DeleteByFilter(ctx context.Context, collection string, filter map[string]string) error {
	query, args := filterClause("DELETE FROM ?", tablePrefix+collection, filter)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("pgvector delete by filter: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, vector []float32, topK int, filter map[string]string) ([]models.Payload, error) {
	if topK <= 0 {
		topK = 5
	}
	query, args := filterClause(
		"SELECT content, source, file_path, chunk_type FROM ?", tablePrefix+collection, filter)
	query += " ORDER BY embedding <=> ?::vector LIMIT ?"
	args = append(args, vectorLiteral(vector), topK)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgvector query: %w", err)
	}
	defer rows.Close()

	var payloads []models.Payload
	for rows.Next() {
		var p models.Payload
		if err := rows.Scan(&p.Content, &p.Source, &p.FilePath, &p.Type); err != nil {
			return nil, fmt.Errorf("pgvector query: %w", err)
		}
		payloads = append(payloads, p)
	}
	return payloads, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// filterClause appends a WHERE clause for each filter field. The "type"
// filter key maps to the chunk_type column.
func filterClause(query, table string, filter map[string]string) (string, []any) {
	args := []any{bun.Ident(table)}
	sep := " WHERE "
	for key, value := range filter {
		column := key
		if key == "type" {
			column = "chunk_type"
		}
		query += sep + "? = ?"
		args = append(args, bun.Ident(column), value)
		sep = " AND "
	}
	return query, args
}

// vectorLiteral renders a vector in pgvector input syntax, e.g. [1,2,3].
func vectorLiteral(vector []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%g", v)
	}
	b.WriteByte(']')
	return b.String()
}
