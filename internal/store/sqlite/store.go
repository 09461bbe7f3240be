// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

// Package sqlite implements store.Store on a single SQLite database with the
// sqlite-vec extension providing the vec0 vector index.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/braid-db/braid/internal/store"
	braiderr "github.com/braid-db/braid/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store holds the relational tables and the vec0 virtual tables behind one
// database handle, so a single transaction can span both.
type Store struct {
	db     *sql.DB
	schema store.Schema
}

// Open opens (or creates) the collection database at dbPath and initialises
// the document, tag, relation, and chunk tables plus the vec0 virtual
// tables. The schema is fixed at creation time; reopening with a different
// dimension or metric is an error.
func Open(dbPath string, schema store.Schema) (*Store, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "pinging sqlite db: %w", err)
	}

	if err := migrate(db, schema); err != nil {
		_ = db.Close()
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "migrating collection tables: %w", err)
	}

	if err := checkCollectionMeta(db, schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, schema: schema}, nil
}

func migrate(db *sql.DB, schema store.Schema) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS docs (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	content TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS docs_tags_rel (
	doc_id INTEGER NOT NULL,
	tag_id INTEGER NOT NULL,
	PRIMARY KEY (doc_id, tag_id),
	FOREIGN KEY (doc_id) REFERENCES docs(id) ON DELETE CASCADE,
	FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS chunks (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	doc_id  INTEGER NOT NULL,
	content TEXT NOT NULL,
	FOREIGN KEY (doc_id) REFERENCES docs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(doc_id);

CREATE TABLE IF NOT EXISTS collection_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("creating relational tables: %w", err)
	}

	if _, err := db.Exec(vecDocsDDL(schema)); err != nil {
		return fmt.Errorf("creating vec_docs virtual table: %w", err)
	}

	if schema.Chunked {
		if _, err := db.Exec(vecChunksDDL(schema)); err != nil {
			return fmt.Errorf("creating vec_chunks virtual table: %w", err)
		}
	}

	return nil
}

// vecDocsDDL builds the vec0 declaration for the document index: one
// embedding per doc id plus the declared attribute columns.
func vecDocsDDL(schema store.Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE VIRTUAL TABLE IF NOT EXISTS vec_docs USING vec0(doc_id INTEGER PRIMARY KEY, embedding FLOAT[%d]", schema.Dimensions)
	if schema.Metric == store.MetricCosine {
		b.WriteString(" distance_metric=cosine")
	}
	for _, f := range schema.Attributes {
		fmt.Fprintf(&b, ", %s %s", f.Name, attrSQLType(f.Type))
	}
	b.WriteString(")")
	return b.String()
}

func vecChunksDDL(schema store.Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(chunk_id INTEGER PRIMARY KEY, embedding FLOAT[%d]", schema.Dimensions)
	if schema.Metric == store.MetricCosine {
		b.WriteString(" distance_metric=cosine")
	}
	b.WriteString(")")
	return b.String()
}

func attrSQLType(t store.AttributeType) string {
	switch t {
	case store.AttributeInteger:
		return "INTEGER"
	case store.AttributeFloat:
		return "FLOAT"
	default:
		return "TEXT"
	}
}

// checkCollectionMeta persists the collection's dimension and metric on
// first open and rejects reopening with a different declaration, since the
// vec0 table cannot be reshaped in place.
func checkCollectionMeta(db *sql.DB, schema store.Schema) error {
	want := map[string]string{
		"dimensions": fmt.Sprintf("%d", schema.Dimensions),
		"metric":     string(schema.Metric),
	}

	for key, val := range want {
		var got string
		err := db.QueryRow(`SELECT value FROM collection_meta WHERE key = ?`, key).Scan(&got)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := db.Exec(`INSERT INTO collection_meta (key, value) VALUES (?, ?)`, key, val); err != nil {
				return braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "recording collection %s: %w", key, err)
			}
		case err != nil:
			return braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "reading collection %s: %w", key, err)
		case got != val:
			return braiderr.New(braiderr.CodeConfigValidateInvalidValue,
				"collection "+key+" mismatch: stored "+got+", configured "+val)
		}
	}

	return nil
}

// Schema returns the collection declaration this store was opened with.
func (s *Store) Schema() store.Schema {
	return s.schema
}

// WithTx runs fn inside one write transaction. Both the relational tables
// and the vec0 virtual tables live in the same database, so this is the
// atomic unit the write coordinator relies on.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.DBTX) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "committing transaction: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
