// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

// Package store defines the retrieval engine's storage contracts: a
// relational metadata store and a vector index that together form one
// transactional domain.
package store

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx. Write
// methods take a DBTX so the write coordinator can span the relational
// tables and the vector index with one transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MetadataStore is canonical storage for document text, tags, and the
// many-to-many document/tag relation.
type MetadataStore interface {
	CreateDocument(ctx context.Context, dbtx DBTX, content string) (int64, error)
	UpdateDocument(ctx context.Context, dbtx DBTX, id int64, content string) error
	// DeleteDocument removes the document row and cascades its tag relations
	// and chunks. Deleting an absent id is a no-op.
	DeleteDocument(ctx context.Context, dbtx DBTX, id int64) error
	// GetDocuments hydrates a set of ids; ids not found are absent from the
	// result, not an error.
	GetDocuments(ctx context.Context, ids []int64) (map[int64]string, error)
	CountDocuments(ctx context.Context) (int64, error)

	// UpsertTag returns the existing id when name is already present,
	// otherwise creates the tag. Atomic: concurrent upserts of the same
	// name never produce two rows.
	UpsertTag(ctx context.Context, dbtx DBTX, name string) (int64, error)
	RelateDocTag(ctx context.Context, dbtx DBTX, docID, tagID int64) error
	// FindDocsWithAllTags returns documents related to every one of the
	// given tag names (AND semantics).
	FindDocsWithAllTags(ctx context.Context, names []string) ([]int64, error)

	CreateChunk(ctx context.Context, dbtx DBTX, docID int64, content string) (int64, error)
	GetChunks(ctx context.Context, ids []int64) (map[int64]Chunk, error)
	// ChunkParents maps chunk ids to their parent document ids.
	ChunkParents(ctx context.Context, ids []int64) (map[int64]int64, error)
	ChunkIDsForDoc(ctx context.Context, dbtx DBTX, docID int64) ([]int64, error)
}

// VectorIndex stores one embedding per indexed id plus declared attribute
// columns, and answers nearest-neighbor queries ordered by ascending
// distance.
type VectorIndex interface {
	UpsertVector(ctx context.Context, dbtx DBTX, docID int64, embedding []float32, attrs map[string]string) error
	// UpdateVector replaces only the embedding, keeping attribute columns.
	// Reports whether an entry existed.
	UpdateVector(ctx context.Context, dbtx DBTX, docID int64, embedding []float32) (bool, error)
	DeleteVector(ctx context.Context, dbtx DBTX, docID int64) error
	// SearchVectors returns up to k matches. With a non-empty attrs
	// predicate only entries matching every attribute appear; fewer than k
	// matches is a legal result, not an error.
	SearchVectors(ctx context.Context, query []float32, k int, attrs map[string]string) ([]VectorMatch, error)

	UpsertChunkVector(ctx context.Context, dbtx DBTX, chunkID int64, embedding []float32) error
	DeleteChunkVectors(ctx context.Context, dbtx DBTX, chunkIDs []int64) error
	SearchChunkVectors(ctx context.Context, query []float32, k int) ([]VectorMatch, error)

	// OrphanVectorIDs reports vector entries whose document no longer
	// exists. A correct write coordinator keeps this empty.
	OrphanVectorIDs(ctx context.Context) ([]int64, error)
	OrphanChunkVectorIDs(ctx context.Context) ([]int64, error)
}

// Store is the single transactional domain: relational metadata plus the
// vector index behind one database handle.
type Store interface {
	MetadataStore
	VectorIndex

	// WithTx runs fn inside one serialized write transaction spanning both
	// halves of the store. fn returning an error rolls everything back.
	WithTx(ctx context.Context, fn func(tx DBTX) error) error

	Schema() Schema
	Close() error
}
