// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/braid-db/braid/internal/store"
	braiderr "github.com/braid-db/braid/pkg/errors"
)

// UpsertVector inserts or replaces the embedding for a document. vec0 has no
// ON CONFLICT support, so replace is delete-then-insert; run inside the
// coordinator's transaction both steps are atomic.
func (s *Store) UpsertVector(ctx context.Context, dbtx store.DBTX, docID int64, embedding []float32, attrs map[string]string) error {
	if err := s.checkDimensions(embedding); err != nil {
		return braiderr.With(err, braiderr.FieldDocID(docID))
	}

	cols, vals, err := s.attrColumns(attrs)
	if err != nil {
		return braiderr.With(err, braiderr.FieldDocID(docID))
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "serializing embedding for document %d: %w", docID, err)
	}

	if _, err := dbtx.ExecContext(ctx, `DELETE FROM vec_docs WHERE doc_id = ?`, docID); err != nil {
		return braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "replacing vector for document %d: %w", docID, err)
	}

	q := `INSERT INTO vec_docs (doc_id, embedding`
	for _, col := range cols {
		q += ", " + col
	}
	q += `) VALUES (?, ?` + strings.Repeat(", ?", len(cols)) + `)`

	args := append([]any{docID, blob}, vals...)
	if _, err := dbtx.ExecContext(ctx, q, args...); err != nil {
		return braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "inserting vector for document %d: %w", docID, err)
	}
	return nil
}

// UpdateVector replaces the embedding for an existing entry in place,
// keeping its attribute columns. Reports whether an entry existed.
func (s *Store) UpdateVector(ctx context.Context, dbtx store.DBTX, docID int64, embedding []float32) (bool, error) {
	if err := s.checkDimensions(embedding); err != nil {
		return false, braiderr.With(err, braiderr.FieldDocID(docID))
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return false, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "serializing embedding for document %d: %w", docID, err)
	}

	res, err := dbtx.ExecContext(ctx, `UPDATE vec_docs SET embedding = ? WHERE doc_id = ?`, blob, docID)
	if err != nil {
		return false, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "updating vector for document %d: %w", docID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "reading vector update result for document %d: %w", docID, err)
	}
	return n > 0, nil
}

// DeleteVector removes the vector entry for a document if present.
func (s *Store) DeleteVector(ctx context.Context, dbtx store.DBTX, docID int64) error {
	if _, err := dbtx.ExecContext(ctx, `DELETE FROM vec_docs WHERE doc_id = ?`, docID); err != nil {
		return braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "deleting vector for document %d: %w", docID, err)
	}
	return nil
}

// SearchVectors runs a KNN query over the document index, optionally
// constrained by native attribute equality predicates. Results come back in
// ascending distance order; fewer than k matches is a legal outcome.
func (s *Store) SearchVectors(ctx context.Context, query []float32, k int, attrs map[string]string) ([]store.VectorMatch, error) {
	if err := s.checkDimensions(query); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, braiderr.Errorf(braiderr.CodeStoreInvalidInput, "k must be positive, got %d", k)
	}

	blob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "serializing query vector: %w", err)
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT doc_id, distance FROM vec_docs WHERE embedding MATCH ? AND k = ?`)
	args = append(args, blob, k)

	cols, vals, err := s.attrColumns(attrs)
	if err != nil {
		return nil, err
	}
	for i, col := range cols {
		fmt.Fprintf(&qb, ` AND %s = ?`, col)
		args = append(args, vals[i])
	}

	qb.WriteString(` ORDER BY distance`)

	return s.scanMatches(ctx, "doc", qb.String(), args...)
}

// UpsertChunkVector inserts or replaces the embedding for a chunk.
func (s *Store) UpsertChunkVector(ctx context.Context, dbtx store.DBTX, chunkID int64, embedding []float32) error {
	if !s.schema.Chunked {
		return braiderr.New(braiderr.CodeStoreInvalidInput, "collection is not declared with chunk indexing")
	}
	if err := s.checkDimensions(embedding); err != nil {
		return braiderr.With(err, braiderr.Field("chunk_id", chunkID))
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "serializing embedding for chunk %d: %w", chunkID, err)
	}

	if _, err := dbtx.ExecContext(ctx, `DELETE FROM vec_chunks WHERE chunk_id = ?`, chunkID); err != nil {
		return braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "replacing vector for chunk %d: %w", chunkID, err)
	}
	if _, err := dbtx.ExecContext(ctx, `INSERT INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)`, chunkID, blob); err != nil {
		return braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "inserting vector for chunk %d: %w", chunkID, err)
	}
	return nil
}

// DeleteChunkVectors removes the vector entries for a set of chunks.
func (s *Store) DeleteChunkVectors(ctx context.Context, dbtx store.DBTX, chunkIDs []int64) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(chunkIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		args[i] = id
	}

	if _, err := dbtx.ExecContext(ctx, `DELETE FROM vec_chunks WHERE chunk_id IN (`+placeholders+`)`, args...); err != nil {
		return braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "deleting chunk vectors: %w", err)
	}
	return nil
}

// SearchChunkVectors runs a KNN query over the chunk index.
func (s *Store) SearchChunkVectors(ctx context.Context, query []float32, k int) ([]store.VectorMatch, error) {
	if !s.schema.Chunked {
		return nil, braiderr.New(braiderr.CodeStoreInvalidInput, "collection is not declared with chunk indexing")
	}
	if err := s.checkDimensions(query); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, braiderr.Errorf(braiderr.CodeStoreInvalidInput, "k must be positive, got %d", k)
	}

	blob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "serializing query vector: %w", err)
	}

	const q = `SELECT chunk_id, distance FROM vec_chunks WHERE embedding MATCH ? AND k = ? ORDER BY distance`
	return s.scanMatches(ctx, "chunk", q, blob, k)
}

// OrphanVectorIDs reports document vector entries whose document row is
// gone. The write coordinator's cascade keeps this empty; a non-empty
// result indicates a coordinator bug.
func (s *Store) OrphanVectorIDs(ctx context.Context) ([]int64, error) {
	const q = `SELECT v.doc_id FROM vec_docs v LEFT JOIN docs d ON d.id = v.doc_id WHERE d.id IS NULL`
	return s.scanIDs(ctx, q)
}

// OrphanChunkVectorIDs reports chunk vector entries whose chunk row is gone.
func (s *Store) OrphanChunkVectorIDs(ctx context.Context) ([]int64, error) {
	if !s.schema.Chunked {
		return nil, nil
	}
	const q = `SELECT v.chunk_id FROM vec_chunks v LEFT JOIN chunks c ON c.id = v.chunk_id WHERE c.id IS NULL`
	return s.scanIDs(ctx, q)
}

func (s *Store) checkDimensions(embedding []float32) error {
	if len(embedding) != s.schema.Dimensions {
		return braiderr.Errorf(braiderr.CodeIndexDimensionMismatch,
			"embedding has %d dimensions, collection declares %d", len(embedding), s.schema.Dimensions)
	}
	return nil
}

// attrColumns validates attribute names against the declared schema and
// converts values to the column's type. Column order follows the schema
// declaration so generated SQL is deterministic.
func (s *Store) attrColumns(attrs map[string]string) (cols []string, vals []any, err error) {
	if len(attrs) == 0 {
		return nil, nil, nil
	}

	for name := range attrs {
		if _, ok := s.schema.Attribute(name); !ok {
			return nil, nil, braiderr.New(braiderr.CodeIndexUnknownAttribute,
				"attribute not declared in collection schema", braiderr.Field("attribute", name))
		}
	}

	for _, f := range s.schema.Attributes {
		raw, ok := attrs[f.Name]
		if !ok {
			continue
		}
		val, err := convertAttr(f, raw)
		if err != nil {
			return nil, nil, err
		}
		cols = append(cols, f.Name)
		vals = append(vals, val)
	}

	return cols, vals, nil
}

func convertAttr(f store.AttributeField, raw string) (any, error) {
	switch f.Type {
	case store.AttributeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, braiderr.Errorf(braiderr.CodeStoreInvalidInput,
				"attribute %q expects an integer, got %q", f.Name, raw)
		}
		return n, nil
	case store.AttributeFloat:
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, braiderr.Errorf(braiderr.CodeStoreInvalidInput,
				"attribute %q expects a number, got %q", f.Name, raw)
		}
		return x, nil
	default:
		return raw, nil
	}
}

func (s *Store) scanMatches(ctx context.Context, kind, query string, args ...any) ([]store.VectorMatch, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "searching %s vectors: %w", kind, err)
	}
	defer func() { _ = rows.Close() }()

	var matches []store.VectorMatch
	for rows.Next() {
		var m store.VectorMatch
		if err := rows.Scan(&m.ID, &m.Distance); err != nil {
			return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "scanning %s vector match: %w", kind, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "iterating %s vector matches: %w", kind, err)
	}

	return matches, nil
}

func (s *Store) scanIDs(ctx context.Context, query string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "scanning for orphan vectors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "scanning orphan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "iterating orphan ids: %w", err)
	}

	return ids, nil
}
