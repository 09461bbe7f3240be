// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package sqlite

import (
	"context"
	"strings"

	"github.com/braid-db/braid/internal/store"
	braiderr "github.com/braid-db/braid/pkg/errors"
)

// CreateDocument inserts a document row and returns its auto-assigned id.
func (s *Store) CreateDocument(ctx context.Context, dbtx store.DBTX, content string) (int64, error) {
	if content == "" {
		return 0, braiderr.New(braiderr.CodeStoreInvalidInput, "document content is empty")
	}

	res, err := dbtx.ExecContext(ctx, `INSERT INTO docs (content) VALUES (?)`, content)
	if err != nil {
		return 0, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "inserting document: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "reading inserted document id: %w", err)
	}
	return id, nil
}

// UpdateDocument replaces the content of an existing document. Updating an
// absent id is an error, unlike delete.
func (s *Store) UpdateDocument(ctx context.Context, dbtx store.DBTX, id int64, content string) error {
	if content == "" {
		return braiderr.New(braiderr.CodeStoreInvalidInput, "document content is empty", braiderr.FieldDocID(id))
	}

	res, err := dbtx.ExecContext(ctx, `UPDATE docs SET content = ? WHERE id = ?`, content, id)
	if err != nil {
		return braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "updating document %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "reading update result for document %d: %w", id, err)
	}
	if n == 0 {
		return braiderr.New(braiderr.CodeStoreDocumentNotFound, "document not found", braiderr.FieldDocID(id))
	}
	return nil
}

// DeleteDocument removes the document row. Tag relations and chunks cascade
// through foreign keys; the vector entries are removed by the caller inside
// the same transaction, since vec0 virtual tables cannot carry foreign keys.
// Deleting an absent id is a no-op.
func (s *Store) DeleteDocument(ctx context.Context, dbtx store.DBTX, id int64) error {
	if _, err := dbtx.ExecContext(ctx, `DELETE FROM docs WHERE id = ?`, id); err != nil {
		return braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "deleting document %d: %w", id, err)
	}
	return nil
}

// GetDocuments hydrates a set of document ids with their content. Ids not
// present in the store are simply absent from the result.
func (s *Store) GetDocuments(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, content FROM docs WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "getting documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id int64
		var content string
		if err := rows.Scan(&id, &content); err != nil {
			return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "scanning document row: %w", err)
		}
		out[id] = content
	}
	if err := rows.Err(); err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "iterating document rows: %w", err)
	}

	return out, nil
}

// CountDocuments reports the number of document rows in the collection.
func (s *Store) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM docs`).Scan(&n); err != nil {
		return 0, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "counting documents: %w", err)
	}
	return n, nil
}

// UpsertTag returns the id for name, creating the tag on first reference.
// The conflict clause makes concurrent upserts of the same name converge on
// one row.
func (s *Store) UpsertTag(ctx context.Context, dbtx store.DBTX, name string) (int64, error) {
	if name == "" {
		return 0, braiderr.New(braiderr.CodeStoreInvalidInput, "tag name is empty")
	}

	const q = `INSERT INTO tags (name) VALUES (?)
ON CONFLICT(name) DO UPDATE SET name = excluded.name
RETURNING id`

	var id int64
	if err := dbtx.QueryRowContext(ctx, q, name).Scan(&id); err != nil {
		return 0, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "upserting tag %q: %w", name, err)
	}
	return id, nil
}

// RelateDocTag records the document/tag pair. Re-asserting an existing
// relation is a no-op.
func (s *Store) RelateDocTag(ctx context.Context, dbtx store.DBTX, docID, tagID int64) error {
	const q = `INSERT INTO docs_tags_rel (doc_id, tag_id) VALUES (?, ?)
ON CONFLICT(doc_id, tag_id) DO NOTHING`

	if _, err := dbtx.ExecContext(ctx, q, docID, tagID); err != nil {
		return braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "relating document %d to tag %d: %w", docID, tagID, err)
	}
	return nil
}

// FindDocsWithAllTags returns the ids of documents related to every one of
// the given tag names. A document tagged with a superset still matches; a
// document missing any name does not.
func (s *Store) FindDocsWithAllTags(ctx context.Context, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(names))
	placeholders = placeholders[:len(placeholders)-1]

	q := `SELECT dtr.doc_id
FROM docs_tags_rel dtr
JOIN tags t ON t.id = dtr.tag_id
WHERE t.name IN (` + placeholders + `)
GROUP BY dtr.doc_id
HAVING COUNT(DISTINCT t.name) = ?
ORDER BY dtr.doc_id`

	args := make([]any, 0, len(names)+1)
	for _, name := range names {
		args = append(args, name)
	}
	args = append(args, len(names))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "finding documents by tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "scanning tag match row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "iterating tag matches: %w", err)
	}

	return ids, nil
}

// CreateChunk inserts a sub-document chunk row for a parent document.
func (s *Store) CreateChunk(ctx context.Context, dbtx store.DBTX, docID int64, content string) (int64, error) {
	if content == "" {
		return 0, braiderr.New(braiderr.CodeStoreInvalidInput, "chunk content is empty", braiderr.FieldDocID(docID))
	}

	res, err := dbtx.ExecContext(ctx, `INSERT INTO chunks (doc_id, content) VALUES (?, ?)`, docID, content)
	if err != nil {
		return 0, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "inserting chunk for document %d: %w", docID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "reading inserted chunk id: %w", err)
	}
	return id, nil
}

// GetChunks hydrates a set of chunk ids. Missing ids are absent from the
// result.
func (s *Store) GetChunks(ctx context.Context, ids []int64) (map[int64]store.Chunk, error) {
	out := make(map[int64]store.Chunk, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, doc_id, content FROM chunks WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "getting chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var c store.Chunk
		if err := rows.Scan(&c.ID, &c.DocID, &c.Content); err != nil {
			return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "scanning chunk row: %w", err)
		}
		out[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "iterating chunk rows: %w", err)
	}

	return out, nil
}

// ChunkParents maps chunk ids to their parent document ids.
func (s *Store) ChunkParents(ctx context.Context, ids []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, doc_id FROM chunks WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "mapping chunks to parents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var chunkID, docID int64
		if err := rows.Scan(&chunkID, &docID); err != nil {
			return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "scanning chunk parent row: %w", err)
		}
		out[chunkID] = docID
	}
	if err := rows.Err(); err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "iterating chunk parent rows: %w", err)
	}

	return out, nil
}

// ChunkIDsForDoc lists the chunk ids belonging to a document. The delete
// path uses it to clear chunk vectors before the chunk rows cascade away.
func (s *Store) ChunkIDsForDoc(ctx context.Context, dbtx store.DBTX, docID int64) ([]int64, error) {
	rows, err := dbtx.QueryContext(ctx, `SELECT id FROM chunks WHERE doc_id = ?`, docID)
	if err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "listing chunks for document %d: %w", docID, err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "scanning chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, braiderr.Errorf(braiderr.CodeStoreDatabaseFailure, "iterating chunk ids: %w", err)
	}

	return ids, nil
}
