// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/braid-db/braid/internal/store"
	braiderr "github.com/braid-db/braid/pkg/errors"
)

// IngestOpts carries the optional tags and native attributes for one
// document.
type IngestOpts struct {
	Tags       []string
	Attributes map[string]string
}

// Ingest embeds content and atomically creates the document, its vector
// entry, and its tag relations. Returns the new document id.
func (e *Engine) Ingest(ctx context.Context, content string, opts IngestOpts) (int64, error) {
	ids, err := e.IngestBatch(ctx, []store.IngestDoc{{
		Content:    content,
		Tags:       opts.Tags,
		Attributes: opts.Attributes,
	}})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// IngestBatch ingests many documents with a single embedding round trip.
// The provider returns vectors in input order, so vectors[i] always belongs
// to docs[i]. All documents commit together or not at all; an embedding
// failure aborts before any store mutation.
func (e *Engine) IngestBatch(ctx context.Context, docs []store.IngestDoc) ([]int64, error) {
	if len(docs) == 0 {
		return nil, braiderr.New(braiderr.CodeStoreInvalidInput, "ingest batch is empty")
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		if strings.TrimSpace(d.Content) == "" {
			return nil, braiderr.New(braiderr.CodeStoreInvalidInput,
				"document content is empty", braiderr.Field("index", i))
		}
		texts[i] = d.Content
	}

	// Embedding happens before the transaction so the write unit stays
	// short-lived and purely local.
	vectors, err := e.provider.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(docs) {
		return nil, braiderr.New(braiderr.CodeEmbedResponseInvalid,
			"embedding count does not match batch size",
			braiderr.Field("want", len(docs)),
			braiderr.Field("got", len(vectors)),
		)
	}

	opID := uuid.NewString()
	start := time.Now()

	ids := make([]int64, 0, len(docs))
	err = e.store.WithTx(ctx, func(tx store.DBTX) error {
		for i, d := range docs {
			id, err := e.store.CreateDocument(ctx, tx, d.Content)
			if err != nil {
				return err
			}

			if err := e.store.UpsertVector(ctx, tx, id, vectors[i], d.Attributes); err != nil {
				return err
			}

			if err := e.relateTags(ctx, tx, id, d.Tags); err != nil {
				return err
			}

			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "ingested documents",
		"op_id", opID,
		"count", len(ids),
		"elapsed", time.Since(start),
	)
	return ids, nil
}

// IngestChunked embeds each chunk of a document with one provider call and
// atomically creates the parent document, its chunk rows, chunk vector
// entries, and tag relations. Chunked documents are indexed at the chunk
// level; queries map matched chunks back to their parent.
func (e *Engine) IngestChunked(ctx context.Context, content string, chunks []string, opts IngestOpts) (int64, error) {
	if !e.store.Schema().Chunked {
		return 0, braiderr.New(braiderr.CodeStoreInvalidInput, "collection is not declared with chunk indexing")
	}
	if strings.TrimSpace(content) == "" {
		return 0, braiderr.New(braiderr.CodeStoreInvalidInput, "document content is empty")
	}
	if len(chunks) == 0 {
		return 0, braiderr.New(braiderr.CodeStoreInvalidInput, "chunk list is empty")
	}
	for i, c := range chunks {
		if strings.TrimSpace(c) == "" {
			return 0, braiderr.New(braiderr.CodeStoreInvalidInput,
				"chunk content is empty", braiderr.Field("index", i))
		}
	}

	vectors, err := e.provider.Embed(ctx, chunks)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(chunks) {
		return 0, braiderr.New(braiderr.CodeEmbedResponseInvalid,
			"embedding count does not match chunk count",
			braiderr.Field("want", len(chunks)),
			braiderr.Field("got", len(vectors)),
		)
	}

	opID := uuid.NewString()
	start := time.Now()

	var docID int64
	err = e.store.WithTx(ctx, func(tx store.DBTX) error {
		var err error
		docID, err = e.store.CreateDocument(ctx, tx, content)
		if err != nil {
			return err
		}

		for i, c := range chunks {
			chunkID, err := e.store.CreateChunk(ctx, tx, docID, c)
			if err != nil {
				return err
			}
			if err := e.store.UpsertChunkVector(ctx, tx, chunkID, vectors[i]); err != nil {
				return err
			}
		}

		return e.relateTags(ctx, tx, docID, opts.Tags)
	})
	if err != nil {
		return 0, err
	}

	e.logger.InfoContext(ctx, "ingested chunked document",
		"op_id", opID,
		"doc_id", docID,
		"chunks", len(chunks),
		"elapsed", time.Since(start),
	)
	return docID, nil
}

// Update re-embeds new content and atomically replaces the document text
// and its vector entry. Updating an absent document is an error.
func (e *Engine) Update(ctx context.Context, id int64, content string) error {
	if id <= 0 {
		return braiderr.New(braiderr.CodeStoreInvalidInput, "document id must be positive", braiderr.FieldDocID(id))
	}
	if strings.TrimSpace(content) == "" {
		return braiderr.New(braiderr.CodeStoreInvalidInput, "document content is empty", braiderr.FieldDocID(id))
	}

	vec, err := e.embedOne(ctx, content)
	if err != nil {
		return err
	}

	return e.store.WithTx(ctx, func(tx store.DBTX) error {
		if err := e.store.UpdateDocument(ctx, tx, id, content); err != nil {
			return err
		}

		// In-place update keeps attribute columns. A document may have no
		// vector entry yet (chunk-indexed collections); insert in that case.
		updated, err := e.store.UpdateVector(ctx, tx, id, vec)
		if err != nil {
			return err
		}
		if !updated {
			return e.store.UpsertVector(ctx, tx, id, vec, nil)
		}
		return nil
	})
}

// Delete atomically removes a document, its tag relations and chunks
// (relational cascade), and its vector entries (explicit cascade, since the
// vec0 virtual tables cannot carry foreign keys). Deleting an absent id is
// a no-op.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return braiderr.New(braiderr.CodeStoreInvalidInput, "document id must be positive", braiderr.FieldDocID(id))
	}

	return e.store.WithTx(ctx, func(tx store.DBTX) error {
		var chunkIDs []int64
		if e.store.Schema().Chunked {
			var err error
			chunkIDs, err = e.store.ChunkIDsForDoc(ctx, tx, id)
			if err != nil {
				return err
			}
		}

		if err := e.store.DeleteDocument(ctx, tx, id); err != nil {
			return err
		}
		if err := e.store.DeleteVector(ctx, tx, id); err != nil {
			return err
		}
		return e.store.DeleteChunkVectors(ctx, tx, chunkIDs)
	})
}

func (e *Engine) relateTags(ctx context.Context, tx store.DBTX, docID int64, tags []string) error {
	for _, name := range tags {
		tagID, err := e.store.UpsertTag(ctx, tx, name)
		if err != nil {
			return err
		}
		if err := e.store.RelateDocTag(ctx, tx, docID, tagID); err != nil {
			return err
		}
	}
	return nil
}
