// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package engine

import (
	"context"

	braiderr "github.com/braid-db/braid/pkg/errors"
)

// Verify scans both vector indexes for entries whose owning row no longer
// exists. The write coordinator's cascade makes orphans unreachable in
// correct operation, so any finding is surfaced loudly as an integrity
// violation rather than silently repaired: it indicates a coordinator bug,
// and repairing it would hide the evidence.
func (e *Engine) Verify(ctx context.Context) error {
	docOrphans, err := e.store.OrphanVectorIDs(ctx)
	if err != nil {
		return err
	}

	chunkOrphans, err := e.store.OrphanChunkVectorIDs(ctx)
	if err != nil {
		return err
	}

	if len(docOrphans) == 0 && len(chunkOrphans) == 0 {
		return nil
	}

	e.logger.ErrorContext(ctx, "integrity violation: orphaned vector entries",
		"doc_ids", docOrphans,
		"chunk_ids", chunkOrphans,
	)
	return braiderr.New(braiderr.CodeStoreIntegrityViolation,
		"vector entries reference deleted rows",
		braiderr.Field("doc_ids", docOrphans),
		braiderr.Field("chunk_ids", chunkOrphans),
	)
}

// CountDocuments reports the number of documents in the collection.
func (e *Engine) CountDocuments(ctx context.Context) (int64, error) {
	return e.store.CountDocuments(ctx)
}
