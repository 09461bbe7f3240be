// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braid-db/braid/internal/store"
	"github.com/braid-db/braid/internal/store/sqlite"
	braiderr "github.com/braid-db/braid/pkg/errors"
)

func TestVector_UpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "vectors", schema3())

	inTx(t, st, func(tx store.DBTX) error {
		if err := st.UpsertVector(ctx, tx, 1, []float32{1, 0, 0}, nil); err != nil {
			return err
		}
		if err := st.UpsertVector(ctx, tx, 2, []float32{0, 1, 0}, nil); err != nil {
			return err
		}
		return st.UpsertVector(ctx, tx, 3, []float32{0.9, 0.1, 0}, nil)
	})

	matches, err := st.SearchVectors(ctx, []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, int64(1), matches[0].ID, "exact match should rank first")
	assert.Equal(t, int64(3), matches[1].ID)
	assert.LessOrEqual(t, matches[0].Distance, matches[1].Distance)
}

func TestVector_UpsertReplacesEmbedding(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "vectors-replace", schema3())

	inTx(t, st, func(tx store.DBTX) error {
		return st.UpsertVector(ctx, tx, 1, []float32{1, 0, 0}, nil)
	})
	inTx(t, st, func(tx store.DBTX) error {
		return st.UpsertVector(ctx, tx, 1, []float32{0, 1, 0}, nil)
	})

	// One entry per id: the replacement wins and no duplicate remains.
	matches, err := st.SearchVectors(ctx, []float32{0, 1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(1), matches[0].ID)
	assert.InDelta(t, 0.0, matches[0].Distance, 1e-6)
}

func TestVector_UpdateKeepsAttributes(t *testing.T) {
	ctx := context.Background()
	schema := store.Schema{
		Dimensions: 3,
		Metric:     store.MetricL2,
		Attributes: []store.AttributeField{{Name: "lang", Type: store.AttributeText}},
	}
	st := openStore(t, "vectors-update", schema)

	inTx(t, st, func(tx store.DBTX) error {
		return st.UpsertVector(ctx, tx, 1, []float32{1, 0, 0}, map[string]string{"lang": "en"})
	})

	var existed bool
	inTx(t, st, func(tx store.DBTX) error {
		var err error
		existed, err = st.UpdateVector(ctx, tx, 1, []float32{0, 1, 0})
		return err
	})
	assert.True(t, existed)

	// The attribute column survives the in-place embedding update.
	matches, err := st.SearchVectors(ctx, []float32{0, 1, 0}, 1, map[string]string{"lang": "en"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(1), matches[0].ID)
}

func TestVector_UpdateMissingEntry(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "vectors-update-missing", schema3())

	var existed bool
	inTx(t, st, func(tx store.DBTX) error {
		var err error
		existed, err = st.UpdateVector(ctx, tx, 42, []float32{0, 1, 0})
		return err
	})
	assert.False(t, existed)
}

func TestVector_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "vectors-delete", schema3())

	inTx(t, st, func(tx store.DBTX) error {
		return st.UpsertVector(ctx, tx, 1, []float32{1, 0, 0}, nil)
	})
	inTx(t, st, func(tx store.DBTX) error {
		return st.DeleteVector(ctx, tx, 1)
	})
	// Deleting again is a no-op.
	inTx(t, st, func(tx store.DBTX) error {
		return st.DeleteVector(ctx, tx, 1)
	})

	matches, err := st.SearchVectors(ctx, []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestVector_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "vectors-dims", schema3())

	err := st.WithTx(ctx, func(tx store.DBTX) error {
		return st.UpsertVector(ctx, tx, 1, []float32{1, 0}, nil)
	})
	require.Error(t, err)
	assert.True(t, braiderr.IsDimensionMismatch(err))

	_, err = st.SearchVectors(ctx, []float32{1, 0, 0, 0}, 5, nil)
	require.Error(t, err)
	assert.True(t, braiderr.IsDimensionMismatch(err))
}

func TestVector_AttributeFilter(t *testing.T) {
	ctx := context.Background()
	schema := store.Schema{
		Dimensions: 3,
		Metric:     store.MetricL2,
		Attributes: []store.AttributeField{
			{Name: "lang", Type: store.AttributeText},
			{Name: "year", Type: store.AttributeInteger},
		},
	}
	st := openStore(t, "vectors-attrs", schema)

	inTx(t, st, func(tx store.DBTX) error {
		if err := st.UpsertVector(ctx, tx, 1, []float32{1, 0, 0}, map[string]string{"lang": "en", "year": "2020"}); err != nil {
			return err
		}
		if err := st.UpsertVector(ctx, tx, 2, []float32{0.99, 0.01, 0}, map[string]string{"lang": "de", "year": "2020"}); err != nil {
			return err
		}
		return st.UpsertVector(ctx, tx, 3, []float32{0.98, 0.02, 0}, map[string]string{"lang": "en", "year": "2021"})
	})

	// Single predicate.
	matches, err := st.SearchVectors(ctx, []float32{1, 0, 0}, 10, map[string]string{"lang": "en"})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, int64(1), matches[0].ID)
	assert.Equal(t, int64(3), matches[1].ID)

	// Conjunction of predicates narrows further.
	matches, err = st.SearchVectors(ctx, []float32{1, 0, 0}, 10, map[string]string{"lang": "en", "year": "2021"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(3), matches[0].ID)
}

func TestVector_UnknownAttribute(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "vectors-unknown-attr", schema3())

	err := st.WithTx(ctx, func(tx store.DBTX) error {
		return st.UpsertVector(ctx, tx, 1, []float32{1, 0, 0}, map[string]string{"nope": "x"})
	})
	require.Error(t, err)
	assert.Equal(t, braiderr.CodeIndexUnknownAttribute, braiderr.CodeOf(err))

	_, err = st.SearchVectors(ctx, []float32{1, 0, 0}, 5, map[string]string{"nope": "x"})
	require.Error(t, err)
	assert.Equal(t, braiderr.CodeIndexUnknownAttribute, braiderr.CodeOf(err))
}

func TestVector_SearchShortResult(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "vectors-short", schema3())

	inTx(t, st, func(tx store.DBTX) error {
		return st.UpsertVector(ctx, tx, 1, []float32{1, 0, 0}, nil)
	})

	// Asking for more neighbors than entries returns what exists.
	matches, err := st.SearchVectors(ctx, []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestVector_ChunkVectors(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "vectors-chunks", store.Schema{Dimensions: 3, Metric: store.MetricL2, Chunked: true})

	inTx(t, st, func(tx store.DBTX) error {
		if err := st.UpsertChunkVector(ctx, tx, 1, []float32{1, 0, 0}); err != nil {
			return err
		}
		return st.UpsertChunkVector(ctx, tx, 2, []float32{0, 1, 0})
	})

	matches, err := st.SearchChunkVectors(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(1), matches[0].ID)

	inTx(t, st, func(tx store.DBTX) error {
		return st.DeleteChunkVectors(ctx, tx, []int64{1, 2})
	})

	matches, err = st.SearchChunkVectors(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestVector_ChunkOpsRequireChunkedSchema(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "vectors-unchunked", schema3())

	err := st.WithTx(ctx, func(tx store.DBTX) error {
		return st.UpsertChunkVector(ctx, tx, 1, []float32{1, 0, 0})
	})
	assert.True(t, braiderr.IsInvalidInput(err))

	_, err = st.SearchChunkVectors(ctx, []float32{1, 0, 0}, 5)
	assert.True(t, braiderr.IsInvalidInput(err))
}

func TestVector_OrphanScan(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "vectors-orphans", schema3())

	var kept int64
	inTx(t, st, func(tx store.DBTX) error {
		var err error
		kept, err = st.CreateDocument(ctx, tx, "kept")
		if err != nil {
			return err
		}
		return st.UpsertVector(ctx, tx, kept, []float32{1, 0, 0}, nil)
	})

	orphans, err := st.OrphanVectorIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, orphans)

	// Simulate a broken cascade: vector entry without a document row.
	inTx(t, st, func(tx store.DBTX) error {
		return st.UpsertVector(ctx, tx, 999, []float32{0, 1, 0}, nil)
	})

	orphans, err = st.OrphanVectorIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{999}, orphans)
}

func TestStore_ReopenWithDifferentDimensionsFails(t *testing.T) {
	dbPath := testDBPath(t, "reopen-drift")

	st, err := sqlite.Open(dbPath, store.Schema{Dimensions: 3, Metric: store.MetricL2})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = sqlite.Open(dbPath, store.Schema{Dimensions: 4, Metric: store.MetricL2})
	require.Error(t, err)
	assert.Equal(t, braiderr.CodeConfigValidateInvalidValue, braiderr.CodeOf(err))
}
