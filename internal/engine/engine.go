// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

// Package engine is the retrieval core: it coordinates the embedding
// provider, the vector index, and the relational metadata store so that
// writes are atomic across both halves and hybrid queries return correct
// top-k results under filtering.
package engine

import (
	"context"
	"log/slog"

	"github.com/braid-db/braid/internal/embed"
	"github.com/braid-db/braid/internal/store"
	braiderr "github.com/braid-db/braid/pkg/errors"
)

const (
	defaultOversample      = 10
	defaultChunkCandidates = 10
)

// Config tunes the planner heuristics.
type Config struct {
	// Oversample multiplies k when a tag filter must be applied outside the
	// index. A larger multiplier makes under-returning less likely at the
	// cost of a wider index scan.
	Oversample int

	// ChunkCandidates is how many chunk-level hits to pull before mapping
	// them to parent documents.
	ChunkCandidates int

	Logger *slog.Logger
}

// Engine owns one collection: a store (metadata plus vector index sharing a
// transactional domain) and an embedding provider.
type Engine struct {
	store           store.Store
	provider        embed.Provider
	oversample      int
	chunkCandidates int
	logger          *slog.Logger
}

// New creates an engine over the given store and provider. The provider's
// vector width must match the collection's declared dimension; catching the
// mismatch here keeps it out of every write path.
func New(st store.Store, provider embed.Provider, cfg Config) (*Engine, error) {
	if dims := provider.Dimensions(); dims != st.Schema().Dimensions {
		return nil, braiderr.New(braiderr.CodeConfigValidateInvalidValue,
			"provider dimension does not match collection schema",
			braiderr.Field("provider_dimensions", dims),
			braiderr.Field("collection_dimensions", st.Schema().Dimensions),
		)
	}

	oversample := cfg.Oversample
	if oversample <= 0 {
		oversample = defaultOversample
	}

	chunkCandidates := cfg.ChunkCandidates
	if chunkCandidates <= 0 {
		chunkCandidates = defaultChunkCandidates
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		store:           st,
		provider:        provider,
		oversample:      oversample,
		chunkCandidates: chunkCandidates,
		logger:          logger,
	}, nil
}

// embedOne fetches the embedding for a single text.
func (e *Engine) embedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.provider.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, braiderr.New(braiderr.CodeEmbedResponseInvalid,
			"expected one embedding", braiderr.Field("got", len(vecs)))
	}
	return vecs[0], nil
}
