// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package engine

import (
	"context"
	"strings"

	"github.com/braid-db/braid/internal/store"
	braiderr "github.com/braid-db/braid/pkg/errors"
)

// QueryOpts constrains a similarity query. Attributes are equality
// predicates evaluated natively by the index; Tags require the relational
// join and therefore the oversampling path.
type QueryOpts struct {
	Tags       []string
	Attributes map[string]string
}

// Query embeds the text and returns up to k documents ranked by ascending
// distance, constrained by the given filters and hydrated with content.
//
// With a tag filter the index cannot evaluate the join, so the planner
// pulls k times the oversample multiplier candidates and intersects them
// with the tag-matching set. If fewer than k of those candidates survive
// the filter the result is legitimately shorter than k; callers must not
// assume exactly k results when filters are present.
func (e *Engine) Query(ctx context.Context, text string, k int, opts QueryOpts) ([]store.SearchResult, error) {
	if err := validateQuery(text, k); err != nil {
		return nil, err
	}

	qvec, err := e.embedOne(ctx, text)
	if err != nil {
		return nil, err
	}

	matches, err := e.searchDocs(ctx, qvec, k, opts)
	if err != nil {
		return nil, err
	}

	return e.hydrateDocs(ctx, matches)
}

// QueryParents searches the chunk index and returns up to k parent
// documents. Each parent's distance is the minimum distance over its
// matched chunks; more chunk candidates than k are pulled so that chunks
// collapsing onto the same parent do not starve the result.
func (e *Engine) QueryParents(ctx context.Context, text string, k int) ([]store.SearchResult, error) {
	if err := validateQuery(text, k); err != nil {
		return nil, err
	}

	qvec, err := e.embedOne(ctx, text)
	if err != nil {
		return nil, err
	}

	candidates := e.chunkCandidates
	if candidates < k {
		candidates = k
	}

	matches, err := e.store.SearchChunkVectors(ctx, qvec, candidates)
	if err != nil {
		return nil, err
	}

	chunkIDs := make([]int64, len(matches))
	for i, m := range matches {
		chunkIDs[i] = m.ID
	}

	parents, err := e.store.ChunkParents(ctx, chunkIDs)
	if err != nil {
		return nil, err
	}

	// Matches arrive in ascending distance order, so the first chunk seen
	// for a parent carries that parent's minimum distance.
	seen := make(map[int64]bool, len(matches))
	var parentMatches []store.VectorMatch
	for _, m := range matches {
		docID, ok := parents[m.ID]
		if !ok {
			e.logger.DebugContext(ctx, "skipping chunk match without parent row", "chunk_id", m.ID)
			continue
		}
		if seen[docID] {
			continue
		}
		seen[docID] = true
		parentMatches = append(parentMatches, store.VectorMatch{ID: docID, Distance: m.Distance})
		if len(parentMatches) == k {
			break
		}
	}

	return e.hydrateDocs(ctx, parentMatches)
}

// QueryChunks searches the chunk index and returns up to k chunk-level hits
// hydrated with chunk content.
func (e *Engine) QueryChunks(ctx context.Context, text string, k int) ([]store.ChunkResult, error) {
	if err := validateQuery(text, k); err != nil {
		return nil, err
	}

	qvec, err := e.embedOne(ctx, text)
	if err != nil {
		return nil, err
	}

	matches, err := e.store.SearchChunkVectors(ctx, qvec, k)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	chunks, err := e.store.GetChunks(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]store.ChunkResult, 0, len(matches))
	for _, m := range matches {
		c, ok := chunks[m.ID]
		if !ok {
			e.logger.DebugContext(ctx, "skipping chunk match without chunk row", "chunk_id", m.ID)
			continue
		}
		results = append(results, store.ChunkResult{
			ChunkID:  c.ID,
			DocID:    c.DocID,
			Content:  c.Content,
			Distance: m.Distance,
		})
	}

	return results, nil
}

func (e *Engine) searchDocs(ctx context.Context, qvec []float32, k int, opts QueryOpts) ([]store.VectorMatch, error) {
	tags := dedupeTags(opts.Tags)

	limit := k
	if len(tags) > 0 {
		limit = k * e.oversample
	}

	matches, err := e.store.SearchVectors(ctx, qvec, limit, opts.Attributes)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return matches, nil
	}

	allowedIDs, err := e.store.FindDocsWithAllTags(ctx, tags)
	if err != nil {
		return nil, err
	}
	allowed := make(map[int64]bool, len(allowedIDs))
	for _, id := range allowedIDs {
		allowed[id] = true
	}

	// Intersect preserving ascending distance order.
	var filtered []store.VectorMatch
	for _, m := range matches {
		if !allowed[m.ID] {
			continue
		}
		filtered = append(filtered, m)
		if len(filtered) == k {
			break
		}
	}

	if len(filtered) < k {
		e.logger.DebugContext(ctx, "tag filter thinned oversampled candidates below k",
			"k", k,
			"oversample", limit,
			"matched", len(filtered),
		)
	}

	return filtered, nil
}

func (e *Engine) hydrateDocs(ctx context.Context, matches []store.VectorMatch) ([]store.SearchResult, error) {
	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	contents, err := e.store.GetDocuments(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]store.SearchResult, 0, len(matches))
	for _, m := range matches {
		content, ok := contents[m.ID]
		if !ok {
			// A concurrent delete between index search and hydration can
			// legitimately drop a hit under read-committed isolation.
			e.logger.DebugContext(ctx, "skipping match without document row", "doc_id", m.ID)
			continue
		}
		results = append(results, store.SearchResult{
			DocID:    m.ID,
			Content:  content,
			Distance: m.Distance,
		})
	}

	return results, nil
}

func validateQuery(text string, k int) error {
	if strings.TrimSpace(text) == "" {
		return braiderr.New(braiderr.CodeQueryRequestInvalid, "query text is empty")
	}
	if k <= 0 {
		return braiderr.Errorf(braiderr.CodeQueryRequestInvalid, "k must be positive, got %d", k)
	}
	return nil
}

func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
