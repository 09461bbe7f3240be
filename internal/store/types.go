// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package store

// Document is the canonical relational record for one ingested text.
// Identity is the auto-assigned integer id; ids are monotonic and never reused.
type Document struct {
	ID      int64
	Content string
}

// Tag is a named label shared across documents. Tags are created lazily on
// first reference and persist independently of any single document.
type Tag struct {
	ID   int64
	Name string
}

// Chunk is a sub-document unit indexed separately from its parent document.
type Chunk struct {
	ID      int64
	DocID   int64
	Content string
}

// VectorMatch is one nearest-neighbor hit from the vector index.
// Distance is metric distance to the query vector; lower is more similar.
type VectorMatch struct {
	ID       int64
	Distance float64
}

// SearchResult is a query hit hydrated with document content.
type SearchResult struct {
	DocID    int64
	Content  string
	Distance float64
}

// ChunkResult is a chunk-level query hit hydrated with chunk content.
type ChunkResult struct {
	ChunkID  int64
	DocID    int64
	Content  string
	Distance float64
}

// IngestDoc is one document in a batch ingest request.
type IngestDoc struct {
	Content    string
	Tags       []string
	Attributes map[string]string
}
