// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

// Package embed defines the external embedding provider contract. The engine
// treats a provider as a pure function from texts to fixed-dimension float
// vectors; providers may be slow or networked, so every call takes a context.
package embed

import "context"

// Provider maps an ordered sequence of texts to an ordered sequence of
// embedding vectors of the same length. Each vector has the provider's
// declared dimension. Transport or model failures surface as errors, never
// as malformed vectors.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions reports the vector width this provider produces.
	Dimensions() int
}
