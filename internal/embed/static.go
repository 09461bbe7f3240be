// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package embed

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
)

// Compile-time interface check.
var _ Provider = (*StaticProvider)(nil)

// StaticProvider derives deterministic pseudo-random unit vectors from the
// text itself, with optional fixed vectors for known texts. It needs no
// network, so it serves offline smoke tests and fixtures. The derived
// vectors carry no semantic similarity; identical texts map to identical
// vectors and that is the only guarantee.
type StaticProvider struct {
	dims  int
	fixed map[string][]float32
}

// NewStaticProvider creates a provider producing vectors of the given width.
// Entries in fixed override the derived vector for their exact text.
func NewStaticProvider(dims int, fixed map[string][]float32) *StaticProvider {
	return &StaticProvider{dims: dims, fixed: fixed}
}

// Dimensions reports the vector width this provider produces.
func (p *StaticProvider) Dimensions() int {
	return p.dims
}

// Embed maps each text to its fixed or derived vector. It never fails.
func (p *StaticProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := p.fixed[text]; ok {
			out[i] = vec
			continue
		}
		out[i] = p.derive(text)
	}
	return out, nil
}

func (p *StaticProvider) derive(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vec := make([]float32, p.dims)
	var norm float64
	for i := range vec {
		v := rng.NormFloat64()
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
