// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package embed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braid-db/braid/internal/embed"
)

func TestStaticProvider_Deterministic(t *testing.T) {
	p := embed.NewStaticProvider(8, nil)

	first, err := p.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	second, err := p.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Len(t, first[0], 8)
	assert.Equal(t, first, second, "identical texts must map to identical vectors")
	assert.NotEqual(t, first[0], first[1], "different texts should diverge")
}

func TestStaticProvider_FixedOverrides(t *testing.T) {
	fixed := map[string][]float32{"pinned": {1, 0, 0}}
	p := embed.NewStaticProvider(3, fixed)

	vecs, err := p.Embed(context.Background(), []string{"pinned", "derived"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 0, 0}, vecs[0])
	assert.Len(t, vecs[1], 3)
}
