// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package embed_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braid-db/braid/internal/embed"
	braiderr "github.com/braid-db/braid/pkg/errors"
)

func TestOllamaClient_EmbedBatch(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		resp := map[string]any{
			"embeddings": [][]float32{{1, 0, 0}, {0, 1, 0}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	client := embed.NewOllamaClient(srv.URL, "nomic-embed-text", 3, time.Second)

	vecs, err := client.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, "/api/embed", gotPath)
	assert.Equal(t, "nomic-embed-text", gotBody.Model)
	assert.Equal(t, []string{"first", "second"}, gotBody.Input)

	// One round trip, vectors in input order.
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 0, 0}, vecs[0])
	assert.Equal(t, []float32{0, 1, 0}, vecs[1])
}

func TestOllamaClient_EmptyInput(t *testing.T) {
	client := embed.NewOllamaClient("http://localhost:1", "m", 3, time.Second)

	vecs, err := client.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestOllamaClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := embed.NewOllamaClient(srv.URL, "missing-model", 3, time.Second)

	_, err := client.Embed(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.True(t, braiderr.IsUpstreamFailure(err))

	fields := braiderr.FieldsOf(err)
	assert.Equal(t, http.StatusNotFound, fields["status"])
}

func TestOllamaClient_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{"embeddings": [][]float32{{1, 0, 0}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	client := embed.NewOllamaClient(srv.URL, "m", 3, time.Second)

	_, err := client.Embed(context.Background(), []string{"first", "second"})
	require.Error(t, err)
	assert.Equal(t, braiderr.CodeEmbedResponseInvalid, braiderr.CodeOf(err))
}

func TestOllamaClient_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{"embeddings": [][]float32{{1, 0}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	client := embed.NewOllamaClient(srv.URL, "m", 3, time.Second)

	_, err := client.Embed(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Equal(t, braiderr.CodeEmbedResponseInvalid, braiderr.CodeOf(err))
}

func TestOllamaClient_TrimsVersionedBaseURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		resp := map[string]any{"embeddings": [][]float32{{1, 0, 0}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	client := embed.NewOllamaClient(srv.URL+"/v1", "m", 3, time.Second)

	_, err := client.Embed(context.Background(), []string{"text"})
	require.NoError(t, err)
	assert.Equal(t, "/api/embed", gotPath)
}
