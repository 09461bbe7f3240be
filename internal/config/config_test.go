// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braid-db/braid/internal/config"
	"github.com/braid-db/braid/internal/store"
	braiderr "github.com/braid-db/braid/pkg/errors"
)

func newViper() *viper.Viper {
	v := viper.New()
	config.SetDefaults(v)
	return v
}

func TestConfig_Defaults(t *testing.T) {
	cfg, err := config.FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "braid.db", cfg.Database)
	assert.Equal(t, 768, cfg.Collection.Dimensions)
	assert.Equal(t, "l2", cfg.Collection.Metric)
	assert.False(t, cfg.Collection.Chunked)
	assert.Equal(t, "http://localhost:11434", cfg.Provider.Endpoint)
	assert.Equal(t, "nomic-embed-text", cfg.Provider.Model)
	assert.Equal(t, 60, cfg.Provider.TimeoutSeconds)
	assert.Equal(t, 10, cfg.Query.Oversample)
	assert.Equal(t, 10, cfg.Query.ChunkCandidates)
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	v := newViper()
	v.Set("database", "")
	v.Set("collection.dimensions", 0)
	v.Set("provider.model", "")
	v.Set("query.oversample", -1)

	_, err := config.FromViper(v)
	require.Error(t, err)
	assert.Equal(t, braiderr.CodeConfigValidateInvalidValue, braiderr.CodeOf(err))
	assert.Contains(t, err.Error(), "database path")
	assert.Contains(t, err.Error(), "dimensions")
	assert.Contains(t, err.Error(), "provider.model")
	assert.Contains(t, err.Error(), "query.oversample")
}

func TestConfig_RejectsUnknownMetric(t *testing.T) {
	v := newViper()
	v.Set("collection.metric", "manhattan")

	_, err := config.FromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metric")
}

func TestConfig_SchemaConversion(t *testing.T) {
	v := newViper()
	v.Set("collection.dimensions", 4)
	v.Set("collection.metric", "cosine")
	v.Set("collection.chunked", true)
	v.Set("collection.attributes", []map[string]any{
		{"name": "lang", "type": "text"},
		{"name": "year", "type": "integer"},
	})

	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	schema := cfg.Schema()
	assert.Equal(t, 4, schema.Dimensions)
	assert.Equal(t, store.MetricCosine, schema.Metric)
	assert.True(t, schema.Chunked)
	require.Len(t, schema.Attributes, 2)
	assert.Equal(t, store.AttributeField{Name: "lang", Type: store.AttributeText}, schema.Attributes[0])
	assert.Equal(t, store.AttributeField{Name: "year", Type: store.AttributeInteger}, schema.Attributes[1])
}

func TestConfig_LoadFromFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "braid-config-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "braid.yaml")
	yaml := `database: /tmp/custom.db
collection:
  dimensions: 384
  metric: cosine
provider:
  model: all-minilm
query:
  oversample: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.Database)
	assert.Equal(t, 384, cfg.Collection.Dimensions)
	assert.Equal(t, "cosine", cfg.Collection.Metric)
	assert.Equal(t, "all-minilm", cfg.Provider.Model)
	assert.Equal(t, 5, cfg.Query.Oversample)
	// Unset keys keep their defaults.
	assert.Equal(t, "http://localhost:11434", cfg.Provider.Endpoint)
}

func TestConfig_LoadMissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/braid.yaml")
	require.Error(t, err)
	assert.Equal(t, braiderr.CodeConfigLoadReadFailure, braiderr.CodeOf(err))
}
