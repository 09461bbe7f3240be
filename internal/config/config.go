// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

// Package config declares the collection and provider configuration. The
// collection schema (dimension, metric, attribute fields, chunk mode) is
// fixed at creation time and not runtime-mutable.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"

	"github.com/braid-db/braid/internal/store"
	braiderr "github.com/braid-db/braid/pkg/errors"
)

// Config is the top-level Braid configuration.
type Config struct {
	Database   string           `mapstructure:"database"`
	Collection CollectionConfig `mapstructure:"collection"`
	Provider   ProviderConfig   `mapstructure:"provider"`
	Query      QueryConfig      `mapstructure:"query"`
}

// CollectionConfig declares the vector collection schema.
type CollectionConfig struct {
	Dimensions int               `mapstructure:"dimensions"`
	Metric     string            `mapstructure:"metric"`
	Attributes []AttributeConfig `mapstructure:"attributes"`
	Chunked    bool              `mapstructure:"chunked"`
}

// AttributeConfig declares one native attribute column on the vector index.
type AttributeConfig struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
}

// ProviderConfig points at the embedding provider.
type ProviderConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// QueryConfig tunes the planner heuristics. Both values are heuristics, not
// exactness guarantees; see the engine documentation.
type QueryConfig struct {
	Oversample      int `mapstructure:"oversample"`
	ChunkCandidates int `mapstructure:"chunk_candidates"`
}

// SetDefaults installs default values on the given Viper.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database", "braid.db")
	v.SetDefault("collection.dimensions", 768)
	v.SetDefault("collection.metric", "l2")
	v.SetDefault("collection.chunked", false)
	v.SetDefault("provider.endpoint", "http://localhost:11434")
	v.SetDefault("provider.model", "nomic-embed-text")
	v.SetDefault("provider.timeout_seconds", 60)
	v.SetDefault("query.oversample", 10)
	v.SetDefault("query.chunk_candidates", 10)
}

// SetupEnv binds BRAID_-prefixed environment variables.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("BRAID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults when empty)
// with environment variable overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, braiderr.Errorf(braiderr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper unmarshals and validates a populated Viper.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, braiderr.Errorf(braiderr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, braiderr.Errorf(braiderr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors, collecting all
// issues rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	if c.Database == "" {
		errs = append(errs, braiderr.New(braiderr.CodeConfigValidateInvalidValue, "config: database path must not be empty"))
	}

	if err := c.Schema().Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.Provider.Endpoint == "" {
		errs = append(errs, braiderr.New(braiderr.CodeConfigValidateInvalidValue, "config: provider.endpoint must not be empty"))
	}
	if c.Provider.Model == "" {
		errs = append(errs, braiderr.New(braiderr.CodeConfigValidateInvalidValue, "config: provider.model must not be empty"))
	}

	if c.Query.Oversample <= 0 {
		errs = append(errs, braiderr.Errorf(braiderr.CodeConfigValidateInvalidValue,
			"config: query.oversample must be positive, got %d", c.Query.Oversample))
	}
	if c.Query.ChunkCandidates <= 0 {
		errs = append(errs, braiderr.Errorf(braiderr.CodeConfigValidateInvalidValue,
			"config: query.chunk_candidates must be positive, got %d", c.Query.ChunkCandidates))
	}

	return errs
}

// Schema converts the collection declaration to a store schema.
func (c *Config) Schema() store.Schema {
	attrs := make([]store.AttributeField, 0, len(c.Collection.Attributes))
	for _, a := range c.Collection.Attributes {
		attrs = append(attrs, store.AttributeField{
			Name: a.Name,
			Type: store.AttributeType(a.Type),
		})
	}

	return store.Schema{
		Dimensions: c.Collection.Dimensions,
		Metric:     store.Metric(c.Collection.Metric),
		Attributes: attrs,
		Chunked:    c.Collection.Chunked,
	}
}
