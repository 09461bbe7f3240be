// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/braid-db/braid/internal/config"
	"github.com/braid-db/braid/internal/embed"
	"github.com/braid-db/braid/internal/engine"
	"github.com/braid-db/braid/internal/store/sqlite"
)

// openEngine wires the collection store, the Ollama embedding provider, and
// the engine from the resolved configuration. The returned closer releases
// the database handle.
func openEngine(cmd *cobra.Command) (*engine.Engine, func(), error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger(cmd)

	st, err := sqlite.Open(cfg.Database, cfg.Schema())
	if err != nil {
		return nil, nil, err
	}

	provider := embed.NewOllamaClient(
		cfg.Provider.Endpoint,
		cfg.Provider.Model,
		cfg.Collection.Dimensions,
		time.Duration(cfg.Provider.TimeoutSeconds)*time.Second,
	)

	eng, err := engine.New(st, provider, engine.Config{
		Oversample:      cfg.Query.Oversample,
		ChunkCandidates: cfg.Query.ChunkCandidates,
		Logger:          logger,
	})
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	return eng, func() { _ = st.Close() }, nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
