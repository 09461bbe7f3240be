// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/braid-db/braid/internal/config"
	braiderr "github.com/braid-db/braid/pkg/errors"
)

// NewRootCmd creates the root braid command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "braid",
		Short:         "Embedded hybrid retrieval store",
		Long:          "Braid stores documents alongside vector embeddings and answers similarity queries constrained by tags and attributes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("db", "", "path to collection database")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newIngestCmd(),
		newQueryCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newVerifyCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return braiderr.Errorf(braiderr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		v.SetConfigName("braid")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/braid")
		// No config file is fine; defaults and env vars still apply.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return braiderr.Errorf(braiderr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
		}
	}

	if err := v.BindPFlag("database", cmd.Root().PersistentFlags().Lookup("db")); err != nil {
		return braiderr.Errorf(braiderr.CodeCLIInputInvalid, "binding db flag: %w", err)
	}

	return nil
}
