// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/braid-db/braid/internal/engine"
	braiderr "github.com/braid-db/braid/pkg/errors"
)

func newIngestCmd() *cobra.Command {
	var (
		tags  []string
		attrs []string
	)

	cmd := &cobra.Command{
		Use:   "ingest <text>",
		Short: "Embed and store a document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, done, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer done()

			attributes, err := parseAttrs(attrs)
			if err != nil {
				return err
			}

			id, err := eng.Ingest(cmd.Context(), strings.Join(args, " "), engine.IngestOpts{
				Tags:       tags,
				Attributes: attributes,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ingested doc %d\n", id)
			return err
		},
	}

	cmd.Flags().StringArrayVarP(&tags, "tag", "t", nil, "tag to relate (repeatable)")
	cmd.Flags().StringArrayVarP(&attrs, "attr", "a", nil, "attribute as field=value (repeatable)")

	return cmd
}

func parseAttrs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	attrs := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		field, value, ok := strings.Cut(pair, "=")
		if !ok || field == "" {
			return nil, braiderr.Errorf(braiderr.CodeCLIInputInvalid, "attribute %q is not field=value", pair)
		}
		attrs[field] = value
	}
	return attrs, nil
}
