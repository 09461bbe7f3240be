// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/braid-db/braid/internal/engine"
)

func newQueryCmd() *cobra.Command {
	var (
		k       int
		tags    []string
		attrs   []string
		parents bool
	)

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Search documents by similarity",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, done, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer done()

			text := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			if parents {
				results, err := eng.QueryParents(cmd.Context(), text, k)
				if err != nil {
					return err
				}
				for _, r := range results {
					fmt.Fprintf(out, "%d\t%.4f\t%s\n", r.DocID, r.Distance, r.Content)
				}
				return nil
			}

			attributes, err := parseAttrs(attrs)
			if err != nil {
				return err
			}

			results, err := eng.Query(cmd.Context(), text, k, engine.QueryOpts{
				Tags:       tags,
				Attributes: attributes,
			})
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(out, "%d\t%.4f\t%s\n", r.DocID, r.Distance, r.Content)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "top", "k", 3, "number of results")
	cmd.Flags().StringArrayVarP(&tags, "tag", "t", nil, "require tag (repeatable; all must match)")
	cmd.Flags().StringArrayVarP(&attrs, "attr", "a", nil, "attribute predicate as field=value (repeatable)")
	cmd.Flags().BoolVar(&parents, "parents", false, "search chunks and return parent documents")

	return cmd
}
