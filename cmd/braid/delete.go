// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document and its vector entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDocID(args[0])
			if err != nil {
				return err
			}

			eng, done, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := eng.Delete(cmd.Context(), id); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted doc %d\n", id)
			return err
		},
	}
}
