// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the collection for orphaned vector entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, done, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := eng.Verify(cmd.Context()); err != nil {
				return err
			}

			count, err := eng.CountDocuments(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "collection is consistent (%d documents)\n", count)
			return err
		},
	}
}
