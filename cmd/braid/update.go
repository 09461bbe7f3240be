// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	braiderr "github.com/braid-db/braid/pkg/errors"
)

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <id> <text>",
		Short: "Replace a document's content and re-embed it",
		Args:  cobra.MinimumNArgs(2),
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

			if err := eng.Update(cmd.Context(), id, strings.Join(args[1:], " ")); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "updated doc %d\n", id)
			return err
		},
	}
}

func parseDocID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, braiderr.Errorf(braiderr.CodeCLIInputInvalid, "expected positive integer id, got %q", raw)
	}
	return id, nil
}
