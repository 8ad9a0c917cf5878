package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/caskvcs/cask/pkg/repo"
)

func newCountObjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count-objects",
		Short: "Report object count and on-disk size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			count, size, err := r.Store.Stats()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d objects, %s\n", count, humanize.Bytes(uint64(size)))
			return nil
		},
	}
}
