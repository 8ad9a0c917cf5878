package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/caskvcs/cask/pkg/object"
	"github.com/caskvcs/cask/pkg/repo"
)

func newHashObjectCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "hash-object <file>",
		Short: "Compute a blob id for a file, optionally storing the blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			b := &object.Blob{Data: data}

			id := object.IDOf(b)
			if write {
				r, err := repo.Open(".")
				if err != nil {
					return err
				}
				if id, err = r.Store.PutBlob(b); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "store the blob in the object database")

	return cmd
}
