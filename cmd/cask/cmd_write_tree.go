package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caskvcs/cask/pkg/object"
	"github.com/caskvcs/cask/pkg/repo"
)

func newWriteTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write-tree <data.toml>...",
		Short: "Store the tree for merged data files and print its root id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			node, err := repo.LoadNode(args...)
			if err != nil {
				return err
			}

			builder := &object.TreeBuilder{Store: r.Store, Observer: buildObserver()}
			root, err := builder.Build(node)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), root)
			return nil
		},
	}
}
