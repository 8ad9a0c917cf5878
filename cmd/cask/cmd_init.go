package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/caskvcs/cask/pkg/repo"
)

func newInitCmd() *cobra.Command {
	var compression string

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty cask repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			if err := os.MkdirAll(abs, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			r, err := repo.Init(abs, compression)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "initialized empty cask repository in %s\n", r.CaskDir+string(filepath.Separator))
			return nil
		},
	}

	cmd.Flags().StringVar(&compression, "compression", repo.CompressionNone, "loose object encoding (none|zstd)")

	return cmd
}
