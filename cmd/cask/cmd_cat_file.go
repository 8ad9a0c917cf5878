package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caskvcs/cask/pkg/object"
	"github.com/caskvcs/cask/pkg/repo"
)

func newCatFileCmd() *cobra.Command {
	var showType, showSize bool

	cmd := &cobra.Command{
		Use:   "cat-file <id>",
		Short: "Show a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := object.ParseID(args[0])
			if err != nil {
				return err
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			o, err := r.Store.Get(id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case showType:
				fmt.Fprintln(out, o.Type())
			case showSize:
				fmt.Fprintln(out, len(o.Encode()))
			default:
				switch v := o.(type) {
				case *object.Blob:
					out.Write(v.Data)
				case *object.Tree:
					for _, e := range v.Entries {
						kind := object.TypeBlob
						if e.Mode == object.ModeDir {
							kind = object.TypeTree
						}
						fmt.Fprintf(out, "%s %s %s\t%s\n", e.Mode, kind, e.Target, e.Name)
					}
				case *object.Commit:
					out.Write(v.Encode())
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showType, "type", "t", false, "print the object's type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "print the object's payload size")

	return cmd
}
