package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/caskvcs/cask/pkg/object"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "cask",
		Short: "Content-addressed storage for nested configuration data",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every object write")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newHashObjectCmd())
	root.AddCommand(newCatFileCmd())
	root.AddCommand(newWriteTreeCmd())
	root.AddCommand(newCommitCmd())
	root.AddCommand(newCountObjectsCmd())

	return root
}

// buildObserver traces object writes at debug level; silent unless
// --verbose raised the log level.
func buildObserver() object.BuildObserver {
	return func(objType object.Type, id object.ID, size int) {
		logrus.WithFields(logrus.Fields{
			"type": objType,
			"id":   id,
			"size": size,
		}).Debug("object written")
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "cask 0.1.0-dev")
		},
	}
}
