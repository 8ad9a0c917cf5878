package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/caskvcs/cask/pkg/object"
	"github.com/caskvcs/cask/pkg/repo"
)

func newCommitCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "commit -m <message> <data.toml>...",
		Short: "Record the merged data files as a new commit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			r.Observer = buildObserver()

			node, err := repo.LoadNode(args...)
			if err != nil {
				return err
			}

			cfg, err := r.ReadConfig()
			if err != nil {
				return err
			}
			author := commitIdentity(cfg)

			now := time.Now()
			_, offsetSeconds := now.Zone()
			when := object.Timestamp{Unix: now.Unix(), Offset: offsetSeconds / 60}

			id, err := r.Commit(node, message, author, when)
			if err != nil {
				return err
			}

			// Determine current branch name for output.
			branch := "HEAD"
			if head, err := r.Head(); err == nil && strings.HasPrefix(head, "refs/heads/") {
				branch = strings.TrimPrefix(head, "refs/heads/")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, id.Short(), message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")

	return cmd
}

// commitIdentity resolves the committing identity from repository config,
// falling back to the environment.
func commitIdentity(cfg *repo.Config) object.Actor {
	name := cfg.User.Name
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = "unknown"
	}
	email := cfg.User.Email
	if email == "" {
		email = name + "@localhost"
	}
	return object.Actor{Name: name, Email: email}
}
