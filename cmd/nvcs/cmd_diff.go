package main

import (
	"fmt"

	"github.com/odvcencio/nvcs/pkg/diff"
	"github.com/odvcencio/nvcs/pkg/object"
	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var nameStatus bool
	var stat bool

	cmd := &cobra.Command{
		Use:   "diff [from] [to]",
		Short: "Show changes between two commits",
		Long: `Show changes between two commits.

With no arguments, compares HEAD's first parent with HEAD. With one
argument, compares that commit with HEAD.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}

			toRev := "HEAD"
			if len(args) == 2 {
				toRev = args[1]
			}
			to, err := r.ResolveCommitish(toRev)
			if err != nil {
				return err
			}

			var from object.Hash
			if len(args) >= 1 {
				from, err = r.ResolveCommitish(args[0])
				if err != nil {
					return err
				}
			} else {
				c, err := r.Store.ReadCommit(to)
				if err != nil {
					return err
				}
				if len(c.Parents) > 0 {
					from = c.Parents[0]
				}
			}

			changes, err := commitChanges(r, from, to)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case nameStatus:
				fmt.Fprint(out, diff.FormatSummary(changes))
			case stat:
				fmt.Fprint(out, diff.FormatSummary(changes))
				if len(changes) > 0 {
					fmt.Fprintln(out, diff.FormatStat(changes))
				}
			default:
				return writePatches(out, r, changes)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&nameStatus, "name-status", false, "show only changed paths with A/M/D status")
	cmd.Flags().BoolVar(&stat, "stat", false, "show changed paths and totals")

	return cmd
}
