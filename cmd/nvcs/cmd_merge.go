package main

import (
	"fmt"
	"io"

	"github.com/odvcencio/nvcs/pkg/merge"
	"github.com/odvcencio/nvcs/pkg/repo"
	"github.com/spf13/cobra"
)

func newMergeCmd() *cobra.Command {
	var message string
	var author string

	cmd := &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge a branch into the current branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branchName := args[0]

			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			current := currentBranchLabel(r)

			out := cmd.OutOrStdout()
			report, err := r.Merge(branchName, repo.MergeOptions{Message: message, Author: author})
			if err != nil {
				return err
			}

			if report.UpToDate {
				fmt.Fprintln(out, "already up to date")
				return nil
			}
			printMergeStats(out, report.Stats)

			if report.HasConflicts() {
				for _, c := range report.Conflicts {
					printConflict(out, c)
				}
				n := len(report.Conflicts)
				plural := "s"
				if n == 1 {
					plural = ""
				}
				return fmt.Errorf("merge of %s into %s stopped with %d conflict%s; nothing was committed", branchName, current, n, plural)
			}

			fmt.Fprintf(out, "[%s %s] merged %s (base %s)\n", current, report.MergeCommit.Short(), branchName, report.Base.Short())
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "merge commit message")
	cmd.Flags().StringVar(&author, "author", "", "override author")

	return cmd
}

func printMergeStats(out io.Writer, s merge.Stats) {
	fmt.Fprintf(out, "%d paths: %d unchanged, %d from ours, %d from theirs, %d added, %d deleted\n",
		s.TotalPaths, s.Unchanged, s.OursModified, s.TheirsModified, s.Added, s.Deleted)
}

func printConflict(out io.Writer, c merge.ConflictEntry) {
	fmt.Fprintf(out, "CONFLICT (%s): %s\n", c.Kind, c.Path)
}
