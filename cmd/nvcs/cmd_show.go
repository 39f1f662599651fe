package main

import (
	"fmt"
	"io"

	"github.com/odvcencio/nvcs/pkg/diff"
	"github.com/odvcencio/nvcs/pkg/object"
	"github.com/odvcencio/nvcs/pkg/repo"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	var patch bool

	cmd := &cobra.Command{
		Use:   "show [rev]",
		Short: "Show a commit and the files it changed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			rev := "HEAD"
			if len(args) == 1 {
				rev = args[0]
			}
			h, err := r.ResolveCommitish(rev)
			if err != nil {
				return err
			}
			c, err := r.Store.ReadCommit(h)
			if err != nil {
				return err
			}

			var parent object.Hash
			if len(c.Parents) > 0 {
				parent = c.Parents[0]
			}
			changes, err := commitChanges(r, parent, h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printCommit(out, h, c, "")
			fmt.Fprint(out, diff.FormatSummary(changes))
			if patch {
				fmt.Fprintln(out)
				return writePatches(out, r, changes)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&patch, "patch", "p", false, "include unified diffs")

	return cmd
}

// commitChanges diffs the trees of two commits; an empty from means the
// empty tree.
func commitChanges(r *repo.Repo, from, to object.Hash) ([]diff.FileChange, error) {
	before := map[string]object.Hash{}
	if from != "" {
		files, err := r.CommitFiles(from)
		if err != nil {
			return nil, err
		}
		before = files
	}
	after, err := r.CommitFiles(to)
	if err != nil {
		return nil, err
	}
	return diff.Trees(before, after), nil
}

func writePatches(out io.Writer, r *repo.Repo, changes []diff.FileChange) error {
	for _, c := range changes {
		before, err := readBlobOrNil(r, c.Before)
		if err != nil {
			return err
		}
		after, err := readBlobOrNil(r, c.After)
		if err != nil {
			return err
		}
		text, err := diff.Unified(c.Path, before, after)
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
	}
	return nil
}
