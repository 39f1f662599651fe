package main

import (
	"fmt"

	"github.com/odvcencio/nvcs/pkg/repo"
	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var soft, mixed, hard bool

	cmd := &cobra.Command{
		Use:   "reset [--soft|--mixed|--hard] [rev]",
		Short: "Move the current branch to a commit",
		Long: `Move the current branch (or a detached HEAD) to a commit.

--soft moves the branch only. --mixed, the default, also clears the index.
--hard additionally writes the target commit's files into the working tree.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := repo.ResetMixed
			switch {
			case soft:
				mode = repo.ResetSoft
			case hard:
				mode = repo.ResetHard
			}

			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			rev := "HEAD"
			if len(args) == 1 {
				rev = args[0]
			}
			target, err := r.ResolveCommitish(rev)
			if err != nil {
				return err
			}

			res, err := r.Reset(target, mode)
			if err != nil {
				return err
			}
			if mode == repo.ResetHard {
				if err := materialize(r, res.WorkTree); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "HEAD is now at %s (%s reset from %s)\n", res.Target.Short(), res.Mode, res.Previous.Short())
			return nil
		},
	}

	cmd.Flags().BoolVar(&soft, "soft", false, "move the branch only")
	cmd.Flags().BoolVar(&mixed, "mixed", false, "move the branch and clear the index (default)")
	cmd.Flags().BoolVar(&hard, "hard", false, "also write the target's files to the working tree")
	cmd.MarkFlagsMutuallyExclusive("soft", "mixed", "hard")

	return cmd
}
