package main

import (
	"errors"
	"fmt"

	"github.com/odvcencio/nvcs/pkg/repo"
	"github.com/spf13/cobra"
)

func newCheckoutCmd() *cobra.Command {
	var createBranch bool

	cmd := &cobra.Command{
		Use:   "checkout <branch|commit>",
		Short: "Point HEAD at a branch, or detach it at a commit",
		Long: `Point HEAD at a branch, or detach it at a commit.

Only HEAD moves; files in the working tree are left as they are.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			out := cmd.OutOrStdout()

			r, err := openRepo(cmd)
			if err != nil {
				return err
			}

			if createBranch {
				head, err := r.ResolveRef("HEAD")
				if err != nil {
					return fmt.Errorf("cannot resolve HEAD: %w", err)
				}
				if err := r.CreateBranch(target, head); err != nil {
					return err
				}
				if err := r.Checkout(target); err != nil {
					return err
				}
				fmt.Fprintf(out, "switched to new branch '%s'\n", target)
				return nil
			}

			err = r.Checkout(target)
			if err == nil {
				fmt.Fprintf(out, "switched to branch '%s'\n", target)
				return nil
			}
			if !errors.Is(err, repo.ErrNotFound) {
				return err
			}

			h, resolveErr := r.ResolveCommitish(target)
			if resolveErr != nil {
				return err
			}
			if err := r.CheckoutDetached(h); err != nil {
				return err
			}
			fmt.Fprintf(out, "HEAD is now at %s (detached)\n", h.Short())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&createBranch, "branch", "b", false, "create and switch to a new branch")

	return cmd
}
