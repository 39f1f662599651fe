package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every ref names a commit and every reachable object is present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			report, err := r.Verify()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range report.BadRefs {
				fmt.Fprintf(out, "bad ref: %s\n", name)
			}
			for _, m := range report.Missing {
				if m.From == "" {
					fmt.Fprintf(out, "missing: %s\n", m.Hash)
				} else {
					fmt.Fprintf(out, "missing: %s (referenced by %s)\n", m.Hash, m.From.Short())
				}
			}
			if !report.OK() {
				return fmt.Errorf("verify: %d bad refs, %d missing objects", len(report.BadRefs), len(report.Missing))
			}
			fmt.Fprintf(out, "ok: verified %d objects (%d commits) from %d roots\n", len(report.Reachable), report.Commits, len(report.Roots))
			return nil
		},
	}
}
