package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/odvcencio/nvcs/pkg/repo"
	"github.com/spf13/cobra"
)

const version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "nvcs",
		Short:         "Local content-addressed version control",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().StringP("repo", "C", ".", "run as if started in this repository root")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newRmCmd())
	root.AddCommand(newRestoreCmd())
	root.AddCommand(newCommitCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newBranchCmd())
	root.AddCommand(newCheckoutCmd())
	root.AddCommand(newMergeCmd())
	root.AddCommand(newResetCmd())
	root.AddCommand(newReflogCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVerifyCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nvcs %s\n", version)
		},
	}
}

// repoRoot returns the -C flag value, or "." when the command runs without
// the root command attached.
func repoRoot(cmd *cobra.Command) string {
	if f := cmd.Flags().Lookup("repo"); f != nil && f.Value.String() != "" {
		return f.Value.String()
	}
	return "."
}

func openRepo(cmd *cobra.Command) (*repo.Repo, error) {
	return repo.Open(repoRoot(cmd))
}

// currentBranchLabel names HEAD for messages: the branch, or "HEAD" when
// detached.
func currentBranchLabel(r *repo.Repo) string {
	if b, err := r.CurrentBranch(); err == nil && b != "" {
		return b
	}
	return "HEAD"
}
