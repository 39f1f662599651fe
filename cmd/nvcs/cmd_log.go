package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/odvcencio/nvcs/pkg/object"
	"github.com/odvcencio/nvcs/pkg/repo"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	var oneline bool
	var limit int

	cmd := &cobra.Command{
		Use:   "log [rev]",
		Short: "Show first-parent commit history",
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
			start, err := r.ResolveCommitish(rev)
			if err != nil {
				if rev == "HEAD" && errors.Is(err, repo.ErrNotFound) {
					fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
					return nil
				}
				return err
			}

			headHash, _ := r.ResolveRef("HEAD")
			branchName, _ := r.CurrentBranch()

			out := cmd.OutOrStdout()
			n := 0
			for entry, err := range r.History(start) {
				if err != nil {
					return err
				}
				if limit > 0 && n >= limit {
					break
				}
				n++
				decoration := buildDecoration(entry.Hash, headHash, branchName)
				if oneline {
					printOneline(out, entry, decoration)
				} else {
					printCommit(out, entry.Hash, entry.Commit, decoration)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of commits to show (0 for all)")

	return cmd
}

// buildDecoration returns a string like "(HEAD -> main)" if the commit is
// the current HEAD, or "" otherwise.
func buildDecoration(commitHash, headHash object.Hash, branchName string) string {
	if commitHash != headHash {
		return ""
	}
	if branchName != "" {
		return "(HEAD -> " + branchName + ")"
	}
	return "(HEAD)"
}

func printOneline(out io.Writer, entry repo.LogEntry, decoration string) {
	msg := firstLine(entry.Commit.Message)
	if decoration != "" {
		fmt.Fprintf(out, "%s %s %s\n", entry.Hash.Short(), decoration, msg)
		return
	}
	fmt.Fprintf(out, "%s %s\n", entry.Hash.Short(), msg)
}

func printCommit(out io.Writer, h object.Hash, c *object.CommitObj, decoration string) {
	if decoration != "" {
		fmt.Fprintf(out, "commit %s %s\n", h, decoration)
	} else {
		fmt.Fprintf(out, "commit %s\n", h)
	}
	if c.IsMerge() {
		shorts := make([]string, len(c.Parents))
		for i, p := range c.Parents {
			shorts[i] = p.Short()
		}
		fmt.Fprintf(out, "Merge:  %s\n", strings.Join(shorts, " "))
	}
	fmt.Fprintf(out, "Author: %s\n", c.Author)
	fmt.Fprintf(out, "Date:   %s\n", time.Unix(c.Timestamp, 0).Format("2006-01-02 15:04:05"))
	fmt.Fprintln(out)
	for _, line := range strings.Split(c.Message, "\n") {
		fmt.Fprintf(out, "    %s\n", line)
	}
	fmt.Fprintln(out)
}
