package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/odvcencio/nvcs/pkg/diff"
	"github.com/odvcencio/nvcs/pkg/object"
	"github.com/odvcencio/nvcs/pkg/repo"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current branch, staged changes and working tree state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			st, err := r.Status()
			if err != nil {
				return err
			}
			wt, err := scanWorktree(r, st.Tracked)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case !st.Detached():
				fmt.Fprintf(out, "On branch %s\n", st.Branch)
			default:
				fmt.Fprintf(out, "HEAD detached at %s\n", st.Head.Short())
			}
			if st.Head == "" {
				fmt.Fprintln(out, "No commits yet")
			}

			if st.Staged > 0 {
				fmt.Fprintln(out, "\nChanges to be committed:")
				if len(st.Changes) == 0 {
					fmt.Fprintln(out, "\t(staged snapshot matches HEAD)")
				}
				for _, c := range st.Changes {
					fmt.Fprintf(out, "\t%-12s%s\n", stagedLabel(c.Type)+":", c.Path)
				}
			}
			if len(wt.modified)+len(wt.deleted) > 0 {
				fmt.Fprintln(out, "\nChanges not staged for commit:")
				printPaths(out, "modified:", wt.modified)
				printPaths(out, "deleted:", wt.deleted)
			}
			if len(wt.untracked) > 0 {
				fmt.Fprintln(out, "\nUntracked files:")
				printPaths(out, "", wt.untracked)
			}

			if st.Staged == 0 && len(wt.modified)+len(wt.deleted)+len(wt.untracked) == 0 {
				fmt.Fprintln(out, "\nnothing to commit, working tree clean")
			}
			return nil
		},
	}
}

func stagedLabel(t diff.ChangeType) string {
	switch t {
	case diff.Added:
		return "new file"
	case diff.Removed:
		return "deleted"
	default:
		return "modified"
	}
}

func printPaths(out io.Writer, label string, paths []string) {
	for _, p := range paths {
		if label == "" {
			fmt.Fprintf(out, "\t%s\n", p)
		} else {
			fmt.Fprintf(out, "\t%-12s%s\n", label, p)
		}
	}
}

type worktreeState struct {
	modified  []string
	deleted   []string
	untracked []string
}

// scanWorktree compares the files under the repository root with tracked
// (path -> blob hash).
func scanWorktree(r *repo.Repo, tracked map[string]object.Hash) (*worktreeState, error) {
	files, err := collectFiles(r, []string{"."})
	if err != nil {
		return nil, err
	}
	ws := &worktreeState{}
	seen := make(map[string]bool, len(files))
	for _, abs := range files {
		rel, err := r.RelPath(abs)
		if err != nil {
			continue
		}
		seen[rel] = true
		want, ok := tracked[rel]
		if !ok {
			ws.untracked = append(ws.untracked, rel)
			continue
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		if object.HashObject(object.TypeBlob, data) != want {
			ws.modified = append(ws.modified, rel)
		}
	}
	for p := range tracked {
		if !seen[p] {
			if _, err := os.Lstat(filepath.Join(r.RootDir, filepath.FromSlash(p))); os.IsNotExist(err) {
				ws.deleted = append(ws.deleted, p)
			}
		}
	}
	sort.Strings(ws.modified)
	sort.Strings(ws.deleted)
	sort.Strings(ws.untracked)
	return ws, nil
}
