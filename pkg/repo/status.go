package repo

import (
	"fmt"

	"github.com/odvcencio/nvcs/pkg/diff"
	"github.com/odvcencio/nvcs/pkg/object"
)

// Status describes the repository state relative to HEAD.
type Status struct {
	Branch string      // current branch, "" when HEAD is detached
	Head   object.Hash // "" when the current branch has no commits
	Staged int         // number of index entries

	// Changes is what the next commit would record relative to HEAD. A
	// commit captures exactly the index, so HEAD paths missing from a
	// non-empty index show up as removed. Empty when nothing is staged.
	Changes []diff.FileChange

	// Tracked maps every path in HEAD's tree or the index to its blob. The
	// index entry wins when both have the path.
	Tracked map[string]object.Hash
}

// Detached reports whether HEAD stores a commit hash directly.
func (s *Status) Detached() bool { return s.Branch == "" }

// Status reports the current branch, HEAD commit and staged changes.
func (r *Repo) Status() (*Status, error) {
	branch, err := r.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	head, ok, err := r.headCommit()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	headFiles := map[string]object.Hash{}
	if ok {
		if headFiles, err = r.CommitFiles(head); err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
	}
	ix, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	st := &Status{Branch: branch, Head: head, Staged: ix.Len(), Tracked: make(map[string]object.Hash, len(headFiles))}
	for p, h := range headFiles {
		st.Tracked[p] = h
	}
	if ix.Len() == 0 {
		return st, nil
	}
	staged := make(map[string]object.Hash, ix.Len())
	for p, e := range ix.Entries {
		staged[p] = e.BlobHash
		st.Tracked[p] = e.BlobHash
	}
	st.Changes = diff.Trees(headFiles, staged)
	return st, nil
}
