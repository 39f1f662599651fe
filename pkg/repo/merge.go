package repo

import (
	"fmt"
	"sort"
	"time"

	"github.com/odvcencio/nvcs/pkg/merge"
	"github.com/odvcencio/nvcs/pkg/object"
)

// MergeResult is the outcome of a three-way tree merge between two commits.
type MergeResult struct {
	Ours   object.Hash
	Theirs object.Hash
	Base   object.Hash
	// Success is true when there are no conflicts.
	Success bool
	// MergedTree is set only when Success is true. The tree is already in
	// the store.
	MergedTree object.Hash
	// Conflicts is sorted by path.
	Conflicts []merge.ConflictEntry
	Stats     merge.Stats
}

// ConflictPaths returns the conflicted paths in order.
func (m *MergeResult) ConflictPaths() []string {
	out := make([]string, len(m.Conflicts))
	for i, c := range m.Conflicts {
		out[i] = c.Path
	}
	return out
}

// MergeOptions controls the commit written by a clean merge.
type MergeOptions struct {
	// Message empty means "Merge branch '<name>'".
	Message string
	// Author empty means the configured user (see ResolveAuthor).
	Author string
	// Timestamp zero means time.Now().
	Timestamp time.Time
}

// MergeReport describes what Merge did.
type MergeReport struct {
	*MergeResult
	// UpToDate is set when theirs was already reachable from ours; nothing
	// was merged and MergeResult is nil.
	UpToDate bool
	// MergeCommit is the new two-parent commit, set only on a clean merge.
	MergeCommit object.Hash
}

// HasConflicts reports whether the merge stopped on conflicts.
func (r *MergeReport) HasConflicts() bool {
	return r.MergeResult != nil && !r.Success
}

// MergeCommits runs the three-way merge of commits ours and theirs against
// their merge base. It reads the store and may write the merged tree, but
// never touches refs, HEAD or the index, so it is safe to call speculatively.
func (r *Repo) MergeCommits(ours, theirs object.Hash) (*MergeResult, error) {
	base, err := r.FindMergeBase(ours, theirs)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	baseEntries, err := r.mergeEntries(base)
	if err != nil {
		return nil, fmt.Errorf("merge: base: %w", err)
	}
	oursEntries, err := r.mergeEntries(ours)
	if err != nil {
		return nil, fmt.Errorf("merge: ours: %w", err)
	}
	theirsEntries, err := r.mergeEntries(theirs)
	if err != nil {
		return nil, fmt.Errorf("merge: theirs: %w", err)
	}

	res := merge.Trees(baseEntries, oursEntries, theirsEntries)
	out := &MergeResult{
		Ours:      ours,
		Theirs:    theirs,
		Base:      base,
		Success:   res.Clean(),
		Conflicts: res.Conflicts,
		Stats:     res.Stats,
	}

	r.log().Debug("tree merge finished",
		"base", base.Short(),
		"ours", ours.Short(),
		"theirs", theirs.Short(),
		"paths", res.Stats.TotalPaths,
		"conflicts", len(res.Conflicts),
	)
	if !out.Success {
		return out, nil
	}

	treeHash, err := r.writeMergedTree(res.Entries)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	out.MergedTree = treeHash
	return out, nil
}

// Merge merges branchName into the current branch (or detached HEAD).
//
// If theirs is already an ancestor of ours the report is UpToDate and nothing
// is written. A clean merge writes a commit with parents [ours, theirs] and
// advances HEAD's target. A conflicted merge returns the conflicts and leaves
// refs, HEAD and the index untouched; it is not an error.
func (r *Repo) Merge(branchName string, opts MergeOptions) (*MergeReport, error) {
	author, err := r.ResolveAuthor(opts.Author)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	msg := opts.Message
	if msg == "" {
		msg = fmt.Sprintf("Merge branch '%s'", branchName)
	}

	unlock, err := r.lock()
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	defer unlock()

	ours, ok, err := r.headCommit()
	if err != nil {
		return nil, fmt.Errorf("merge: resolve HEAD: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("merge: current branch has no commits: %w", ErrInvalidState)
	}
	if err := validateBranchName(branchName); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	theirs, err := r.ResolveRef("refs/heads/" + branchName)
	if err != nil {
		return nil, fmt.Errorf("merge: branch %q: %w", branchName, err)
	}

	upToDate, err := r.IsAncestor(theirs, ours)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if upToDate {
		return &MergeReport{UpToDate: true}, nil
	}

	res, err := r.MergeCommits(ours, theirs)
	if err != nil {
		return nil, err
	}
	report := &MergeReport{MergeResult: res}
	if !res.Success {
		r.log().Info("merge stopped on conflicts", "branch", branchName, "conflicts", len(res.Conflicts))
		return report, nil
	}

	commitHash, err := r.Store.WriteCommit(&object.CommitObj{
		TreeHash:  res.MergedTree,
		Parents:   []object.Hash{ours, theirs},
		Author:    author,
		Timestamp: ts.Unix(),
		Message:   msg,
	})
	if err != nil {
		return nil, fmt.Errorf("merge: write commit: %w", err)
	}
	if err := r.advanceHead(commitHash, ActionMerge, branchName); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	report.MergeCommit = commitHash
	return report, nil
}

func (r *Repo) mergeEntries(commit object.Hash) (map[string]merge.Entry, error) {
	files, err := r.CommitFiles(commit)
	if err != nil {
		return nil, err
	}
	out := make(map[string]merge.Entry, len(files))
	for p, h := range files {
		out[p] = merge.Entry{Hash: h, Kind: object.KindFile}
	}
	return out, nil
}

func (r *Repo) writeMergedTree(entries map[string]merge.Entry) (object.Hash, error) {
	paths := make([]string, 0, len(entries))
	for p := range entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	treeEntries := make([]object.TreeEntry, 0, len(paths))
	for _, p := range paths {
		e := entries[p]
		treeEntries = append(treeEntries, object.TreeEntry{Name: p, Kind: e.Kind, Hash: e.Hash})
	}
	h, err := r.Store.WriteTree(&object.TreeObj{Entries: treeEntries})
	if err != nil {
		return "", fmt.Errorf("write merged tree: %w", err)
	}
	return h, nil
}
