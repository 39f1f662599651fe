package repo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/odvcencio/nvcs/pkg/object"
)

// ResetMode selects how far Reset rewinds.
type ResetMode int

const (
	// ResetSoft moves HEAD's target only.
	ResetSoft ResetMode = iota
	// ResetMixed also clears the index.
	ResetMixed
	// ResetHard is ResetMixed plus working-tree write-back, which is left to
	// the caller (see ResetResult.WorkTree).
	ResetHard
)

func (m ResetMode) String() string {
	switch m {
	case ResetSoft:
		return "soft"
	case ResetMixed:
		return "mixed"
	case ResetHard:
		return "hard"
	}
	return fmt.Sprintf("ResetMode(%d)", int(m))
}

// ParseResetMode accepts "soft", "mixed" or "hard".
func ParseResetMode(s string) (ResetMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "soft":
		return ResetSoft, nil
	case "", "mixed":
		return ResetMixed, nil
	case "hard":
		return ResetHard, nil
	}
	return 0, fmt.Errorf("unknown reset mode %q", s)
}

// ResetResult describes a completed Reset.
type ResetResult struct {
	Previous object.Hash
	Target   object.Hash
	Mode     ResetMode
	// WorkTree lists the target tree's files for a hard reset, so the caller
	// can materialize them. It is nil for soft and mixed resets.
	WorkTree []TreeFileEntry
}

// Reset points HEAD's target (the current branch, or HEAD itself when
// detached) at target. Mixed and hard resets also clear the index.
func (r *Repo) Reset(target object.Hash, mode ResetMode) (*ResetResult, error) {
	if mode < ResetSoft || mode > ResetHard {
		return nil, fmt.Errorf("reset: invalid mode %v", mode)
	}
	unlock, err := r.lock()
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	defer unlock()

	if err := r.requireCommit(target); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	prev, _, err := r.headCommit()
	if err != nil {
		return nil, fmt.Errorf("reset: resolve HEAD: %w", err)
	}

	if err := r.advanceHead(target, ActionReset, fmt.Sprintf("--%s to %s", mode, target.Short())); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	res := &ResetResult{Previous: prev, Target: target, Mode: mode}
	if mode == ResetSoft {
		return res, nil
	}

	if err := r.writeIndex(newIndex()); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	if mode == ResetHard {
		c, err := r.Store.ReadCommit(target)
		if err != nil {
			return nil, fmt.Errorf("reset: %w", err)
		}
		files, err := r.FlattenTree(c.TreeHash)
		if err != nil {
			return nil, fmt.Errorf("reset: %w", err)
		}
		res.WorkTree = files
	}
	return res, nil
}

// Remove unstages every path in paths. Nothing is written unless all of them
// are staged; the first missing path fails with ErrNotFound.
func (r *Repo) Remove(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	unlock, err := r.lock()
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	defer unlock()

	ix, err := r.ReadIndex()
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	for _, p := range paths {
		rel, err := normalizeIndexPath(p)
		if err != nil {
			return fmt.Errorf("remove: %w", err)
		}
		if _, ok := ix.Entries[rel]; !ok {
			return fmt.Errorf("remove %q: not staged: %w", rel, ErrNotFound)
		}
		delete(ix.Entries, rel)
	}
	if err := r.writeIndex(ix); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// RestorePaths resets index entries to their HEAD versions. A path present
// in HEAD is re-staged with HEAD's blob; a path absent from HEAD is dropped
// from the index. With no paths, every staged and HEAD path is restored.
// The working tree is not modified.
func (r *Repo) RestorePaths(paths []string) error {
	unlock, err := r.lock()
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	defer unlock()

	ix, err := r.ReadIndex()
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	head := make(map[string]object.Hash)
	if h, ok, err := r.headCommit(); err != nil {
		return fmt.Errorf("restore: %w", err)
	} else if ok {
		head, err = r.CommitFiles(h)
		if err != nil {
			return fmt.Errorf("restore: %w", err)
		}
	}

	targets, err := resolveRestoreTargets(paths, ix, head)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	for _, p := range targets {
		blob, ok := head[p]
		if !ok {
			delete(ix.Entries, p)
			continue
		}
		b, err := r.Store.ReadBlob(blob)
		if err != nil {
			return fmt.Errorf("restore %q: %w", p, err)
		}
		ix.Entries[p] = &IndexEntry{Path: p, BlobHash: blob, Size: int64(len(b.Data))}
	}
	if err := r.writeIndex(ix); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	return nil
}

func resolveRestoreTargets(paths []string, ix *Index, head map[string]object.Hash) ([]string, error) {
	all := make(map[string]struct{}, len(ix.Entries)+len(head))
	for p := range ix.Entries {
		all[p] = struct{}{}
	}
	for p := range head {
		all[p] = struct{}{}
	}

	if len(paths) == 0 {
		return sortedPathSet(all), nil
	}

	targets := make(map[string]struct{})
	for _, raw := range paths {
		rel, err := normalizeIndexPath(raw)
		if err != nil {
			return nil, err
		}

		matched := false
		if _, ok := all[rel]; ok {
			targets[rel] = struct{}{}
			matched = true
		}
		prefix := rel + "/"
		for p := range all {
			if strings.HasPrefix(p, prefix) {
				targets[p] = struct{}{}
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("path %q did not match staged or HEAD entries: %w", raw, ErrNotFound)
		}
	}
	return sortedPathSet(targets), nil
}

func sortedPathSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
