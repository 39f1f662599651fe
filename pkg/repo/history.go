package repo

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/odvcencio/nvcs/pkg/object"
)

// LogEntry pairs a commit with its hash.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.CommitObj
}

// History returns a lazy first-parent walk starting at start, newest first.
// Each call to the returned sequence starts the walk over. The walk stops at
// the first error, which is yielded once.
func (r *Repo) History(start object.Hash) iter.Seq2[LogEntry, error] {
	return func(yield func(LogEntry, error) bool) {
		current := start
		seen := make(map[object.Hash]bool)
		for current != "" {
			if seen[current] {
				yield(LogEntry{}, fmt.Errorf("history: cycle at %s: %w", current, object.ErrIntegrity))
				return
			}
			seen[current] = true

			c, err := r.Store.ReadCommit(current)
			if err != nil {
				yield(LogEntry{}, fmt.Errorf("history: read commit %s: %w", current, err))
				return
			}
			if !yield(LogEntry{Hash: current, Commit: c}, nil) {
				return
			}
			if len(c.Parents) == 0 {
				return
			}
			current = c.Parents[0]
		}
	}
}

// Log collects up to limit entries of History(start). limit <= 0 means no
// limit.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	var out []LogEntry
	for e, err := range r.History(start) {
		if err != nil {
			return nil, fmt.Errorf("log: %w", err)
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// ResolveCommitish resolves a user-supplied revision to a commit hash. It
// accepts "HEAD", a branch name, a "refs/..." path, a full hash, or a unique
// hash prefix of at least four characters.
func (r *Repo) ResolveCommitish(rev string) (object.Hash, error) {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return "", fmt.Errorf("resolve %q: empty revision: %w", rev, ErrNotFound)
	}

	h, err := r.ResolveRef(rev)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("resolve %q: %w", rev, err)
	}

	if object.IsValidHash(rev) {
		if err := r.requireCommit(object.Hash(rev)); err != nil {
			return "", fmt.Errorf("resolve %q: %w", rev, err)
		}
		return object.Hash(rev), nil
	}

	if len(rev) < 4 {
		return "", fmt.Errorf("resolve %q: %w", rev, ErrNotFound)
	}
	candidates, err := r.Store.FindByPrefix(rev)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", rev, ErrNotFound)
	}
	var commits []object.Hash
	for _, c := range candidates {
		if r.requireCommit(c) == nil {
			commits = append(commits, c)
		}
	}
	switch len(commits) {
	case 0:
		return "", fmt.Errorf("resolve %q: %w", rev, ErrNotFound)
	case 1:
		return commits[0], nil
	default:
		return "", fmt.Errorf("resolve %q: ambiguous prefix matches %d commits: %w", rev, len(commits), ErrInvalidState)
	}
}
