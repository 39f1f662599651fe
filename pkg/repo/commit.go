package repo

import (
	"fmt"
	"time"

	"github.com/odvcencio/nvcs/pkg/object"
)

// CommitOptions controls commit creation.
type CommitOptions struct {
	Message string
	// Author empty means the configured user (see ResolveAuthor).
	Author string
	// Timestamp zero means time.Now().
	Timestamp time.Time
}

// Commit creates a new commit from the current index.
func (r *Repo) Commit(message, author string) (object.Hash, error) {
	return r.CommitWithOptions(CommitOptions{Message: message, Author: author})
}

// CommitWithOptions creates a new commit from the current index.
//
//  1. Read the index; an empty index is ErrInvalidState
//  2. Build one flat tree from the snapshot
//  3. Resolve HEAD to get the parent commit (none for the first commit)
//  4. Write the commit object
//  5. Advance the current branch, or HEAD itself when detached
//  6. Clear the index
func (r *Repo) CommitWithOptions(opts CommitOptions) (object.Hash, error) {
	author, err := r.ResolveAuthor(opts.Author)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	unlock, err := r.lock()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	defer unlock()

	ix, err := r.ReadIndex()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if ix.Len() == 0 {
		return "", fmt.Errorf("commit: nothing staged: %w", ErrInvalidState)
	}
	snapshot := ix.Sorted()

	treeHash, err := r.BuildTree(snapshot)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	var parents []object.Hash
	parentHash, hasParent, err := r.headCommit()
	if err != nil {
		return "", fmt.Errorf("commit: resolve HEAD: %w", err)
	}
	if hasParent {
		if err := r.requireCommit(parentHash); err != nil {
			return "", fmt.Errorf("commit: parent %s: %w", parentHash, err)
		}
		parents = append(parents, parentHash)
	}

	commitObj := &object.CommitObj{
		TreeHash:  treeHash,
		Parents:   parents,
		Author:    author,
		Timestamp: ts.Unix(),
		Message:   opts.Message,
	}
	commitHash, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return "", fmt.Errorf("commit: write commit: %w", err)
	}

	if err := r.advanceHead(commitHash, ActionCommit, firstLine(opts.Message)); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if err := r.writeIndex(newIndex()); err != nil {
		return "", fmt.Errorf("commit: clear index: %w", err)
	}

	r.log().Debug("committed",
		"commit", commitHash,
		"tree", treeHash,
		"parents", len(parents),
		"files", len(snapshot),
	)
	return commitHash, nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
