package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/nvcs/pkg/object"
)

// CreateBranch creates a new branch pointing at the given commit. Returns an
// error wrapping ErrAlreadyExists if the branch already exists.
func (r *Repo) CreateBranch(name string, target object.Hash) error {
	if err := validateBranchName(name); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	unlock, err := r.lock()
	if err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	defer unlock()

	if err := r.checkBranchNamespace(name); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	refName := "refs/heads/" + name
	existing, err := readRefHash(filepath.Join(r.MetaDir, filepath.FromSlash(refName)))
	if err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	if existing != "" {
		return fmt.Errorf("create branch %q: %w", name, ErrAlreadyExists)
	}
	if err := r.requireCommit(target); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	if err := r.writeRef(refName, target, ActionBranch, "created from "+target.Short()); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	return nil
}

// UpdateBranch points an existing or new branch at target unconditionally.
// The target must be a commit already in the store.
func (r *Repo) UpdateBranch(name string, target object.Hash) error {
	if err := validateBranchName(name); err != nil {
		return fmt.Errorf("update branch: %w", err)
	}
	unlock, err := r.lock()
	if err != nil {
		return fmt.Errorf("update branch %q: %w", name, err)
	}
	defer unlock()

	if err := r.checkBranchNamespace(name); err != nil {
		return fmt.Errorf("update branch %q: %w", name, err)
	}
	if err := r.requireCommit(target); err != nil {
		return fmt.Errorf("update branch %q: %w", name, err)
	}
	if err := r.writeRef("refs/heads/"+name, target, ActionBranch, "reset to "+target.Short()); err != nil {
		return fmt.Errorf("update branch %q: %w", name, err)
	}
	return nil
}

// DeleteBranch removes the branch ref file .nvcs/refs/heads/<name>.
// Deleting the current branch fails with ErrInvalidState; deleting a missing
// branch fails with ErrNotFound.
func (r *Repo) DeleteBranch(name string) error {
	if err := validateBranchName(name); err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	unlock, err := r.lock()
	if err != nil {
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	defer unlock()

	current, err := r.CurrentBranch()
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if current == name {
		return fmt.Errorf("delete branch: cannot delete current branch %q: %w", name, ErrInvalidState)
	}

	heads := filepath.Join(r.MetaDir, "refs", "heads")
	refPath := filepath.Join(heads, filepath.FromSlash(name))
	// A namespace directory such as refs/heads/topic is not a branch.
	fi, err := os.Lstat(refPath)
	if errors.Is(err, os.ErrNotExist) || (err == nil && !fi.Mode().IsRegular()) {
		return fmt.Errorf("delete branch %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	if err := os.Remove(refPath); err != nil {
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	removeEmptyParents(refPath, heads)

	logHeads := filepath.Join(r.MetaDir, "logs", "refs", "heads")
	logPath := filepath.Join(logHeads, filepath.FromSlash(name))
	if err := os.Remove(logPath); err == nil {
		removeEmptyParents(logPath, logHeads)
	}
	r.log().Debug("branch deleted", "branch", name)
	return nil
}

// checkBranchNamespace fails with ErrAlreadyExists when name collides with
// the directory of a nested branch ("topic" vs "topic/y") or when a prefix
// of name is itself a branch ("topic/y" vs "topic").
func (r *Repo) checkBranchNamespace(name string) error {
	heads := filepath.Join(r.MetaDir, "refs", "heads")
	if fi, err := os.Lstat(filepath.Join(heads, filepath.FromSlash(name))); err == nil && fi.IsDir() {
		return fmt.Errorf("branches exist under %q: %w", name+"/", ErrAlreadyExists)
	}
	parts := strings.Split(name, "/")
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], "/")
		fi, err := os.Lstat(filepath.Join(heads, filepath.FromSlash(prefix)))
		if err == nil && fi.Mode().IsRegular() {
			return fmt.Errorf("branch %q exists: %w", prefix, ErrAlreadyExists)
		}
	}
	return nil
}

// ListBranches returns the branch names sorted alphabetically. Names with
// slashes (e.g. "feature/x") are listed by their full name.
func (r *Repo) ListBranches() ([]string, error) {
	refs, err := r.ListRefs("heads")
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	names := make([]string, 0, len(refs))
	for full := range refs {
		names = append(names, strings.TrimPrefix(full, "heads/"))
	}
	sort.Strings(names)
	return names, nil
}

// CurrentBranch reads HEAD and returns the branch name if HEAD is a symbolic
// ref (e.g. "ref: refs/heads/main" -> "main"). If HEAD is detached it
// returns "".
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	if name, ok := strings.CutPrefix(head, "refs/heads/"); ok {
		return name, nil
	}
	return "", nil
}

// Checkout makes HEAD a symbolic ref to branch. The working tree is not
// touched; materializing the branch's tree is the caller's job.
func (r *Repo) Checkout(branch string) error {
	if err := validateBranchName(branch); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	unlock, err := r.lock()
	if err != nil {
		return fmt.Errorf("checkout %q: %w", branch, err)
	}
	defer unlock()

	target, err := r.ResolveRef("refs/heads/" + branch)
	if err != nil {
		return fmt.Errorf("checkout %q: %w", branch, err)
	}
	if err := r.writeHead("ref: refs/heads/" + branch); err != nil {
		return fmt.Errorf("checkout %q: %w", branch, err)
	}
	entry := ReflogEntry{Ref: "HEAD", NewHash: target, Action: ActionCheckout, Detail: "moving to " + branch}
	if err := r.appendReflog(entry); err != nil {
		r.log().Warn("checkout reflog append failed", "err", err)
	}
	return nil
}

// CheckoutDetached stores the commit hash h directly in HEAD.
func (r *Repo) CheckoutDetached(h object.Hash) error {
	unlock, err := r.lock()
	if err != nil {
		return fmt.Errorf("checkout %s: %w", h, err)
	}
	defer unlock()

	if err := r.requireCommit(h); err != nil {
		return fmt.Errorf("checkout %s: %w", h, err)
	}
	if err := r.writeRef("HEAD", h, ActionCheckout, "detaching at "+h.Short()); err != nil {
		return fmt.Errorf("checkout %s: %w", h, err)
	}
	return nil
}

// requireCommit verifies that h names a commit object in the store.
func (r *Repo) requireCommit(h object.Hash) error {
	obj, err := r.Store.Get(h)
	if err != nil {
		return err
	}
	if _, ok := obj.(*object.CommitObj); !ok {
		return fmt.Errorf("%s is a %s, not a commit: %w", h, obj.Type(), ErrNotFound)
	}
	return nil
}
