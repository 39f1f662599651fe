package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/nvcs/pkg/object"
)

const defaultBranchName = "main"

var ErrRefUpdatedButReflogAppendFailed = errors.New("ref updated but reflog append failed")

// RefUpdateReflogError indicates the ref file update succeeded, but appending
// the corresponding reflog entry failed.
type RefUpdateReflogError struct {
	Ref     string
	OldHash object.Hash
	NewHash object.Hash
	Err     error
}

func (e *RefUpdateReflogError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf(
		"update ref %q: %s (old=%s new=%s): %v",
		e.Ref,
		ErrRefUpdatedButReflogAppendFailed,
		e.OldHash,
		e.NewHash,
		e.Err,
	)
}

func (e *RefUpdateReflogError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *RefUpdateReflogError) Is(target error) bool {
	return target == ErrRefUpdatedButReflogAppendFailed
}

// ListRefs lists references under .nvcs/refs.
// Names are returned relative to refs root, e.g. "heads/main".
func (r *Repo) ListRefs(prefix string) (map[string]object.Hash, error) {
	root := filepath.Join(r.MetaDir, "refs")
	dir := root
	if strings.TrimSpace(prefix) != "" {
		dir = filepath.Join(root, filepath.FromSlash(prefix))
	}

	refs := make(map[string]object.Hash)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		h, err := readRefHash(path)
		if err != nil {
			return fmt.Errorf("ref %s: %w", filepath.ToSlash(rel), err)
		}
		refs[filepath.ToSlash(rel)] = h
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return refs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	return refs, nil
}

// writeRef points ref name (e.g. "refs/heads/main", or "HEAD" for a detached
// head) at h and appends a reflog line recording action. Callers hold the
// repository lock.
//
// The reflog append happens after the ref rename; if it fails, the ref
// update remains committed and a RefUpdateReflogError is returned.
func (r *Repo) writeRef(name string, h object.Hash, action RefAction, detail string) error {
	if !object.IsValidHash(string(h)) {
		return fmt.Errorf("update ref %q: invalid hash %q", name, h)
	}

	var oldHash object.Hash
	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return fmt.Errorf("update ref HEAD: %w", err)
		}
		if object.IsValidHash(head) {
			oldHash = object.Hash(head)
		}
		if err := r.writeHead(string(h)); err != nil {
			return fmt.Errorf("update ref HEAD: %w", err)
		}
	} else {
		if err := validateRefName(name); err != nil {
			return fmt.Errorf("update ref: %w", err)
		}
		refPath := filepath.Join(r.MetaDir, filepath.FromSlash(name))
		old, err := readRefHash(refPath)
		if err != nil {
			return fmt.Errorf("update ref %q: read old hash: %w", name, err)
		}
		oldHash = old
		if err := writeFileAtomic(refPath, []byte(string(h)+"\n")); err != nil {
			return fmt.Errorf("update ref %q: %w", name, err)
		}
	}

	r.log().Debug("ref updated", "ref", name, "old", oldHash, "new", h, "action", action)

	entry := ReflogEntry{Ref: name, OldHash: oldHash, NewHash: h, Action: action, Detail: detail}
	if err := r.appendReflog(entry); err != nil {
		return &RefUpdateReflogError{
			Ref:     name,
			OldHash: oldHash,
			NewHash: h,
			Err:     err,
		}
	}
	return nil
}

// advanceHead moves whatever HEAD points at to h: the current branch when
// HEAD is symbolic, HEAD itself when detached. A failed reflog append is
// logged, not returned, since the ref itself has moved.
func (r *Repo) advanceHead(h object.Hash, action RefAction, detail string) error {
	head, err := r.Head()
	if err != nil {
		return err
	}
	name := "HEAD"
	if strings.HasPrefix(head, "refs/") {
		name = head
	}
	err = r.writeRef(name, h, action, detail)
	if errors.Is(err, ErrRefUpdatedButReflogAppendFailed) {
		r.log().Warn("reflog append failed", "ref", name, "err", err)
		return nil
	}
	return err
}

func validateRefName(name string) error {
	if !strings.HasPrefix(name, "refs/") {
		return fmt.Errorf("invalid ref name %q", name)
	}
	for _, part := range strings.Split(strings.TrimPrefix(name, "refs/"), "/") {
		if part == "" || part == "." || part == ".." || strings.HasPrefix(part, ".") {
			return fmt.Errorf("invalid ref name %q", name)
		}
	}
	if strings.ContainsAny(name, " \t\n\r\x00\\:") {
		return fmt.Errorf("invalid ref name %q", name)
	}
	return nil
}

func validateBranchName(name string) error {
	if name == "" {
		return fmt.Errorf("branch name is required")
	}
	if name == "HEAD" || strings.HasPrefix(name, "-") {
		return fmt.Errorf("invalid branch name %q", name)
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fmt.Errorf("invalid branch name %q", name)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("invalid branch name %q", name)
	}
	if err := validateRefName("refs/heads/" + name); err != nil {
		return fmt.Errorf("invalid branch name %q", name)
	}
	return nil
}
