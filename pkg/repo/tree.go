package repo

import (
	"fmt"
	"path"
	"sort"

	"github.com/odvcencio/nvcs/pkg/object"
)

// TreeFileEntry represents a single file in a flattened tree.
type TreeFileEntry struct {
	Path     string
	BlobHash object.Hash
}

// BuildTree writes one flat tree keyed by full repo-relative path (e.g.
// "pkg/util/util.go") and returns its hash. Every blob named by entries must
// already be in the store.
func (r *Repo) BuildTree(entries []IndexEntry) (object.Hash, error) {
	treeEntries := make([]object.TreeEntry, 0, len(entries))
	for _, e := range entries {
		if !r.Store.Has(e.BlobHash) {
			return "", fmt.Errorf("build tree: blob %s for %q: %w", e.BlobHash, e.Path, ErrNotFound)
		}
		treeEntries = append(treeEntries, object.TreeEntry{
			Name: e.Path,
			Kind: object.KindFile,
			Hash: e.BlobHash,
		})
	}
	h, err := r.Store.WriteTree(&object.TreeObj{Entries: treeEntries})
	if err != nil {
		return "", fmt.Errorf("build tree: %w", err)
	}
	return h, nil
}

// FlattenTree walks a tree object, returning all file entries with their
// full paths (forward slashes) sorted by path. Directory entries are
// followed recursively, so nested trees flatten the same way as flat ones.
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	result, err := r.flattenTreeRec(h, "", make(map[object.Hash]bool))
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

func (r *Repo) flattenTreeRec(h object.Hash, prefix string, active map[object.Hash]bool) ([]TreeFileEntry, error) {
	if active[h] {
		return nil, fmt.Errorf("flatten tree: cycle at %s: %w", h, object.ErrIntegrity)
	}
	active[h] = true
	defer delete(active, h)

	treeObj, err := r.Store.ReadTree(h)
	if err != nil {
		return nil, fmt.Errorf("flatten tree: read %s: %w", h, err)
	}

	var result []TreeFileEntry
	for _, entry := range treeObj.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = path.Join(prefix, entry.Name)
		}

		if entry.IsDir() {
			sub, err := r.flattenTreeRec(entry.Hash, fullPath, active)
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
		} else {
			result = append(result, TreeFileEntry{Path: fullPath, BlobHash: entry.Hash})
		}
	}
	return result, nil
}

// treeFileMap flattens the tree at h into path -> blob hash.
func (r *Repo) treeFileMap(h object.Hash) (map[string]object.Hash, error) {
	files, err := r.FlattenTree(h)
	if err != nil {
		return nil, err
	}
	out := make(map[string]object.Hash, len(files))
	for _, f := range files {
		if _, dup := out[f.Path]; dup {
			return nil, fmt.Errorf("flatten tree %s: duplicate path %q: %w", h, f.Path, object.ErrIntegrity)
		}
		out[f.Path] = f.BlobHash
	}
	return out, nil
}

// CommitFiles flattens the tree of commit h into path -> blob hash.
func (r *Repo) CommitFiles(h object.Hash) (map[string]object.Hash, error) {
	c, err := r.Store.ReadCommit(h)
	if err != nil {
		return nil, fmt.Errorf("commit files %s: %w", h, err)
	}
	return r.treeFileMap(c.TreeHash)
}
