package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/odvcencio/nvcs/pkg/object"
)

// IndexEntry records the staged state of a single file.
type IndexEntry struct {
	Path     string      `json:"path"`
	BlobHash object.Hash `json:"blob_hash"`
	Size     int64       `json:"size"`
	ModTime  int64       `json:"mod_time"`
}

// Index is the staging area: the pending snapshot that becomes the next
// commit's tree.
type Index struct {
	Entries map[string]*IndexEntry `json:"entries"`
}

func newIndex() *Index {
	return &Index{Entries: make(map[string]*IndexEntry)}
}

// Len returns the number of staged paths.
func (ix *Index) Len() int { return len(ix.Entries) }

// Sorted returns a copy of the entries ordered by path.
func (ix *Index) Sorted() []IndexEntry {
	out := make([]IndexEntry, 0, len(ix.Entries))
	for _, e := range ix.Entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (r *Repo) indexPath() string {
	return filepath.Join(r.MetaDir, "index")
}

// ReadIndex loads the staging area from .nvcs/index. A missing file is an
// empty index.
func (r *Repo) ReadIndex() (*Index, error) {
	data, err := os.ReadFile(r.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newIndex(), nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}

	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("read index: unmarshal: %w", err)
	}
	if ix.Entries == nil {
		ix.Entries = make(map[string]*IndexEntry)
	}
	for p, e := range ix.Entries {
		if e == nil || e.Path != p || !object.IsValidHash(string(e.BlobHash)) {
			return nil, fmt.Errorf("read index: bad entry %q: %w", p, object.ErrIntegrity)
		}
	}
	return &ix, nil
}

func (r *Repo) writeIndex(ix *Index) error {
	if ix == nil {
		ix = newIndex()
	}
	if ix.Entries == nil {
		ix.Entries = make(map[string]*IndexEntry)
	}
	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return fmt.Errorf("write index: marshal: %w", err)
	}
	if err := writeFileAtomic(r.indexPath(), data); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Stage writes data as a blob and records it in the index under the
// repo-relative path p. It returns the blob hash.
func (r *Repo) Stage(p string, data []byte, modTime time.Time) (object.Hash, error) {
	rel, err := normalizeIndexPath(p)
	if err != nil {
		return "", fmt.Errorf("stage: %w", err)
	}

	// Blob first: the index must never name an object that is not stored.
	h, err := r.Store.WriteBlob(&object.Blob{Data: data})
	if err != nil {
		return "", fmt.Errorf("stage %q: write blob: %w", rel, err)
	}

	unlock, err := r.lock()
	if err != nil {
		return "", fmt.Errorf("stage %q: %w", rel, err)
	}
	defer unlock()

	ix, err := r.ReadIndex()
	if err != nil {
		return "", fmt.Errorf("stage %q: %w", rel, err)
	}
	ix.Entries[rel] = &IndexEntry{
		Path:     rel,
		BlobHash: h,
		Size:     int64(len(data)),
		ModTime:  modTime.Unix(),
	}
	if err := r.writeIndex(ix); err != nil {
		return "", fmt.Errorf("stage %q: %w", rel, err)
	}
	r.log().Debug("staged", "path", rel, "blob", h, "size", len(data))
	return h, nil
}

// Unstage drops p from the index. It fails with ErrNotFound when p is not
// staged.
func (r *Repo) Unstage(p string) error {
	rel, err := normalizeIndexPath(p)
	if err != nil {
		return fmt.Errorf("unstage: %w", err)
	}
	unlock, err := r.lock()
	if err != nil {
		return fmt.Errorf("unstage %q: %w", rel, err)
	}
	defer unlock()

	ix, err := r.ReadIndex()
	if err != nil {
		return fmt.Errorf("unstage %q: %w", rel, err)
	}
	if _, ok := ix.Entries[rel]; !ok {
		return fmt.Errorf("unstage %q: %w", rel, ErrNotFound)
	}
	delete(ix.Entries, rel)
	if err := r.writeIndex(ix); err != nil {
		return fmt.Errorf("unstage %q: %w", rel, err)
	}
	return nil
}

// IsStaged reports whether p has an index entry.
func (r *Repo) IsStaged(p string) (bool, error) {
	rel, err := normalizeIndexPath(p)
	if err != nil {
		return false, fmt.Errorf("is staged: %w", err)
	}
	ix, err := r.ReadIndex()
	if err != nil {
		return false, err
	}
	_, ok := ix.Entries[rel]
	return ok, nil
}

// Snapshot returns the staged entries sorted by path.
func (r *Repo) Snapshot() ([]IndexEntry, error) {
	ix, err := r.ReadIndex()
	if err != nil {
		return nil, err
	}
	return ix.Sorted(), nil
}

// RelPath converts p (absolute, or relative to the repository root) into a
// normalized repo-relative path suitable for the index.
func (r *Repo) RelPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.RootDir, p)
		if err != nil {
			return "", fmt.Errorf("cannot make %q relative to %q: %w", p, r.RootDir, err)
		}
		p = rel
	}
	return normalizeIndexPath(p)
}

// normalizeIndexPath cleans a repo-relative path to forward-slash form and
// rejects paths that escape the root or point into the metadata directory.
func normalizeIndexPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("empty path")
	}
	if strings.ContainsAny(p, "\x00\n") {
		return "", fmt.Errorf("invalid path %q", p)
	}
	clean := path.Clean(filepath.ToSlash(p))
	if path.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path %q is outside the repository", p)
	}
	if clean == MetaDirName || strings.HasPrefix(clean, MetaDirName+"/") {
		return "", fmt.Errorf("path %q is inside %s", p, MetaDirName)
	}
	return clean, nil
}
