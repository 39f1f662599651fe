package diff

import (
	"sort"

	"github.com/odvcencio/nvcs/pkg/object"
)

// ChangeType classifies what happened to a path between two trees.
type ChangeType int

const (
	Added    ChangeType = iota // Path exists only in the after tree.
	Removed                    // Path exists only in the before tree.
	Modified                   // Path exists in both trees with different blobs.
)

func (t ChangeType) String() string {
	switch t {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// FileChange records a single path-level change between two trees.
type FileChange struct {
	Type   ChangeType
	Path   string
	Before object.Hash // empty for Added.
	After  object.Hash // empty for Removed.
}

// Trees compares two flattened trees (path -> blob hash) and returns the
// changed paths sorted by path. Unchanged paths are omitted.
func Trees(before, after map[string]object.Hash) []FileChange {
	var changes []FileChange
	for p, bh := range before {
		ah, ok := after[p]
		switch {
		case !ok:
			changes = append(changes, FileChange{Type: Removed, Path: p, Before: bh})
		case ah != bh:
			changes = append(changes, FileChange{Type: Modified, Path: p, Before: bh, After: ah})
		}
	}
	for p, ah := range after {
		if _, ok := before[p]; !ok {
			changes = append(changes, FileChange{Type: Added, Path: p, After: ah})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}

// Counts tallies changes by type.
func Counts(changes []FileChange) (added, removed, modified int) {
	for _, c := range changes {
		switch c.Type {
		case Added:
			added++
		case Removed:
			removed++
		case Modified:
			modified++
		}
	}
	return added, removed, modified
}
