// Package merge reconciles three flattened trees (base, ours, theirs) into a
// merged tree and a conflict list. It performs no I/O.
package merge

import (
	"fmt"
	"sort"

	"github.com/odvcencio/nvcs/pkg/object"
)

// Entry is one path's content in a flattened tree.
type Entry struct {
	Hash object.Hash
	Kind object.EntryKind
}

// Disposition describes how a path was resolved.
type Disposition int

const (
	Unchanged      Disposition = iota
	OursOnly                   // ours modified, theirs unchanged
	TheirsOnly                 // theirs modified, ours unchanged
	BothSame                   // both modified identically
	Conflict                   // both modified differently
	AddedOurs                  // new path in ours, not in base
	AddedTheirs                // new path in theirs, not in base
	AddedBoth                  // added identically on both sides
	DeletedOurs                // deleted by ours, theirs unchanged
	DeletedTheirs              // deleted by theirs, ours unchanged
	DeletedBoth                // deleted on both sides
	DeleteVsModify             // one deleted, other modified
)

func (d Disposition) String() string {
	switch d {
	case Unchanged:
		return "Unchanged"
	case OursOnly:
		return "OursOnly"
	case TheirsOnly:
		return "TheirsOnly"
	case BothSame:
		return "BothSame"
	case Conflict:
		return "Conflict"
	case AddedOurs:
		return "AddedOurs"
	case AddedTheirs:
		return "AddedTheirs"
	case AddedBoth:
		return "AddedBoth"
	case DeletedOurs:
		return "DeletedOurs"
	case DeletedTheirs:
		return "DeletedTheirs"
	case DeletedBoth:
		return "DeletedBoth"
	case DeleteVsModify:
		return "DeleteVsModify"
	}
	return fmt.Sprintf("Disposition(%d)", int(d))
}

// ConflictKind distinguishes the two kinds of unresolvable paths.
type ConflictKind int

const (
	// ContentConflict: both sides changed (or added) the path differently.
	ContentConflict ConflictKind = iota
	// DeleteModifyConflict: one side deleted the path, the other changed it.
	DeleteModifyConflict
)

func (k ConflictKind) String() string {
	switch k {
	case ContentConflict:
		return "content"
	case DeleteModifyConflict:
		return "delete/modify"
	}
	return fmt.Sprintf("ConflictKind(%d)", int(k))
}

// ConflictEntry describes one conflicted path. Base, Ours and Theirs are nil
// where the path is absent on that side.
type ConflictEntry struct {
	Path   string
	Kind   ConflictKind
	Base   *Entry
	Ours   *Entry
	Theirs *Entry
}

// Outcome records the disposition of one path.
type Outcome struct {
	Path        string
	Disposition Disposition
}

// Stats tracks counts of path dispositions during a merge.
type Stats struct {
	TotalPaths     int
	Unchanged      int
	OursModified   int
	TheirsModified int
	BothModified   int
	Added          int
	Deleted        int
	Conflicts      int
}

// Result is the output of Trees.
type Result struct {
	// Entries is the merged tree. Conflicted paths hold the provisional
	// resolution: ours when ours has the path, otherwise absent.
	Entries map[string]Entry
	// Conflicts is sorted by path.
	Conflicts []ConflictEntry
	// Outcomes lists every path of the union, sorted.
	Outcomes []Outcome
	Stats    Stats
}

// Clean reports whether the merge produced no conflicts.
func (r *Result) Clean() bool { return len(r.Conflicts) == 0 }

// ConflictPaths returns the conflicted paths in order.
func (r *Result) ConflictPaths() []string {
	out := make([]string, len(r.Conflicts))
	for i, c := range r.Conflicts {
		out[i] = c.Path
	}
	return out
}

// Classify decides the disposition of a single path from its presence and
// content on each side. A nil side means the path is absent there.
func Classify(base, ours, theirs *Entry) Disposition {
	switch {
	case base == nil:
		switch {
		case ours == nil && theirs == nil:
			return Unchanged
		case theirs == nil:
			return AddedOurs
		case ours == nil:
			return AddedTheirs
		case *ours == *theirs:
			return AddedBoth
		default:
			return Conflict
		}
	case ours == nil && theirs == nil:
		return DeletedBoth
	case ours == nil:
		if *theirs == *base {
			return DeletedOurs
		}
		return DeleteVsModify
	case theirs == nil:
		if *ours == *base {
			return DeletedTheirs
		}
		return DeleteVsModify
	}

	oursChanged := *ours != *base
	theirsChanged := *theirs != *base
	switch {
	case !oursChanged && !theirsChanged:
		return Unchanged
	case oursChanged && !theirsChanged:
		return OursOnly
	case !oursChanged && theirsChanged:
		return TheirsOnly
	case *ours == *theirs:
		return BothSame
	default:
		return Conflict
	}
}

// Trees performs a three-way merge over the union of paths in base, ours and
// theirs. It does not modify its inputs.
func Trees(base, ours, theirs map[string]Entry) *Result {
	paths := collectAllPaths(base, ours, theirs)
	res := &Result{
		Entries:  make(map[string]Entry, len(paths)),
		Outcomes: make([]Outcome, 0, len(paths)),
	}
	res.Stats.TotalPaths = len(paths)

	for _, p := range paths {
		b, o, t := lookup(base, p), lookup(ours, p), lookup(theirs, p)
		d := Classify(b, o, t)
		res.Outcomes = append(res.Outcomes, Outcome{Path: p, Disposition: d})

		switch d {
		case Unchanged:
			res.Entries[p] = *b
			res.Stats.Unchanged++
		case OursOnly:
			res.Entries[p] = *o
			res.Stats.OursModified++
		case TheirsOnly:
			res.Entries[p] = *t
			res.Stats.TheirsModified++
		case BothSame:
			res.Entries[p] = *o
			res.Stats.BothModified++
		case AddedOurs, AddedBoth:
			res.Entries[p] = *o
			res.Stats.Added++
		case AddedTheirs:
			res.Entries[p] = *t
			res.Stats.Added++
		case DeletedOurs, DeletedTheirs, DeletedBoth:
			res.Stats.Deleted++
		case Conflict:
			res.Entries[p] = *o
			res.Conflicts = append(res.Conflicts, ConflictEntry{Path: p, Kind: ContentConflict, Base: b, Ours: o, Theirs: t})
			res.Stats.Conflicts++
		case DeleteVsModify:
			if o != nil {
				res.Entries[p] = *o
			}
			res.Conflicts = append(res.Conflicts, ConflictEntry{Path: p, Kind: DeleteModifyConflict, Base: b, Ours: o, Theirs: t})
			res.Stats.Conflicts++
		default:
			panic(fmt.Sprintf("merge: unhandled disposition %v", d))
		}
	}
	return res
}

func lookup(m map[string]Entry, p string) *Entry {
	e, ok := m[p]
	if !ok {
		return nil
	}
	return &e
}

func collectAllPaths(base, ours, theirs map[string]Entry) []string {
	seen := make(map[string]struct{}, len(base)+len(ours)+len(theirs))
	for _, m := range []map[string]Entry{base, ours, theirs} {
		for p := range m {
			seen[p] = struct{}{}
		}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
