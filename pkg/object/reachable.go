package object

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MissingRef records a reference from one object to an absent object.
type MissingRef struct {
	From Hash
	Hash Hash
}

// ConnectivityReport summarizes a reachability walk.
type ConnectivityReport struct {
	Reachable map[Hash]struct{}
	Missing   []MissingRef
	// Commits counts reachable commit objects.
	Commits int
}

// CheckConnectivity walks every object reachable from roots and records
// references to objects that are not in the store. Corrupt objects abort the
// walk with an ErrIntegrity error.
func (s *Store) CheckConnectivity(roots []Hash) (*ConnectivityReport, error) {
	roots = uniqueNormalizedHashes(roots)
	report := &ConnectivityReport{Reachable: make(map[Hash]struct{}, len(roots))}

	type item struct {
		from Hash
		hash Hash
	}
	missing := make(map[MissingRef]struct{})
	stack := make([]item, 0, len(roots))
	for _, r := range roots {
		stack = append(stack, item{hash: r})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := report.Reachable[it.hash]; ok {
			continue
		}

		obj, err := s.Get(it.hash)
		if errors.Is(err, ErrNotFound) {
			m := MissingRef{From: it.from, Hash: it.hash}
			if _, dup := missing[m]; !dup {
				missing[m] = struct{}{}
				report.Missing = append(report.Missing, m)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("connectivity read %s: %w", it.hash, err)
		}
		report.Reachable[it.hash] = struct{}{}
		if _, ok := obj.(*CommitObj); ok {
			report.Commits++
		}

		refs, err := referencedHashes(obj)
		if err != nil {
			return nil, fmt.Errorf("connectivity parse %s: %w", it.hash, err)
		}
		for _, ref := range refs {
			stack = append(stack, item{from: it.hash, hash: ref})
		}
	}

	sort.Slice(report.Missing, func(i, j int) bool {
		if report.Missing[i].Hash == report.Missing[j].Hash {
			return report.Missing[i].From < report.Missing[j].From
		}
		return report.Missing[i].Hash < report.Missing[j].Hash
	})
	return report, nil
}

func referencedHashes(obj Object) ([]Hash, error) {
	switch o := obj.(type) {
	case *Blob:
		return nil, nil
	case *CommitObj:
		refs := make([]Hash, 0, 1+len(o.Parents))
		refs = append(refs, o.TreeHash)
		refs = append(refs, o.Parents...)
		return refs, nil
	case *TreeObj:
		refs := make([]Hash, 0, len(o.Entries))
		for _, e := range o.Entries {
			refs = append(refs, e.Hash)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unsupported object %T", obj)
	}
}

func uniqueNormalizedHashes(in []Hash) []Hash {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[Hash]struct{}, len(in))
	out := make([]Hash, 0, len(in))
	for _, h := range in {
		h = Hash(strings.TrimSpace(string(h)))
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
