package repo

import (
	"fmt"
	"sync"

	"github.com/odvcencio/nvcs/pkg/object"
)

type mergeBaseCacheKey struct {
	left  object.Hash
	right object.Hash
}

// mergeBaseTraversalState caches commit reads, generation numbers and
// merge-base answers for one repository handle. Commits are immutable, so
// entries never go stale.
type mergeBaseTraversalState struct {
	mu sync.RWMutex

	commits     map[object.Hash]*object.CommitObj
	generations map[object.Hash]uint64
	mergeBases  map[mergeBaseCacheKey]object.Hash
}

func newMergeBaseTraversalState() *mergeBaseTraversalState {
	return &mergeBaseTraversalState{
		commits:     make(map[object.Hash]*object.CommitObj),
		generations: make(map[object.Hash]uint64),
		mergeBases:  make(map[mergeBaseCacheKey]object.Hash),
	}
}

func canonicalMergeBaseCacheKey(a, b object.Hash) mergeBaseCacheKey {
	if a <= b {
		return mergeBaseCacheKey{left: a, right: b}
	}
	return mergeBaseCacheKey{left: b, right: a}
}

func (s *mergeBaseTraversalState) loadMergeBase(a, b object.Hash) (object.Hash, bool) {
	key := canonicalMergeBaseCacheKey(a, b)
	s.mu.RLock()
	base, ok := s.mergeBases[key]
	s.mu.RUnlock()
	return base, ok
}

func (s *mergeBaseTraversalState) storeMergeBase(a, b, base object.Hash) {
	key := canonicalMergeBaseCacheKey(a, b)
	s.mu.Lock()
	s.mergeBases[key] = base
	s.mu.Unlock()
}

func (s *mergeBaseTraversalState) mergeBaseCacheSize() int {
	s.mu.RLock()
	n := len(s.mergeBases)
	s.mu.RUnlock()
	return n
}

func (s *mergeBaseTraversalState) readCommit(r *Repo, h object.Hash) (*object.CommitObj, error) {
	s.mu.RLock()
	cached, ok := s.commits[h]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	commit, err := r.Store.ReadCommit(h)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", h, err)
	}

	s.mu.Lock()
	if existing, exists := s.commits[h]; exists {
		s.mu.Unlock()
		return existing, nil
	}
	s.commits[h] = commit
	s.mu.Unlock()
	return commit, nil
}

func (s *mergeBaseTraversalState) loadGeneration(h object.Hash) (uint64, bool) {
	s.mu.RLock()
	g, ok := s.generations[h]
	s.mu.RUnlock()
	return g, ok
}

func (s *mergeBaseTraversalState) storeGeneration(h object.Hash, g uint64) {
	s.mu.Lock()
	s.generations[h] = g
	s.mu.Unlock()
}

func (s *mergeBaseTraversalState) generationCacheSize() int {
	s.mu.RLock()
	n := len(s.generations)
	s.mu.RUnlock()
	return n
}

// generation returns the length of the longest parent chain from h to a
// root, counting h: roots have generation 1. It walks with an explicit
// stack so deep histories do not grow the goroutine stack.
func (s *mergeBaseTraversalState) generation(r *Repo, h object.Hash) (uint64, error) {
	if g, ok := s.loadGeneration(h); ok {
		return g, nil
	}

	type frame struct {
		hash     object.Hash
		expanded bool
	}
	stack := []frame{{hash: h}}
	// Expanded but unfinished frames form the current DFS path.
	inProgress := make(map[object.Hash]bool)

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if _, ok := s.loadGeneration(top.hash); ok {
			stack = stack[:len(stack)-1]
			continue
		}
		commit, err := s.readCommit(r, top.hash)
		if err != nil {
			return 0, err
		}

		if !top.expanded {
			top.expanded = true
			cur := top.hash
			inProgress[cur] = true
			for _, p := range commit.Parents {
				if _, ok := s.loadGeneration(p); ok {
					continue
				}
				if inProgress[p] {
					return 0, fmt.Errorf("commit graph cycle detected at %s: %w", cur, object.ErrIntegrity)
				}
				stack = append(stack, frame{hash: p})
			}
			continue
		}

		var maxParent uint64
		for _, p := range commit.Parents {
			pg, ok := s.loadGeneration(p)
			if !ok {
				return 0, fmt.Errorf("generation of %s: parent %s unresolved: %w", top.hash, p, object.ErrIntegrity)
			}
			maxParent = max(maxParent, pg)
		}
		s.storeGeneration(top.hash, maxParent+1)
		delete(inProgress, top.hash)
		stack = stack[:len(stack)-1]
	}

	g, _ := s.loadGeneration(h)
	return g, nil
}

// FindMergeBase returns the closest common ancestor of commits a and b: the
// member of Ancestors(a) ∩ Ancestors(b) with the greatest generation, ties
// broken by the smallest hash. Histories with no common commit fail with
// ErrInvalidState.
func (r *Repo) FindMergeBase(a, b object.Hash) (object.Hash, error) {
	state := r.getMergeTraversalState()
	if base, ok := state.loadMergeBase(a, b); ok {
		return base, nil
	}

	ancA, err := r.ancestors(state, a)
	if err != nil {
		return "", fmt.Errorf("find merge base: %w", err)
	}
	ancB, err := r.ancestors(state, b)
	if err != nil {
		return "", fmt.Errorf("find merge base: %w", err)
	}
	if len(ancB) < len(ancA) {
		ancA, ancB = ancB, ancA
	}

	var (
		best    object.Hash
		bestGen uint64
	)
	for h := range ancA {
		if _, common := ancB[h]; !common {
			continue
		}
		g, err := state.generation(r, h)
		if err != nil {
			return "", fmt.Errorf("find merge base: %w", err)
		}
		best, bestGen = chooseBetterMergeBase(best, bestGen, h, g)
	}
	if best == "" {
		return "", fmt.Errorf("find merge base %s %s: unrelated histories: %w", a.Short(), b.Short(), ErrInvalidState)
	}

	state.storeMergeBase(a, b, best)
	r.log().Debug("merge base selected",
		"ours", a.Short(),
		"theirs", b.Short(),
		"base", best.Short(),
		"generation", bestGen,
	)
	return best, nil
}

// IsAncestor reports whether ancestor is reachable from descendant over
// parent edges. A commit is its own ancestor.
func (r *Repo) IsAncestor(ancestor, descendant object.Hash) (bool, error) {
	anc, err := r.Ancestors(descendant)
	if err != nil {
		return false, err
	}
	_, ok := anc[ancestor]
	return ok, nil
}

func chooseBetterMergeBase(best object.Hash, bestGeneration uint64, candidate object.Hash, candidateGeneration uint64) (object.Hash, uint64) {
	if best == "" {
		return candidate, candidateGeneration
	}
	if candidateGeneration > bestGeneration {
		return candidate, candidateGeneration
	}
	if candidateGeneration < bestGeneration {
		return best, bestGeneration
	}
	if candidate < best {
		return candidate, candidateGeneration
	}
	return best, bestGeneration
}
