package repo

import (
	"fmt"

	"github.com/odvcencio/nvcs/pkg/object"
)

// Ancestors returns every commit reachable from h by following all parent
// edges, h included. A parent that is missing from the store fails the walk
// with ErrNotFound.
func (r *Repo) Ancestors(h object.Hash) (map[object.Hash]struct{}, error) {
	set, err := r.ancestors(r.getMergeTraversalState(), h)
	if err != nil {
		return nil, fmt.Errorf("ancestors: %w", err)
	}
	return set, nil
}

func (r *Repo) ancestors(state *mergeBaseTraversalState, h object.Hash) (map[object.Hash]struct{}, error) {
	visited := map[object.Hash]struct{}{h: {}}
	queue := []object.Hash{h}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		c, err := state.readCommit(r, cur)
		if err != nil {
			return nil, err
		}
		for _, p := range c.Parents {
			if _, seen := visited[p]; seen {
				continue
			}
			visited[p] = struct{}{}
			queue = append(queue, p)
		}
	}
	return visited, nil
}
