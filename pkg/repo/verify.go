package repo

import (
	"errors"
	"fmt"
	"sort"

	"github.com/odvcencio/nvcs/pkg/object"
)

// VerifyReport is the result of Verify.
type VerifyReport struct {
	// Roots are the commits named by refs and a detached HEAD, sorted.
	Roots []object.Hash
	// BadRefs lists refs whose target is missing or is not a commit.
	BadRefs []string
	*object.ConnectivityReport
}

// OK reports whether every ref names a commit and nothing reachable is
// missing.
func (v *VerifyReport) OK() bool {
	return len(v.BadRefs) == 0 && len(v.Missing) == 0
}

// Verify walks every object reachable from the refs and a detached HEAD and
// reports dangling references. Corrupt objects abort with ErrIntegrity.
func (r *Repo) Verify() (*VerifyReport, error) {
	refs, err := r.ListRefs("")
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	named := make(map[string]object.Hash, len(refs)+1)
	for name, h := range refs {
		named["refs/"+name] = h
	}
	head, err := r.Head()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if object.IsValidHash(head) {
		named["HEAD"] = object.Hash(head)
	}

	report := &VerifyReport{}
	rootSet := make(map[object.Hash]struct{}, len(named))
	for name, h := range named {
		rootSet[h] = struct{}{}
		if err := r.requireCommit(h); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("verify %s: %w", name, err)
			}
			report.BadRefs = append(report.BadRefs, name)
		}
	}
	sort.Strings(report.BadRefs)

	for h := range rootSet {
		report.Roots = append(report.Roots, h)
	}
	sort.Slice(report.Roots, func(i, j int) bool { return report.Roots[i] < report.Roots[j] })

	conn, err := r.Store.CheckConnectivity(report.Roots)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	report.ConnectivityReport = conn

	r.log().Debug("verify finished",
		"roots", len(report.Roots),
		"objects", len(conn.Reachable),
		"commits", conn.Commits,
		"missing", len(conn.Missing),
	)
	return report, nil
}
