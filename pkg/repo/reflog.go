package repo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/odvcencio/nvcs/pkg/object"
)

const zeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// RefAction names the operation that moved a ref.
type RefAction string

const (
	ActionCommit   RefAction = "commit"
	ActionMerge    RefAction = "merge"
	ActionReset    RefAction = "reset"
	ActionBranch   RefAction = "branch"
	ActionCheckout RefAction = "checkout"
)

func (a RefAction) valid() bool {
	switch a {
	case ActionCommit, ActionMerge, ActionReset, ActionBranch, ActionCheckout:
		return true
	}
	return false
}

// ReflogEntry is one recorded movement of a ref. OldHash is empty when the
// ref was created.
type ReflogEntry struct {
	Ref     string
	OldHash object.Hash
	NewHash object.Hash
	Time    time.Time
	Action  RefAction
	Detail  string
}

// Reason renders the entry as "action: detail".
func (e ReflogEntry) Reason() string {
	if e.Detail == "" {
		return string(e.Action)
	}
	return string(e.Action) + ": " + e.Detail
}

// A log line is "<old> <new> <unix> <action> <detail>"; detail runs to the
// end of the line and may be empty.
func formatReflogLine(e ReflogEntry) string {
	old := string(e.OldHash)
	if old == "" {
		old = zeroHash
	}
	detail := strings.Join(strings.Fields(e.Detail), " ")
	return fmt.Sprintf("%s %s %d %s %s\n", old, e.NewHash, e.Time.Unix(), e.Action, detail)
}

func parseReflogLine(ref, line string) (ReflogEntry, error) {
	fields := strings.SplitN(line, " ", 5)
	if len(fields) < 4 {
		return ReflogEntry{}, fmt.Errorf("want at least 4 fields, got %d", len(fields))
	}
	e := ReflogEntry{Ref: ref, Action: RefAction(fields[3])}
	if fields[0] != zeroHash {
		h, err := object.ParseHash(fields[0])
		if err != nil {
			return ReflogEntry{}, fmt.Errorf("old hash: %w", err)
		}
		e.OldHash = h
	}
	h, err := object.ParseHash(fields[1])
	if err != nil {
		return ReflogEntry{}, fmt.Errorf("new hash: %w", err)
	}
	e.NewHash = h
	ts, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil || ts < 0 {
		return ReflogEntry{}, fmt.Errorf("bad timestamp %q", fields[2])
	}
	e.Time = time.Unix(ts, 0)
	if !e.Action.valid() {
		return ReflogEntry{}, fmt.Errorf("unknown action %q", fields[3])
	}
	if len(fields) == 5 {
		e.Detail = fields[4]
	}
	return e, nil
}

func (r *Repo) reflogPath(ref string) string {
	return filepath.Join(r.MetaDir, "logs", filepath.FromSlash(ref))
}

func (r *Repo) appendReflog(e ReflogEntry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	logPath := r.reflogPath(e.Ref)
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("reflog mkdir: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("reflog open: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatReflogLine(e)); err != nil {
		return fmt.Errorf("reflog write: %w", err)
	}
	return nil
}

// ReadReflog returns the reflog for ref, newest first. An empty ref or
// "HEAD" means the current branch, or HEAD itself when detached. limit <= 0
// returns everything. A malformed line fails the read with ErrIntegrity.
func (r *Repo) ReadReflog(ref string, limit int) ([]ReflogEntry, error) {
	refName, err := r.resolveReflogRefName(ref)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(r.reflogPath(refName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reflog: %w", err)
	}
	defer f.Close()

	var entries []ReflogEntry
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Text()
		if line == "" {
			continue
		}
		e, err := parseReflogLine(refName, line)
		if err != nil {
			return nil, fmt.Errorf("read reflog %s line %d: %w: %v", refName, n, object.ErrIntegrity, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read reflog: %w", err)
	}

	slices.Reverse(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *Repo) resolveReflogRefName(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return "", fmt.Errorf("read reflog: %w", err)
		}
		if strings.HasPrefix(head, "refs/") {
			return head, nil
		}
		return "HEAD", nil
	}
	if !strings.HasPrefix(ref, "refs/") {
		ref = "refs/heads/" + ref
	}
	if err := validateRefName(ref); err != nil {
		return "", fmt.Errorf("read reflog: %w", err)
	}
	return ref, nil
}
