package repo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/odvcencio/nvcs/pkg/object"
)

func TestCommit_WritesReflog(t *testing.T) {
	r := initRepoWithFile(t, "a.txt", []byte("1"))
	c1, err := r.Commit("first\n\nbody", "test-author")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	c2 := commitFiles(t, r, "second", map[string]string{"a.txt": "2"})

	entries, err := r.ReadReflog("main", 10)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 reflog entries, got %d", len(entries))
	}
	if entries[0].NewHash != c2 || entries[0].OldHash != c1 {
		t.Errorf("latest entry = %+v, want %s -> %s", entries[0], c1, c2)
	}
	if entries[1].NewHash != c1 || entries[1].OldHash != "" {
		t.Errorf("first entry = %+v, want creation -> %s", entries[1], c1)
	}
	if entries[1].Action != ActionCommit || entries[1].Detail != "first" {
		t.Errorf("first entry = %s %q, want commit with first message line", entries[1].Action, entries[1].Detail)
	}
	if got := entries[1].Reason(); got != "commit: first" {
		t.Errorf("Reason() = %q", got)
	}

	// HEAD and "" resolve to the current branch's log.
	head, err := r.ReadReflog("HEAD", 0)
	if err != nil {
		t.Fatalf("ReadReflog(HEAD): %v", err)
	}
	if len(head) != 2 {
		t.Errorf("ReadReflog(HEAD) = %d entries, want 2", len(head))
	}

	assertFile(t, filepath.Join(r.MetaDir, "logs", "refs", "heads", "main"))
}

func TestReadReflog_RespectsLimit(t *testing.T) {
	r := initRepoWithFile(t, "a.txt", []byte("0"))
	if _, err := r.Commit("c0", "test-author"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	for i := 1; i < 5; i++ {
		commitFiles(t, r, "c", map[string]string{"a.txt": strings.Repeat("x", i)})
	}

	entries, err := r.ReadReflog("main", 2)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries length = %d, want 2", len(entries))
	}
}

func TestReadReflog_MissingIsEmpty(t *testing.T) {
	r := initRepoWithFile(t, "a.txt", []byte("0"))
	entries, err := r.ReadReflog("nothing-here", 0)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v, want none", entries)
	}
}

func TestReflog_RecordsOperationActions(t *testing.T) {
	r := initRepoWithFile(t, "a.txt", []byte("1"))
	c1, err := r.Commit("one", "test-author")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	commitFiles(t, r, "two", map[string]string{"a.txt": "2"})
	if _, err := r.Reset(c1, ResetSoft); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := r.CreateBranch("side", c1); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	main, err := r.ReadReflog("main", 0)
	if err != nil {
		t.Fatalf("ReadReflog(main): %v", err)
	}
	var actions []string
	for _, e := range main {
		actions = append(actions, string(e.Action))
	}
	if got := strings.Join(actions, ","); got != "reset,commit,commit" {
		t.Errorf("main actions = %s, want reset,commit,commit", got)
	}
	if want := "--soft to " + c1.Short(); main[0].Detail != want {
		t.Errorf("reset detail = %q, want %q", main[0].Detail, want)
	}

	side, err := r.ReadReflog("side", 0)
	if err != nil {
		t.Fatalf("ReadReflog(side): %v", err)
	}
	if len(side) != 1 || side[0].Action != ActionBranch || side[0].OldHash != "" {
		t.Errorf("side reflog = %+v", side)
	}
}

func TestReflogLine_DetailFlattened(t *testing.T) {
	h := object.Hash(strings.Repeat("a", object.HashLen))
	line := formatReflogLine(ReflogEntry{NewHash: h, Time: time.Unix(42, 0), Action: ActionMerge, Detail: "multi\nline  detail"})
	e, err := parseReflogLine("refs/heads/main", strings.TrimSuffix(line, "\n"))
	if err != nil {
		t.Fatalf("parseReflogLine(%q): %v", line, err)
	}
	if e.OldHash != "" || e.NewHash != h || e.Time.Unix() != 42 || e.Action != ActionMerge || e.Detail != "multi line detail" {
		t.Errorf("parsed = %+v", e)
	}
}

func TestReadReflog_MalformedLineIsIntegrityError(t *testing.T) {
	r := initRepoWithFile(t, "a.txt", []byte("1"))
	c1, err := r.Commit("one", "test-author")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	good := strings.Repeat("b", object.HashLen)
	cases := map[string]string{
		"short":      "only three fields\n",
		"bad new":    zeroHash + " nothex 1 commit x\n",
		"bad old":    "xyz " + good + " 1 commit x\n",
		"bad time":   zeroHash + " " + good + " soon commit x\n",
		"bad action": zeroHash + " " + good + " 1 rebase x\n",
	}
	logPath := filepath.Join(r.MetaDir, "logs", "refs", "heads", "main")
	valid, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			if err := os.WriteFile(logPath, append(append([]byte{}, valid...), line...), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := r.ReadReflog("main", 0); !errors.Is(err, object.ErrIntegrity) {
				t.Errorf("ReadReflog: err = %v, want ErrIntegrity", err)
			}
		})
	}
	if err := os.WriteFile(logPath, valid, 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := r.ReadReflog("main", 0)
	if err != nil || len(entries) != 1 || entries[0].NewHash != c1 {
		t.Errorf("ReadReflog after repair = %+v, %v", entries, err)
	}
}
