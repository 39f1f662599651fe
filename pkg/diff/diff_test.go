package diff

import (
	"strings"
	"testing"

	"github.com/odvcencio/nvcs/pkg/object"
)

func h(c string) object.Hash { return object.Hash(strings.Repeat(c, object.HashLen)) }

func TestTrees_AddRemoveModify(t *testing.T) {
	before := map[string]object.Hash{
		"same.txt":    h("1"),
		"changed.txt": h("2"),
		"gone.txt":    h("3"),
	}
	after := map[string]object.Hash{
		"same.txt":    h("1"),
		"changed.txt": h("4"),
		"new.txt":     h("5"),
	}

	changes := Trees(before, after)
	if len(changes) != 3 {
		t.Fatalf("expected 3 changes, got %d: %+v", len(changes), changes)
	}

	want := []FileChange{
		{Type: Modified, Path: "changed.txt", Before: h("2"), After: h("4")},
		{Type: Removed, Path: "gone.txt", Before: h("3")},
		{Type: Added, Path: "new.txt", After: h("5")},
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d = %+v, want %+v", i, changes[i], want[i])
		}
	}

	added, removed, modified := Counts(changes)
	if added != 1 || removed != 1 || modified != 1 {
		t.Errorf("Counts = %d/%d/%d, want 1/1/1", added, removed, modified)
	}
}

func TestTrees_NoChanges(t *testing.T) {
	m := map[string]object.Hash{"a": h("1")}
	if changes := Trees(m, m); len(changes) != 0 {
		t.Errorf("identical trees produced %+v", changes)
	}
	if changes := Trees(nil, nil); len(changes) != 0 {
		t.Errorf("nil trees produced %+v", changes)
	}
}

func TestFormatSummary(t *testing.T) {
	changes := []FileChange{
		{Type: Added, Path: "a.txt"},
		{Type: Modified, Path: "b.txt"},
		{Type: Removed, Path: "c.txt"},
	}
	got := FormatSummary(changes)
	want := "A\ta.txt\nM\tb.txt\nD\tc.txt\n"
	if got != want {
		t.Errorf("FormatSummary =\n%q\nwant\n%q", got, want)
	}
	if FormatSummary(nil) != "" {
		t.Error("empty change list should format as empty string")
	}
	if stat := FormatStat(changes); stat != "3 files changed: 1 added, 1 modified, 1 removed" {
		t.Errorf("FormatStat = %q", stat)
	}
}

func TestUnified_Modified(t *testing.T) {
	before := []byte("one\ntwo\nthree\n")
	after := []byte("one\n2\nthree\n")

	out, err := Unified("f.txt", before, after)
	if err != nil {
		t.Fatalf("Unified: %v", err)
	}
	for _, want := range []string{"--- a/f.txt\n", "+++ b/f.txt\n", "@@ -1,3 +1,3 @@\n", "-two\n", "+2\n", " one\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestUnified_AddedAndRemoved(t *testing.T) {
	out, err := Unified("new.txt", nil, []byte("x\ny"))
	if err != nil {
		t.Fatalf("Unified: %v", err)
	}
	if !strings.Contains(out, "--- /dev/null\n") || !strings.Contains(out, "+++ b/new.txt\n") {
		t.Errorf("added header wrong:\n%s", out)
	}
	if !strings.Contains(out, "+x\n+y\n") {
		t.Errorf("added body wrong:\n%s", out)
	}

	out, err = Unified("old.txt", []byte("gone\n"), nil)
	if err != nil {
		t.Fatalf("Unified: %v", err)
	}
	if !strings.Contains(out, "+++ /dev/null\n") || !strings.Contains(out, "-gone\n") {
		t.Errorf("removed output wrong:\n%s", out)
	}
}

func TestUnified_IdenticalAndBinary(t *testing.T) {
	out, err := Unified("same.txt", []byte("a\n"), []byte("a\n"))
	if err != nil || out != "" {
		t.Errorf("identical input: %q, %v", out, err)
	}

	out, err = Unified("img.bin", []byte{0, 1}, []byte{0, 2})
	if err != nil {
		t.Fatalf("Unified: %v", err)
	}
	if out != "Binary files a/img.bin and b/img.bin differ\n" {
		t.Errorf("binary output = %q", out)
	}
}
