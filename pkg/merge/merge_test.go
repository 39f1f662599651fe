package merge

import (
	"reflect"
	"strings"
	"testing"

	"github.com/odvcencio/nvcs/pkg/object"
)

func file(content string) Entry {
	return Entry{Hash: object.HashObject(object.TypeBlob, []byte(content)), Kind: object.KindFile}
}

func tree(kv ...string) map[string]Entry {
	m := make(map[string]Entry, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = file(kv[i+1])
	}
	return m
}

func TestClassifyTable(t *testing.T) {
	x, y, z := file("x"), file("y"), file("z")
	tests := []struct {
		name               string
		base, ours, theirs *Entry
		want               Disposition
	}{
		{"keep", &x, &x, &x, Unchanged},
		{"ours only", &x, &y, &x, OursOnly},
		{"theirs only", &x, &x, &z, TheirsOnly},
		{"identical change", &x, &y, &y, BothSame},
		{"content conflict", &x, &y, &z, Conflict},
		{"added by ours", nil, &y, nil, AddedOurs},
		{"added by theirs", nil, nil, &z, AddedTheirs},
		{"added identically", nil, &y, &y, AddedBoth},
		{"add/add conflict", nil, &y, &z, Conflict},
		{"ours deleted", &x, nil, &x, DeletedOurs},
		{"theirs deleted", &x, &x, nil, DeletedTheirs},
		{"ours deleted theirs modified", &x, nil, &z, DeleteVsModify},
		{"ours modified theirs deleted", &x, &y, nil, DeleteVsModify},
		{"deleted both", &x, nil, nil, DeletedBoth},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.base, tc.ours, tc.theirs); got != tc.want {
				t.Errorf("Classify = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClassifyKindChangeIsModification(t *testing.T) {
	f := file("x")
	d := Entry{Hash: f.Hash, Kind: object.KindDirectory}
	if got := Classify(&f, &d, &f); got != OursOnly {
		t.Errorf("kind change: Classify = %v, want OursOnly", got)
	}
}

func TestTreesContentConflict(t *testing.T) {
	res := Trees(tree("a", "1"), tree("a", "2"), tree("a", "3"))
	if res.Clean() {
		t.Fatal("expected conflict")
	}
	if got := res.ConflictPaths(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("conflicts = %v, want [a]", got)
	}
	c := res.Conflicts[0]
	if c.Kind != ContentConflict {
		t.Errorf("kind = %v, want content", c.Kind)
	}
	if c.Base == nil || c.Ours == nil || c.Theirs == nil {
		t.Fatalf("conflict sides should all be present: %+v", c)
	}
	if c.Ours.Hash != file("2").Hash || c.Theirs.Hash != file("3").Hash {
		t.Errorf("conflict sides wrong: %+v", c)
	}
	// Provisional resolution is ours.
	if res.Entries["a"] != file("2") {
		t.Errorf("provisional entry = %+v, want ours", res.Entries["a"])
	}
}

func TestTreesOursOnlyChange(t *testing.T) {
	res := Trees(tree("a", "1"), tree("a", "2"), tree("a", "1"))
	if !res.Clean() {
		t.Fatalf("unexpected conflicts: %v", res.ConflictPaths())
	}
	if res.Entries["a"] != file("2") {
		t.Errorf("merged a = %+v, want content 2", res.Entries["a"])
	}
}

func TestTreesDeleteModifyConflict(t *testing.T) {
	res := Trees(tree("a", "1"), tree(), tree("a", "2"))
	if got := res.ConflictPaths(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("conflicts = %v, want [a]", got)
	}
	c := res.Conflicts[0]
	if c.Kind != DeleteModifyConflict {
		t.Errorf("kind = %v, want delete/modify", c.Kind)
	}
	if c.Ours != nil {
		t.Errorf("ours side should be absent: %+v", c.Ours)
	}
	if _, ok := res.Entries["a"]; ok {
		t.Error("deleted-by-ours path should have no provisional entry")
	}

	res = Trees(tree("a", "1"), tree("a", "2"), tree())
	if len(res.Conflicts) != 1 || res.Conflicts[0].Kind != DeleteModifyConflict {
		t.Fatalf("modify/delete conflicts = %+v", res.Conflicts)
	}
	if res.Entries["a"] != file("2") {
		t.Errorf("provisional entry = %+v, want ours", res.Entries["a"])
	}
}

func TestTreesCleanMerge(t *testing.T) {
	base := tree("keep", "k", "ours", "o1", "theirs", "t1", "del-ours", "d", "del-theirs", "d", "del-both", "d")
	ours := tree("keep", "k", "ours", "o2", "theirs", "t1", "del-theirs", "d", "new-ours", "n", "same", "s")
	theirs := tree("keep", "k", "ours", "o1", "theirs", "t2", "del-ours", "d", "new-theirs", "n", "same", "s")

	res := Trees(base, ours, theirs)
	if !res.Clean() {
		t.Fatalf("unexpected conflicts: %v", res.ConflictPaths())
	}
	want := tree("keep", "k", "ours", "o2", "theirs", "t2", "new-ours", "n", "new-theirs", "n", "same", "s")
	if !reflect.DeepEqual(res.Entries, want) {
		t.Errorf("merged entries:\ngot  %v\nwant %v", res.Entries, want)
	}
	if res.Stats.Deleted != 3 {
		t.Errorf("deleted = %d, want 3", res.Stats.Deleted)
	}
	if res.Stats.Added != 3 {
		t.Errorf("added = %d, want 3", res.Stats.Added)
	}
	if res.Stats.TotalPaths != len(res.Outcomes) {
		t.Errorf("total paths %d != outcomes %d", res.Stats.TotalPaths, len(res.Outcomes))
	}
}

func TestTreesConflictsSortedAndInputsUntouched(t *testing.T) {
	base := tree("z", "1", "m", "1", "a", "1")
	ours := tree("z", "2", "m", "2", "a", "2")
	theirs := tree("z", "3", "m", "3", "a", "3")
	baseCopy := tree("z", "1", "m", "1", "a", "1")

	res := Trees(base, ours, theirs)
	if got := strings.Join(res.ConflictPaths(), ","); got != "a,m,z" {
		t.Errorf("conflicts = %s, want a,m,z", got)
	}
	if !reflect.DeepEqual(base, baseCopy) {
		t.Error("Trees modified its base input")
	}
	for i := 1; i < len(res.Outcomes); i++ {
		if res.Outcomes[i-1].Path >= res.Outcomes[i].Path {
			t.Fatalf("outcomes not sorted: %v", res.Outcomes)
		}
	}
}

func TestTreesEmpty(t *testing.T) {
	res := Trees(nil, nil, nil)
	if !res.Clean() || len(res.Entries) != 0 {
		t.Errorf("empty merge = %+v", res)
	}
}

func TestDispositionString(t *testing.T) {
	if DeleteVsModify.String() != "DeleteVsModify" {
		t.Errorf("String = %q", DeleteVsModify.String())
	}
	if Disposition(99).String() != "Disposition(99)" {
		t.Errorf("String = %q", Disposition(99).String())
	}
	if DeleteModifyConflict.String() != "delete/modify" {
		t.Errorf("String = %q", DeleteModifyConflict.String())
	}
}
