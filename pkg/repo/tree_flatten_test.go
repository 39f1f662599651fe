package repo

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/odvcencio/nvcs/pkg/object"
)

func TestFlattenTree_NestedDirectories(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	leafTree, err := r.Store.WriteTree(&object.TreeObj{
		Entries: []object.TreeEntry{
			{Name: "leaf.txt", Kind: object.KindFile, Hash: testTreeHash(1)},
		},
	})
	if err != nil {
		t.Fatalf("write leaf tree: %v", err)
	}
	midTree, err := r.Store.WriteTree(&object.TreeObj{
		Entries: []object.TreeEntry{
			{Name: "deep", Kind: object.KindDirectory, Hash: leafTree},
			{Name: "mid.txt", Kind: object.KindFile, Hash: testTreeHash(2)},
		},
	})
	if err != nil {
		t.Fatalf("write mid tree: %v", err)
	}
	rootTree, err := r.Store.WriteTree(&object.TreeObj{
		Entries: []object.TreeEntry{
			{Name: "z.txt", Kind: object.KindFile, Hash: testTreeHash(3)},
			{Name: "pkg", Kind: object.KindDirectory, Hash: midTree},
			{Name: "flat/path.txt", Kind: object.KindFile, Hash: testTreeHash(4)},
		},
	})
	if err != nil {
		t.Fatalf("write root tree: %v", err)
	}

	got, err := r.FlattenTree(rootTree)
	if err != nil {
		t.Fatalf("FlattenTree: %v", err)
	}
	want := []TreeFileEntry{
		{Path: "flat/path.txt", BlobHash: testTreeHash(4)},
		{Path: "pkg/deep/leaf.txt", BlobHash: testTreeHash(1)},
		{Path: "pkg/mid.txt", BlobHash: testTreeHash(2)},
		{Path: "z.txt", BlobHash: testTreeHash(3)},
	}
	if len(got) != len(want) {
		t.Fatalf("FlattenTree returned %d entries, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFlattenTree_DuplicatePathIsIntegrityError(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	sub, err := r.Store.WriteTree(&object.TreeObj{
		Entries: []object.TreeEntry{{Name: "x.txt", Kind: object.KindFile, Hash: testTreeHash(5)}},
	})
	if err != nil {
		t.Fatal(err)
	}
	// "d" as a directory and "d/x.txt" as a flat entry name the same file.
	root, err := r.Store.WriteTree(&object.TreeObj{
		Entries: []object.TreeEntry{
			{Name: "d", Kind: object.KindDirectory, Hash: sub},
			{Name: "d/x.txt", Kind: object.KindFile, Hash: testTreeHash(6)},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.treeFileMap(root); !errors.Is(err, object.ErrIntegrity) {
		t.Fatalf("treeFileMap: err = %v, want ErrIntegrity", err)
	}
}

func TestFlattenTree_MissingSubtree(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	root, err := r.Store.WriteTree(&object.TreeObj{
		Entries: []object.TreeEntry{{Name: "gone", Kind: object.KindDirectory, Hash: testTreeHash(7)}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.FlattenTree(root); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FlattenTree: err = %v, want ErrNotFound", err)
	}
}

func TestBuildTree_FlatAndOrderIndependent(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	a := stageFile(t, r, "a.txt", "A")
	b := stageFile(t, r, "dir/b.txt", "B")

	h1, err := r.BuildTree([]IndexEntry{{Path: "a.txt", BlobHash: a}, {Path: "dir/b.txt", BlobHash: b}})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	h2, err := r.BuildTree([]IndexEntry{{Path: "dir/b.txt", BlobHash: b}, {Path: "a.txt", BlobHash: a}})
	if err != nil {
		t.Fatalf("BuildTree reversed: %v", err)
	}
	if h1 != h2 {
		t.Errorf("tree hash depends on entry order: %s vs %s", h1, h2)
	}

	tree, err := r.Store.ReadTree(h1)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	if e, ok := tree.Lookup("dir/b.txt"); !ok || e.IsDir() {
		t.Errorf("flat tree should hold dir/b.txt as a file entry: %+v", tree.Entries)
	}

	missing := object.Hash(strings.Repeat("f", object.HashLen))
	if _, err := r.BuildTree([]IndexEntry{{Path: "x", BlobHash: missing}}); !errors.Is(err, ErrNotFound) {
		t.Errorf("BuildTree(missing blob): err = %v, want ErrNotFound", err)
	}
}

func testTreeHash(seed int) object.Hash {
	return object.Hash(fmt.Sprintf("%064x", seed))
}
