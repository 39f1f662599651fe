package object

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestHashBytesDeterminism(t *testing.T) {
	data := []byte("hello world")
	h1 := HashBytes(data)
	h2 := HashBytes(data)
	if h1 != h2 {
		t.Errorf("HashBytes not deterministic: %q != %q", h1, h2)
	}
	if len(h1) != HashLen {
		t.Errorf("Hash length: got %d, want %d", len(h1), HashLen)
	}
}

func TestHashObjectEnvelope(t *testing.T) {
	data := []byte("hello")
	h1 := HashObject(TypeBlob, data)
	if h1 == HashBytes(data) {
		t.Error("HashObject should differ from HashBytes due to envelope")
	}
	if h1 != HashObject(TypeBlob, data) {
		t.Error("HashObject not deterministic")
	}
	if h1 == HashObject(TypeCommit, data) {
		t.Error("Different types should produce different hashes")
	}
}

func TestParseHash(t *testing.T) {
	good := HashBytes([]byte("x"))
	if h, err := ParseHash(" " + string(good) + "\n"); err != nil || h != good {
		t.Errorf("ParseHash(good) = %q, %v", h, err)
	}
	for _, bad := range []string{"", "abc", string(good[:63]) + "G", string(bytes.ToUpper([]byte(good)))} {
		if _, err := ParseHash(bad); err == nil {
			t.Errorf("ParseHash(%q) should fail", bad)
		}
	}
}

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return NewStore(dir)
}

func countObjectFiles(t *testing.T, s *Store) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(filepath.Join(s.root, "objects"), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk objects: %v", err)
	}
	return n
}

func TestStoreWriteRead(t *testing.T) {
	s := tempStore(t)
	data := []byte("hello world")
	h, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	gotType, gotData, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if gotType != TypeBlob {
		t.Errorf("Type: got %q, want %q", gotType, TypeBlob)
	}
	if !bytes.Equal(gotData, data) {
		t.Errorf("Data: got %q, want %q", gotData, data)
	}
}

func TestStorePutIdempotent(t *testing.T) {
	s := tempStore(t)
	h1, err := s.Put(&Blob{Data: []byte("duplicate")})
	if err != nil {
		t.Fatalf("Put 1: %v", err)
	}
	h2, err := s.Put(&Blob{Data: []byte("duplicate")})
	if err != nil {
		t.Fatalf("Put 2: %v", err)
	}
	if h1 != h2 {
		t.Errorf("Same content produced different hashes: %q vs %q", h1, h2)
	}
	if n := countObjectFiles(t, s); n != 1 {
		t.Errorf("object files on disk = %d, want 1", n)
	}
}

func TestStoreFanoutLayout(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(TypeBlob, []byte("fanout test"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	objPath := filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
	if _, err := os.Stat(objPath); err != nil {
		t.Errorf("Expected fan-out file at %s: %v", objPath, err)
	}
}

func TestStoreHas(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(TypeBlob, []byte("exists"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !s.Has(h) {
		t.Error("Has returned false for existing object")
	}
	if s.Has(Hash("0000000000000000000000000000000000000000000000000000000000000000")) {
		t.Error("Has returned true for non-existing object")
	}
	if s.Has(Hash("ab")) {
		t.Error("Has returned true for malformed hash")
	}
}

func TestStoreGetMissing(t *testing.T) {
	s := tempStore(t)
	_, err := s.Get(Hash("0000000000000000000000000000000000000000000000000000000000000000"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: err = %v, want ErrNotFound", err)
	}
	_, err = s.Get(Hash("x"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get malformed: err = %v, want ErrNotFound", err)
	}
}

func TestStoreGetCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(raw []byte) []byte
	}{
		{"truncated", func(raw []byte) []byte { return raw[:len(raw)-1] }},
		{"no nul", func(raw []byte) []byte { return bytes.ReplaceAll(raw, []byte{0}, []byte(" ")) }},
		{"flipped byte", func(raw []byte) []byte {
			out := append([]byte(nil), raw...)
			out[len(out)-1] ^= 0x01
			return out
		}},
		{"unknown type", func(raw []byte) []byte { return append([]byte("tag"), raw[len("commit"):]...) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := tempStore(t)
			h, err := s.WriteCommit(&CommitObj{TreeHash: hashA, Author: "a", Timestamp: 1, Message: "m"})
			if err != nil {
				t.Fatalf("WriteCommit: %v", err)
			}
			path := s.objectPath(h)
			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if err := os.WriteFile(path, tc.corrupt(raw), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			_, err = s.Get(h)
			if !errors.Is(err, ErrIntegrity) {
				t.Fatalf("Get corrupt: err = %v, want ErrIntegrity", err)
			}
			var coe *CorruptObjectError
			if !errors.As(err, &coe) || coe.Hash != h {
				t.Fatalf("error %v should be a CorruptObjectError for %s", err, h)
			}
		})
	}
}

func TestStoreGetUndecodableContent(t *testing.T) {
	s := tempStore(t)
	// Valid envelope, but the content is not a canonical tree.
	h, err := s.Write(TypeTree, []byte("garbage line\n"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := s.Get(h); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("Get: err = %v, want ErrIntegrity", err)
	}
}

func TestStoreTypedReadMismatch(t *testing.T) {
	s := tempStore(t)
	h, err := s.WriteBlob(&Blob{Data: []byte("not a commit")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if _, err := s.ReadCommit(h); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("ReadCommit(blob): err = %v, want ErrIntegrity", err)
	}
}

func TestStoreWriteReadTreeAndCommit(t *testing.T) {
	s := tempStore(t)
	blobHash, err := s.WriteBlob(&Blob{Data: []byte("content")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	treeHash, err := s.WriteTree(&TreeObj{Entries: []TreeEntry{{Name: "a.txt", Hash: blobHash}}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	commitHash, err := s.WriteCommit(&CommitObj{TreeHash: treeHash, Author: "tester", Timestamp: 42, Message: "msg"})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}

	c, err := s.ReadCommit(commitHash)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if c.TreeHash != treeHash || c.Author != "tester" || c.Timestamp != 42 || c.Message != "msg" {
		t.Errorf("commit mismatch: %+v", c)
	}
	tr, err := s.ReadTree(c.TreeHash)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	e, ok := tr.Lookup("a.txt")
	if !ok || e.Hash != blobHash || e.Kind != KindFile {
		t.Errorf("Lookup(a.txt) = %+v, %v", e, ok)
	}
}

func TestCheckConnectivityReportsMissing(t *testing.T) {
	s := tempStore(t)
	blobHash, _ := s.WriteBlob(&Blob{Data: []byte("x")})
	treeHash, err := s.WriteTree(&TreeObj{Entries: []TreeEntry{
		{Name: "present", Hash: blobHash},
		{Name: "absent", Hash: hashC},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	commitHash, err := s.WriteCommit(&CommitObj{TreeHash: treeHash, Parents: []Hash{hashB}, Author: "a", Timestamp: 1})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}

	report, err := s.CheckConnectivity([]Hash{commitHash})
	if err != nil {
		t.Fatalf("CheckConnectivity: %v", err)
	}
	if len(report.Reachable) != 3 {
		t.Errorf("reachable = %d, want 3", len(report.Reachable))
	}
	if report.Commits != 1 {
		t.Errorf("commits = %d, want 1", report.Commits)
	}
	if len(report.Missing) != 2 {
		t.Fatalf("missing = %+v, want 2 entries", report.Missing)
	}
	if report.Missing[0].Hash != hashB || report.Missing[0].From != commitHash {
		t.Errorf("missing[0] = %+v", report.Missing[0])
	}
	if report.Missing[1].Hash != hashC || report.Missing[1].From != treeHash {
		t.Errorf("missing[1] = %+v", report.Missing[1])
	}
}

func TestStoreFindByPrefix(t *testing.T) {
	s := tempStore(t)
	h, err := s.WriteBlob(&Blob{Data: []byte("prefix")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	got, err := s.FindByPrefix(string(h[:6]))
	if err != nil {
		t.Fatalf("FindByPrefix: %v", err)
	}
	if len(got) != 1 || got[0] != h {
		t.Errorf("FindByPrefix = %v, want [%s]", got, h)
	}
	other := "0"
	if h[2] == '0' {
		other = "1"
	}
	got, err = s.FindByPrefix(string(h[:2]) + other)
	if err != nil {
		t.Fatalf("FindByPrefix: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("FindByPrefix(non-matching) = %v, want none", got)
	}
	if _, err := s.FindByPrefix("x"); err == nil {
		t.Error("FindByPrefix should reject short prefix")
	}
}
