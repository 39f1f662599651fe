package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Marshal serializes any object to its canonical content bytes (without the
// envelope header).
func Marshal(obj Object) ([]byte, error) {
	switch o := obj.(type) {
	case *Blob:
		return MarshalBlob(o), nil
	case *TreeObj:
		return MarshalTree(o)
	case *CommitObj:
		return MarshalCommit(o)
	case nil:
		return nil, fmt.Errorf("marshal: nil object")
	default:
		return nil, fmt.Errorf("marshal: unsupported object %T", obj)
	}
}

// Unmarshal decodes canonical content bytes of the given type.
func Unmarshal(objType ObjectType, data []byte) (Object, error) {
	switch objType {
	case TypeBlob:
		return UnmarshalBlob(data)
	case TypeTree:
		return UnmarshalTree(data)
	case TypeCommit:
		return UnmarshalCommit(data)
	default:
		return nil, fmt.Errorf("unmarshal: unsupported object type %q", objType)
	}
}

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj. Entries are sorted by Name for
// deterministic output. Each entry is one line:
//
//	mode hash name
//
// where mode is 100644 for files and 40000 for directories. The name comes
// last so it may contain spaces.
func MarshalTree(tr *TreeObj) ([]byte, error) {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for i, e := range sorted {
		if err := validateEntryName(e.Name); err != nil {
			return nil, fmt.Errorf("marshal tree: %w", err)
		}
		if i > 0 && sorted[i-1].Name == e.Name {
			return nil, fmt.Errorf("marshal tree: duplicate entry %q", e.Name)
		}
		if !IsValidHash(string(e.Hash)) {
			return nil, fmt.Errorf("marshal tree: entry %q: invalid hash %q", e.Name, e.Hash)
		}
		mode, err := modeForKind(e.Kind)
		if err != nil {
			return nil, fmt.Errorf("marshal tree: entry %q: %w", e.Name, err)
		}
		fmt.Fprintf(&buf, "%s %s %s\n", mode, e.Hash, e.Name)
	}
	return buf.Bytes(), nil
}

// UnmarshalTree parses a TreeObj from its serialized form. Entries must be
// strictly sorted so that re-marshaling reproduces the input exactly.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	if len(data) == 0 {
		return tr, nil
	}
	if data[len(data)-1] != '\n' {
		return nil, fmt.Errorf("unmarshal tree: missing trailing newline")
	}
	text := string(data[:len(data)-1])
	for _, line := range strings.Split(text, "\n") {
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("unmarshal tree: malformed entry %q", line)
		}
		kind, err := kindForMode(parts[0])
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: %w", err)
		}
		if !IsValidHash(parts[1]) {
			return nil, fmt.Errorf("unmarshal tree: invalid hash %q", parts[1])
		}
		name := parts[2]
		if err := validateEntryName(name); err != nil {
			return nil, fmt.Errorf("unmarshal tree: %w", err)
		}
		if n := len(tr.Entries); n > 0 && tr.Entries[n-1].Name >= name {
			return nil, fmt.Errorf("unmarshal tree: entry %q out of order or duplicated", name)
		}
		tr.Entries = append(tr.Entries, TreeEntry{
			Name: name,
			Kind: kind,
			Hash: Hash(parts[1]),
		})
	}
	return tr, nil
}

func validateEntryName(name string) error {
	if name == "" {
		return fmt.Errorf("empty entry name")
	}
	if strings.ContainsAny(name, "\x00\n") {
		return fmt.Errorf("entry name %q contains NUL or newline", name)
	}
	return nil
}

func modeForKind(k EntryKind) (string, error) {
	switch k {
	case KindFile:
		return TreeModeFile, nil
	case KindDirectory:
		return TreeModeDir, nil
	default:
		return "", fmt.Errorf("unknown entry kind %d", k)
	}
}

func kindForMode(mode string) (EntryKind, error) {
	switch mode {
	case TreeModeFile:
		return KindFile, nil
	case TreeModeDir:
		return KindDirectory, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", mode)
	}
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj:
//
//	tree H
//	parent H     (zero or more, in order)
//	author A
//	timestamp T
//
//	message
func MarshalCommit(c *CommitObj) ([]byte, error) {
	if !IsValidHash(string(c.TreeHash)) {
		return nil, fmt.Errorf("marshal commit: invalid tree hash %q", c.TreeHash)
	}
	if strings.ContainsAny(c.Author, "\x00\n") {
		return nil, fmt.Errorf("marshal commit: author contains NUL or newline")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.TreeHash)
	for _, p := range c.Parents {
		if !IsValidHash(string(p)) {
			return nil, fmt.Errorf("marshal commit: invalid parent hash %q", p)
		}
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "timestamp %d\n", c.Timestamp)
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes(), nil
}

// UnmarshalCommit parses a CommitObj from its serialized form. Header lines
// must appear in canonical order.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: missing header/message separator")
	}
	lines := strings.Split(string(data[:idx]), "\n")
	c := &CommitObj{Message: string(data[idx+2:])}

	next := func(want string) (string, error) {
		if len(lines) == 0 {
			return "", fmt.Errorf("unmarshal commit: missing %q header", want)
		}
		key, val, ok := strings.Cut(lines[0], " ")
		if !ok || key != want {
			return "", fmt.Errorf("unmarshal commit: expected %q header, got %q", want, lines[0])
		}
		lines = lines[1:]
		return val, nil
	}

	tree, err := next("tree")
	if err != nil {
		return nil, err
	}
	if !IsValidHash(tree) {
		return nil, fmt.Errorf("unmarshal commit: invalid tree hash %q", tree)
	}
	c.TreeHash = Hash(tree)

	for len(lines) > 0 && strings.HasPrefix(lines[0], "parent ") {
		p, _ := next("parent")
		if !IsValidHash(p) {
			return nil, fmt.Errorf("unmarshal commit: invalid parent hash %q", p)
		}
		c.Parents = append(c.Parents, Hash(p))
	}

	if c.Author, err = next("author"); err != nil {
		return nil, err
	}
	ts, err := next("timestamp")
	if err != nil {
		return nil, err
	}
	c.Timestamp, err = strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("unmarshal commit: bad timestamp %q: %w", ts, err)
	}
	if strconv.FormatInt(c.Timestamp, 10) != ts {
		return nil, fmt.Errorf("unmarshal commit: non-canonical timestamp %q", ts)
	}
	if len(lines) > 0 {
		return nil, fmt.Errorf("unmarshal commit: unexpected header line %q", lines[0])
	}
	return c, nil
}
