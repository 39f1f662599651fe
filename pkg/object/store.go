package object

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if !IsValidHash(string(h)) {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Put canonically serializes obj and stores it, returning its hash.
// Storing an object that already exists is a no-op.
func (s *Store) Put(obj Object) (Hash, error) {
	data, err := Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("object put: %w", err)
	}
	return s.Write(obj.Type(), data)
}

// Get reads and decodes the object with the given hash.
func (s *Store) Get(h Hash) (Object, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	obj, err := Unmarshal(objType, data)
	if err != nil {
		return nil, corrupt(h, "decode", err)
	}
	return obj, nil
}

// Write stores an object and returns its content hash. The on-disk format
// is "type len\0content". Writes are atomic: data is written to a temp
// file and then renamed into place.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	raw := append(envelopeHeader(objType, data), data...)

	h := HashObject(objType, data)

	// Fast path: already exists.
	if s.Has(h) {
		return h, nil
	}

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	// Atomic write via temp + rename.
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}

	dest := s.objectPath(h)
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w", err)
	}

	return h, nil
}

// Read retrieves an object by hash, returning its type and raw content.
// The envelope is re-hashed, so a file whose bytes do not match its name is
// reported as corrupt.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	if !IsValidHash(string(h)) {
		return "", nil, fmt.Errorf("object read %q: malformed hash: %w", h, ErrNotFound)
	}
	raw, err := os.ReadFile(s.objectPath(h))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("object read %s: %w", h, ErrNotFound)
		}
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}

	// Parse envelope: "type len\0content"
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, corrupt(h, "invalid format (no NUL)", nil)
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", nil, corrupt(h, fmt.Sprintf("invalid header %q", header), nil)
	}
	objType := ObjectType(parts[0])
	switch objType {
	case TypeBlob, TypeTree, TypeCommit:
	default:
		return "", nil, corrupt(h, fmt.Sprintf("unknown type %q", parts[0]), nil)
	}
	length, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", nil, corrupt(h, fmt.Sprintf("invalid length %q", parts[1]), err)
	}
	if len(content) != length {
		return "", nil, corrupt(h, fmt.Sprintf("length mismatch (header=%d, actual=%d)", length, len(content)), nil)
	}
	if got := HashObject(objType, content); got != h {
		return "", nil, corrupt(h, fmt.Sprintf("content hashes to %s", got), nil)
	}

	return objType, content, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Put(b)
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	obj, err := s.Get(h)
	if err != nil {
		return nil, err
	}
	b, ok := obj.(*Blob)
	if !ok {
		return nil, typeMismatch(h, obj, TypeBlob)
	}
	return b, nil
}

// WriteTree serializes and stores a TreeObj.
func (s *Store) WriteTree(tr *TreeObj) (Hash, error) {
	return s.Put(tr)
}

// ReadTree reads and deserializes a TreeObj.
func (s *Store) ReadTree(h Hash) (*TreeObj, error) {
	obj, err := s.Get(h)
	if err != nil {
		return nil, err
	}
	tr, ok := obj.(*TreeObj)
	if !ok {
		return nil, typeMismatch(h, obj, TypeTree)
	}
	return tr, nil
}

// WriteCommit serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	return s.Put(c)
}

// ReadCommit reads and deserializes a CommitObj.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	obj, err := s.Get(h)
	if err != nil {
		return nil, err
	}
	c, ok := obj.(*CommitObj)
	if !ok {
		return nil, typeMismatch(h, obj, TypeCommit)
	}
	return c, nil
}

func typeMismatch(h Hash, obj Object, want ObjectType) error {
	return corrupt(h, fmt.Sprintf("type mismatch: got %q, want %q", obj.Type(), want), nil)
}

// FindByPrefix returns the stored objects whose hash starts with prefix,
// sorted. prefix must be at least two lowercase hex characters.
func (s *Store) FindByPrefix(prefix string) ([]Hash, error) {
	prefix = strings.TrimSpace(prefix)
	if len(prefix) < 2 || len(prefix) > HashLen || strings.Trim(prefix, "0123456789abcdef") != "" {
		return nil, fmt.Errorf("find by prefix %q: invalid prefix", prefix)
	}
	entries, err := os.ReadDir(filepath.Join(s.root, "objects", prefix[:2]))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("find by prefix %q: %w", prefix, err)
	}
	var out []Hash
	for _, e := range entries {
		h := Hash(prefix[:2] + e.Name())
		if e.IsDir() || !IsValidHash(string(h)) || !strings.HasPrefix(string(h), prefix) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}
