package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/nvcs/pkg/object"
)

// InitOptions tunes repository creation.
type InitOptions struct {
	// DefaultBranch is the branch HEAD points at initially. Empty means "main".
	DefaultBranch string
}

// Init creates a new repository at path with default options.
func Init(path string) (*Repo, error) {
	return InitWithOptions(path, InitOptions{})
}

// InitWithOptions creates the .nvcs/ directory structure: HEAD, objects/,
// refs/heads/, logs/, an empty index and config.toml. Returns an error
// wrapping ErrAlreadyExists if a .nvcs/ directory already exists.
func InitWithOptions(path string, opts InitOptions) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: abs path: %w", err)
	}
	metaDir := filepath.Join(abs, MetaDirName)

	if _, err := os.Stat(metaDir); err == nil {
		return nil, fmt.Errorf("init: repository at %s: %w", metaDir, ErrAlreadyExists)
	}

	branch := strings.TrimSpace(opts.DefaultBranch)
	if branch == "" {
		branch = defaultBranchName
	}
	if err := validateBranchName(branch); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	dirs := []string{
		filepath.Join(metaDir, "objects"),
		filepath.Join(metaDir, "refs", "heads"),
		filepath.Join(metaDir, "logs", "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	r := newRepo(abs, metaDir)
	if err := r.writeHead("ref: refs/heads/" + branch); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	if err := r.writeIndex(newIndex()); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	cfg := DefaultConfig()
	cfg.Core.DefaultBranch = branch
	if err := r.writeConfig(cfg); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	r.log().Debug("initialized repository", "dir", metaDir, "branch", branch)
	return r, nil
}

// Open opens the repository whose working root is path. Unlike Git, it does
// not search parent directories.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}
	metaDir := filepath.Join(abs, MetaDirName)
	info, err := os.Stat(metaDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("open: not a repository: %s: %w", abs, ErrNotFound)
	}
	return newRepo(abs, metaDir), nil
}

// Head reads .nvcs/HEAD. If the content starts with "ref: ", it returns the
// ref path (e.g., "refs/heads/main"). Otherwise it returns the raw content
// as a detached hash string.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.MetaDir, "HEAD"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("head: %w", ErrNotFound)
		}
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimSpace(string(data))

	if target, ok := strings.CutPrefix(content, "ref: "); ok {
		return target, nil
	}
	return content, nil
}

func (r *Repo) writeHead(content string) error {
	if err := writeFileAtomic(filepath.Join(r.MetaDir, "HEAD"), []byte(content+"\n")); err != nil {
		return fmt.Errorf("write HEAD: %w", err)
	}
	return nil
}

// ResolveRef resolves a ref name to a commit hash.
//
// Resolution order:
//  1. If name is "HEAD", read HEAD. If HEAD is symbolic, resolve the target ref.
//  2. If name starts with "refs/", read .nvcs/<name>.
//  3. Otherwise, try "refs/heads/<name>".
//
// A ref that does not exist (including the branch of an unborn HEAD) yields
// an error wrapping ErrNotFound.
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(head, "refs/") {
			return r.ResolveRef(head)
		}
		h, err := object.ParseHash(head)
		if err != nil {
			return "", fmt.Errorf("resolve ref HEAD: %w: %v", object.ErrIntegrity, err)
		}
		return h, nil
	}

	refName := name
	if !strings.HasPrefix(name, "refs/") {
		refName = "refs/heads/" + name
	}
	if err := validateRefName(refName); err != nil {
		return "", fmt.Errorf("resolve ref %q: %w", name, ErrNotFound)
	}

	h, err := readRefHash(filepath.Join(r.MetaDir, filepath.FromSlash(refName)))
	if err != nil {
		return "", fmt.Errorf("resolve ref %q: %w", name, err)
	}
	if h == "" {
		return "", fmt.Errorf("resolve ref %q: %w", name, ErrNotFound)
	}
	return h, nil
}

// headCommit resolves HEAD to a commit hash. ok is false when HEAD points at
// a branch with no commits yet.
func (r *Repo) headCommit() (h object.Hash, ok bool, err error) {
	h, err = r.ResolveRef("HEAD")
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return h, true, nil
}

func readRefHash(refPath string) (object.Hash, error) {
	data, err := os.ReadFile(refPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	h, err := object.ParseHash(string(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", object.ErrIntegrity, err)
	}
	return h, nil
}
