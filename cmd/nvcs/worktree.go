package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/odvcencio/nvcs/pkg/object"
	"github.com/odvcencio/nvcs/pkg/repo"
)

// worktreePath maps a command-line path to a file under the repository
// root. Relative paths are taken relative to the root, not the process
// working directory.
func worktreePath(r *repo.Repo, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.RootDir, p)
}

// collectFiles expands args into the regular files they name. Directories
// are walked recursively; the metadata directory is skipped.
func collectFiles(r *repo.Repo, args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		abs := worktreePath(r, arg)
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, abs)
			continue
		}
		err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if d.Name() == repo.MetaDirName {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	return files, nil
}

// materialize writes each file's blob into the working tree.
func materialize(r *repo.Repo, files []repo.TreeFileEntry) error {
	for _, f := range files {
		b, err := r.Store.ReadBlob(f.BlobHash)
		if err != nil {
			return fmt.Errorf("materialize %s: %w", f.Path, err)
		}
		dst := filepath.Join(r.RootDir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("materialize %s: %w", f.Path, err)
		}
		if err := os.WriteFile(dst, b.Data, 0o644); err != nil {
			return fmt.Errorf("materialize %s: %w", f.Path, err)
		}
	}
	return nil
}

// readBlobOrNil returns nil for an empty hash, as for the missing side of an
// added or removed file.
func readBlobOrNil(r *repo.Repo, h object.Hash) ([]byte, error) {
	if h == "" {
		return nil, nil
	}
	b, err := r.Store.ReadBlob(h)
	if err != nil {
		return nil, err
	}
	return b.Data, nil
}
