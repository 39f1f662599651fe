package repo

import (
	"log/slog"
	"sync"

	"github.com/odvcencio/nvcs/pkg/object"
)

// MetaDirName is the name of the per-repository metadata directory.
const MetaDirName = ".nvcs"

// Repo represents an opened repository. Every operation goes through an
// explicit *Repo; nothing is discovered from the process working directory.
type Repo struct {
	RootDir string        // working directory root
	MetaDir string        // .nvcs/ directory
	Store   *object.Store // content-addressed object store
	Logger  *slog.Logger  // nil means slog.Default()

	mergeTraversalStateOnce sync.Once
	mergeTraversalState     *mergeBaseTraversalState
}

func newRepo(root, metaDir string) *Repo {
	return &Repo{
		RootDir: root,
		MetaDir: metaDir,
		Store:   object.NewStore(metaDir),
	}
}

func (r *Repo) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Repo) getMergeTraversalState() *mergeBaseTraversalState {
	r.mergeTraversalStateOnce.Do(func() {
		r.mergeTraversalState = newMergeBaseTraversalState()
	})
	return r.mergeTraversalState
}
