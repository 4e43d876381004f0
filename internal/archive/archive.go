// Package archive versions pipeline run artifacts in a local git
// repository, one commit per phase run.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"

	"github.com/Caia-Tech/caia-tuner/pkg/logging"
)

const (
	authorName  = "caia-tuner"
	authorEmail = "pipeline@caiatech.com"
)

// Archive is a git-backed store of run artifacts
type Archive struct {
	repo   *git.Repository
	path   string
	logger zerolog.Logger
}

// Open opens the archive repository, initializing it on first use.
func Open(path string) (*Archive, error) {
	repo, err := git.PlainOpen(path)
	if err == git.ErrRepositoryNotExists {
		if mkErr := os.MkdirAll(path, 0o755); mkErr != nil {
			return nil, mkErr
		}
		repo, err = git.PlainInit(path, false)
	}
	if err != nil {
		return nil, fmt.Errorf("opening archive repository: %w", err)
	}

	return &Archive{
		repo:   repo,
		path:   path,
		logger: logging.GetLogger("archive"),
	}, nil
}

// CommitArtifacts copies the given files into the archive under the
// phase directory and commits them. Missing source files are skipped
// with a warning; the commit happens only when something changed.
func (a *Archive) CommitArtifacts(phase string, files ...string) (string, error) {
	w, err := a.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	copied := 0
	for _, src := range files {
		if src == "" {
			continue
		}
		if _, err := os.Stat(src); err != nil {
			a.logger.Warn().Str("path", src).Msg("Artifact missing, skipping")
			continue
		}

		rel := filepath.Join(phase, filepath.Base(src))
		dst := filepath.Join(a.path, rel)
		if err := copyFile(src, dst); err != nil {
			return "", fmt.Errorf("copying %s: %w", src, err)
		}
		if _, err := w.Add(rel); err != nil {
			return "", fmt.Errorf("staging %s: %w", rel, err)
		}
		copied++
	}

	if copied == 0 {
		a.logger.Warn().Str("phase", phase).Msg("No artifacts to archive")
		return "", nil
	}

	status, err := w.Status()
	if err != nil {
		return "", err
	}
	if status.IsClean() {
		a.logger.Info().Str("phase", phase).Msg("Artifacts unchanged, nothing to commit")
		return "", nil
	}

	hash, err := w.Commit(fmt.Sprintf("Archive %s artifacts", phase), &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("committing artifacts: %w", err)
	}

	a.logger.Info().
		Str("phase", phase).
		Int("files", copied).
		Str("commit", hash.String()).
		Msg("Archived artifacts")
	return hash.String(), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
