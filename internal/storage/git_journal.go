package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"
)

var journalSignature = object.Signature{Name: "pagesmith", Email: "pagesmith@localhost"}

// GitJournal commits every write into a git repository per project
// directory, under the same root the wrapped sink writes to. Reads go to the
// wrapped sink.
type GitJournal struct {
	Sink
	root   string
	logger zerolog.Logger
	mu     sync.Mutex
}

func NewGitJournal(inner Sink, root string, logger zerolog.Logger) *GitJournal {
	return &GitJournal{Sink: inner, root: root, logger: logger}
}

func (j *GitJournal) WriteFile(ctx context.Context, projectID, name, content string) error {
	if err := j.Sink.WriteFile(ctx, projectID, name, content); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	repo, err := j.openOrInit(projectID)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("journal worktree: %w", err)
	}
	if _, err := wt.Add(name); err != nil {
		return fmt.Errorf("journal add %s: %w", name, err)
	}
	sig := journalSignature
	sig.When = time.Now()
	hash, err := wt.Commit("write "+name, &git.CommitOptions{
		Author:            &sig,
		AllowEmptyCommits: true,
	})
	if err != nil {
		return fmt.Errorf("journal commit %s: %w", name, err)
	}
	j.logger.Debug().Str("project", projectID).Str("file", name).Str("commit", hash.String()[:8]).Msg("journaled write")
	return nil
}

// History lists the commits that touched name, newest first.
func (j *GitJournal) History(ctx context.Context, projectID, name string) ([]Revision, error) {
	if err := ValidateName(projectID, name); err != nil {
		return nil, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	repo, err := git.PlainOpen(filepath.Join(j.root, projectID))
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return []Revision{}, nil
		}
		return nil, fmt.Errorf("journal open: %w", err)
	}
	iter, err := repo.Log(&git.LogOptions{FileName: &name})
	if err != nil {
		return nil, fmt.Errorf("journal log: %w", err)
	}
	defer iter.Close()

	revisions := []Revision{}
	err = iter.ForEach(func(c *object.Commit) error {
		revisions = append(revisions, Revision{
			Hash:    c.Hash.String(),
			Message: c.Message,
			When:    c.Author.When.UTC().Format(time.RFC3339),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("journal log: %w", err)
	}
	return revisions, nil
}

func (j *GitJournal) openOrInit(projectID string) (*git.Repository, error) {
	dir := filepath.Join(j.root, projectID)
	repo, err := git.PlainOpen(dir)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("journal open %s: %w", dir, err)
	}
	repo, err = git.PlainInit(dir, false)
	if err != nil {
		return nil, fmt.Errorf("journal init %s: %w", dir, err)
	}
	return repo, nil
}
