// Package gitsource materializes a git repository in a local workspace so its
// files can be used as build inputs.
package gitsource

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/logfields"
	"git.home.luguber.info/inful/docstage/internal/retry"
)

// Source is one remote repository checked out below Workspace.
type Source struct {
	URL       string
	Branch    string // empty follows the remote HEAD
	Depth     int
	Workspace string
	Token     string
	// Retry governs clone and fetch attempts; the zero value tries once.
	Retry  retry.Policy
	Logger *slog.Logger
}

// Dir is the checkout directory: the workspace joined with the repository name.
func (s *Source) Dir() string {
	return filepath.Join(s.Workspace, RepoName(s.URL))
}

// RepoName derives a directory name from a clone URL.
func RepoName(url string) string {
	name := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "repo"
	}
	return name
}

// Sync clones the repository, or fetches and hard-resets an existing
// checkout, and returns the checkout directory.
func (s *Source) Sync(ctx context.Context) (string, error) {
	dir := s.Dir()
	err := s.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		if _, statErr := os.Stat(filepath.Join(dir, ".git")); statErr != nil {
			err = s.clone(ctx, dir)
		} else {
			err = s.update(ctx, dir)
		}
		if err != nil && permanent(err) {
			return retry.Permanent(err)
		}
		return err
	}, func(attempt int, err error, wait time.Duration) {
		s.logger().Warn("Retrying git sync",
			logfields.URL(s.URL),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			logfields.Error(err))
	})
	return dir, err
}

// permanent reports failures that another attempt cannot fix.
func permanent(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, transport.ErrAuthenticationRequired) ||
		errors.Is(err, transport.ErrAuthorizationFailed) ||
		errors.Is(err, transport.ErrRepositoryNotFound) ||
		errors.Is(err, plumbing.ErrReferenceNotFound) {
		return true
	}
	if derrors.IsCategory(err, derrors.CategoryFileSystem) {
		return true
	}
	l := strings.ToLower(err.Error())
	return strings.Contains(l, "not found") ||
		strings.Contains(l, "unsupported protocol") ||
		strings.Contains(l, "authentication")
}

// Paths joins rel onto the checkout directory; no rel yields the directory.
func (s *Source) Paths(rel []string) []string {
	if len(rel) == 0 {
		return []string{s.Dir()}
	}
	out := make([]string, 0, len(rel))
	for _, r := range rel {
		out = append(out, filepath.Join(s.Dir(), filepath.FromSlash(r)))
	}
	return out
}

func (s *Source) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Source) auth() transport.AuthMethod {
	if s.Token == "" {
		return nil
	}
	return &http.BasicAuth{Username: "token", Password: s.Token}
}

// depth drops shallow fetches for local paths, which the in-process file
// transport does not serve.
func (s *Source) depth() int {
	if s.Depth <= 0 || isLocal(s.URL) {
		return 0
	}
	return s.Depth
}

func isLocal(url string) bool {
	if strings.Contains(url, "://") {
		return strings.HasPrefix(url, "file://")
	}
	_, err := os.Stat(url)
	return err == nil
}

func (s *Source) clone(ctx context.Context, dir string) error {
	if err := os.MkdirAll(s.Workspace, 0o750); err != nil {
		return derrors.WorkspaceError("create", err).WithContext("path", s.Workspace)
	}
	if err := os.RemoveAll(dir); err != nil {
		return derrors.WorkspaceError("remove", err).WithContext("path", dir)
	}
	s.logger().Debug("Cloning repository", logfields.URL(s.URL), slog.String("branch", s.Branch), logfields.Path(dir))

	opts := &git.CloneOptions{URL: s.URL, Depth: s.depth(), Auth: s.auth(), Tags: git.NoTags}
	if s.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(s.Branch)
		opts.SingleBranch = true
	}
	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return derrors.GitCloneError(s.URL, err)
	}
	s.logCommit(repo, "Repository cloned", dir)
	return nil
}

func (s *Source) update(ctx context.Context, dir string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return derrors.Wrap(err, derrors.CategoryGit, derrors.SeverityFatal, "failed to open checkout").
			WithContext("path", dir)
	}
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		RefSpecs:   []ggitcfg.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
		Depth:      s.depth(),
		Auth:       s.auth(),
		Tags:       git.NoTags,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return derrors.Wrap(err, derrors.CategoryGit, derrors.SeverityFatal, "repository fetch failed").
			WithContext("url", s.URL)
	}

	branch := s.Branch
	if branch == "" {
		head, herr := repo.Head()
		if herr != nil {
			return derrors.Wrap(herr, derrors.CategoryGit, derrors.SeverityFatal, "failed to resolve HEAD").
				WithContext("path", dir)
		}
		branch = head.Name().Short()
	}
	remote, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return derrors.Wrap(err, derrors.CategoryGit, derrors.SeverityFatal, "remote branch not found").
			WithContext("url", s.URL).
			WithContext("branch", branch)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return derrors.Wrap(err, derrors.CategoryGit, derrors.SeverityFatal, "failed to open worktree").
			WithContext("path", dir)
	}
	if err := wt.Reset(&git.ResetOptions{Commit: remote.Hash(), Mode: git.HardReset}); err != nil {
		return derrors.Wrap(err, derrors.CategoryGit, derrors.SeverityFatal, "failed to reset worktree").
			WithContext("branch", branch)
	}
	s.logCommit(repo, "Repository updated", dir)
	return nil
}

func (s *Source) logCommit(repo *git.Repository, msg, dir string) {
	attrs := []any{logfields.URL(s.URL), logfields.Path(dir)}
	if ref, err := repo.Head(); err == nil {
		attrs = append(attrs, slog.String("commit", ref.Hash().String()[:8]))
	}
	s.logger().Info(msg, attrs...)
}

// Head returns the checked out commit hash.
func (s *Source) Head() (string, error) {
	repo, err := git.PlainOpen(s.Dir())
	if err != nil {
		return "", derrors.Wrap(err, derrors.CategoryGit, derrors.SeverityError, "failed to open checkout")
	}
	ref, err := repo.Head()
	if err != nil {
		return "", derrors.Wrap(err, derrors.CategoryGit, derrors.SeverityError, "failed to resolve HEAD")
	}
	return ref.Hash().String(), nil
}
