package gitsource

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/retry"
)

type seedRepo struct {
	t    *testing.T
	dir  string
	repo *git.Repository
}

func newSeed(t *testing.T) *seedRepo {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "seed")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &seedRepo{t: t, dir: dir, repo: repo}
}

func (s *seedRepo) commit(rel, content string) string {
	s.t.Helper()
	path := filepath.Join(s.dir, filepath.FromSlash(rel))
	require.NoError(s.t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(s.t, os.WriteFile(path, []byte(content), 0o600))
	wt, err := s.repo.Worktree()
	require.NoError(s.t, err)
	_, err = wt.Add(rel)
	require.NoError(s.t, err)
	hash, err := wt.Commit("update "+rel, &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(s.t, err)
	return hash.String()
}

func (s *seedRepo) branch() string {
	s.t.Helper()
	head, err := s.repo.Head()
	require.NoError(s.t, err)
	return head.Name().Short()
}

func TestSync_CloneThenUpdate(t *testing.T) {
	seed := newSeed(t)
	first := seed.commit("pkg/doc.go", "// Package pkg.\npackage pkg\n")

	src := &Source{URL: seed.dir, Depth: 1, Workspace: filepath.Join(t.TempDir(), "ws")}
	dir, err := src.Sync(t.Context())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(src.Workspace, "seed"), dir)
	assert.FileExists(t, filepath.Join(dir, "pkg", "doc.go"))
	head, err := src.Head()
	require.NoError(t, err)
	assert.Equal(t, first, head)

	second := seed.commit("pkg/more.go", "package pkg\n")
	_, err = src.Sync(t.Context())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "pkg", "more.go"))
	head, err = src.Head()
	require.NoError(t, err)
	assert.Equal(t, second, head)
}

func TestSync_ExplicitBranch(t *testing.T) {
	seed := newSeed(t)
	seed.commit("README.md", "# seed\n")

	src := &Source{URL: seed.dir, Branch: seed.branch(), Workspace: t.TempDir()}
	_, err := src.Sync(t.Context())
	require.NoError(t, err)
	_, err = src.Sync(t.Context())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(src.Dir(), "README.md"))
}

func TestSync_MissingRemote(t *testing.T) {
	src := &Source{URL: filepath.Join(t.TempDir(), "nowhere"), Workspace: t.TempDir()}
	_, err := src.Sync(t.Context())
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryGit))
}

func TestSync_UnknownBranch(t *testing.T) {
	seed := newSeed(t)
	seed.commit("a.go", "package a\n")

	src := &Source{URL: seed.dir, Branch: "does-not-exist", Workspace: t.TempDir()}
	_, err := src.Sync(t.Context())
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryGit))
}

func TestRepoName(t *testing.T) {
	tests := map[string]string{
		"https://github.com/org/widgets.git": "widgets",
		"https://github.com/org/widgets/":    "widgets",
		"git@github.com:org/widgets.git":     "widgets",
		"git@host:widgets":                   "widgets",
		"/srv/git/seed":                      "seed",
		"":                                   "repo",
	}
	for in, want := range tests {
		assert.Equal(t, want, RepoName(in), in)
	}
}

func TestPaths(t *testing.T) {
	src := &Source{URL: "https://example.com/org/lib.git", Workspace: "/ws"}
	assert.Equal(t, []string{filepath.FromSlash("/ws/lib")}, src.Paths(nil))
	assert.Equal(t,
		[]string{filepath.FromSlash("/ws/lib/cmd"), filepath.FromSlash("/ws/lib/internal/api")},
		src.Paths([]string{"cmd", "internal/api"}))
}

func TestAuthAndDepth(t *testing.T) {
	assert.Nil(t, (&Source{}).auth())
	assert.NotNil(t, (&Source{Token: "secret"}).auth())

	assert.Equal(t, 3, (&Source{URL: "https://example.com/r.git", Depth: 3}).depth())
	assert.Equal(t, 0, (&Source{URL: t.TempDir(), Depth: 3}).depth())
	assert.Equal(t, 0, (&Source{URL: "file:///srv/r", Depth: 3}).depth())
}

func TestSync_PermanentFailuresAreNotRetried(t *testing.T) {
	retries := 0
	src := &Source{
		URL:       filepath.Join(t.TempDir(), "nowhere"),
		Workspace: t.TempDir(),
		Retry:     retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 3),
		Logger:    slog.New(slog.NewTextHandler(&countingWriter{n: &retries}, nil)),
	}
	_, err := src.Sync(t.Context())
	require.Error(t, err)
	assert.Zero(t, retries)
}

type countingWriter struct{ n *int }

func (w *countingWriter) Write(p []byte) (int, error) {
	if strings.Contains(string(p), "Retrying git sync") {
		*w.n++
	}
	return len(p), nil
}

func TestPermanent(t *testing.T) {
	assert.True(t, permanent(context.Canceled))
	assert.True(t, permanent(transport.ErrRepositoryNotFound))
	assert.True(t, permanent(errors.New("remote: Repository not found.")))
	assert.False(t, permanent(errors.New("dial tcp: i/o timeout")))
}
