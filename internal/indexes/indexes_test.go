package indexes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docstage/internal/artifact"
	"git.home.luguber.info/inful/docstage/internal/util/sets"
)

func newEmitter(sink artifact.Sink, p Provider, prefix string) *Emitter {
	return NewEmitter(sink, p, "/src/project", prefix, &sets.Guarded[string]{}, nil)
}

func TestEmitAncestors_Disabled(t *testing.T) {
	var sink artifact.MemorySink
	e := newEmitter(&sink, Disabled(), "")

	paths, err := e.EmitAncestors(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Empty(t, paths)
	assert.Empty(t, sink.Artifacts())
}

func TestEmitAncestors_WalksToTop(t *testing.T) {
	var sink artifact.MemorySink
	e := newEmitter(&sink, DefaultTitle(), "")

	paths, err := e.EmitAncestors(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/index.md", "a/index.md", "index.md"}, paths)
	assert.Equal(t, paths, sink.FileNames())

	again, err := e.EmitAncestors(context.Background(), "a/c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/c/index.md"}, again)

	top, ok := sink.Get("index.md")
	require.True(t, ok)
	assert.Equal(t, "# project", top.Content)
	assert.True(t, top.Index)
	leaf, _ := sink.Get("a/b/index.md")
	assert.Equal(t, "# b", leaf.Content)
}

func TestEmitAncestors_SharedAncestorOnce(t *testing.T) {
	orders := [][]string{
		{"dir/x", "dir/y"},
		{"dir/y", "dir/x"},
		{"dir", "dir/x", "dir/y"},
		{"dir/x", "dir", "dir/y"},
	}
	for _, order := range orders {
		t.Run(fmt.Sprint(order), func(t *testing.T) {
			var sink artifact.MemorySink
			e := newEmitter(&sink, DefaultTitle(), "")
			for _, d := range order {
				_, err := e.EmitAncestors(context.Background(), d)
				require.NoError(t, err)
			}
			count := 0
			for _, name := range sink.FileNames() {
				if name == "dir/index.md" {
					count++
				}
			}
			assert.Equal(t, 1, count)
			assert.ElementsMatch(t, sink.FileNames(), e.Emitted())
		})
	}
}

func TestEmitAncestors_StopsAtPrefix(t *testing.T) {
	var sink artifact.MemorySink
	e := newEmitter(&sink, DefaultTitle(), "pre")

	_, err := e.EmitAncestors(context.Background(), "pre/sub/deep")
	require.NoError(t, err)
	_, err = e.EmitAncestors(context.Background(), "pre")
	require.NoError(t, err)

	assert.Equal(t, []string{"pre/sub/deep/index.md", "pre/sub/index.md", "pre/index.md"}, sink.FileNames())
	pre, _ := sink.Get("pre/index.md")
	assert.Equal(t, "# pre", pre.Content)
}

func TestEmitAncestors_NeverAbovePrefix(t *testing.T) {
	var sink artifact.MemorySink
	e := newEmitter(&sink, DefaultTitle(), "docs/api")

	for _, d := range []string{"docs/api/x", "docs", ""} {
		_, err := e.EmitAncestors(context.Background(), d)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"docs/api/x/index.md", "docs/api/index.md"}, sink.FileNames())
}

func TestEmitAncestors_TopTitleUsesPrefix(t *testing.T) {
	e := newEmitter(&artifact.MemorySink{}, DefaultTitle(), "docs")
	assert.Equal(t, "docs", e.Title(""))
	assert.Equal(t, "c", e.Title("a/b/c"))
}

func TestEmitAncestors_CustomContent(t *testing.T) {
	var sink artifact.MemorySink
	var seen []Page
	e := newEmitter(&sink, Func(func(p Page) (string, error) {
		seen = append(seen, p)
		return "dir=" + p.Dir, nil
	}), "")

	_, err := e.EmitAncestors(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []Page{{Dir: "a", Title: "a"}, {Dir: "", Title: "project"}}, seen)
	a, _ := sink.Get("a/index.md")
	assert.Equal(t, "dir=a", a.Content)
	top, _ := sink.Get("index.md")
	assert.Equal(t, "dir=", top.Content)
}

func TestEmitAncestors_Errors(t *testing.T) {
	boom := errors.New("boom")

	e := newEmitter(artifact.SinkFunc(func(context.Context, artifact.Artifact) error { return boom }), DefaultTitle(), "")
	_, err := e.EmitAncestors(context.Background(), "a")
	require.ErrorIs(t, err, boom)

	e = newEmitter(&artifact.MemorySink{}, Func(func(Page) (string, error) { return "", boom }), "")
	_, err = e.EmitAncestors(context.Background(), "a")
	require.ErrorIs(t, err, boom)
}

func TestEmitAncestors_ConcurrentWalks(t *testing.T) {
	var sink artifact.MemorySink
	e := newEmitter(&sink, DefaultTitle(), "")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.EmitAncestors(context.Background(), fmt.Sprintf("shared/leaf%d", i%4))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	names := sink.FileNames()
	assert.Len(t, names, 6)
	assert.ElementsMatch(t, []string{
		"shared/leaf0/index.md", "shared/leaf1/index.md", "shared/leaf2/index.md",
		"shared/leaf3/index.md", "shared/index.md", "index.md",
	}, names)
}

func TestEmitDoc_OwnsIndexPath(t *testing.T) {
	t.Run("doc first", func(t *testing.T) {
		var sink artifact.MemorySink
		e := newEmitter(&sink, DefaultTitle(), "")
		require.NoError(t, e.EmitDoc(context.Background(), artifact.New("guide/index.md", "guide docs")))

		paths, err := e.EmitAncestors(context.Background(), "guide")
		require.NoError(t, err)
		assert.Equal(t, []string{"index.md"}, paths)
		assert.Equal(t, []string{"guide/index.md", "index.md"}, sink.FileNames())
		assert.Equal(t, []string{"index.md"}, e.Emitted())
	})

	t.Run("index first", func(t *testing.T) {
		var sink artifact.MemorySink
		e := newEmitter(&sink, DefaultTitle(), "")
		_, err := e.EmitAncestors(context.Background(), "guide")
		require.NoError(t, err)
		require.NoError(t, e.EmitDoc(context.Background(), artifact.New("guide/index.md", "guide docs")))

		names := sink.FileNames()
		assert.Equal(t, "guide/index.md", names[len(names)-1])
		assert.Equal(t, []string{"index.md"}, e.Emitted())
	})

	t.Run("other docs pass through", func(t *testing.T) {
		var sink artifact.MemorySink
		e := newEmitter(&sink, DefaultTitle(), "")
		require.NoError(t, e.EmitDoc(context.Background(), artifact.New("guide/x.md", "x")))

		paths, err := e.EmitAncestors(context.Background(), "guide")
		require.NoError(t, err)
		assert.Equal(t, []string{"guide/index.md", "index.md"}, paths)
	})
}

func TestFuncNilDisables(t *testing.T) {
	assert.False(t, Func(nil).Enabled())
	assert.False(t, Provider{}.Enabled())
	assert.True(t, DefaultTitle().Enabled())
}
