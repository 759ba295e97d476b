package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{"plain", "a.md", false},
		{"nested", "sub/a.md", false},
		{"empty", "", true},
		{"absolute", "/etc/a.md", true},
		{"escape", "../a.md", true},
		{"escape after clean", "sub/../../a.md", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := New(c.file, "x").Validate()
			if c.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestMemorySink(t *testing.T) {
	var m MemorySink
	ctx := context.Background()
	require.NoError(t, m.Emit(ctx, New("a.md", "A")))
	require.NoError(t, m.Emit(ctx, NewIndex("index.md", "# root")))

	assert.Equal(t, []string{"a.md", "index.md"}, m.FileNames())
	idx, ok := m.Get("index.md")
	require.True(t, ok)
	assert.True(t, idx.Index)
	assert.Equal(t, KindAsset, idx.Kind)
	_, ok = m.Get("missing.md")
	assert.False(t, ok)
}

func TestMultiSink_StopsAtFirstError(t *testing.T) {
	var first, third MemorySink
	boom := errors.New("boom")
	ms := MultiSink{&first, SinkFunc(func(context.Context, Artifact) error { return boom }), &third}

	err := ms.Emit(context.Background(), New("a.md", "A"))
	require.ErrorIs(t, err, boom)
	assert.Len(t, first.Artifacts(), 1)
	assert.Empty(t, third.Artifacts())
}

func TestFileSink_WritesAndSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSink(dir)
	ctx := context.Background()

	require.NoError(t, s.Emit(ctx, New("sub/f.md", "content")))
	target := filepath.Join(dir, "sub", "f.md")
	b, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "content", string(b))

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(target, old, old))

	require.NoError(t, s.Emit(ctx, New("sub/f.md", "content")))
	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.WithinDuration(t, old, info.ModTime(), time.Second)
	assert.Equal(t, 1, s.Written())
	assert.Equal(t, 1, s.Unchanged())

	require.NoError(t, s.Emit(ctx, New("sub/f.md", "changed")))
	b, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "changed", string(b))
	assert.Equal(t, 2, s.Written())
}

func TestFileSink_RejectsEscapingNames(t *testing.T) {
	s := NewFileSink(t.TempDir())
	require.Error(t, s.Emit(context.Background(), New("../outside.md", "x")))
}

func TestFingerprint_Stable(t *testing.T) {
	assert.Equal(t, Fingerprint("abc"), Fingerprint("abc"))
	assert.NotEqual(t, Fingerprint("abc"), Fingerprint("abd"))
}
