package match

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docstage/internal/errors"
)

func TestNilSpecIncludesEverything(t *testing.T) {
	var s *Spec
	assert.True(t, s.Includes("/anything"))

	compiled, err := Compile(nil)
	require.NoError(t, err)
	assert.Nil(t, compiled)
	assert.True(t, compiled.Includes("/x"))
}

func TestPattern(t *testing.T) {
	s, err := Compile(regexp.MustCompile(`foo$`))
	require.NoError(t, err)
	assert.True(t, s.Includes("x/foo"))
	assert.False(t, s.Includes("x/foobar"))
}

func TestExactStrings(t *testing.T) {
	s, err := Compile([]any{"a.js", "c.js"})
	require.NoError(t, err)
	assert.True(t, s.Includes("a.js"))
	assert.True(t, s.Includes("c.js"))
	assert.False(t, s.Includes("b.js"))
	assert.False(t, s.Includes("xa.js"))
	assert.False(t, s.Includes("a.jsx"))
}

func TestSingleStringNormalizesToCollection(t *testing.T) {
	s, err := Compile("/src/a.js")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Includes("/src/a.js"))
	assert.False(t, s.Includes("/src/b.js"))
}

func TestMixedCollection(t *testing.T) {
	s, err := Compile([]any{"/src/a.js", regexp.MustCompile(`nent-[bc]\.js$`)})
	require.NoError(t, err)
	assert.True(t, s.Includes("/src/a.js"))
	assert.True(t, s.Includes("/src/component-b.js"))
	assert.True(t, s.Includes("/src/dir/component-c.js"))
	assert.False(t, s.Includes("/src/component-d.js"))
	assert.Equal(t, `["/src/a.js", /nent-[bc]\.js$/]`, s.String())
}

func TestTypedSlices(t *testing.T) {
	s, err := Compile([]string{"a", "b"})
	require.NoError(t, err)
	assert.True(t, s.Includes("b"))

	s, err = Compile([]*regexp.Regexp{regexp.MustCompile(`^a`), regexp.MustCompile(`^b`)})
	require.NoError(t, err)
	assert.True(t, s.Includes("bx"))
	assert.False(t, s.Includes("cx"))
}

func TestInvalidElements(t *testing.T) {
	cases := []struct {
		name string
		v    any
	}{
		{"number", 42},
		{"bool in collection", []any{"a.js", true}},
		{"nil pattern in collection", []any{(*regexp.Regexp)(nil)}},
		{"nested collection", []any{[]any{"a"}}},
		{"zero element", []Element{{}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Compile(c.v)
			require.Error(t, err)
			assert.True(t, derrors.IsCategory(err, derrors.CategoryConfig))
			assert.Contains(t, err.Error(), "match spec element must be a string or a pattern")
		})
	}
}

func TestOrderDoesNotChangeResult(t *testing.T) {
	a, err := New(Exact("x"), Pattern(regexp.MustCompile(`y$`)))
	require.NoError(t, err)
	b, err := New(Pattern(regexp.MustCompile(`y$`)), Exact("x"))
	require.NoError(t, err)
	for _, id := range []string{"x", "ay", "z", "xy"} {
		assert.Equal(t, a.Includes(id), b.Includes(id), id)
	}
}
