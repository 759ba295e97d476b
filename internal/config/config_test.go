package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docstage/internal/artifact"
	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/extract"
	"git.home.luguber.info/inful/docstage/internal/indexes"
	"git.home.luguber.info/inful/docstage/internal/pathresolve"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("inputs: [./src]\n"))
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, defaultOutputDir, cfg.Output.Directory)
	assert.True(t, cfg.Sinks.FilesystemEnabled())
	assert.Equal(t, extract.DefaultKinds(), cfg.Extract.Kinds)
	assert.Positive(t, cfg.Extract.Concurrency)
	assert.Equal(t, "segments", cfg.Stage.RootMode)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)

	d, err := cfg.DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)
	i, err := cfg.IntervalDuration()
	require.NoError(t, err)
	assert.Zero(t, i)
}

func TestParse_FullDocument(t *testing.T) {
	t.Setenv("DOCSTAGE_NATS", "nats://broker:4222")
	cfg, err := Parse([]byte(`
version: "1.0"
inputs: [./cmd/app/main.go]
output:
  directory: ./out
sinks:
  filesystem: false
  nats:
    url: ${DOCSTAGE_NATS}
stage:
  match:
    - /src/a.js
    - exact: /src/b.js
    - pattern: 'nent-[bc]\.js$'
  prefix: ./api/
  intro: "Intro"
  outro: "See {{.Name}}"
  index: true
  replace:
    pattern: '@(\w+)'
    replacement: '$1'
  root_mode: characters
watch:
  debounce: 2s
  interval: 10m
logging:
  level: DEBUG
  format: json
`))
	require.NoError(t, err)

	assert.False(t, cfg.Sinks.FilesystemEnabled())
	require.NotNil(t, cfg.Sinks.NATS)
	assert.Equal(t, "nats://broker:4222", cfg.Sinks.NATS.URL)
	assert.Equal(t, defaultNATSSubject, cfg.Sinks.NATS.Subject)
	assert.Equal(t, []MatchElement{{Exact: "/src/a.js"}, {Exact: "/src/b.js"}, {Pattern: `nent-[bc]\.js$`}}, cfg.Stage.Match)
	assert.Equal(t, IndexOption{Enabled: true}, cfg.Stage.Index)
	assert.Equal(t, "$1", cfg.Stage.Replace.Replacement)
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)

	iv, err := cfg.IntervalDuration()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, iv)

	opts, err := cfg.Stage.Compile()
	require.NoError(t, err)
	assert.Equal(t, "api", opts.Prefix)
	assert.Equal(t, pathresolve.RootCharacters, opts.RootMode)
	assert.True(t, opts.Index.Enabled())
	assert.True(t, opts.Match.Includes("/src/a.js"))
	assert.True(t, opts.Match.Includes("/src/b.js"))
	assert.True(t, opts.Match.Includes("/x/component-c.js"))
	assert.False(t, opts.Match.Includes("/src/d.js"))
	assert.Equal(t, "see x", opts.Replace.Apply("see @x"))

	assert.False(t, opts.Intro.IsDynamic())
	intro, err := opts.Intro.Resolve("/p/a.go")
	require.NoError(t, err)
	assert.Equal(t, "Intro", intro)

	assert.True(t, opts.Outro.IsDynamic())
	outro, err := opts.Outro.Resolve("/p/http_client.go")
	require.NoError(t, err)
	assert.Equal(t, "See http_client", outro)
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name     string
		doc      string
		category derrors.ErrorCategory
	}{
		{"no inputs", "stage: {}\n", derrors.CategoryValidation},
		{"bad yaml", "inputs: [\n", derrors.CategoryConfig},
		{"bad version", "version: \"9\"\ninputs: [a]\n", derrors.CategoryConfig},
		{"match element is a sequence", "inputs: [a]\nstage:\n  match:\n    - [x]\n", derrors.CategoryConfig},
		{"match element names both", "inputs: [a]\nstage:\n  match:\n    - {exact: a, pattern: b}\n", derrors.CategoryConfig},
		{"match element names neither", "inputs: [a]\nstage:\n  match:\n    - {other: a}\n", derrors.CategoryConfig},
		{"bad match pattern", "inputs: [a]\nstage:\n  match:\n    - pattern: '('\n", derrors.CategoryConfig},
		{"bad template", "inputs: [a]\nstage:\n  intro: '{{.ID'\n", derrors.CategoryConfig},
		{"absolute prefix", "inputs: [a]\nstage:\n  prefix: /abs\n", derrors.CategoryConfig},
		{"bad root mode", "inputs: [a]\nstage:\n  root_mode: bytes\n", derrors.CategoryConfig},
		{"replace without pattern", "inputs: [a]\nstage:\n  replace: {replacement: x}\n", derrors.CategoryConfig},
		{"index mapping", "inputs: [a]\nstage:\n  index: {a: b}\n", derrors.CategoryConfig},
		{"bad debounce", "inputs: [a]\nwatch:\n  debounce: soon\n", derrors.CategoryValidation},
		{"nats without url", "inputs: [a]\nsinks:\n  nats: {subject: x}\n", derrors.CategoryValidation},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.doc))
			require.Error(t, err)
			assert.True(t, derrors.IsCategory(err, c.category), "got %v", err)
		})
	}
}

func TestParse_GitOnly(t *testing.T) {
	cfg, err := Parse([]byte("git:\n  url: https://example.com/repo.git\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Git.Depth)
}

func TestCompile_IndexTemplate(t *testing.T) {
	s := StageConfig{Index: IndexOption{Enabled: true, Template: "# {{title .Title}} ({{.Dir}})"}}
	opts, err := s.Compile()
	require.NoError(t, err)
	require.True(t, opts.Index.Enabled())

	var sinkContent []string
	e := indexes.NewEmitter(contentCollector(&sinkContent), opts.Index, "/src/http-client", "", nil, nil)
	_, err = e.EmitAncestors(t.Context(), "conn_pool")
	require.NoError(t, err)
	assert.Equal(t, []string{"# Conn Pool (conn_pool)", "# Http Client ()"}, sinkContent)
}

func contentCollector(out *[]string) artifact.Sink {
	return artifact.SinkFunc(func(_ context.Context, a artifact.Artifact) error {
		*out = append(*out, a.Content)
		return nil
	})
}

func TestCompile_IndexDisabled(t *testing.T) {
	opts, err := StageConfig{}.Compile()
	require.NoError(t, err)
	assert.False(t, opts.Index.Enabled())
	assert.Nil(t, opts.Match)
	assert.Nil(t, opts.Replace)
	assert.Equal(t, pathresolve.RootSegments, opts.RootMode)
}

func TestCompile_DynamicWrapData(t *testing.T) {
	opts, err := StageConfig{Intro: "{{.Dir}}|{{base .ID}}|{{lower .Name}}|{{title .Name}}"}.Compile()
	require.NoError(t, err)
	got, err := opts.Intro.Resolve("/src/pkg/Mux_router.go")
	require.NoError(t, err)
	assert.Equal(t, "/src/pkg|Mux_router.go|mux_router|Mux Router", got)

	opts, err = StageConfig{Outro: "{{.Missing}}"}.Compile()
	require.NoError(t, err)
	_, err = opts.Outro.Resolve("/src/a.go")
	require.Error(t, err)
}

func TestIndexOption_YAML(t *testing.T) {
	for doc, want := range map[string]IndexOption{
		"inputs: [a]\nstage: {index: true}\n":          {Enabled: true},
		"inputs: [a]\nstage: {index: false}\n":         {},
		"inputs: [a]\nstage: {index: '# {{.Title}}'}\n": {Enabled: true, Template: "# {{.Title}}"},
		"inputs: [a]\nstage: {index: \"false\"}\n":      {},
		"inputs: [a]\nstage: {index: 'True'}\n":         {Enabled: true},
	} {
		cfg, err := Parse([]byte(doc))
		require.NoError(t, err, doc)
		assert.Equal(t, want, cfg.Stage.Index, doc)
	}
}

func TestParse_ReplaceNamedCapture(t *testing.T) {
	t.Setenv("word", "from-env")
	cfg, err := Parse([]byte(`
inputs: [./src]
stage:
  replace:
    pattern: '(?P<word>TODO)'
    replacement: '**$${word}** ${word}'
`))
	require.NoError(t, err)
	assert.Equal(t, "**${word}** from-env", cfg.Stage.Replace.Replacement)

	opts, err := cfg.Stage.Compile()
	require.NoError(t, err)
	assert.Equal(t, "a **TODO** from-env b", opts.Replace.Apply("a TODO b"))
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("DOCSTAGE_HOST", "broker")
	assert.Equal(t, "nats://broker $1 ${x} $HOME", string(expandEnv([]byte("nats://${DOCSTAGE_HOST} $1 $${x} $HOME"))))
	assert.Equal(t, "", string(expandEnv([]byte("${DOCSTAGE_UNSET_FOR_TEST}"))))
}

func TestLoad_EnvFilesAndRelativePaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOCSTAGE_PREFIX_PRESET", "kept")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DOCSTAGE_TEST_INPUT=src\nDOCSTAGE_PREFIX_PRESET=overridden\n"), 0o600))
	path := filepath.Join(dir, "docstage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
inputs: ["./${DOCSTAGE_TEST_INPUT}"]
stage:
  prefix: ${DOCSTAGE_PREFIX_PRESET}
output:
  directory: out
state:
  path: state.db
`), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("DOCSTAGE_TEST_INPUT") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "src")}, cfg.Inputs)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Output.Directory)
	assert.Equal(t, filepath.Join(dir, "state.db"), cfg.State.Path)
	assert.Equal(t, "kept", cfg.Stage.Prefix)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryConfig))
}

func TestInit_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docstage.yaml")
	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Example().Stage.Match, cfg.Stage.Match)
	assert.Equal(t, IndexOption{Enabled: true}, cfg.Stage.Index)

	opts, err := cfg.Stage.Compile()
	require.NoError(t, err)
	assert.True(t, opts.Intro.IsDynamic())
	assert.Equal(t, "reference", opts.Prefix)
}

func TestNormalizeLogging(t *testing.T) {
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel("Warning"))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("loud"))
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat(" JSON "))
	assert.Equal(t, LogFormatText, NormalizeLogFormat("xml"))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Http Client Pool", titleCase("http-client_pool"))
	assert.Equal(t, "Already Titled", titleCase("already titled"))
}
