package config

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/indexes"
	"git.home.luguber.info/inful/docstage/internal/match"
	"git.home.luguber.info/inful/docstage/internal/pathresolve"
	"git.home.luguber.info/inful/docstage/internal/stage"
)

// StageConfig is the YAML view of the transform stage options.
type StageConfig struct {
	Match    []MatchElement `yaml:"match,omitempty"`
	Prefix   string         `yaml:"prefix,omitempty"`
	Intro    string         `yaml:"intro,omitempty"`
	Outro    string         `yaml:"outro,omitempty"`
	Index    IndexOption    `yaml:"index,omitempty"`
	Replace  *ReplaceConfig `yaml:"replace,omitempty"`
	RootMode string         `yaml:"root_mode,omitempty"`
}

// MatchElement is one entry of the match list. A bare scalar is an exact
// module id; a mapping names either `exact` or `pattern`.
type MatchElement struct {
	Exact   string `yaml:"exact,omitempty"`
	Pattern string `yaml:"pattern,omitempty"`
}

func (m *MatchElement) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		m.Exact = node.Value
		return nil
	case yaml.MappingNode:
		type plain MatchElement
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*m = MatchElement(p)
		return nil
	default:
		return fmt.Errorf("line %d: match element must be a string or a mapping", node.Line)
	}
}

func (m MatchElement) compile(i int) (match.Element, error) {
	switch {
	case m.Exact != "" && m.Pattern == "":
		return match.Exact(m.Exact), nil
	case m.Pattern != "" && m.Exact == "":
		re, err := regexp.Compile(m.Pattern)
		if err != nil {
			return match.Element{}, derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal, "invalid match pattern").
				WithContext("index", i).WithContext("pattern", m.Pattern)
		}
		return match.Pattern(re), nil
	default:
		return match.Element{}, derrors.MatchElementInvalid(i, m)
	}
}

// IndexOption is `true`, `false` or a content template rendered per directory
// with {{.Dir}} and {{.Title}}. The strings "true" and "false" count as booleans.
type IndexOption struct {
	Enabled  bool
	Template string
}

func (o *IndexOption) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: index must be a boolean or a template string", node.Line)
	}
	if node.Tag == "!!bool" {
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*o = IndexOption{Enabled: b}
		return nil
	}
	// a quoted boolean is still a switch, not a template
	switch strings.ToLower(strings.TrimSpace(node.Value)) {
	case "true":
		*o = IndexOption{Enabled: true}
		return nil
	case "false":
		*o = IndexOption{}
		return nil
	}
	*o = IndexOption{Enabled: node.Value != "", Template: node.Value}
	return nil
}

func (o IndexOption) MarshalYAML() (any, error) {
	if o.Template != "" {
		return o.Template, nil
	}
	return o.Enabled, nil
}

// IsZero keeps a disabled index out of marshalled output.
func (o IndexOption) IsZero() bool { return !o.Enabled && o.Template == "" }

// ReplaceConfig rewrites extracted text before wrapping. Named captures in
// Replacement are written $${name} so environment expansion leaves them.
type ReplaceConfig struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// Compile turns the YAML view into validated stage options. Template
// strings become dynamic providers; plain strings stay static.
func (s StageConfig) Compile() (stage.Options, error) {
	var opts stage.Options

	if len(s.Match) > 0 {
		elems := make([]match.Element, 0, len(s.Match))
		for i, m := range s.Match {
			el, err := m.compile(i)
			if err != nil {
				return stage.Options{}, err
			}
			elems = append(elems, el)
		}
		spec, err := match.New(elems...)
		if err != nil {
			return stage.Options{}, err
		}
		opts.Match = spec
	}

	prefix, err := pathresolve.NormalizePrefix(s.Prefix)
	if err != nil {
		return stage.Options{}, err
	}
	opts.Prefix = prefix

	if opts.Intro, err = wrapFromString("intro", s.Intro); err != nil {
		return stage.Options{}, err
	}
	if opts.Outro, err = wrapFromString("outro", s.Outro); err != nil {
		return stage.Options{}, err
	}

	switch {
	case s.Index.Template != "":
		fn, err := indexTemplate(s.Index.Template)
		if err != nil {
			return stage.Options{}, err
		}
		opts.Index = indexes.Func(fn)
	case s.Index.Enabled:
		opts.Index = indexes.DefaultTitle()
	default:
		opts.Index = indexes.Disabled()
	}

	if s.Replace != nil {
		if s.Replace.Pattern == "" {
			return stage.Options{}, derrors.ConfigInvalid("stage.replace.pattern", "replace requires a pattern")
		}
		re, err := regexp.Compile(s.Replace.Pattern)
		if err != nil {
			return stage.Options{}, derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal, "invalid replace pattern").
				WithContext("pattern", s.Replace.Pattern)
		}
		opts.Replace = &stage.Replace{Pattern: re, Replacement: s.Replace.Replacement}
	}

	mode, err := pathresolve.ParseRootMode(s.RootMode)
	if err != nil {
		return stage.Options{}, err
	}
	opts.RootMode = mode
	return opts, nil
}
