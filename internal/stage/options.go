package stage

import (
	"regexp"

	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/indexes"
	"git.home.luguber.info/inful/docstage/internal/match"
	"git.home.luguber.info/inful/docstage/internal/pathresolve"
)

// WrapFunc produces intro or outro text for one module.
type WrapFunc func(moduleID string) (string, error)

// Wrap is text placed before (intro) or after (outro) extracted documentation.
// A static wrap is a fixed string; a dynamic wrap is evaluated for every module.
type Wrap struct {
	static string
	fn     WrapFunc
}

// Static wraps with a fixed string. The empty string adds nothing.
func Static(s string) Wrap { return Wrap{static: s} }

// Dynamic wraps with the result of fn, invoked once per documented module.
func Dynamic(fn WrapFunc) Wrap { return Wrap{fn: fn} }

// WrapOf converts the loosely typed shapes a caller may pass: nil, a string,
// func(string) string, a WrapFunc or a Wrap. Anything else is a configuration error.
func WrapOf(field string, v any) (Wrap, error) {
	switch t := v.(type) {
	case nil:
		return Wrap{}, nil
	case Wrap:
		return t, nil
	case string:
		return Static(t), nil
	case WrapFunc:
		if t == nil {
			return Wrap{}, derrors.WrapInvalid(field, v)
		}
		return Dynamic(t), nil
	case func(string) (string, error):
		if t == nil {
			return Wrap{}, derrors.WrapInvalid(field, v)
		}
		return Dynamic(t), nil
	case func(string) string:
		if t == nil {
			return Wrap{}, derrors.WrapInvalid(field, v)
		}
		return Dynamic(func(id string) (string, error) { return t(id), nil }), nil
	default:
		return Wrap{}, derrors.WrapInvalid(field, v)
	}
}

// IsDynamic reports whether the wrap is re-evaluated per module.
func (w Wrap) IsDynamic() bool { return w.fn != nil }

// Resolve returns the wrap text for moduleID.
func (w Wrap) Resolve(moduleID string) (string, error) {
	if w.fn != nil {
		return w.fn(moduleID)
	}
	return w.static, nil
}

// Replace substitutes every match of Pattern in extracted text.
// Replacement may reference capture groups as $1 or ${name}. In a config
// file ${name} is an environment reference; write $${name} there instead.
type Replace struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Apply performs the substitution.
func (r *Replace) Apply(s string) string {
	if r == nil || r.Pattern == nil {
		return s
	}
	return r.Pattern.ReplaceAllString(s, r.Replacement)
}

// Options is the validated configuration of a Stage.
type Options struct {
	// Match limits documentation to matching module ids. nil documents everything.
	Match *match.Spec
	// Prefix is the logical directory every artifact is placed under.
	Prefix string
	Intro  Wrap
	Outro  Wrap
	// Index controls per-directory index synthesis. The zero value disables it.
	Index    indexes.Provider
	Replace  *Replace
	RootMode pathresolve.RootMode
}

// normalize validates o and returns a copy with canonical values.
func (o Options) normalize() (Options, error) {
	prefix, err := pathresolve.NormalizePrefix(o.Prefix)
	if err != nil {
		return Options{}, err
	}
	o.Prefix = prefix
	if o.RootMode == "" {
		o.RootMode = pathresolve.RootSegments
	}
	if _, err := pathresolve.ParseRootMode(string(o.RootMode)); err != nil {
		return Options{}, err
	}
	if o.Replace != nil && o.Replace.Pattern == nil {
		return Options{}, derrors.ConfigInvalid("replace.pattern", "replace requires a pattern")
	}
	return o, nil
}
