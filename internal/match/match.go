// Package match decides which modules are documented. A Spec is an ordered
// list of exact identifiers and regular expressions; a module is included when
// any element matches it.
package match

import (
	"fmt"
	"regexp"
	"strings"

	derrors "git.home.luguber.info/inful/docstage/internal/errors"
)

type elementKind int

const (
	kindInvalid elementKind = iota
	kindExact
	kindPattern
)

// Element is one alternative of a Spec.
type Element struct {
	kind  elementKind
	exact string
	re    *regexp.Regexp
}

// Exact matches a module identifier by string equality.
func Exact(id string) Element {
	return Element{kind: kindExact, exact: id}
}

// Pattern matches when re finds a match anywhere in the identifier.
func Pattern(re *regexp.Regexp) Element {
	if re == nil {
		return Element{}
	}
	return Element{kind: kindPattern, re: re}
}

// Matches reports whether the element accepts id.
func (e Element) Matches(id string) bool {
	switch e.kind {
	case kindExact:
		return e.exact == id
	case kindPattern:
		return e.re.MatchString(id)
	default:
		return false
	}
}

func (e Element) String() string {
	switch e.kind {
	case kindExact:
		return fmt.Sprintf("%q", e.exact)
	case kindPattern:
		return "/" + e.re.String() + "/"
	default:
		return "<invalid>"
	}
}

// Spec is a compiled match specification. A nil *Spec includes everything.
type Spec struct {
	elems []Element
}

// New validates elems into a Spec.
func New(elems ...Element) (*Spec, error) {
	for i, e := range elems {
		if e.kind == kindInvalid {
			return nil, derrors.MatchElementInvalid(i, nil)
		}
	}
	return &Spec{elems: append([]Element(nil), elems...)}, nil
}

// Compile accepts the loosely typed shapes a caller may configure: a string,
// a *regexp.Regexp, an Element, or a slice of those. nil yields a nil Spec.
// Anything else is a configuration error.
func Compile(v any) (*Spec, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *Spec:
		return t, nil
	case []any:
		elems := make([]Element, 0, len(t))
		for i, item := range t {
			e, ok := elementOf(item)
			if !ok {
				return nil, derrors.MatchElementInvalid(i, item)
			}
			elems = append(elems, e)
		}
		return New(elems...)
	case []string:
		elems := make([]Element, len(t))
		for i, s := range t {
			elems[i] = Exact(s)
		}
		return New(elems...)
	case []*regexp.Regexp:
		elems := make([]Element, len(t))
		for i, re := range t {
			elems[i] = Pattern(re)
		}
		return New(elems...)
	case []Element:
		return New(t...)
	default:
		e, ok := elementOf(v)
		if !ok {
			return nil, derrors.MatchElementInvalid(0, v)
		}
		return New(e)
	}
}

func elementOf(v any) (Element, bool) {
	switch t := v.(type) {
	case string:
		return Exact(t), true
	case *regexp.Regexp:
		if t == nil {
			return Element{}, false
		}
		return Pattern(t), true
	case Element:
		return t, t.kind != kindInvalid
	default:
		return Element{}, false
	}
}

// Includes reports whether id passes the filter.
func (s *Spec) Includes(id string) bool {
	if s == nil {
		return true
	}
	for _, e := range s.elems {
		if e.Matches(id) {
			return true
		}
	}
	return false
}

// Len returns the number of alternatives.
func (s *Spec) Len() int {
	if s == nil {
		return 0
	}
	return len(s.elems)
}

func (s *Spec) String() string {
	if s == nil {
		return "*"
	}
	parts := make([]string, len(s.elems))
	for i, e := range s.elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
