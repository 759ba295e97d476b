// Package pathresolve computes the build root from entry inputs and maps
// module identifiers onto logical artifact paths below that root.
//
// Module identifiers and the root are filesystem paths. Everything returned
// for the artifact namespace is slash separated and relative, with the empty
// string standing for the top of the namespace.
package pathresolve

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/docstage/internal/artifact"
	derrors "git.home.luguber.info/inful/docstage/internal/errors"
)

// RootMode selects how the common root of several entry inputs is found.
type RootMode string

const (
	// RootSegments takes the deepest directory shared by every input's parent.
	RootSegments RootMode = "segments"
	// RootCharacters takes the literal common character prefix of the inputs.
	// /a/bc/x.js and /a/bd/y.js yield /a/b even though no such directory is shared.
	RootCharacters RootMode = "characters"
)

// ParseRootMode maps a configuration value onto a RootMode. Empty means RootSegments.
func ParseRootMode(raw string) (RootMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(RootSegments):
		return RootSegments, nil
	case string(RootCharacters):
		return RootCharacters, nil
	default:
		return "", derrors.ConfigInvalid("root_mode", fmt.Sprintf("unknown root mode %q", raw))
	}
}

// ComputeRoot returns the directory every artifact path is made relative to.
func ComputeRoot(inputs []string, mode RootMode) (string, error) {
	if len(inputs) == 0 {
		return "", derrors.NoEntryInputs()
	}
	abs := make([]string, len(inputs))
	for i, in := range inputs {
		a, err := filepath.Abs(in)
		if err != nil {
			return "", derrors.ConfigInvalid("inputs", fmt.Sprintf("cannot resolve entry input %q: %v", in, err))
		}
		abs[i] = a
	}
	if len(abs) == 1 {
		return filepath.Dir(abs[0]), nil
	}
	if mode == RootCharacters {
		return characterRoot(abs), nil
	}
	return segmentRoot(abs), nil
}

// LayoutRoot returns the directory artifact paths are made relative to. It is
// root itself when root contains every input, and root's parent otherwise,
// which happens when a character root ends inside a path segment.
func LayoutRoot(root string, inputs []string) string {
	for _, in := range inputs {
		a, err := filepath.Abs(in)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(root, a)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.Dir(root)
		}
	}
	return root
}

func characterRoot(abs []string) string {
	n := len(abs[0])
	for _, a := range abs[1:] {
		n = min(n, len(a))
	}
	i := 0
scan:
	for ; i < n; i++ {
		c := abs[0][i]
		for _, a := range abs[1:] {
			if a[i] != c {
				break scan
			}
		}
	}
	// never split a multi-byte character
	for i > 0 && i < len(abs[0]) && !utf8.RuneStart(abs[0][i]) {
		i--
	}
	prefix := abs[0][:i]
	if prefix == "" {
		return fsRoot(abs[0])
	}
	resolved, err := filepath.Abs(prefix)
	if err != nil {
		return filepath.Clean(prefix)
	}
	return resolved
}

func segmentRoot(abs []string) string {
	sep := string(filepath.Separator)
	common := strings.Split(filepath.Dir(abs[0]), sep)
	for _, a := range abs[1:] {
		segs := strings.Split(filepath.Dir(a), sep)
		k := 0
		for k < len(common) && k < len(segs) && common[k] == segs[k] {
			k++
		}
		common = common[:k]
	}
	root := strings.Join(common, sep)
	if !strings.Contains(root, sep) {
		root += sep
	}
	return root
}

func fsRoot(p string) string {
	return filepath.VolumeName(p) + string(filepath.Separator)
}

// Location is the logical directory and base name (without extension) of an artifact.
type Location struct {
	Dir  string
	Base string
}

// FileName joins the location with the documentation extension.
func (l Location) FileName() string {
	return path.Join(l.Dir, l.Base+artifact.Extension)
}

// ArtifactPath maps moduleID onto join(prefix, rel(root, moduleID)) with the
// extension replaced by the documentation extension. prefix must already be
// normalised with NormalizePrefix.
func ArtifactPath(moduleID, root, prefix string) (Location, error) {
	if !filepath.IsAbs(moduleID) {
		return Location{}, fmt.Errorf("module id must be an absolute path: %q", moduleID)
	}
	rel, err := filepath.Rel(root, moduleID)
	if err != nil {
		return Location{}, fmt.Errorf("module %q is not relative to root %q: %w", moduleID, root, err)
	}
	joined := path.Join(prefix, filepath.ToSlash(rel))
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return Location{}, fmt.Errorf("module %q lies outside root %q", moduleID, root)
	}
	base := path.Base(joined)
	name := strings.TrimSuffix(base, path.Ext(base))
	if name == "" {
		name = base
	}
	return Location{Dir: Clean(path.Dir(joined)), Base: name}, nil
}

// NormalizePrefix cleans a configured prefix into a logical directory.
// Absolute prefixes and prefixes leaving the output root are rejected.
func NormalizePrefix(raw string) (string, error) {
	p := filepath.ToSlash(strings.TrimSpace(raw))
	if p == "" {
		return "", nil
	}
	if strings.HasPrefix(p, "/") || filepath.IsAbs(raw) {
		return "", derrors.ConfigInvalid("prefix", "prefix must be a relative directory")
	}
	p = Clean(p)
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", derrors.ConfigInvalid("prefix", "prefix must stay inside the output directory")
	}
	return p, nil
}

// Clean is path.Clean with "." mapped to the empty top directory.
func Clean(dir string) string {
	c := path.Clean(dir)
	if c == "." {
		return ""
	}
	return c
}

// Parent returns the logical parent of dir. The parent of a top level directory is "".
func Parent(dir string) string {
	if dir == "" {
		return ""
	}
	return Clean(path.Dir(dir))
}

// IsStrictAncestor reports whether dir lies strictly above other.
func IsStrictAncestor(dir, other string) bool {
	if dir == other {
		return false
	}
	return dir == "" || strings.HasPrefix(other, dir+"/")
}

// Depth counts the segments of a logical directory. Depth("") is 0.
func Depth(dir string) int {
	if dir == "" {
		return 0
	}
	return strings.Count(dir, "/") + 1
}
