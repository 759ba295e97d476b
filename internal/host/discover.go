package host

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/util/sets"
)

// dirEntryName stands in for an entry file directly inside a directory input,
// so the directory itself becomes a candidate root.
const dirEntryName = ".entry"

// Discoverer lists the modules under a set of inputs.
type Discoverer struct {
	// Handles reports whether a file is a module. nil accepts every file.
	Handles func(path string) bool
	// Exclude names directories that are never descended into.
	Exclude []string
}

// Discover returns the absolute paths of every module under inputs, sorted
// and without duplicates. File inputs are modules when Handles accepts them.
func (d *Discoverer) Discover(ctx context.Context, inputs []string) ([]string, error) {
	found := sets.New[string]()
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return nil, derrors.WorkspaceError("resolve input", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, derrors.WorkspaceError("stat input", err).WithContext("input", in)
		}
		if !info.IsDir() {
			if d.handles(abs) {
				found.Add(abs)
			}
			continue
		}
		err = filepath.WalkDir(abs, func(p string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if entry.IsDir() {
				if p != abs && d.excluded(entry.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if entry.Type().IsRegular() && d.handles(p) {
				found.Add(p)
			}
			return nil
		})
		if err != nil {
			return nil, derrors.WorkspaceError("walk input", err).WithContext("input", in)
		}
	}
	return sets.Sorted(found), nil
}

func (d *Discoverer) handles(p string) bool {
	return d.Handles == nil || d.Handles(p)
}

func (d *Discoverer) excluded(name string) bool {
	return slices.Contains(d.Exclude, name) || (strings.HasPrefix(name, ".") && name != "." && name != "..")
}

// EntryPoints maps inputs to the entry paths used for root computation.
// A directory input contributes a path directly inside itself.
func EntryPoints(inputs []string) ([]string, error) {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return nil, derrors.WorkspaceError("resolve input", err)
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			abs = filepath.Join(abs, dirEntryName)
		}
		out = append(out, abs)
	}
	return out, nil
}
