package pathfix

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Entry is one file or directory of the pack, identified by its pack-rooted
// path ("/assets/x.png") as it was when the tree was built.
type Entry struct {
	Path  string
	Ext   string
	IsDir bool
}

// Dir returns the directory references from e are resolved against: the
// parent of a file, or the directory itself.
func (e Entry) Dir() string {
	if e.IsDir {
		return e.Path
	}
	return path.Dir(e.Path)
}

// Stem returns the last element of the path without its extension.
func (e Entry) Stem() string {
	return stem(e.Path)
}

func stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, extOf(base))
}

// Tree is a snapshot of every entry under a root taken once, plus an overlay
// recording where each entry currently lives. The original side never changes
// after BuildTree; all mutation goes through Update.
type Tree struct {
	fs      afero.Fs
	root    string
	entries []Entry
	// original maps pack-rooted path to index in entries
	original map[string]int
	current  []string
}

// BuildTree walks root on fsys and records every path below it, in lexical
// walk order.
func BuildTree(fsys afero.Fs, root string) (*Tree, error) {
	info, err := fsys.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidPrecondition, root)
	}

	t := &Tree{
		fs:       fsys,
		root:     filepath.Clean(root),
		original: make(map[string]int),
	}
	err = afero.Walk(fsys, t.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == t.root {
			return nil
		}
		rel, err := filepath.Rel(t.root, p)
		if err != nil {
			return err
		}
		packPath := "/" + filepath.ToSlash(rel)
		e := Entry{Path: packPath, IsDir: info.IsDir()}
		if !e.IsDir {
			e.Ext = extOf(packPath)
		}
		t.original[packPath] = len(t.entries)
		t.entries = append(t.entries, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	t.current = make([]string, len(t.entries))
	for i, e := range t.entries {
		t.current[i] = e.Path
	}
	return t, nil
}

// Fs returns the filesystem the tree was built from.
func (t *Tree) Fs() afero.Fs {
	return t.fs
}

// Root returns the directory the tree was built from.
func (t *Tree) Root() string {
	return t.root
}

func (t *Tree) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the entries in enumeration order.
func (t *Tree) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Entry returns the entry at index i.
func (t *Tree) Entry(i int) Entry {
	return t.entries[i]
}

// Lookup finds an entry by its original pack-rooted path.
func (t *Tree) Lookup(packPath string) (Entry, bool) {
	i, ok := t.original[packPath]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Index returns the index of the entry with the given original path.
func (t *Tree) Index(packPath string) (int, bool) {
	i, ok := t.original[packPath]
	return i, ok
}

// Current returns the current path of the entry at index i.
func (t *Tree) Current(i int) string {
	return t.current[i]
}

// Update records that e now lives at newPath.
func (t *Tree) Update(e Entry, newPath string) error {
	i, ok := t.original[e.Path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntry, e.Path)
	}
	t.current[i] = newPath
	return nil
}

// Snapshot returns a copy of the current overlay, indexed like Entries.
func (t *Tree) Snapshot() []string {
	out := make([]string, len(t.current))
	copy(out, t.current)
	return out
}

// SystemPath converts a pack-rooted path into a path on the tree's filesystem.
func (t *Tree) SystemPath(packPath string) (string, error) {
	if !strings.HasPrefix(packPath, "/") {
		return "", fmt.Errorf("%w: %q is not pack-rooted", ErrInvalidPrecondition, packPath)
	}
	return filepath.Join(t.root, filepath.FromSlash(packPath)), nil
}
